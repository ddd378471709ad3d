package memory

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/crochee/jobflow/pkg/json"
	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/scheduler"
)

type jobRecord struct {
	// detail is stored without its data, data holds the encoded job data.
	detail    *scheduler.JobDetail
	data      []byte
	triggers  map[scheduler.TriggerKey]struct{}
	executing int
}

type triggerRecord struct {
	trigger *scheduler.Trigger
	data    []byte
	gen     uint64
	next    time.Time
	prev    time.Time
	fired   int
}

func encodeData(data scheduler.JobDataMap) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "encode data map")
	}
	return b, nil
}

func decodeData(b []byte) (scheduler.JobDataMap, error) {
	data := scheduler.JobDataMap{}
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, errors.Wrap(err, "decode data map")
	}
	return data, nil
}

func newJobRecord(job *scheduler.JobDetail) (*jobRecord, error) {
	data, err := encodeData(job.Data)
	if err != nil {
		return nil, &scheduler.PersistenceError{Op: "store job", Key: job.Key.String(), Err: err}
	}
	detail := *job
	detail.Data = nil
	return &jobRecord{
		detail:   &detail,
		data:     data,
		triggers: make(map[scheduler.TriggerKey]struct{}),
	}, nil
}

func (s *Scheduler) newTriggerRecordLocked(trigger *scheduler.Trigger) (*triggerRecord, error) {
	if err := trigger.Schedule.Validate(); err != nil {
		return nil, errors.Wrapf(err, "trigger %s", trigger.Key)
	}
	first, ok := trigger.FirstFireTime()
	if !ok {
		return nil, errors.Errorf("trigger %s will never fire", trigger.Key)
	}
	data, err := encodeData(trigger.Data)
	if err != nil {
		return nil, &scheduler.PersistenceError{Op: "store trigger", Key: trigger.Key.String(), Err: err}
	}
	t := *trigger
	t.Data = nil
	s.gen++
	return &triggerRecord{trigger: &t, data: data, gen: s.gen, next: first}, nil
}

func (s *Scheduler) ScheduleJob(ctx context.Context, trigger *scheduler.Trigger) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return time.Time{}, scheduler.ErrSchedulerShutdown
	}
	job, ok := s.jobs[trigger.JobKey]
	if !ok {
		return time.Time{}, &scheduler.PersistenceError{
			Op:  "store trigger",
			Key: trigger.Key.String(),
			Err: errors.Wrapf(scheduler.ErrJobNotFound, "job %s", trigger.JobKey),
		}
	}
	if _, ok = s.triggers[trigger.Key]; ok {
		return time.Time{}, scheduler.AlreadyExists("trigger", trigger.Key)
	}
	rec, err := s.newTriggerRecordLocked(trigger)
	if err != nil {
		return time.Time{}, err
	}
	s.storeTriggerLocked(job, rec)
	logger.From(ctx).Debug("trigger scheduled",
		zap.String("scheduler", s.name),
		zap.Stringer("trigger", trigger.Key),
		zap.Time("first_fire_time", rec.next))
	return rec.next, nil
}

// ScheduleJobs validates the whole batch before storing anything.
func (s *Scheduler) ScheduleJobs(ctx context.Context, jobs map[*scheduler.JobDetail][]*scheduler.Trigger,
	replace bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return scheduler.ErrSchedulerShutdown
	}
	jobRecords := make(map[*scheduler.JobDetail]*jobRecord, len(jobs))
	triggerRecords := make(map[*scheduler.JobDetail][]*triggerRecord, len(jobs))
	seenJobs := make(map[scheduler.JobKey]struct{}, len(jobs))
	seenTriggers := make(map[scheduler.TriggerKey]struct{})
	for job, triggers := range jobs {
		if _, ok := seenJobs[job.Key]; ok {
			return scheduler.AlreadyExists("job", job.Key)
		}
		seenJobs[job.Key] = struct{}{}
		if _, ok := s.jobs[job.Key]; ok && !replace {
			return scheduler.AlreadyExists("job", job.Key)
		}
		jr, err := newJobRecord(job)
		if err != nil {
			return err
		}
		jobRecords[job] = jr
		for _, trigger := range triggers {
			if trigger.JobKey != job.Key {
				return errors.Errorf("trigger %s references job %s, not %s", trigger.Key, trigger.JobKey, job.Key)
			}
			if _, ok := seenTriggers[trigger.Key]; ok {
				return scheduler.AlreadyExists("trigger", trigger.Key)
			}
			seenTriggers[trigger.Key] = struct{}{}
			if _, ok := s.triggers[trigger.Key]; ok && !replace {
				return scheduler.AlreadyExists("trigger", trigger.Key)
			}
			tr, err := s.newTriggerRecordLocked(trigger)
			if err != nil {
				return err
			}
			triggerRecords[job] = append(triggerRecords[job], tr)
		}
	}
	for job, jr := range jobRecords {
		if old, ok := s.jobs[job.Key]; ok {
			jr.triggers = old.triggers
		}
		s.jobs[job.Key] = jr
		for _, tr := range triggerRecords[job] {
			if old, ok := s.triggers[tr.trigger.Key]; ok {
				s.removeTriggerLocked(old)
				s.jobs[job.Key] = jr
			}
			s.storeTriggerLocked(jr, tr)
		}
	}
	logger.From(ctx).Debug("jobs stored", zap.String("scheduler", s.name), zap.Int("count", len(jobs)))
	return nil
}

func (s *Scheduler) AddJob(ctx context.Context, job *scheduler.JobDetail, replace,
	storeNonDurableWhileAwaitingScheduling bool) error {
	if !job.Durable && !storeNonDurableWhileAwaitingScheduling {
		return errors.Errorf("job %s added with no trigger must be durable", job.Key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return scheduler.ErrSchedulerShutdown
	}
	old, ok := s.jobs[job.Key]
	if ok && !replace {
		return scheduler.AlreadyExists("job", job.Key)
	}
	jr, err := newJobRecord(job)
	if err != nil {
		return err
	}
	if ok {
		jr.triggers = old.triggers
		jr.executing = old.executing
	}
	s.jobs[job.Key] = jr
	return nil
}

func (s *Scheduler) DeleteJobs(ctx context.Context, keys []scheduler.JobKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := true
	for _, key := range keys {
		job, ok := s.jobs[key]
		if !ok {
			all = false
			continue
		}
		for tk := range job.triggers {
			s.removeEntryLocked(tk)
			delete(s.triggers, tk)
		}
		delete(s.jobs, key)
	}
	return all, nil
}

func (s *Scheduler) GetJobKeys(ctx context.Context, matcher scheduler.GroupMatcher) ([]scheduler.JobKey, error) {
	s.mu.Lock()
	keys := make([]scheduler.JobKey, 0, len(s.jobs))
	for key := range s.jobs {
		if matcher.Match(key.Group) {
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Compare(keys[j]) < 0
	})
	return keys, nil
}

func (s *Scheduler) CheckExists(ctx context.Context, key scheduler.JobKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[key]
	return ok, nil
}

func (s *Scheduler) UnscheduleJob(ctx context.Context, key scheduler.TriggerKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.triggers[key]
	if !ok {
		return false, nil
	}
	s.removeTriggerLocked(rec)
	return true, nil
}

// Trigger returns a copy of a stored trigger with its data.
func (s *Scheduler) Trigger(key scheduler.TriggerKey) (*scheduler.Trigger, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.triggers[key]
	if !ok {
		return nil, false
	}
	data, err := decodeData(rec.data)
	if err != nil {
		return nil, false
	}
	t := *rec.trigger
	t.Data = data
	return &t, true
}

// TriggerKeys returns the keys of the stored triggers of a job.
func (s *Scheduler) TriggerKeys(key scheduler.JobKey) []scheduler.TriggerKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[key]
	if !ok {
		return nil
	}
	keys := make([]scheduler.TriggerKey, 0, len(job.triggers))
	for tk := range job.triggers {
		keys = append(keys, tk)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Compare(keys[j]) < 0
	})
	return keys
}

func (s *Scheduler) storeTriggerLocked(job *jobRecord, rec *triggerRecord) {
	s.triggers[rec.trigger.Key] = rec
	job.triggers[rec.trigger.Key] = struct{}{}
	s.addEntryLocked(rec)
}

// removeTriggerLocked deletes a trigger, a non durable job left without
// triggers goes with it.
func (s *Scheduler) removeTriggerLocked(rec *triggerRecord) {
	key := rec.trigger.Key
	s.removeEntryLocked(key)
	delete(s.triggers, key)
	job, ok := s.jobs[rec.trigger.JobKey]
	if !ok {
		return
	}
	delete(job.triggers, key)
	if !job.detail.Durable && len(job.triggers) == 0 {
		delete(s.jobs, rec.trigger.JobKey)
	}
}
