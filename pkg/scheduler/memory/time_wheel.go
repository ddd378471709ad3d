package memory

import (
	"container/list"
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/crochee/jobflow/pkg/idx"
	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/routine"
	"github.com/crochee/jobflow/pkg/scheduler"
)

type entry struct {
	key    scheduler.TriggerKey
	gen    uint64
	circle int
}

// Scheduler is an in-memory scheduler.Scheduler firing triggers from a time wheel.
type Scheduler struct {
	name       string
	instanceID string

	interval time.Duration // 指针每隔多久往前移动一格
	slots    []*list.List  // 时间轮槽
	// key: trigger key value: 所在的槽, 主要用于删除
	timerMap cmap.ConcurrentMap
	cur      int // 当前指针指向哪一个槽
	slotSum  int // 槽数量

	mu       sync.Mutex
	jobs     map[scheduler.JobKey]*jobRecord
	triggers map[scheduler.TriggerKey]*triggerRecord
	gen      uint64
	pool     *routine.Pool
	shutdown bool

	listeners        *listenerManager
	nowFunc          func() time.Time
	misfireThreshold time.Duration
	onListenerError  ListenerErrorHandler
	fireSeq          uint64
}

// Verify Scheduler satisfies the scheduler.Scheduler interface.
var _ scheduler.Scheduler = (*Scheduler)(nil)

func New(name string, opts ...Option) *Scheduler {
	o := &option{
		interval:         100 * time.Millisecond,
		slotNum:          1024,
		nowFunc:          time.Now,
		misfireThreshold: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.instanceID == "" {
		o.instanceID = uuid.NewV4().String()
	}
	s := &Scheduler{
		name:             name,
		instanceID:       o.instanceID,
		interval:         o.interval,
		slots:            make([]*list.List, o.slotNum),
		timerMap:         cmap.New(),
		cur:              o.slotNum - 1,
		slotSum:          o.slotNum,
		jobs:             make(map[scheduler.JobKey]*jobRecord),
		triggers:         make(map[scheduler.TriggerKey]*triggerRecord),
		listeners:        newListenerManager(),
		nowFunc:          o.nowFunc,
		misfireThreshold: o.misfireThreshold,
		onListenerError:  o.onListenerError,
	}
	for i := 0; i < s.slotSum; i++ {
		s.slots[i] = list.New()
	}
	return s
}

func (s *Scheduler) Name() string {
	return s.name
}

func (s *Scheduler) InstanceID() string {
	return s.instanceID
}

func (s *Scheduler) ListenerManager() scheduler.ListenerManager {
	return s.listeners
}

// Start runs the wheel until ctx is done, then waits for running jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.pool != nil {
		s.mu.Unlock()
		return errors.Errorf("scheduler %s already started", s.name)
	}
	if s.shutdown {
		s.mu.Unlock()
		return scheduler.ErrSchedulerShutdown
	}
	s.pool = routine.NewPool(ctx, routine.Recover(func(ctx context.Context, i interface{}) {
		logger.From(ctx).Error("recover",
			zap.Any("error", i),
			zap.ByteString("stack", debug.Stack()))
	}))
	s.mu.Unlock()
	logger.From(ctx).Info("scheduler started",
		zap.String("scheduler", s.name),
		zap.String("instance", s.instanceID))

	ticker := time.NewTicker(s.interval)
	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			s.mu.Lock()
			s.shutdown = true
			s.mu.Unlock()
			s.pool.Wait()
			return ctx.Err()
		case <-ticker.C:
			s.handler(ctx)
		}
	}
}

func (s *Scheduler) handler(ctx context.Context) {
	s.mu.Lock()
	s.cur = (s.cur + 1) % s.slotSum
	due := s.scanLocked(s.slots[s.cur])
	s.mu.Unlock()
	for _, e := range due {
		s.fire(ctx, e)
	}
}

// 扫描链表中到期的定时器
func (s *Scheduler) scanLocked(l *list.List) []*entry {
	var due []*entry
	for e := l.Front(); e != nil; {
		task, ok := e.Value.(*entry)
		if !ok { // 清除脏数据
			next := e.Next()
			l.Remove(e)
			e = next
			continue
		}
		if task.circle > 0 {
			task.circle--
			e = e.Next()
			continue
		}
		next := e.Next()
		l.Remove(e)
		if v, found := s.timerMap.Get(task.key.String()); found {
			if pos, ok := v.(int); ok && pos == s.cur {
				s.timerMap.Remove(task.key.String())
			}
		}
		due = append(due, task)
		e = next
	}
	return due
}

// 获取定时器在槽中的位置, 时间轮需要转动的圈数
func (s *Scheduler) getPositionAndCircle(d time.Duration) (int, int) {
	steps := int64((d + s.interval - 1) / s.interval)
	if steps < 1 {
		steps = 1
	}
	pos := (int64(s.cur) + steps) % int64(s.slotSum)
	circle := (steps - 1) / int64(s.slotSum)
	return int(pos), int(circle)
}

// addEntryLocked puts the trigger's next firing on the wheel.
func (s *Scheduler) addEntryLocked(rec *triggerRecord) {
	pos, circle := s.getPositionAndCircle(rec.next.Sub(s.nowFunc()))
	s.timerMap.Set(rec.trigger.Key.String(), pos)
	s.slots[pos].PushBack(&entry{key: rec.trigger.Key, gen: rec.gen, circle: circle})
}

// retryEntryLocked postpones a firing by one tick.
func (s *Scheduler) retryEntryLocked(e *entry) {
	pos, _ := s.getPositionAndCircle(s.interval)
	e.circle = 0
	s.timerMap.Set(e.key.String(), pos)
	s.slots[pos].PushBack(e)
}

// removeEntryLocked drops the wheel entry of a trigger.
func (s *Scheduler) removeEntryLocked(key scheduler.TriggerKey) {
	value, found := s.timerMap.Get(key.String())
	if !found {
		return
	}
	s.timerMap.Remove(key.String())
	pos, ok := value.(int)
	if !ok {
		return
	}
	l := s.slots[pos]
	for e := l.Front(); e != nil; {
		task, ok := e.Value.(*entry)
		if !ok || task.key == key {
			next := e.Next()
			l.Remove(e)
			e = next
			continue
		}
		e = e.Next()
	}
}

func (s *Scheduler) fire(ctx context.Context, e *entry) {
	s.mu.Lock()
	rec, ok := s.triggers[e.key]
	if !ok || rec.gen != e.gen {
		s.mu.Unlock()
		return
	}
	job, ok := s.jobs[rec.trigger.JobKey]
	if !ok {
		s.removeTriggerLocked(rec)
		s.mu.Unlock()
		return
	}
	if job.detail.ConcurrentExecutionDisallowed && job.executing > 0 {
		s.retryEntryLocked(e)
		s.mu.Unlock()
		return
	}
	now := s.nowFunc()
	scheduled := rec.next
	if now.Sub(scheduled) > s.misfireThreshold {
		var fireNow bool
		if scheduled, fireNow = s.misfireLocked(rec, now); !fireNow {
			s.mu.Unlock()
			return
		}
	}
	rec.fired++
	previous := rec.prev
	rec.prev = scheduled
	if next, more := rec.trigger.FireTimeAfter(scheduled, rec.fired); more {
		rec.next = next
		s.addEntryLocked(rec)
	} else {
		rec.next = time.Time{}
	}
	jc, err := s.newExecutionContextLocked(job, rec, now, scheduled, previous)
	if err != nil {
		s.mu.Unlock()
		logger.From(ctx).Error("build execution context failed",
			zap.String("scheduler", s.name),
			zap.Stringer("trigger", rec.trigger.Key),
			zap.Error(err))
		return
	}
	job.executing++
	gen := rec.gen
	pool := s.pool
	s.mu.Unlock()

	pool.Go(ctx, func(ctx context.Context) {
		s.execute(ctx, jc, job, gen)
	})
}

// misfireLocked applies the trigger's misfire instruction, it returns the
// scheduled time to fire with and whether to fire at all.
func (s *Scheduler) misfireLocked(rec *triggerRecord, now time.Time) (time.Time, bool) {
	t := rec.trigger
	recurring := t.Schedule.Kind == scheduler.CronSchedule || t.Schedule.RepeatCount != 0
	switch t.MisfireInstruction {
	case scheduler.MisfireIgnore:
		return rec.next, true
	case scheduler.MisfireFireNow:
		return now, true
	case scheduler.MisfireSmart:
		if !recurring {
			return now, true
		}
	}
	next, ok := t.Schedule.NextAfter(t.StartTime, now, rec.fired)
	if !ok || (!t.EndTime.IsZero() && next.After(t.EndTime)) {
		s.removeTriggerLocked(rec)
		return time.Time{}, false
	}
	rec.next = next
	s.addEntryLocked(rec)
	return time.Time{}, false
}

func (s *Scheduler) newExecutionContextLocked(job *jobRecord, rec *triggerRecord,
	now, scheduled, previous time.Time) (*scheduler.ExecutionContext, error) {
	jobData, err := decodeData(job.data)
	if err != nil {
		return nil, err
	}
	triggerData, err := decodeData(rec.data)
	if err != nil {
		return nil, err
	}
	detail := *job.detail
	detail.Data = jobData
	trigger := *rec.trigger
	trigger.Data = triggerData
	return &scheduler.ExecutionContext{
		Scheduler:         s,
		Trigger:           &trigger,
		JobDetail:         &detail,
		MergedData:        jobData.Merge(triggerData),
		FireInstanceID:    s.nextFireInstanceID(),
		FireTime:          now,
		ScheduledFireTime: scheduled,
		PreviousFireTime:  previous,
		NextFireTime:      rec.next,
	}, nil
}

func (s *Scheduler) nextFireInstanceID() string {
	id, err := idx.NextString()
	if err != nil {
		return fmt.Sprintf("%s-%d", s.instanceID, atomic.AddUint64(&s.fireSeq, 1))
	}
	return id
}

func (s *Scheduler) execute(ctx context.Context, jc *scheduler.ExecutionContext, job *jobRecord, gen uint64) {
	log := logger.From(ctx).With(
		zap.String("scheduler", s.name),
		zap.Stringer("job", jc.JobDetail.Key),
		zap.Stringer("trigger", jc.Trigger.Key))
	jobErr := s.run(ctx, jc)
	if jobErr != nil {
		log.Error("job execution failed", zap.Error(jobErr))
	}
	for _, l := range s.listeners.snapshot() {
		if err := s.notify(ctx, l, jc, jobErr); err != nil {
			log.Error("job listener failed", zap.String("listener", l.Name()), zap.Error(err))
			if s.onListenerError != nil {
				s.onListenerError(ctx, l.Name(), jc, err)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job.executing--
	if jc.MayFireAgain() {
		return
	}
	if rec, ok := s.triggers[jc.Trigger.Key]; ok && rec.gen == gen {
		s.removeTriggerLocked(rec)
	}
}

func (s *Scheduler) run(ctx context.Context, jc *scheduler.ExecutionContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = multierr.Append(err, fmt.Errorf("[Recover] found:%v,trace:\n%s", r, debug.Stack()))
		}
	}()
	return jc.JobDetail.Job.Execute(ctx, jc)
}

func (s *Scheduler) notify(ctx context.Context, l scheduler.JobListener, jc *scheduler.ExecutionContext,
	jobErr error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("[Recover] found:%v,trace:\n%s", r, debug.Stack())
		}
	}()
	return l.JobWasExecuted(ctx, jc, jobErr)
}
