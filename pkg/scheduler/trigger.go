package scheduler

import (
	"fmt"
	"time"
)

// DefaultPriority is given to triggers built without an explicit priority.
const DefaultPriority = 5

// MisfireInstruction tells a scheduler what to do with a firing it missed.
type MisfireInstruction int

const (
	// MisfireSmart lets the scheduler pick, fire now for one-shot triggers and
	// skip to the next firing for recurring ones.
	MisfireSmart MisfireInstruction = iota
	// MisfireIgnore fires the missed firing as soon as possible, keeping its scheduled time.
	MisfireIgnore
	MisfireFireNow
	MisfireDoNothing
)

func (m MisfireInstruction) String() string {
	switch m {
	case MisfireSmart:
		return "smart"
	case MisfireIgnore:
		return "ignore"
	case MisfireFireNow:
		return "fire_now"
	case MisfireDoNothing:
		return "do_nothing"
	}
	return fmt.Sprintf("misfire(%d)", int(m))
}

// Trigger represents the mechanism by which a stored job gets fired.
type Trigger struct {
	Key                TriggerKey         `json:"key"`
	JobKey             JobKey             `json:"job_key"`
	Description        string             `json:"description,omitempty"`
	Priority           int                `json:"priority"`
	StartTime          time.Time          `json:"start_time"`
	EndTime            time.Time          `json:"end_time,omitempty"`
	Schedule           Schedule           `json:"schedule"`
	MisfireInstruction MisfireInstruction `json:"misfire_instruction"`
	Data               JobDataMap         `json:"data,omitempty"`
}

type TriggerOption func(*Trigger)

func WithPriority(priority int) TriggerOption {
	return func(t *Trigger) {
		t.Priority = priority
	}
}

func WithStartTime(at time.Time) TriggerOption {
	return func(t *Trigger) {
		t.StartTime = at
	}
}

func WithEndTime(at time.Time) TriggerOption {
	return func(t *Trigger) {
		t.EndTime = at
	}
}

func WithSchedule(s Schedule) TriggerOption {
	return func(t *Trigger) {
		t.Schedule = s
	}
}

func WithMisfireInstruction(m MisfireInstruction) TriggerOption {
	return func(t *Trigger) {
		t.MisfireInstruction = m
	}
}

func WithTriggerData(data JobDataMap) TriggerOption {
	return func(t *Trigger) {
		t.Data = data.Merge()
	}
}

func WithTriggerDescription(desc string) TriggerOption {
	return func(t *Trigger) {
		t.Description = desc
	}
}

// NewTrigger returns a trigger firing once, immediately, unless options say otherwise.
func NewTrigger(key TriggerKey, jobKey JobKey, opts ...TriggerOption) *Trigger {
	t := &Trigger{
		Key:       key,
		JobKey:    jobKey,
		Priority:  DefaultPriority,
		StartTime: time.Now(),
		Schedule:  RunOnce(),
		Data:      JobDataMap{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Clone copies the trigger, the data map is not shared.
func (t *Trigger) Clone() *Trigger {
	c := *t
	c.Data = t.Data.Merge()
	return &c
}

// FirstFireTime returns the first time the trigger fires, ok is false when it never does.
func (t *Trigger) FirstFireTime() (time.Time, bool) {
	return t.within(t.Schedule.Next(t.StartTime, time.Time{}, 0))
}

// FireTimeAfter returns the fire time following prev.
func (t *Trigger) FireTimeAfter(prev time.Time, fired int) (time.Time, bool) {
	return t.within(t.Schedule.Next(t.StartTime, prev, fired))
}

func (t *Trigger) within(next time.Time, ok bool) (time.Time, bool) {
	if !ok {
		return time.Time{}, false
	}
	if !t.EndTime.IsZero() && next.After(t.EndTime) {
		return time.Time{}, false
	}
	return next, true
}

func (t *Trigger) String() string {
	return fmt.Sprintf("trigger %s for job %s (%s)", t.Key, t.JobKey, t.Schedule.Description())
}
