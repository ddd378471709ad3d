package scheduler

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

type ScheduleKind string

const (
	SimpleSchedule ScheduleKind = "simple"
	CronSchedule   ScheduleKind = "cron"
)

// RepeatForever makes a simple schedule repeat without bound.
const RepeatForever = -1

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Schedule describes when a Trigger fires. It is a plain value so that triggers
// holding it can be persisted.
type Schedule struct {
	Kind ScheduleKind `json:"kind"`
	// Interval and RepeatCount are used by simple schedules, RepeatCount is the
	// number of firings after the first one.
	Interval    time.Duration `json:"interval,omitempty"`
	RepeatCount int           `json:"repeat_count,omitempty"`
	// Expression and TimeZone are used by cron schedules.
	Expression string `json:"expression,omitempty"`
	TimeZone   string `json:"time_zone,omitempty"`
}

// RunOnce fires a single time at the trigger's start time.
func RunOnce() Schedule {
	return Schedule{Kind: SimpleSchedule}
}

// Every fires at the start time and then every interval, forever.
func Every(interval time.Duration) Schedule {
	return Schedule{Kind: SimpleSchedule, Interval: interval, RepeatCount: RepeatForever}
}

// Repeat fires at the start time and then count more times.
func Repeat(interval time.Duration, count int) Schedule {
	return Schedule{Kind: SimpleSchedule, Interval: interval, RepeatCount: count}
}

func Cron(expr string) Schedule {
	return Schedule{Kind: CronSchedule, Expression: expr}
}

func (s Schedule) InTimeZone(tz string) Schedule {
	s.TimeZone = tz
	return s
}

func (s Schedule) Validate() error {
	switch s.Kind {
	case SimpleSchedule, "":
		if s.RepeatCount != 0 && s.Interval <= 0 {
			return errors.Errorf("repeating schedule needs a positive interval, got %s", s.Interval)
		}
		if s.RepeatCount < RepeatForever {
			return errors.Errorf("invalid repeat count %d", s.RepeatCount)
		}
		return nil
	case CronSchedule:
		_, _, err := s.parse()
		return err
	}
	return errors.Errorf("unknown schedule kind %q", s.Kind)
}

// Next returns the fire time following prev, prev being zero for the first firing
// and fired the number of firings so far. ok is false once the schedule is exhausted.
func (s Schedule) Next(start, prev time.Time, fired int) (time.Time, bool) {
	switch s.Kind {
	case SimpleSchedule, "":
		if prev.IsZero() {
			return start, true
		}
		if s.RepeatCount != RepeatForever && fired > s.RepeatCount {
			return time.Time{}, false
		}
		if s.Interval <= 0 {
			return time.Time{}, false
		}
		return prev.Add(s.Interval), true
	case CronSchedule:
		sched, loc, err := s.parse()
		if err != nil {
			return time.Time{}, false
		}
		from := prev
		if from.IsZero() {
			// first firing may happen exactly at start
			from = start.Add(-time.Nanosecond)
		}
		next := sched.Next(from.In(loc))
		if next.IsZero() {
			return time.Time{}, false
		}
		return next, true
	}
	return time.Time{}, false
}

// NextAfter skips firings up to and including after, used for misfires.
func (s Schedule) NextAfter(start, after time.Time, fired int) (time.Time, bool) {
	switch s.Kind {
	case CronSchedule:
		return s.Next(start, after, fired)
	default:
		if s.Interval <= 0 {
			return time.Time{}, false
		}
		if after.Before(start) {
			return start, true
		}
		steps := int(after.Sub(start)/s.Interval) + 1
		if s.RepeatCount != RepeatForever && steps > s.RepeatCount {
			return time.Time{}, false
		}
		return start.Add(time.Duration(steps) * s.Interval), true
	}
}

func (s Schedule) parse() (cron.Schedule, *time.Location, error) {
	loc := time.UTC
	if s.TimeZone != "" {
		var err error
		if loc, err = time.LoadLocation(s.TimeZone); err != nil {
			return nil, nil, errors.Wrapf(err, "load time zone %s", s.TimeZone)
		}
	}
	sched, err := cronParser.Parse(s.Expression)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parse cron %q", s.Expression)
	}
	return sched, loc, nil
}

func (s Schedule) Description() string {
	if s.Kind == CronSchedule {
		return fmt.Sprintf("cron %q", s.Expression)
	}
	switch s.RepeatCount {
	case 0:
		return "once"
	case RepeatForever:
		return fmt.Sprintf("every %s", s.Interval)
	}
	return fmt.Sprintf("every %s, %d more times", s.Interval, s.RepeatCount)
}
