package workflow

import (
	"github.com/crochee/jobflow/pkg/scheduler"
)

// Resolver maps scheduler names used in rules and conditions to scheduler handles.
type Resolver interface {
	// Scheduler returns the named scheduler, the empty name meaning the default one.
	Scheduler(name string) (scheduler.Scheduler, error)

	// Schedulers returns every registered scheduler ordered by name.
	Schedulers() []scheduler.Scheduler
}

// defaultResolver answers the empty name with a fixed scheduler and everything
// else from a registry of named schedulers.
type defaultResolver struct {
	named    Resolver
	fallback scheduler.Scheduler
}

func (r defaultResolver) Scheduler(name string) (scheduler.Scheduler, error) {
	if name == "" {
		if r.fallback == nil {
			return nil, ErrNoDefaultScheduler
		}
		return r.fallback, nil
	}
	return r.named.Scheduler(name)
}

func (r defaultResolver) Schedulers() []scheduler.Scheduler {
	return r.named.Schedulers()
}

// WithDefault returns a resolver falling back to s for unnamed lookups.
func WithDefault(named Resolver, s scheduler.Scheduler) Resolver {
	return defaultResolver{named: named, fallback: s}
}

// targetSchedulers resolves the schedulers a group rule applies to.
func targetSchedulers(r Resolver, target GroupTarget, name string) ([]scheduler.Scheduler, error) {
	switch target {
	case TargetAllSchedulers:
		return r.Schedulers(), nil
	case TargetAllSchedulersExcept:
		if _, err := r.Scheduler(name); err != nil {
			return nil, err
		}
		all := r.Schedulers()
		list := make([]scheduler.Scheduler, 0, len(all))
		for _, s := range all {
			if s.Name() != name {
				list = append(list, s)
			}
		}
		return list, nil
	}
	s, err := r.Scheduler(name)
	if err != nil {
		return nil, err
	}
	return []scheduler.Scheduler{s}, nil
}
