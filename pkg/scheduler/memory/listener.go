package memory

import (
	"sort"

	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"

	"github.com/crochee/jobflow/pkg/scheduler"
)

type listenerManager struct {
	listeners cmap.ConcurrentMap
}

func newListenerManager() *listenerManager {
	return &listenerManager{listeners: cmap.New()}
}

func (m *listenerManager) AddJobListener(l scheduler.JobListener) error {
	if l.Name() == "" {
		return errors.New("job listener has no name")
	}
	m.listeners.Set(l.Name(), l)
	return nil
}

func (m *listenerManager) JobListener(name string) (scheduler.JobListener, bool) {
	v, ok := m.listeners.Get(name)
	if !ok {
		return nil, false
	}
	l, ok := v.(scheduler.JobListener)
	return l, ok
}

func (m *listenerManager) RemoveJobListener(name string) bool {
	if !m.listeners.Has(name) {
		return false
	}
	m.listeners.Remove(name)
	return true
}

// snapshot returns the listeners ordered by name.
func (m *listenerManager) snapshot() []scheduler.JobListener {
	items := m.listeners.Items()
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)
	list := make([]scheduler.JobListener, 0, len(names))
	for _, name := range names {
		if l, ok := items[name].(scheduler.JobListener); ok {
			list = append(list, l)
		}
	}
	return list
}
