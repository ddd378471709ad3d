package scheduler

import (
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// JobDataMap holds the state attached to a JobDetail or a Trigger.
// Values must survive a JSON round trip, schedulers are free to persist them.
type JobDataMap map[string]interface{}

// Clone returns a shallow copy, nil stays nil.
func (m JobDataMap) Clone() JobDataMap {
	if m == nil {
		return nil
	}
	c := make(JobDataMap, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Merge returns a new map holding m overlaid by others, later maps win.
func (m JobDataMap) Merge(others ...JobDataMap) JobDataMap {
	c := make(JobDataMap, len(m))
	for k, v := range m {
		c[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			c[k] = v
		}
	}
	return c
}

func (m JobDataMap) GetString(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt reads an integer whatever numeric shape decoding gave it.
func (m JobDataMap) GetInt(key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case jsoniter.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case interface{ Int64() (int64, error) }:
		// json.Number from a decoder using UseNumber
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
