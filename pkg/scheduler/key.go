package scheduler

import (
	"fmt"
	"strings"
)

// DefaultGroup is the group used when a key is built without one.
const DefaultGroup = "DEFAULT"

// JobKey uniquely identifies a JobDetail within a scheduler.
type JobKey struct {
	Name  string `json:"name"`
	Group string `json:"group"`
}

// NewJobKey returns a JobKey, the group falls back to DefaultGroup.
func NewJobKey(name string, group ...string) JobKey {
	return JobKey{Name: name, Group: groupOf(group)}
}

func (k JobKey) String() string {
	return k.Group + "." + k.Name
}

// Compare orders keys by group, then by name.
func (k JobKey) Compare(o JobKey) int {
	return compareKey(k.Group, k.Name, o.Group, o.Name)
}

// TriggerKey uniquely identifies a Trigger within a scheduler.
type TriggerKey struct {
	Name  string `json:"name"`
	Group string `json:"group"`
}

// NewTriggerKey returns a TriggerKey, the group falls back to DefaultGroup.
func NewTriggerKey(name string, group ...string) TriggerKey {
	return TriggerKey{Name: name, Group: groupOf(group)}
}

func (k TriggerKey) String() string {
	return k.Group + "." + k.Name
}

func (k TriggerKey) Compare(o TriggerKey) int {
	return compareKey(k.Group, k.Name, o.Group, o.Name)
}

func groupOf(group []string) string {
	if len(group) > 0 && group[0] != "" {
		return group[0]
	}
	return DefaultGroup
}

func compareKey(g1, n1, g2, n2 string) int {
	if c := strings.Compare(g1, g2); c != 0 {
		return c
	}
	return strings.Compare(n1, n2)
}

type MatchOperator string

const (
	MatchEquals     MatchOperator = "equals"
	MatchStartsWith MatchOperator = "starts_with"
	MatchEndsWith   MatchOperator = "ends_with"
	MatchContains   MatchOperator = "contains"
	MatchAny        MatchOperator = "any"
)

// GroupMatcher selects keys by their group.
type GroupMatcher struct {
	Operator MatchOperator `json:"operator"`
	Value    string        `json:"value,omitempty"`
}

func GroupEquals(group string) GroupMatcher {
	return GroupMatcher{Operator: MatchEquals, Value: group}
}

func GroupStartsWith(prefix string) GroupMatcher {
	return GroupMatcher{Operator: MatchStartsWith, Value: prefix}
}

func GroupEndsWith(suffix string) GroupMatcher {
	return GroupMatcher{Operator: MatchEndsWith, Value: suffix}
}

func GroupContains(s string) GroupMatcher {
	return GroupMatcher{Operator: MatchContains, Value: s}
}

func AnyGroup() GroupMatcher {
	return GroupMatcher{Operator: MatchAny}
}

// Match reports whether group is selected by the matcher.
func (m GroupMatcher) Match(group string) bool {
	switch m.Operator {
	case MatchEquals:
		return group == m.Value
	case MatchStartsWith:
		return strings.HasPrefix(group, m.Value)
	case MatchEndsWith:
		return strings.HasSuffix(group, m.Value)
	case MatchContains:
		return strings.Contains(group, m.Value)
	case MatchAny:
		return true
	}
	return false
}

func (m GroupMatcher) String() string {
	if m.Operator == MatchAny {
		return "any group"
	}
	return fmt.Sprintf("group %s %q", m.Operator, m.Value)
}
