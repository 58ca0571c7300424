package overrides

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ConfigTree is a nested configuration payload. Nested trees are
// map[string]any values; everything else is treated as an opaque leaf.
type ConfigTree = map[string]any

// PluginOptions pairs a base configuration with an ordered list of conditional
// overrides. The order of Overrides is significant: later matches win.
type PluginOptions struct {
	Config    ConfigTree `json:"config,omitempty"`
	Overrides []Override `json:"overrides,omitempty"`
}

// ParsedOptions is the validated state produced by Manager.Init. Config holds
// the parsed base configuration and Overrides the unmerged override deltas.
type ParsedOptions = PluginOptions

// Override is a conditional configuration delta. Config must be non-nil; an
// empty tree is a valid no-op override.
type Override struct {
	Criteria
	Config ConfigTree `json:"config"`
}

// Criteria declares the conditions under which an override applies. Zero-value
// fields are wildcards.
type Criteria struct {
	Level    LevelConditions `json:"level,omitempty"`
	User     IDList          `json:"user,omitempty"`
	Channel  IDList          `json:"channel,omitempty"`
	Category IDList          `json:"category,omitempty"`
	Thread   IDList          `json:"thread,omitempty"`
	Role     IDList          `json:"role,omitempty"`
	IsThread *bool           `json:"is_thread,omitempty"`
	All      []Criteria      `json:"all,omitempty"`
	Any      []Criteria      `json:"any,omitempty"`
	Not      *Criteria       `json:"not,omitempty"`
	Extra    map[string]any  `json:"extra,omitempty"`
}

// IsZero reports whether no criterion is declared.
func (c Criteria) IsZero() bool {
	return len(c.Level) == 0 && len(c.User) == 0 && len(c.Channel) == 0 &&
		len(c.Category) == 0 && len(c.Thread) == 0 && len(c.Role) == 0 &&
		c.IsThread == nil && c.All == nil && c.Any == nil && c.Not == nil &&
		len(c.Extra) == 0
}

// IDList is a set of identifiers. It decodes from a single string or number as
// well as from a list of them.
type IDList []string

// Contains reports whether id is a member of the list.
func (l IDList) Contains(id string) bool {
	if id == "" {
		return false
	}
	for _, candidate := range l {
		if candidate == id {
			return true
		}
	}
	return false
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *IDList) UnmarshalJSON(data []byte) error {
	var raw any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return err
	}
	switch typed := raw.(type) {
	case nil:
		*l = nil
		return nil
	case []any:
		out := make(IDList, 0, len(typed))
		for _, item := range typed {
			id, err := idString(item)
			if err != nil {
				return err
			}
			out = append(out, id)
		}
		*l = out
		return nil
	default:
		id, err := idString(typed)
		if err != nil {
			return err
		}
		*l = IDList{id}
		return nil
	}
}

func idString(value any) (string, error) {
	switch typed := value.(type) {
	case string:
		return typed, nil
	case json.Number:
		return typed.String(), nil
	default:
		return "", fmt.Errorf("expected id string or number, got %T", value)
	}
}

// LevelCondition compares a permission level against Value using Op.
type LevelCondition struct {
	Op    string
	Value int
}

// Supported level operators. A bare number means OpAtLeast.
const (
	OpAtLeast  = ">="
	OpAbove    = ">"
	OpAtMost   = "<="
	OpBelow    = "<"
	OpEqual    = "="
	OpNotEqual = "!"
)

// AtLeast is shorthand for the common minimum-level condition.
func AtLeast(level int) LevelConditions {
	return LevelConditions{{Op: OpAtLeast, Value: level}}
}

// Matches reports whether level satisfies the condition.
func (c LevelCondition) Matches(level int) bool {
	switch c.Op {
	case OpAbove:
		return level > c.Value
	case OpAtMost:
		return level <= c.Value
	case OpBelow:
		return level < c.Value
	case OpEqual:
		return level == c.Value
	case OpNotEqual:
		return level != c.Value
	default:
		return level >= c.Value
	}
}

// ParseLevelCondition parses "50", ">=50", "<50", "=50" and friends.
func ParseLevelCondition(input string) (LevelCondition, error) {
	value := strings.TrimSpace(input)
	op := OpAtLeast
	for _, candidate := range []string{OpAtLeast, OpAtMost, OpAbove, OpBelow, OpEqual, OpNotEqual} {
		if strings.HasPrefix(value, candidate) {
			op = candidate
			value = strings.TrimSpace(strings.TrimPrefix(value, candidate))
			break
		}
	}
	level, err := strconv.Atoi(value)
	if err != nil {
		return LevelCondition{}, fmt.Errorf("invalid level condition %q", input)
	}
	return LevelCondition{Op: op, Value: level}, nil
}

// LevelConditions must all hold for the level criterion to match.
type LevelConditions []LevelCondition

// Matches reports whether level satisfies every condition.
func (l LevelConditions) Matches(level int) bool {
	for _, condition := range l {
		if !condition.Matches(level) {
			return false
		}
	}
	return true
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *LevelConditions) UnmarshalJSON(data []byte) error {
	var raw any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return err
	}
	items, ok := raw.([]any)
	if !ok {
		if raw == nil {
			*l = nil
			return nil
		}
		items = []any{raw}
	}
	out := make(LevelConditions, 0, len(items))
	for _, item := range items {
		var condition LevelCondition
		var err error
		switch typed := item.(type) {
		case json.Number:
			condition, err = ParseLevelCondition(typed.String())
		case string:
			condition, err = ParseLevelCondition(typed)
		default:
			err = fmt.Errorf("expected level number or string, got %T", item)
		}
		if err != nil {
			return err
		}
		out = append(out, condition)
	}
	*l = out
	return nil
}

// MarshalJSON renders conditions in their string form.
func (l LevelConditions) MarshalJSON() ([]byte, error) {
	out := make([]string, len(l))
	for i, condition := range l {
		op := condition.Op
		if op == "" {
			op = OpAtLeast
		}
		out[i] = op + strconv.Itoa(condition.Value)
	}
	return json.Marshal(out)
}

// MatchParams is the canonical descriptor of a resolution context. Empty
// strings and nil pointers mean the value is unknown; criteria on unknown
// values never match.
type MatchParams struct {
	Level       *int     `json:"level"`
	UserID      string   `json:"userId,omitempty"`
	ChannelID   string   `json:"channelId,omitempty"`
	CategoryID  string   `json:"categoryId,omitempty"`
	ThreadID    string   `json:"threadId,omitempty"`
	IsThread    *bool    `json:"isThread"`
	MemberRoles []string `json:"memberRoles"`
}

// CustomCriterion evaluates a named criterion declared under an override's
// extra block. value is whatever the override declared for name.
type CustomCriterion func(ctx context.Context, host Host, params MatchParams, value any) (bool, error)

// Parser turns a merged configuration tree into the authoritative parsed
// configuration, rejecting invalid input.
type Parser func(ctx context.Context, tree ConfigTree) (ConfigTree, error)
