package overrides

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/goliatone/go-overrides/internal/hydrate"
	"github.com/goliatone/go-overrides/layering"
)

// UserOptions is the validated form of user supplied plugin options.
type UserOptions struct {
	Config                  ConfigTree `json:"config,omitempty"`
	Overrides               []Override `json:"overrides,omitempty"`
	ReplaceDefaultOverrides bool       `json:"replaceDefaultOverrides,omitempty"`
}

// Validator checks untrusted input against the base options shape.
type Validator interface {
	Validate(ctx context.Context, raw any) (UserOptions, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, raw any) (UserOptions, error)

// Validate implements Validator.
func (f ValidatorFunc) Validate(ctx context.Context, raw any) (UserOptions, error) {
	return f(ctx, raw)
}

// DefaultValidator returns the strict base shape validator. It accepts nil,
// UserOptions values and objects shaped as
// {config?, overrides?, replaceDefaultOverrides?}; unknown keys are rejected.
func DefaultValidator() Validator {
	return baseShapeValidator{}
}

type baseShapeValidator struct{}

type userOptionsShape struct {
	Config                  map[string]any `json:"config"`
	Overrides               []Override     `json:"overrides"`
	ReplaceDefaultOverrides *bool          `json:"replaceDefaultOverrides"`
}

func (baseShapeValidator) Validate(_ context.Context, raw any) (UserOptions, error) {
	switch typed := raw.(type) {
	case nil:
		return UserOptions{}, nil
	case UserOptions:
		return cloneUserOptions(typed), nil
	case *UserOptions:
		if typed == nil {
			return UserOptions{}, nil
		}
		return cloneUserOptions(*typed), nil
	}

	payload, ok := raw.(map[string]any)
	if !ok {
		return UserOptions{}, &ValidationError{Diagnostic: fmt.Sprintf("expected an object, got %T", raw)}
	}

	decoder := hydrate.NewDecoder(
		hydrate.WithDisallowUnknownFields[userOptionsShape](),
		hydrate.WithUseNumber[userOptionsShape](),
	)
	shape, err := decoder.Decode(hydrate.Context{Path: "options"}, payload)
	if err != nil {
		return UserOptions{}, &ValidationError{Diagnostic: err.Error(), Err: err}
	}

	out := UserOptions{
		Config:    pickTree(payload["config"], shape.Config),
		Overrides: make([]Override, len(shape.Overrides)),
	}
	if shape.ReplaceDefaultOverrides != nil {
		out.ReplaceDefaultOverrides = *shape.ReplaceDefaultOverrides
	}

	rawOverrides := listOf(payload["overrides"])
	for i, override := range shape.Overrides {
		var (
			rawConfig any
			declared  bool
		)
		if i < len(rawOverrides) {
			if entry, ok := rawOverrides[i].(map[string]any); ok {
				rawConfig, declared = entry["config"]
			}
		}
		override.Config = pickTree(rawConfig, override.Config)
		// An explicit `config: null` is an empty delta; only an absent key is
		// a shape error.
		if declared && override.Config == nil {
			override.Config = ConfigTree{}
		}
		normalizeCriteria(&override.Criteria)
		out.Overrides[i] = override
	}
	return out, nil
}

// pickTree prefers the caller's original tree so scalar types survive, and
// falls back to the decoded copy with json numbers converted.
func pickTree(raw any, decoded map[string]any) ConfigTree {
	if tree, ok := raw.(map[string]any); ok && tree != nil {
		return layering.Clone(tree)
	}
	if decoded == nil {
		return nil
	}
	return normalizeNumbers(decoded).(map[string]any)
}

func listOf(raw any) []any {
	if items, ok := raw.([]any); ok {
		return items
	}
	rv := reflect.ValueOf(raw)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func normalizeCriteria(criteria *Criteria) {
	if criteria == nil {
		return
	}
	if criteria.Extra != nil {
		criteria.Extra = normalizeNumbers(criteria.Extra).(map[string]any)
	}
	for i := range criteria.All {
		normalizeCriteria(&criteria.All[i])
	}
	for i := range criteria.Any {
		normalizeCriteria(&criteria.Any[i])
	}
	normalizeCriteria(criteria.Not)
}

func normalizeNumbers(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if i, err := typed.Int64(); err == nil {
			return i
		}
		f, _ := typed.Float64()
		return f
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = normalizeNumbers(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = normalizeNumbers(item)
		}
		return out
	default:
		return value
	}
}

func cloneUserOptions(in UserOptions) UserOptions {
	out := UserOptions{
		Config:                  layering.Clone(in.Config),
		ReplaceDefaultOverrides: in.ReplaceDefaultOverrides,
	}
	if in.Overrides != nil {
		out.Overrides = cloneOverrides(in.Overrides)
	}
	return out
}

func cloneOverrides(in []Override) []Override {
	out := make([]Override, len(in))
	for i, override := range in {
		out[i] = Override{Criteria: override.Criteria, Config: layering.Clone(override.Config)}
	}
	return out
}
