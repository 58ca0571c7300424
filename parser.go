package overrides

import (
	"bytes"
	"context"
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-overrides/internal/hydrate"
	"github.com/goliatone/go-overrides/layering"
)

// IdentityParser accepts any tree and returns a detached copy of it.
func IdentityParser(_ context.Context, tree ConfigTree) (ConfigTree, error) {
	out := layering.Clone(tree)
	if out == nil {
		out = ConfigTree{}
	}
	return out, nil
}

// TypedParser decodes trees strictly into T, runs T's Validate method when it
// has one and returns the re-encoded value so defaults and normalisation done
// by T survive in the parsed tree.
func TypedParser[T any]() Parser {
	decoder := hydrate.NewDecoder(hydrate.WithDisallowUnknownFields[T]())
	return func(_ context.Context, tree ConfigTree) (ConfigTree, error) {
		value, err := decoder.Decode(hydrate.Context{Path: "config"}, tree)
		if err != nil {
			return nil, err
		}
		if err := validateValue(value); err != nil {
			return nil, err
		}
		return hydrate.Encode(value)
	}
}

// As decodes a resolved configuration tree into T.
func As[T any](tree ConfigTree) (T, error) {
	return hydrate.NewDecoder[T]().Decode(hydrate.Context{Path: "config"}, tree)
}

// ParseUserInput reads YAML (or JSON, which is valid YAML) into a raw value
// suitable for NewManager. Empty documents yield nil.
func ParseUserInput(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var out any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("overrides: parse user input: %w", err)
	}
	return out, nil
}

func validateValue[T any](value T) error {
	if v, ok := any(value).(interface{ Validate() error }); ok {
		return v.Validate()
	}
	if v, ok := any(&value).(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return nil
}

func isNilValue(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}
