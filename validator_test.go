package overrides_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	overrides "github.com/goliatone/go-overrides"
)

func TestDefaultValidatorAcceptsShapes(t *testing.T) {
	validator := overrides.DefaultValidator()
	ctx := context.Background()

	empty, err := validator.Validate(ctx, nil)
	if err != nil || empty.Config != nil || empty.Overrides != nil || empty.ReplaceDefaultOverrides {
		t.Fatalf("expected empty options for nil input, got %+v err %v", empty, err)
	}

	typed := overrides.UserOptions{Config: overrides.ConfigTree{"a": 1}, ReplaceDefaultOverrides: true}
	got, err := validator.Validate(ctx, &typed)
	if err != nil {
		t.Fatalf("validate typed: %v", err)
	}
	got.Config["a"] = 2
	if typed.Config["a"] != 1 {
		t.Fatalf("expected validator to copy typed input")
	}

	raw := map[string]any{
		"config": map[string]any{"limit": 5, "big": int64(1) << 60},
		"overrides": []map[string]any{
			{"level": 50, "user": []any{"U1", 42}, "is_thread": true, "config": map[string]any{"limit": 1}},
			{"not": map[string]any{"role": "R1"}, "extra": map[string]any{"weekday": 3}, "config": map[string]any{}},
		},
	}
	options, err := validator.Validate(ctx, raw)
	if err != nil {
		t.Fatalf("validate raw: %v", err)
	}
	if options.Config["limit"] != 5 || options.Config["big"] != int64(1)<<60 {
		t.Fatalf("expected user scalars preserved, got %#v", options.Config)
	}
	if len(options.Overrides) != 2 {
		t.Fatalf("expected two overrides, got %d", len(options.Overrides))
	}
	first := options.Overrides[0]
	if !reflect.DeepEqual(first.User, overrides.IDList{"U1", "42"}) {
		t.Fatalf("expected numeric ids as strings, got %v", first.User)
	}
	if !reflect.DeepEqual(first.Level, overrides.AtLeast(50)) {
		t.Fatalf("expected bare level to mean at least, got %v", first.Level)
	}
	if first.IsThread == nil || !*first.IsThread {
		t.Fatalf("expected is_thread true")
	}
	second := options.Overrides[1]
	if second.Not == nil || !second.Not.Role.Contains("R1") {
		t.Fatalf("expected not criterion, got %+v", second.Not)
	}
	if second.Extra["weekday"] != int64(3) {
		t.Fatalf("expected normalised extra number, got %#v", second.Extra["weekday"])
	}
	if second.Config == nil || len(second.Config) != 0 {
		t.Fatalf("expected empty but present config, got %#v", second.Config)
	}
}

func TestDefaultValidatorRejectsBadLevels(t *testing.T) {
	_, err := overrides.DefaultValidator().Validate(context.Background(), map[string]any{
		"overrides": []any{map[string]any{"level": ">=abc", "config": map[string]any{}}},
	})
	var validationErr *overrides.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseLevelCondition(t *testing.T) {
	cases := []struct {
		input string
		want  overrides.LevelCondition
		err   bool
	}{
		{input: "50", want: overrides.LevelCondition{Op: overrides.OpAtLeast, Value: 50}},
		{input: ">= 50", want: overrides.LevelCondition{Op: overrides.OpAtLeast, Value: 50}},
		{input: ">50", want: overrides.LevelCondition{Op: overrides.OpAbove, Value: 50}},
		{input: "<=10", want: overrides.LevelCondition{Op: overrides.OpAtMost, Value: 10}},
		{input: "<10", want: overrides.LevelCondition{Op: overrides.OpBelow, Value: 10}},
		{input: "=0", want: overrides.LevelCondition{Op: overrides.OpEqual, Value: 0}},
		{input: "!100", want: overrides.LevelCondition{Op: overrides.OpNotEqual, Value: 100}},
		{input: "high", err: true},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := overrides.ParseLevelCondition(tc.input)
			if tc.err {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestParseUserInput(t *testing.T) {
	raw, err := overrides.ParseUserInput([]byte("   \n"))
	if err != nil || raw != nil {
		t.Fatalf("expected nil for empty input, got %v err %v", raw, err)
	}
	raw, err = overrides.ParseUserInput([]byte(`{"config": {"limit": 3}}`))
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	config := raw.(map[string]any)["config"].(map[string]any)
	if config["limit"] != 3 {
		t.Fatalf("expected int limit from json input, got %#v", config["limit"])
	}
	if _, err := overrides.ParseUserInput([]byte("config: [")); err == nil {
		t.Fatalf("expected malformed input to fail")
	}
}

func TestIdentityParserCopies(t *testing.T) {
	in := overrides.ConfigTree{"nested": map[string]any{"a": 1}}
	out, err := overrides.IdentityParser(context.Background(), in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out["nested"].(map[string]any)["a"] = 2
	if in["nested"].(map[string]any)["a"] != 1 {
		t.Fatalf("expected identity parser to return a copy")
	}
	empty, _ := overrides.IdentityParser(context.Background(), nil)
	if empty == nil {
		t.Fatalf("expected empty tree for nil input")
	}
}
