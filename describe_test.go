package overrides_test

import (
	"context"
	"reflect"
	"testing"

	overrides "github.com/goliatone/go-overrides"
)

func TestDescribeConfig(t *testing.T) {
	got := overrides.DescribeConfig(overrides.ConfigTree{
		"limit":  5,
		"words":  []any{"a"},
		"nested": map[string]any{"on": true, "empty": map[string]any{}},
	})
	want := []overrides.FieldDescriptor{
		{Path: "limit", Type: "int"},
		{Path: "nested.empty", Type: "map[string]any"},
		{Path: "nested.on", Type: "bool"},
		{Path: "words", Type: "[]string"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if got := overrides.DescribeConfig(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty descriptors, got %#v", got)
	}
}

func TestUnknownPaths(t *testing.T) {
	base := overrides.ConfigTree{
		"limit":  5,
		"nested": map[string]any{"on": true},
		"leaf":   "x",
	}
	delta := overrides.ConfigTree{
		"limit":  1,
		"typo":   2,
		"nested": map[string]any{"on": false, "off": true},
		"leaf":   map[string]any{"deeper": 1},
	}
	got := overrides.UnknownPaths(base, delta)
	if !reflect.DeepEqual(got, []string{"nested.off", "typo"}) {
		t.Fatalf("unexpected unknown paths: %v", got)
	}
}

func TestManagerDescribe(t *testing.T) {
	manager := overrides.NewManager("slowmode", slowmodeDefaults(), nil)
	if _, err := manager.Describe(); err == nil {
		t.Fatalf("expected lifecycle error before init")
	}
	if err := manager.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	fields, err := manager.Describe()
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if len(fields) != 1 || fields[0].Path != "limit" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}
