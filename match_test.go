package overrides_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	overrides "github.com/goliatone/go-overrides"
)

func TestOverrideMatchesBuiltinCriteria(t *testing.T) {
	params := overrides.MatchParams{
		Level:       intPtr(50),
		UserID:      "U1",
		ChannelID:   "C7",
		CategoryID:  "G1",
		ThreadID:    "",
		IsThread:    boolPtr(false),
		MemberRoles: []string{"mod", "vip"},
	}

	cases := []struct {
		name     string
		criteria overrides.Criteria
		want     bool
	}{
		{name: "wildcard", criteria: overrides.Criteria{}, want: true},
		{name: "user hit", criteria: overrides.Criteria{User: overrides.IDList{"U0", "U1"}}, want: true},
		{name: "user miss", criteria: overrides.Criteria{User: overrides.IDList{"U2"}}, want: false},
		{name: "channel hit", criteria: overrides.Criteria{Channel: overrides.IDList{"C7"}}, want: true},
		{name: "category miss", criteria: overrides.Criteria{Category: overrides.IDList{"G2"}}, want: false},
		{name: "unknown thread never matches", criteria: overrides.Criteria{Thread: overrides.IDList{""}}, want: false},
		{name: "level threshold", criteria: overrides.Criteria{Level: overrides.AtLeast(50)}, want: true},
		{name: "level threshold miss", criteria: overrides.Criteria{Level: overrides.AtLeast(51)}, want: false},
		{name: "level below", criteria: overrides.Criteria{Level: overrides.LevelConditions{{Op: overrides.OpBelow, Value: 50}}}, want: false},
		{name: "level range", criteria: overrides.Criteria{Level: overrides.LevelConditions{
			{Op: overrides.OpAtLeast, Value: 10},
			{Op: overrides.OpAtMost, Value: 50},
		}}, want: true},
		{name: "role intersection", criteria: overrides.Criteria{Role: overrides.IDList{"admin", "vip"}}, want: true},
		{name: "role disjoint", criteria: overrides.Criteria{Role: overrides.IDList{"admin"}}, want: false},
		{name: "is thread", criteria: overrides.Criteria{IsThread: boolPtr(false)}, want: true},
		{name: "is thread miss", criteria: overrides.Criteria{IsThread: boolPtr(true)}, want: false},
		{name: "all declared must hold", criteria: overrides.Criteria{
			Channel: overrides.IDList{"C7"},
			User:    overrides.IDList{"U9"},
		}, want: false},
		{name: "all combinator", criteria: overrides.Criteria{All: []overrides.Criteria{
			{Channel: overrides.IDList{"C7"}},
			{Role: overrides.IDList{"mod"}},
		}}, want: true},
		{name: "any combinator", criteria: overrides.Criteria{Any: []overrides.Criteria{
			{Channel: overrides.IDList{"C1"}},
			{User: overrides.IDList{"U1"}},
		}}, want: true},
		{name: "any none", criteria: overrides.Criteria{Any: []overrides.Criteria{
			{Channel: overrides.IDList{"C1"}},
		}}, want: false},
		{name: "not", criteria: overrides.Criteria{Not: &overrides.Criteria{User: overrides.IDList{"U1"}}}, want: false},
		{name: "not miss", criteria: overrides.Criteria{Not: &overrides.Criteria{User: overrides.IDList{"U2"}}}, want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := overrides.OverrideMatches(context.Background(), overrides.Override{Criteria: tc.criteria}, params, overrides.MatchOptions{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestOverrideMatchesUnknownParams(t *testing.T) {
	params := overrides.MatchParams{MemberRoles: []string{}}
	cases := []overrides.Criteria{
		{Level: overrides.AtLeast(0)},
		{User: overrides.IDList{"U1"}},
		{IsThread: boolPtr(false)},
		{Role: overrides.IDList{"mod"}},
	}
	for _, criteria := range cases {
		matched, err := overrides.OverrideMatches(context.Background(), overrides.Override{Criteria: criteria}, params, overrides.MatchOptions{})
		if err != nil || matched {
			t.Fatalf("expected %+v not to match unknown params, matched=%v err=%v", criteria, matched, err)
		}
	}
}

func TestMatchConfigFoldsInOrder(t *testing.T) {
	options := overrides.ParsedOptions{
		Config: overrides.ConfigTree{"limit": 5, "nested": map[string]any{"a": 1, "b": 1}},
		Overrides: []overrides.Override{
			{Criteria: overrides.Criteria{Channel: overrides.IDList{"C7"}}, Config: overrides.ConfigTree{"limit": 10, "nested": map[string]any{"a": 2}}},
			{Criteria: overrides.Criteria{User: overrides.IDList{"U9"}}, Config: overrides.ConfigTree{"limit": 1}},
			{Criteria: overrides.Criteria{Level: overrides.AtLeast(50)}, Config: overrides.ConfigTree{"limit": 20}},
		},
	}
	params := overrides.MatchParams{ChannelID: "C7", UserID: "U1", Level: intPtr(80)}

	got, applied, err := overrides.MatchConfigWithTrace(context.Background(), options, params, overrides.MatchOptions{})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	want := overrides.ConfigTree{"limit": 20, "nested": map[string]any{"a": 2, "b": 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !reflect.DeepEqual(applied, []int{0, 2}) {
		t.Fatalf("expected applied [0 2], got %v", applied)
	}
	if options.Config["limit"] != 5 {
		t.Fatalf("base config mutated: %v", options.Config)
	}
}

func TestMatchConfigCustomCriteria(t *testing.T) {
	host := fakeHost{id: "G1"}
	var seenHost overrides.Host
	var seenValue any
	weekday := func(_ context.Context, h overrides.Host, params overrides.MatchParams, value any) (bool, error) {
		seenHost = h
		seenValue = value
		return params.UserID == "U1", nil
	}
	options := overrides.ParsedOptions{
		Config: overrides.ConfigTree{"enabled": false},
		Overrides: []overrides.Override{
			{Criteria: overrides.Criteria{Extra: map[string]any{"weekday": "monday"}}, Config: overrides.ConfigTree{"enabled": true}},
			{Criteria: overrides.Criteria{Extra: map[string]any{"missing": true}}, Config: overrides.ConfigTree{"enabled": "never"}},
		},
	}
	opts := overrides.MatchOptions{Host: host, Custom: map[string]overrides.CustomCriterion{"weekday": weekday}}

	got, err := overrides.MatchConfig(context.Background(), options, overrides.MatchParams{UserID: "U1"}, opts)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got["enabled"] != true {
		t.Fatalf("expected custom criterion to apply, got %v", got)
	}
	if seenHost != host || seenValue != "monday" {
		t.Fatalf("expected host and declared value, got %v %v", seenHost, seenValue)
	}
}

func TestMatchConfigCustomCriterionFailureAborts(t *testing.T) {
	boom := errors.New("lookup failed")
	options := overrides.ParsedOptions{
		Config: overrides.ConfigTree{"limit": 5},
		Overrides: []overrides.Override{
			{Criteria: overrides.Criteria{Channel: overrides.IDList{"C7"}}, Config: overrides.ConfigTree{"limit": 10}},
			{Criteria: overrides.Criteria{Extra: map[string]any{"remote": true}}, Config: overrides.ConfigTree{"limit": 1}},
		},
	}
	opts := overrides.MatchOptions{Custom: map[string]overrides.CustomCriterion{
		"remote": func(context.Context, overrides.Host, overrides.MatchParams, any) (bool, error) {
			return false, boom
		},
	}}

	got, err := overrides.MatchConfig(context.Background(), options, overrides.MatchParams{ChannelID: "C7"}, opts)
	if got != nil {
		t.Fatalf("expected no partial result, got %v", got)
	}
	var criterionErr *overrides.CriterionError
	if !errors.As(err, &criterionErr) || criterionErr.Name != "remote" || criterionErr.Index != 1 {
		t.Fatalf("expected criterion error for override 1, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to unwrap")
	}
}

func TestCustomCriteriaRunAfterBuiltins(t *testing.T) {
	calls := 0
	opts := overrides.MatchOptions{Custom: map[string]overrides.CustomCriterion{
		"count": func(context.Context, overrides.Host, overrides.MatchParams, any) (bool, error) {
			calls++
			return true, nil
		},
	}}
	override := overrides.Override{Criteria: overrides.Criteria{
		Channel: overrides.IDList{"C1"},
		Extra:   map[string]any{"count": true},
	}}
	matched, err := overrides.OverrideMatches(context.Background(), override, overrides.MatchParams{ChannelID: "C2"}, opts)
	if err != nil || matched {
		t.Fatalf("expected miss, matched=%v err=%v", matched, err)
	}
	if calls != 0 {
		t.Fatalf("custom criterion should not run after a builtin miss")
	}
}
