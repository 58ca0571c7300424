package overrides_test

import (
	"reflect"
	"testing"

	overrides "github.com/goliatone/go-overrides"
)

func TestResolveParamsMessageWaterfall(t *testing.T) {
	channel := &fakeChannel{id: "C7", parentID: "G1"}
	params := overrides.ResolveParams(overrides.ResolutionRequest{
		Message: fakeMessage{author: "U42", channel: channel},
	}, nil, nil)

	if params.UserID != "U42" || params.ChannelID != "C7" || params.CategoryID != "G1" {
		t.Fatalf("unexpected params: %+v", params)
	}
	if params.ThreadID != "" {
		t.Fatalf("expected no thread, got %q", params.ThreadID)
	}
	if params.IsThread == nil || *params.IsThread {
		t.Fatalf("expected isThread=false, got %v", params.IsThread)
	}
	if params.Level != nil {
		t.Fatalf("expected unknown level without actor, got %d", *params.Level)
	}
	if params.MemberRoles == nil || len(params.MemberRoles) != 0 {
		t.Fatalf("expected empty roles, got %#v", params.MemberRoles)
	}
}

func TestResolveParamsThreadTwoHop(t *testing.T) {
	category := &fakeChannel{id: "G9"}
	parent := &fakeChannel{id: "C3", parent: category}
	thread := &fakeChannel{id: "T1", thread: true, parent: parent}

	cases := []struct {
		name        string
		req         overrides.ResolutionRequest
		wantChannel string
	}{
		{name: "channel", req: overrides.ResolutionRequest{Channel: thread}, wantChannel: "C3"},
		{name: "message", req: overrides.ResolutionRequest{Message: fakeMessage{author: "U1", channel: thread}}, wantChannel: "C3"},
		// Interactions take the event channel's own id, even inside a thread.
		{name: "interaction", req: overrides.ResolutionRequest{Interaction: fakeInteraction{user: "U1", channel: thread}}, wantChannel: "T1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := overrides.ResolveParams(tc.req, nil, nil)
			if params.CategoryID != "G9" {
				t.Fatalf("expected category G9, got %q", params.CategoryID)
			}
			if params.ChannelID != tc.wantChannel || params.ThreadID != "T1" {
				t.Fatalf("expected channel %s and thread T1, got %+v", tc.wantChannel, params)
			}
			if params.IsThread == nil || !*params.IsThread {
				t.Fatalf("expected isThread=true")
			}
		})
	}
}

func TestResolveParamsThreadWithoutLoadedParent(t *testing.T) {
	thread := &fakeChannel{id: "T1", thread: true, parentID: "C3"}
	params := overrides.ResolveParams(overrides.ResolutionRequest{Channel: thread}, nil, nil)
	if params.ChannelID != "C3" || params.CategoryID != "" {
		t.Fatalf("expected channel from parent id and unknown category, got %+v", params)
	}
}

func TestResolveParamsExplicitFieldsWin(t *testing.T) {
	host := fakeHost{id: "G", owner: "OWNER"}
	req := overrides.ResolutionRequest{
		Level:       intPtr(3),
		UserID:      "EXPLICIT",
		ChannelID:   "CX",
		CategoryID:  "GX",
		ThreadID:    "TX",
		IsThread:    boolPtr(true),
		MemberRoles: []string{"r"},
		Actor:       fakeActor{id: "OWNER", roles: overrides.RoleList{"mod"}},
		Channel:     &fakeChannel{id: "C7", parentID: "G1"},
	}
	params := overrides.ResolveParams(req, nil, host)

	want := overrides.MatchParams{
		Level:       intPtr(3),
		UserID:      "EXPLICIT",
		ChannelID:   "CX",
		CategoryID:  "GX",
		ThreadID:    "TX",
		IsThread:    boolPtr(true),
		MemberRoles: []string{"r"},
	}
	if !reflect.DeepEqual(params, want) {
		t.Fatalf("expected %+v, got %+v", want, params)
	}
}

func TestResolveParamsActorLevelNeedsHost(t *testing.T) {
	levels := overrides.Levels(overrides.LevelEntry{ID: "mod", Level: 50})
	actor := fakeActor{id: "U1", roles: overrides.RoleList{"mod"}}

	withoutHost := overrides.ResolveParams(overrides.ResolutionRequest{Actor: actor}, levels, nil)
	if withoutHost.Level != nil {
		t.Fatalf("expected unknown level without host")
	}
	if withoutHost.UserID != "U1" || !reflect.DeepEqual(withoutHost.MemberRoles, []string{"mod"}) {
		t.Fatalf("unexpected actor params: %+v", withoutHost)
	}

	withHost := overrides.ResolveParams(overrides.ResolutionRequest{Actor: actor}, levels, fakeHost{id: "G"})
	if withHost.Level == nil || *withHost.Level != 50 {
		t.Fatalf("expected level 50, got %v", withHost.Level)
	}
}

func TestResolveParamsMemberFromInteraction(t *testing.T) {
	member := fakeActor{id: "U5", roles: overrides.RoleList{"vip"}}
	params := overrides.ResolveParams(overrides.ResolutionRequest{
		Interaction: fakeInteraction{user: "U5", channel: &fakeChannel{id: "C1", parentID: "G1"}, member: &member},
	}, overrides.Levels(overrides.LevelEntry{ID: "vip", Level: 20}), fakeHost{id: "G"})

	if params.UserID != "U5" || params.ChannelID != "C1" || params.CategoryID != "G1" {
		t.Fatalf("unexpected params: %+v", params)
	}
	if params.Level == nil || *params.Level != 20 {
		t.Fatalf("expected member level 20, got %v", params.Level)
	}
	if !reflect.DeepEqual(params.MemberRoles, []string{"vip"}) {
		t.Fatalf("expected member roles, got %v", params.MemberRoles)
	}
}
