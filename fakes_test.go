package overrides_test

import (
	overrides "github.com/goliatone/go-overrides"
)

type fakeHost struct {
	id    string
	owner string
}

func (h fakeHost) HostID() string  { return h.id }
func (h fakeHost) OwnerID() string { return h.owner }

type fakeActor struct {
	id     string
	userID string
	roles  overrides.RoleBearer
}

func (a fakeActor) ID() string                  { return a.id }
func (a fakeActor) UserID() string              { return a.userID }
func (a fakeActor) Roles() overrides.RoleBearer { return a.roles }

type fakeChannel struct {
	id     string
	thread bool
	parent *fakeChannel
	// parentID is used when the parent object is not loaded.
	parentID string
}

func (c *fakeChannel) ID() string     { return c.id }
func (c *fakeChannel) IsThread() bool { return c.thread }

func (c *fakeChannel) ParentID() string {
	if c.parent != nil {
		return c.parent.id
	}
	return c.parentID
}

func (c *fakeChannel) Parent() overrides.Channel {
	if c.parent == nil {
		return nil
	}
	return c.parent
}

type fakeMessage struct {
	author  string
	channel *fakeChannel
	member  *fakeActor
}

func (m fakeMessage) AuthorID() string { return m.author }

func (m fakeMessage) Channel() overrides.Channel {
	if m.channel == nil {
		return nil
	}
	return m.channel
}

func (m fakeMessage) Member() overrides.Actor {
	if m.member == nil {
		return nil
	}
	return *m.member
}

type fakeInteraction struct {
	user    string
	channel *fakeChannel
	member  *fakeActor
}

func (i fakeInteraction) UserID() string { return i.user }

func (i fakeInteraction) Channel() overrides.Channel {
	if i.channel == nil {
		return nil
	}
	return i.channel
}

func (i fakeInteraction) Member() overrides.Actor {
	if i.member == nil {
		return nil
	}
	return *i.member
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
