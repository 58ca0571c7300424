package overrides

// Host is the enclosing context a plugin runs in (a guild, a workspace). Its
// owner always resolves to OwnerLevel.
type Host interface {
	HostID() string
	OwnerID() string
}

// RoleBearer produces a flat list of role ids regardless of how an actor
// stores its roles.
type RoleBearer interface {
	RoleIDs() []string
}

// Actor is a member acting within a host. ID may be empty for partial actors,
// in which case UserID identifies them.
type Actor interface {
	ID() string
	UserID() string
	Roles() RoleBearer
}

// Channel is a text channel, category or thread. Parent returns nil when the
// parent is unknown.
type Channel interface {
	ID() string
	IsThread() bool
	ParentID() string
	Parent() Channel
}

// Message is the subset of a chat message the resolver reads.
type Message interface {
	AuthorID() string
	Channel() Channel
	Member() Actor
}

// Interaction is the subset of an interaction event (slash command, button,
// etc.) the resolver reads.
type Interaction interface {
	UserID() string
	Channel() Channel
	Member() Actor
}

// RoleList is the plain id-list role shape.
type RoleList []string

// RoleIDs implements RoleBearer.
func (l RoleList) RoleIDs() []string {
	if len(l) == 0 {
		return nil
	}
	return append([]string(nil), l...)
}

// Role is an entry of a RoleCollection.
type Role struct {
	ID   string
	Name string
}

// RoleCollection is the queryable role shape. It keeps insertion order.
type RoleCollection struct {
	order []string
	roles map[string]Role
}

// NewRoleCollection builds a collection, ignoring duplicate ids.
func NewRoleCollection(roles ...Role) *RoleCollection {
	c := &RoleCollection{roles: make(map[string]Role, len(roles))}
	for _, role := range roles {
		c.Add(role)
	}
	return c
}

// Add inserts role unless its id is already present.
func (c *RoleCollection) Add(role Role) {
	if role.ID == "" {
		return
	}
	if c.roles == nil {
		c.roles = map[string]Role{}
	}
	if _, exists := c.roles[role.ID]; exists {
		return
	}
	c.roles[role.ID] = role
	c.order = append(c.order, role.ID)
}

// Get returns the role stored under id.
func (c *RoleCollection) Get(id string) (Role, bool) {
	if c == nil {
		return Role{}, false
	}
	role, ok := c.roles[id]
	return role, ok
}

// Has reports whether id is part of the collection.
func (c *RoleCollection) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// Len returns the number of roles.
func (c *RoleCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// RoleIDs implements RoleBearer.
func (c *RoleCollection) RoleIDs() []string {
	if c == nil || len(c.order) == 0 {
		return nil
	}
	return append([]string(nil), c.order...)
}
