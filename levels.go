package overrides

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// OwnerLevel is the level reported for the owner of the bound host.
const OwnerLevel = 99999

// LevelEntry assigns a permission level to a user or role id.
type LevelEntry struct {
	ID    string
	Level int
}

// PermissionLevels maps user and role ids to levels. Declaration order decides
// ties: the first matching entry wins, not the highest level.
type PermissionLevels []LevelEntry

// Levels builds PermissionLevels from entries kept in declaration order.
func Levels(entries ...LevelEntry) PermissionLevels {
	return append(PermissionLevels(nil), entries...)
}

// Lookup returns the level declared for id.
func (l PermissionLevels) Lookup(id string) (int, bool) {
	for _, entry := range l {
		if entry.ID == id {
			return entry.Level, true
		}
	}
	return 0, false
}

// UnmarshalYAML decodes a mapping while preserving key order.
func (l *PermissionLevels) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("permission levels: expected mapping, got %v at line %d", node.Tag, node.Line)
	}
	out := make(PermissionLevels, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		var level int
		if err := value.Decode(&level); err != nil {
			return fmt.Errorf("permission levels: level for %q: %w", key.Value, err)
		}
		if level < 0 {
			return fmt.Errorf("permission levels: level for %q must not be negative", key.Value)
		}
		out = append(out, LevelEntry{ID: key.Value, Level: level})
	}
	*l = out
	return nil
}

// UnmarshalJSON decodes an object while preserving key order.
func (l *PermissionLevels) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if token == nil {
		*l = nil
		return nil
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("permission levels: expected object")
	}
	var out PermissionLevels
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return err
		}
		key, _ := keyToken.(string)
		var number json.Number
		if err := decoder.Decode(&number); err != nil {
			return fmt.Errorf("permission levels: level for %q: %w", key, err)
		}
		level, err := strconv.Atoi(number.String())
		if err != nil || level < 0 {
			return fmt.Errorf("permission levels: invalid level %q for %q", number, key)
		}
		out = append(out, LevelEntry{ID: key, Level: level})
	}
	if _, err := decoder.Token(); err != nil {
		return err
	}
	*l = out
	return nil
}

// GetRoles flattens the actor's roles into a list of ids.
func GetRoles(actor Actor) []string {
	if actor == nil {
		return nil
	}
	bearer := actor.Roles()
	if bearer == nil {
		return nil
	}
	return bearer.RoleIDs()
}

// GetLevel returns the actor's permission level within host. The host owner
// always gets OwnerLevel; otherwise the first entry in levels matching the
// actor id or one of its roles decides; 0 when nothing matches.
func GetLevel(levels PermissionLevels, actor Actor, host Host) int {
	if actor == nil {
		return 0
	}
	actorID := actorIdentity(actor)
	if host != nil && actorID != "" && host.OwnerID() == actorID {
		return OwnerLevel
	}

	roles := GetRoles(actor)
	for _, entry := range levels {
		if (actorID != "" && entry.ID == actorID) || slices.Contains(roles, entry.ID) {
			return entry.Level
		}
	}
	return 0
}

func actorIdentity(actor Actor) string {
	if id := actor.ID(); id != "" {
		return id
	}
	return actor.UserID()
}
