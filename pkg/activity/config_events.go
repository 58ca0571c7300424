package activity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Verbs emitted for configuration lifecycle events.
const (
	VerbConfigInitialized = "config.initialized"
	VerbConfigInitFailed  = "config.init_failed"
	VerbConfigUpdated     = "config.updated"
)

// ObjectTypePluginConfig is the object type carried by configuration events.
const ObjectTypePluginConfig = "plugin.config"

// ErrInvalidEvent is returned by Validate for events hooks must not receive.
var ErrInvalidEvent = errors.New("activity: invalid config event")

// Event describes one plugin configuration lifecycle occurrence. Every event
// is about the config of Plugin, optionally scoped to the host it is bound to.
type Event struct {
	Verb       string
	Plugin     string
	HostID     string
	ActorID    string
	TenantID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ObjectType is always ObjectTypePluginConfig.
func (e Event) ObjectType() string {
	return ObjectTypePluginConfig
}

// ObjectID is "<host>/<plugin>" for host-bound configs and the plugin name
// otherwise.
func (e Event) ObjectID() string {
	plugin := strings.TrimSpace(e.Plugin)
	if hostID := strings.TrimSpace(e.HostID); hostID != "" {
		return hostID + "/" + plugin
	}
	return plugin
}

// ConfigEventInput describes a plugin configuration lifecycle outcome.
type ConfigEventInput struct {
	Plugin           string
	HostID           string
	ActorID          string
	TenantID         string
	Channel          string
	Overrides        int
	DefaultOverrides int
	Replaced         bool
	SnapshotID       string
	Err              error
	Metadata         map[string]any
	OccurredAt       time.Time
}

// BuildConfigInitializedEvent constructs the event emitted after a successful
// initialization.
func BuildConfigInitializedEvent(input ConfigEventInput) Event {
	event := buildConfigEvent(VerbConfigInitialized, input)
	event.Metadata["overrides"] = input.Overrides
	event.Metadata["default_overrides"] = input.DefaultOverrides
	if input.Replaced {
		event.Metadata["replace_default_overrides"] = true
	}
	return event
}

// BuildConfigInitFailedEvent constructs the event emitted when initialization
// is rejected. The error text is stored under the "error" metadata key.
func BuildConfigInitFailedEvent(input ConfigEventInput) Event {
	event := buildConfigEvent(VerbConfigInitFailed, input)
	if input.Err != nil {
		event.Metadata["error"] = input.Err.Error()
	}
	return event
}

// BuildConfigUpdatedEvent constructs the event emitted when a new revision of
// a stored options document is saved.
func BuildConfigUpdatedEvent(input ConfigEventInput) Event {
	event := buildConfigEvent(VerbConfigUpdated, input)
	event.Metadata["overrides"] = input.Overrides
	if snapshot := strings.TrimSpace(input.SnapshotID); snapshot != "" {
		event.Metadata["snapshot_id"] = snapshot
	}
	return event
}

func buildConfigEvent(verb string, input ConfigEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Event{
		Verb:       verb,
		Plugin:     strings.TrimSpace(input.Plugin),
		HostID:     strings.TrimSpace(input.HostID),
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// NormalizeEvent trims identifiers, clones metadata and stamps a UTC
// timestamp when none is set.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.Plugin = strings.TrimSpace(event.Plugin)
	normalized.HostID = strings.TrimSpace(event.HostID)
	normalized.ActorID = strings.TrimSpace(event.ActorID)
	normalized.TenantID = strings.TrimSpace(event.TenantID)
	normalized.Channel = strings.TrimSpace(event.Channel)
	normalized.Metadata = cloneMap(event.Metadata)
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now().UTC()
	}
	return normalized
}

// Validate rejects events with an unknown verb, a missing plugin name or a
// plugin name that would make ObjectID ambiguous.
func Validate(event Event) error {
	switch event.Verb {
	case VerbConfigInitialized, VerbConfigInitFailed, VerbConfigUpdated:
	default:
		return fmt.Errorf("%w: unknown verb %q", ErrInvalidEvent, event.Verb)
	}
	if event.Plugin == "" {
		return fmt.Errorf("%w: plugin is required", ErrInvalidEvent)
	}
	if strings.Contains(event.Plugin, "/") {
		return fmt.Errorf("%w: plugin %q must not contain '/'", ErrInvalidEvent, event.Plugin)
	}
	return nil
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
