package activity

import (
	"context"
	"strings"
)

// DefaultChannel is the channel stamped on events that do not name one.
const DefaultChannel = "config"

// Config controls emission defaults.
type Config struct {
	Enabled  bool
	Channel  string
	TenantID string
}

// Emitter turns lifecycle outcomes into events and fans them out to hooks.
type Emitter struct {
	hooks    Hooks
	enabled  bool
	channel  string
	tenantID string
}

// NewEmitter constructs an emitter from hooks and configuration. It is
// disabled when no non-nil hook remains.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	compact := hooks.Compact()
	return &Emitter{
		hooks:    compact,
		enabled:  cfg.Enabled && len(compact) > 0,
		channel:  channel,
		tenantID: strings.TrimSpace(cfg.TenantID),
	}
}

// Enabled reports whether emissions should be attempted.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Emit forwards event, filling in the default channel and tenant.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if strings.TrimSpace(event.TenantID) == "" {
		event.TenantID = e.tenantID
	}
	return e.hooks.Notify(ctx, event)
}

// EmitInit reports an Init outcome: config.init_failed when input.Err is set,
// config.initialized otherwise. The emitted event is returned for logging.
func (e *Emitter) EmitInit(ctx context.Context, input ConfigEventInput) (Event, error) {
	event := BuildConfigInitializedEvent(input)
	if input.Err != nil {
		event = BuildConfigInitFailedEvent(input)
	}
	return event, e.Emit(ctx, event)
}
