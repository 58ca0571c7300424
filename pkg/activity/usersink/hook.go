package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-overrides/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts configuration activity events to a go-users ActivitySink.
// When an event carries no tenant, the host id is used if it is a UUID.
type Hook struct {
	Sink           usertypes.ActivitySink
	DefaultChannel string
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
// Events that fail activity.Validate are dropped.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	normalized := activity.NormalizeEvent(event)
	if activity.Validate(normalized) != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data := map[string]any{"plugin": normalized.Plugin}
	for key, value := range normalized.Metadata {
		data[key] = value
	}
	if normalized.HostID != "" {
		data["host_id"] = normalized.HostID
	}

	tenant := normalized.TenantID
	if tenant == "" {
		tenant = normalized.HostID
	}

	return h.Sink.Log(ctx, usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		TenantID:   parseUUID(tenant),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType(),
		ObjectID:   normalized.ObjectID(),
		Channel:    channelOf(normalized.Channel, h.DefaultChannel),
		Data:       data,
		OccurredAt: normalized.OccurredAt,
	})
}

func channelOf(channel, fallback string) string {
	if channel != "" {
		return channel
	}
	return strings.TrimSpace(fallback)
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
