package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	overrides "github.com/goliatone/go-overrides"
	"github.com/goliatone/go-overrides/layering"
	"github.com/goliatone/go-overrides/pkg/activity"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// Ref identifies one persisted options document for one plugin.
type Ref struct {
	Plugin string
	HostID string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty" yaml:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Store loads/saves the raw user options document for a single reference.
// Documents are kept untyped; validation is the Manager's job.
//
// Save is a compare-and-swap when meta.ETag is set: the stored document's ETag
// must equal it or Save fails with ErrETagMismatch and writes nothing. An
// empty meta.ETag saves unconditionally.
type Store interface {
	Load(ctx context.Context, ref Ref) (raw any, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, raw any, meta Meta) (Meta, error)
}

// Mutator edits a raw options document and returns the replacement.
type Mutator func(current any) (any, error)

func (r Ref) Identifier() (string, error) {
	plugin := strings.TrimSpace(r.Plugin)
	if plugin == "" {
		return "", fmt.Errorf("state: plugin is required")
	}
	if strings.Contains(plugin, "/") {
		return "", fmt.Errorf("state: plugin %q must not contain '/'", plugin)
	}
	hostID := strings.TrimSpace(r.HostID)
	if hostID == "" {
		return fmt.Sprintf("global/%s", plugin), nil
	}
	if strings.Contains(hostID, "/") {
		return "", fmt.Errorf("state: host id %q must not contain '/'", hostID)
	}
	return fmt.Sprintf("host/%s/%s", hostID, plugin), nil
}

// Loader builds initialized Managers from stored documents.
type Loader struct {
	Store Store
	// Options are applied to every Manager the loader builds.
	Options []overrides.Option
	// Activity is notified with config.updated after Mutate saves.
	Activity activity.Hooks
	// Logger receives activity hook failures. Defaults to discarding.
	Logger *slog.Logger
}

// Load reads the document for ref and returns an initialized Manager. A
// missing document is treated as empty user input so defaults apply. host may
// be nil.
func (l Loader) Load(ctx context.Context, ref Ref, defaults overrides.PluginOptions, host overrides.Host) (*overrides.Manager, Meta, error) {
	if l.Store == nil {
		return nil, Meta{}, fmt.Errorf("state: store is required")
	}
	raw, meta, _, err := l.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %q for host %q: %w", ref.Plugin, ref.HostID, err)
	}
	manager, err := l.build(ctx, ref, defaults, raw, host)
	if err != nil {
		return nil, meta, err
	}
	return manager, meta, nil
}

// Mutate loads the document for ref, applies fn, validates the result by
// initializing a Manager bound to host (which may be nil) and only then
// saves. meta.ETag, when set, must match the stored ETag.
//
// The save is conditional on the ETag read at the start, so a concurrent
// Mutate that saved in between makes this one fail with ErrETagMismatch.
// Two Mutates racing to create a document that does not exist yet are not
// detected; the last save wins.
func (l Loader) Mutate(ctx context.Context, ref Ref, defaults overrides.PluginOptions, host overrides.Host, meta Meta, fn Mutator) (*overrides.Manager, Meta, error) {
	if l.Store == nil {
		return nil, Meta{}, fmt.Errorf("state: store is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return nil, Meta{}, err
	}
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("state: mutator is required")
	}

	current, loadedMeta, ok, err := l.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %q for host %q: %w", ref.Plugin, ref.HostID, err)
	}
	if !ok {
		current = nil
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	next, err := fn(cloneRaw(current))
	if err != nil {
		return nil, loadedMeta, err
	}

	manager, err := l.build(ctx, ref, defaults, next, host)
	if err != nil {
		return nil, loadedMeta, err
	}

	// Each saved revision gets a new snapshot id unless the caller pins one.
	saveMeta := mergeMeta(loadedMeta, meta)
	saveMeta.SnapshotID = meta.SnapshotID
	saveMeta.ETag = loadedMeta.ETag
	savedMeta, err := l.Store.Save(ctx, ref, next, saveMeta)
	if err != nil {
		return nil, loadedMeta, fmt.Errorf("state: save %q for host %q: %w", ref.Plugin, ref.HostID, err)
	}
	l.emitUpdated(ctx, ref, manager, savedMeta)
	return manager, savedMeta, nil
}

func (l Loader) emitUpdated(ctx context.Context, ref Ref, manager *overrides.Manager, meta Meta) {
	if len(l.Activity) == 0 {
		return
	}
	input := activity.ConfigEventInput{
		Plugin:     ref.Plugin,
		HostID:     ref.HostID,
		SnapshotID: meta.SnapshotID,
		OccurredAt: meta.UpdatedAt,
	}
	if parsed, err := manager.ParsedOptions(); err == nil {
		input.Overrides = len(parsed.Overrides)
	}
	if err := l.Activity.Notify(ctx, activity.BuildConfigUpdatedEvent(input)); err != nil {
		logger := l.Logger
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		logger.WarnContext(ctx, "config activity hook failed",
			"plugin", ref.Plugin,
			"host_id", ref.HostID,
			"verb", activity.VerbConfigUpdated,
			"error", err,
		)
	}
}

func (l Loader) build(ctx context.Context, ref Ref, defaults overrides.PluginOptions, raw any, host overrides.Host) (*overrides.Manager, error) {
	manager := overrides.NewManager(ref.Plugin, defaults, raw, l.Options...)
	if host != nil {
		if err := manager.BindHost(host); err != nil {
			return nil, err
		}
	}
	if err := manager.Init(ctx); err != nil {
		return nil, err
	}
	return manager, nil
}

// checkETag enforces the Save compare-and-swap rule.
func checkETag(expected string, stored Meta, exists bool) error {
	if expected == "" {
		return nil
	}
	if !exists || stored.ETag != expected {
		return fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, expected, stored.ETag)
	}
	return nil
}

// stamp fills the store-owned fields of meta for a new revision.
func stamp(meta Meta, now time.Time) Meta {
	out := cloneMeta(meta)
	if out.SnapshotID == "" {
		out.SnapshotID = uuid.NewString()
	}
	out.ETag = out.SnapshotID
	out.UpdatedAt = now.UTC()
	return out
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}

func cloneRaw(raw any) any {
	if tree, ok := raw.(map[string]any); ok {
		return layering.Clone(tree)
	}
	return raw
}
