package overrides

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-overrides/layering"
	"github.com/goliatone/go-overrides/pkg/activity"
)

// Manager owns one plugin's configuration. It starts uninitialized, holding
// the raw defaults and user input, and becomes read-only once Init succeeds.
// Resolution methods are safe for concurrent use after Init.
type Manager struct {
	name      string
	defaults  PluginOptions
	userInput any
	cfg       managerConfig
	emitter   *activity.Emitter

	initMu sync.Mutex
	state  atomic.Pointer[resolvedState]
	host   atomic.Pointer[boundHost]
}

type resolvedState struct {
	options      ParsedOptions
	defaultCount int
	replaced     bool
}

type boundHost struct {
	host Host
}

// NewManager captures the inputs for name without validating them. Call Init
// before any accessor.
func NewManager(name string, defaults PluginOptions, userInput any, opts ...Option) *Manager {
	cfg := applyOptions(opts)
	m := &Manager{
		name: name,
		defaults: PluginOptions{
			Config:    layering.Clone(defaults.Config),
			Overrides: cloneOverrides(defaults.Overrides),
		},
		userInput: userInput,
		cfg:       cfg,
		emitter:   activity.NewEmitter(cfg.hooks, activity.Config{Enabled: true}),
	}
	if cfg.host != nil && !isNilValue(cfg.host) {
		m.host.Store(&boundHost{host: cfg.host})
	}
	return m
}

// Name returns the plugin name the manager was created for.
func (m *Manager) Name() string {
	return m.name
}

// Initialized reports whether Init completed successfully.
func (m *Manager) Initialized() bool {
	return m.state.Load() != nil
}

// Init validates the user input, parses the base config and pre-validates
// every override against it. Either everything succeeds and the state is
// committed, or nothing is stored. Init may only succeed once.
func (m *Manager) Init(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m.initMu.Lock()
	defer m.initMu.Unlock()

	if m.state.Load() != nil {
		return ErrAlreadyInitialized
	}

	start := time.Now()
	state, err := m.resolve(ctx)
	duration := time.Since(start)

	count := 0
	if state != nil {
		count = len(state.options.Overrides)
	}
	m.cfg.observer.ObserveInit(m.name, count, duration, err)
	m.emitInit(ctx, state, err)

	if err != nil {
		m.cfg.logger.WarnContext(ctx, "plugin config rejected",
			"plugin", m.name,
			"duration", duration,
			"error", err,
		)
		return err
	}

	m.state.Store(state)
	for i, override := range state.options.Overrides {
		if paths := UnknownPaths(state.options.Config, override.Config); len(paths) > 0 {
			m.cfg.logger.WarnContext(ctx, "override sets paths absent from base config",
				"plugin", m.name,
				"override", i,
				"paths", paths,
			)
		}
	}
	m.cfg.logger.InfoContext(ctx, "plugin config initialized",
		"plugin", m.name,
		"overrides", count,
		"default_overrides", state.defaultCount,
		"replace_default_overrides", state.replaced,
		"duration", duration,
	)
	return nil
}

func (m *Manager) resolve(ctx context.Context) (*resolvedState, error) {
	user, err := m.cfg.validator.Validate(ctx, m.userInput)
	if err != nil {
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			err = &ValidationError{Diagnostic: err.Error(), Err: err}
		}
		return nil, err
	}

	merged := layering.Merge(m.defaults.Config, user.Config)
	base, err := m.cfg.parser(ctx, merged)
	if err != nil {
		return nil, &DomainParseError{Index: -1, Err: err}
	}
	if base == nil {
		base = ConfigTree{}
	}

	var overrides []Override
	defaultCount := 0
	if user.ReplaceDefaultOverrides {
		overrides = cloneOverrides(user.Overrides)
	} else {
		defaultCount = len(m.defaults.Overrides)
		overrides = make([]Override, 0, defaultCount+len(user.Overrides))
		overrides = append(overrides, cloneOverrides(m.defaults.Overrides)...)
		overrides = append(overrides, cloneOverrides(user.Overrides)...)
	}

	for i, override := range overrides {
		if override.Config == nil {
			return nil, &OverrideShapeError{Index: i, Reason: "override must include a config"}
		}
		if name, ok := unknownCriterion(override.Criteria, m.cfg.custom); ok {
			return nil, &OverrideShapeError{Index: i, Reason: fmt.Sprintf("unknown criterion %q", name)}
		}
	}

	// The speculative merge is validated against the unparsed merge so the
	// parser sees the same tree shape as it did for the base config.
	if err := m.validateOverrides(ctx, merged, overrides); err != nil {
		return nil, err
	}

	return &resolvedState{
		options:      ParsedOptions{Config: base, Overrides: overrides},
		defaultCount: defaultCount,
		replaced:     user.ReplaceDefaultOverrides,
	}, nil
}

func (m *Manager) validateOverrides(ctx context.Context, base ConfigTree, overrides []Override) error {
	check := func(ctx context.Context, index int) error {
		if _, err := m.cfg.parser(ctx, layering.Merge(base, overrides[index].Config)); err != nil {
			return &DomainParseError{Index: index, Err: err}
		}
		return nil
	}

	if m.cfg.concurrency <= 1 || len(overrides) < 2 {
		for i := range overrides {
			if err := check(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(m.cfg.concurrency)
	for i := range overrides {
		group.Go(func() error {
			return check(gctx, i)
		})
	}
	return group.Wait()
}

// unknownCriterion returns the first extra criterion name, in sorted order,
// that has no registered implementation.
func unknownCriterion(criteria Criteria, custom map[string]CustomCriterion) (string, bool) {
	names := make([]string, 0, len(criteria.Extra))
	for name := range criteria.Extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if custom[name] == nil {
			return name, true
		}
	}
	for _, nested := range criteria.All {
		if name, ok := unknownCriterion(nested, custom); ok {
			return name, true
		}
	}
	for _, nested := range criteria.Any {
		if name, ok := unknownCriterion(nested, custom); ok {
			return name, true
		}
	}
	if criteria.Not != nil {
		return unknownCriterion(*criteria.Not, custom)
	}
	return "", false
}

func (m *Manager) emitInit(ctx context.Context, state *resolvedState, initErr error) {
	if !m.emitter.Enabled() {
		return
	}
	input := activity.ConfigEventInput{
		Plugin:     m.name,
		HostID:     m.hostID(),
		Err:        initErr,
		OccurredAt: time.Now().UTC(),
	}
	if state != nil {
		input.Overrides = len(state.options.Overrides)
		input.DefaultOverrides = state.defaultCount
		input.Replaced = state.replaced
	}
	if event, err := m.emitter.EmitInit(ctx, input); err != nil {
		m.cfg.logger.WarnContext(ctx, "config activity hook failed",
			"plugin", m.name,
			"verb", event.Verb,
			"error", err,
		)
	}
}

// Get returns a copy of the parsed base config.
func (m *Manager) Get() (ConfigTree, error) {
	state := m.state.Load()
	if state == nil {
		return nil, ErrNotInitialized
	}
	return layering.Clone(state.options.Config), nil
}

// ParsedOptions returns a copy of the validated state: the parsed base config
// and the unmerged override deltas in application order.
func (m *Manager) ParsedOptions() (ParsedOptions, error) {
	state := m.state.Load()
	if state == nil {
		return ParsedOptions{}, ErrNotInitialized
	}
	return ParsedOptions{
		Config:    layering.Clone(state.options.Config),
		Overrides: cloneOverrides(state.options.Overrides),
	}, nil
}

// Describe lists the leaf paths of the parsed base config.
func (m *Manager) Describe() ([]FieldDescriptor, error) {
	state := m.state.Load()
	if state == nil {
		return nil, ErrNotInitialized
	}
	return DescribeConfig(state.options.Config), nil
}

// BindHost sets the owner context used for the owner level and passed to
// custom criteria. It may be called once, before or after Init.
func (m *Manager) BindHost(host Host) error {
	if isNilValue(host) {
		return fmt.Errorf("overrides: host must not be nil")
	}
	if !m.host.CompareAndSwap(nil, &boundHost{host: host}) {
		return ErrHostAlreadyBound
	}
	return nil
}

// Host returns the bound owner context, or nil.
func (m *Manager) Host() Host {
	if bound := m.host.Load(); bound != nil {
		return bound.host
	}
	return nil
}

func (m *Manager) hostID() string {
	if host := m.Host(); host != nil {
		return host.HostID()
	}
	return ""
}

// Params resolves req into match params using the manager's levels and host.
func (m *Manager) Params(req ResolutionRequest) MatchParams {
	return ResolveParams(req, m.cfg.levels, m.Host())
}

// MatchingConfig returns the effective config for req: the base config with
// every matching override folded on in order.
func (m *Manager) MatchingConfig(ctx context.Context, req ResolutionRequest) (ConfigTree, error) {
	config, _, err := m.MatchingConfigWithTrace(ctx, req)
	return config, err
}

// MatchingConfigWithTrace behaves like MatchingConfig and also reports which
// overrides were applied.
func (m *Manager) MatchingConfigWithTrace(ctx context.Context, req ResolutionRequest) (ConfigTree, Trace, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	state := m.state.Load()
	if state == nil {
		return nil, Trace{}, ErrNotInitialized
	}

	start := time.Now()
	host := m.Host()
	params := ResolveParams(req, m.cfg.levels, host)
	config, indexes, err := MatchConfigWithTrace(ctx, state.options, params, MatchOptions{
		Host:   host,
		Custom: m.cfg.custom,
	})
	duration := time.Since(start)
	m.cfg.observer.ObserveResolution(m.name, len(indexes), duration, err)
	if err != nil {
		m.cfg.logger.DebugContext(ctx, "plugin config resolution failed",
			"plugin", m.name,
			"error", err,
		)
		return nil, Trace{}, err
	}
	m.cfg.logger.DebugContext(ctx, "plugin config resolved",
		"plugin", m.name,
		"applied", indexes,
		"duration", duration,
	)
	return config, buildTrace(m.name, params, state.options, state.defaultCount, indexes), nil
}

// ForActor resolves the config for an actor.
func (m *Manager) ForActor(ctx context.Context, actor Actor) (ConfigTree, error) {
	return m.MatchingConfig(ctx, ResolutionRequest{Actor: actor})
}

// ForUser resolves the config for a bare user id.
func (m *Manager) ForUser(ctx context.Context, userID string) (ConfigTree, error) {
	return m.MatchingConfig(ctx, ResolutionRequest{UserID: userID})
}

// ForChannel resolves the config for a channel or thread.
func (m *Manager) ForChannel(ctx context.Context, channel Channel) (ConfigTree, error) {
	return m.MatchingConfig(ctx, ResolutionRequest{Channel: channel})
}

// ForMessage resolves the config for a message, its author and its channel.
// A message in a thread resolves channelId to the thread's parent channel and
// threadId to the thread, the same as ForChannel on the thread.
func (m *Manager) ForMessage(ctx context.Context, message Message) (ConfigTree, error) {
	return m.MatchingConfig(ctx, ResolutionRequest{Message: message})
}

// ForInteraction resolves the config for an interaction event. channelId is
// the event channel's own id, even when that channel is a thread.
func (m *Manager) ForInteraction(ctx context.Context, event Interaction) (ConfigTree, error) {
	return m.MatchingConfig(ctx, ResolutionRequest{Interaction: event})
}
