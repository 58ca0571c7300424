package overrides

import (
	"log/slog"

	"github.com/goliatone/go-overrides/pkg/activity"
)

// Option configures a Manager.
type Option func(*managerConfig)

type managerConfig struct {
	levels      PermissionLevels
	parser      Parser
	validator   Validator
	custom      map[string]CustomCriterion
	logger      *slog.Logger
	observer    Observer
	hooks       activity.Hooks
	concurrency int
	host        Host
}

func applyOptions(opts []Option) managerConfig {
	cfg := managerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.parser == nil {
		cfg.parser = IdentityParser
	}
	if cfg.validator == nil {
		cfg.validator = DefaultValidator()
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.observer == nil {
		cfg.observer = noopObserver{}
	}
	if cfg.concurrency < 1 {
		cfg.concurrency = 1
	}
	return cfg
}

// WithLevels sets the permission levels used to derive actor levels.
func WithLevels(levels PermissionLevels) Option {
	return func(cfg *managerConfig) {
		cfg.levels = append(PermissionLevels(nil), levels...)
	}
}

// WithParser sets the domain parser. Defaults to IdentityParser.
func WithParser(parser Parser) Option {
	return func(cfg *managerConfig) {
		cfg.parser = parser
	}
}

// WithValidator replaces the base shape validator. Defaults to
// DefaultValidator.
func WithValidator(validator Validator) Option {
	return func(cfg *managerConfig) {
		cfg.validator = validator
	}
}

// WithCustomCriterion registers fn under name for overrides' extra blocks.
func WithCustomCriterion(name string, fn CustomCriterion) Option {
	return func(cfg *managerConfig) {
		if name == "" || fn == nil {
			return
		}
		if cfg.custom == nil {
			cfg.custom = map[string]CustomCriterion{}
		}
		cfg.custom[name] = fn
	}
}

// WithCustomCriteria registers every entry of criteria.
func WithCustomCriteria(criteria map[string]CustomCriterion) Option {
	return func(cfg *managerConfig) {
		for name, fn := range criteria {
			WithCustomCriterion(name, fn)(cfg)
		}
	}
}

// WithLogger sets the structured logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *managerConfig) {
		cfg.logger = logger
	}
}

// WithObserver attaches an Observer notified of init and resolution calls.
func WithObserver(observer Observer) Option {
	return func(cfg *managerConfig) {
		cfg.observer = observer
	}
}

// WithActivityHooks attaches activity hooks notified when Init completes or
// fails. Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Compact()
	return func(cfg *managerConfig) {
		cfg.hooks = normalized
	}
}

// WithValidationConcurrency validates up to n overrides in parallel during
// Init. The parser must be safe for concurrent use when n > 1.
func WithValidationConcurrency(n int) Option {
	return func(cfg *managerConfig) {
		cfg.concurrency = n
	}
}

// WithHost binds host at construction time; equivalent to calling BindHost.
func WithHost(host Host) Option {
	return func(cfg *managerConfig) {
		cfg.host = host
	}
}
