package overrides

// EngineOption configures the expr, CEL and JS evaluators alike.
type EngineOption func(*engineConfig)

type engineConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// EngineWithProgramCache stores compiled programs in cache. One cache may be
// shared by several engines.
func EngineWithProgramCache(cache ProgramCache) EngineOption {
	return func(cfg *engineConfig) {
		cfg.cache = cache
	}
}

// EngineWithFunctionRegistry exposes the registry's functions to expressions,
// both by name and through call(name, args). The registry is copied, so later
// registrations are not visible to the engine.
func EngineWithFunctionRegistry(registry *FunctionRegistry) EngineOption {
	return func(cfg *engineConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyEngineOptions(opts []EngineOption) engineConfig {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
