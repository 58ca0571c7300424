package overrides

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ProgramCache stores compiled expression programs. Keys are namespaced by
// engine so one cache can be shared between evaluators.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// DefaultProgramCacheSize bounds NewLRUProgramCache when size is not positive.
const DefaultProgramCacheSize = 256

func cacheKey(engine, expression string) string {
	return engine + ":" + expression
}

type lruProgramCache struct {
	programs *lru.Cache[string, any]
}

// NewLRUProgramCache returns a bounded, concurrency-safe ProgramCache that
// evicts the least recently used program once size entries are stored.
func NewLRUProgramCache(size int) (ProgramCache, error) {
	if size <= 0 {
		size = DefaultProgramCacheSize
	}
	programs, err := lru.New[string, any](size)
	if err != nil {
		return nil, fmt.Errorf("overrides: program cache: %w", err)
	}
	return &lruProgramCache{programs: programs}, nil
}

func (c *lruProgramCache) Get(key string) (any, bool) {
	return c.programs.Get(key)
}

func (c *lruProgramCache) Set(key string, value any) {
	c.programs.Add(key, value)
}

// cachedProgram returns the program stored for engine and expression, or
// compiles and stores it. Entries of the wrong type count as misses.
func cachedProgram[P any](cache ProgramCache, engine, expression string, compile func() (P, error)) (P, error) {
	key := cacheKey(engine, expression)
	if cache != nil {
		if hit, ok := cache.Get(key); ok {
			if program, ok := hit.(P); ok {
				return program, nil
			}
		}
	}
	program, err := compile()
	if err != nil {
		return program, err
	}
	if cache != nil {
		cache.Set(key, program)
	}
	return program, nil
}
