package overrides

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// Function is a helper callable from criterion expressions.
type Function func(args ...any) (any, error)

var functionNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedFunctionNames are the globals every engine binds for an evaluation.
// A function under one of these names would shadow a match param.
var reservedFunctionNames = func() map[string]struct{} {
	reserved := map[string]struct{}{"now": {}, "args": {}, "call": {}}
	for name := range (RuleContext{}).binding() {
		reserved[name] = struct{}{}
	}
	return reserved
}()

// FunctionRegistry holds the helper functions exposed to expressions. Names
// are case sensitive, matching the expression languages.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register stores fn under name. The name must be an identifier, must not be
// one of the bound expression globals (level, userId, now, call, ...) and
// must not already be taken.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("overrides: function %q is nil", name)
	}
	if !functionNamePattern.MatchString(name) {
		return fmt.Errorf("overrides: function name %q is not an identifier", name)
	}
	if _, reserved := reservedFunctionNames[name]; reserved {
		return fmt.Errorf("overrides: function name %q shadows an expression global", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	if _, exists := r.functions[name]; exists {
		return fmt.Errorf("overrides: function %q already registered", name)
	}
	r.functions[name] = fn
	return nil
}

// MustRegister is Register for package-level setup; it panics on error.
func (r *FunctionRegistry) MustRegister(name string, fn Function) *FunctionRegistry {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
	return r
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("overrides: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[name]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("overrides: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
