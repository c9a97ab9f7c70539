// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"slices"
	"strings"
	"sync"
)

// Override is a user-supplied hook for a base method.
//
// It receives the level the call was tagged with (empty when untagged)
// and the call arguments. Returning false stops processing: the call is
// neither streamed nor written to the sink.
type Override func(level string, args []any) bool

// CustomMethod is a user-defined method installed with
// [*Console.AddCustomLoggingMethod].
//
// It typically tags a level and forwards to a base method:
//
//	func(c *Console, args ...any) { c.Emit("critical", "log", args...) }
type CustomMethod func(c *Console, args ...any)

// Base method names.
const (
	MethodLog     = "log"
	MethodInfo    = "info"
	MethodError   = "error"
	MethodWarn    = "warn"
	MethodTime    = "time"
	MethodTimeEnd = "timeEnd"
	MethodTrace   = "trace"
	MethodAssert  = "assert"
	MethodDir     = "dir"
	MethodDebug   = "debug"
	MethodIO      = "io"
)

var baseMethods = []string{
	MethodLog, MethodInfo, MethodError, MethodWarn, MethodTime, MethodTimeEnd,
	MethodTrace, MethodAssert, MethodDir, MethodDebug, MethodIO,
}

// reservedNames are console members that custom methods cannot shadow.
var reservedNames = []string{
	"level", "stream", "useColor", "shouldProcess", "addCustomLoggingMethod",
}

// BaseMethods returns the names of the interceptable base methods.
func BaseMethods() []string {
	return slices.Clone(baseMethods)
}

// IsBaseMethod reports whether name is one of [BaseMethods].
func IsBaseMethod(name string) bool {
	return slices.Contains(baseMethods, name)
}

// MethodRegistry tracks overrides for base methods and custom methods.
//
// Every base method has a slot that is initially empty. A slot accepts only
// [Override] values. Custom methods are added once and cannot be redefined.
//
// Construct using [NewMethodRegistry]. A MethodRegistry is safe for
// concurrent use.
type MethodRegistry struct {
	custom    map[string]CustomMethod
	mu        sync.RWMutex
	overrides map[string]Override
}

// NewMethodRegistry returns a registry with empty base method slots.
func NewMethodRegistry() *MethodRegistry {
	overrides := make(map[string]Override, len(baseMethods))
	for _, method := range baseMethods {
		overrides[method] = nil
	}
	return &MethodRegistry{
		custom:    make(map[string]CustomMethod),
		overrides: overrides,
	}
}

// Set installs value as the override of a base method.
//
// The value must be an [Override] or a function with the same signature.
// A nil [Override] empties the slot. Any other value, or a method that is
// not a base method, fails with [ErrInvalidOverride] and leaves the slot
// unchanged.
func (r *MethodRegistry) Set(method string, value any) error {
	var fn Override
	switch v := value.(type) {
	case Override:
		fn = v
	case func(string, []any) bool:
		fn = v
	default:
		return newInvalidOverrideError(method)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.overrides[method]; !found {
		return newInvalidOverrideError(method)
	}
	r.overrides[method] = fn
	return nil
}

// Get returns the override of a base method, if one is set.
func (r *MethodRegistry) Get(method string) (Override, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn := r.overrides[method]
	return fn, fn != nil
}

// AddCustom registers a custom method.
//
// It fails with [ErrDuplicateMethod] when name is a base method, a
// reserved console member, or an already registered custom method. In
// that case the existing registration is left untouched.
func (r *MethodRegistry) AddCustom(name string, fn CustomMethod) error {
	if strings.TrimSpace(name) == "" {
		return newInvalidArgumentError("custom method name must not be empty")
	}
	if fn == nil {
		return newInvalidOverrideError(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsLocked(name) {
		return newDuplicateMethodError(name)
	}
	r.custom[name] = fn
	return nil
}

// Custom returns a registered custom method.
func (r *MethodRegistry) Custom(name string) (CustomMethod, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, found := r.custom[name]
	return fn, found
}

// Has reports whether name is a base, reserved, or custom method.
func (r *MethodRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.existsLocked(name)
}

func (r *MethodRegistry) existsLocked(name string) bool {
	if _, found := r.overrides[name]; found {
		return true
	}
	if _, found := r.custom[name]; found {
		return true
	}
	return slices.Contains(reservedNames, name)
}
