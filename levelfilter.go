// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"slices"
	"sync"
)

// LevelFilter decides whether a call tagged with a given level is processed.
//
// Decisions are memoized per normalized level. Changing the spec with
// [*LevelFilter.SetSpec] evicts only the entries named by the new spec, so
// decisions cached for other levels survive the change. Use
// [*LevelFilter.Reset] to flush the whole cache.
//
// The zero value is not ready to use; construct using [NewLevelFilter].
//
// A LevelFilter is safe for concurrent use.
type LevelFilter struct {
	cache map[string]bool
	mu    sync.Mutex
	spec  LevelSpec
}

// NewLevelFilter returns a new [*LevelFilter] with an empty cache.
func NewLevelFilter(spec LevelSpec) *LevelFilter {
	return &LevelFilter{
		cache: make(map[string]bool),
		spec:  spec,
	}
}

// Spec returns the current [LevelSpec].
func (f *LevelFilter) Spec() LevelSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spec
}

// SetSpec replaces the [LevelSpec] and evicts the cache entries it names.
func (f *LevelFilter) SetSpec(spec LevelSpec) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range spec.evictionKeys() {
		delete(f.cache, key)
	}
	f.spec = spec
}

// Reset flushes every cached decision.
func (f *LevelFilter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.cache)
}

// ShouldProcess reports whether a call at the given level should be processed.
func (f *LevelFilter) ShouldProcess(level string) bool {
	level = NormalizeLevel(level)
	f.mu.Lock()
	defer f.mu.Unlock()
	if decision, found := f.cache[level]; found {
		return decision
	}
	decision := f.decide(level)
	f.cache[level] = decision
	return decision
}

func (f *LevelFilter) decide(level string) bool {
	switch f.spec.kind {
	case levelKindAll:
		return true

	case levelKindNone:
		return false

	case levelKindSingle:
		if level == "none" {
			return false
		}
		return NormalizeLevel(f.spec.levels[0]) == level

	case levelKindSet:
		if level == "none" {
			return false
		}
		return slices.ContainsFunc(f.spec.levels, func(entry string) bool {
			return NormalizeLevel(entry) == level
		})

	case levelKindEnabled:
		return f.spec.enabled

	default:
		return true
	}
}
