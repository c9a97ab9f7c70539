// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"fmt"
	"slices"
	"strings"
)

// levelKind is the discriminant of [LevelSpec].
type levelKind int

const (
	levelKindAll levelKind = iota
	levelKindNone
	levelKindSingle
	levelKindSet
	levelKindEnabled
)

// LevelSpec selects which severity levels are processed.
//
// It is one of: all levels, no level, a single level, a set of levels, or
// a plain boolean. Construct using [LevelAll], [LevelNone], [LevelSingle],
// [LevelSet], [LevelEnabled], or [ParseLevelSpec].
//
// The zero value selects all levels.
type LevelSpec struct {
	kind    levelKind
	levels  []string
	enabled bool
}

// LevelAll returns a [LevelSpec] selecting every level.
func LevelAll() LevelSpec {
	return LevelSpec{kind: levelKindAll}
}

// LevelNone returns a [LevelSpec] selecting no level.
func LevelNone() LevelSpec {
	return LevelSpec{kind: levelKindNone}
}

// LevelSingle returns a [LevelSpec] selecting a single level.
//
// The values "all" and "none" (and the empty string) are recognized
// and map to [LevelAll] and [LevelNone] respectively.
func LevelSingle(level string) LevelSpec {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "all":
		return LevelAll()
	case "none", "":
		return LevelNone()
	default:
		return LevelSpec{kind: levelKindSingle, levels: []string{level}}
	}
}

// LevelSet returns a [LevelSpec] selecting the given levels.
//
// The order of levels is preserved. An empty set selects no level.
func LevelSet(levels ...string) LevelSpec {
	return LevelSpec{kind: levelKindSet, levels: slices.Clone(levels)}
}

// LevelEnabled returns a [LevelSpec] selecting every level when
// enabled is true and no level otherwise.
func LevelEnabled(enabled bool) LevelSpec {
	return LevelSpec{kind: levelKindEnabled, enabled: enabled}
}

// ParseLevelSpec converts a loosely typed configuration value.
//
// Accepted values are nil (all levels), a [LevelSpec], a string (see
// [LevelSingle]), a bool, a []string, or a []any containing only strings.
// Anything else fails with [ErrInvalidArgument].
func ParseLevelSpec(value any) (LevelSpec, error) {
	switch v := value.(type) {
	case nil:
		return LevelAll(), nil
	case LevelSpec:
		return v, nil
	case string:
		return LevelSingle(v), nil
	case bool:
		return LevelEnabled(v), nil
	case []string:
		return LevelSet(v...), nil
	case []any:
		levels := make([]string, 0, len(v))
		for idx, entry := range v {
			s, ok := entry.(string)
			if !ok {
				return LevelSpec{}, newInvalidArgumentError(
					"level list entry %d must be a string, got %T", idx, entry)
			}
			levels = append(levels, s)
		}
		return LevelSet(levels...), nil
	default:
		return LevelSpec{}, newInvalidArgumentError("unsupported level value of type %T", value)
	}
}

// IsAll reports whether the spec selects every level.
func (s LevelSpec) IsAll() bool {
	return s.kind == levelKindAll
}

// IsNone reports whether the spec is the explicit "none" value.
func (s LevelSpec) IsNone() bool {
	return s.kind == levelKindNone
}

// Levels returns a copy of the levels named by a single or set spec.
func (s LevelSpec) Levels() []string {
	return slices.Clone(s.levels)
}

// Enabled reports whether the spec is switched on at all.
//
// This is the rule used for the stream setting: "none", an empty set and
// false disable it; anything else enables it.
func (s LevelSpec) Enabled() bool {
	switch s.kind {
	case levelKindNone:
		return false
	case levelKindSet:
		return len(s.levels) > 0
	case levelKindEnabled:
		return s.enabled
	default:
		return true
	}
}

// evictionKeys returns the normalized cache keys named by this spec.
func (s LevelSpec) evictionKeys() []string {
	switch s.kind {
	case levelKindAll:
		return []string{"all"}
	case levelKindNone:
		return []string{"none"}
	case levelKindSingle, levelKindSet:
		keys := make([]string, 0, len(s.levels))
		for _, level := range s.levels {
			keys = append(keys, NormalizeLevel(level))
		}
		return keys
	default:
		return nil
	}
}

// String implements [fmt.Stringer].
func (s LevelSpec) String() string {
	switch s.kind {
	case levelKindAll:
		return "all"
	case levelKindNone:
		return "none"
	case levelKindSingle:
		return s.levels[0]
	case levelKindSet:
		return "[" + strings.Join(s.levels, ",") + "]"
	case levelKindEnabled:
		return fmt.Sprintf("%t", s.enabled)
	default:
		return "invalid"
	}
}

// NormalizeLevel trims and lowercases a level name.
//
// The empty string maps to "none", which is also the level of untagged calls.
func NormalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return "none"
	}
	return level
}
