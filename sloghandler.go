// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"context"
	"log/slog"
	"slices"
)

// NewSlogHandler returns a [*SlogHandler] emitting to console.
//
// Use it to make the console the sole output of an application:
//
//	slog.SetDefault(slog.New(lanconsole.NewSlogHandler(console)))
func NewSlogHandler(console *Console) *SlogHandler {
	return &SlogHandler{console: console}
}

// SlogHandler is a [slog.Handler] routing records through a [*Console].
//
// The record level selects both the level tag and the method:
// Debug to debug, Info to info, Warn to warn, Error to error. The call
// arguments are the message followed, when there are attributes, by a
// map[string]any holding them (groups become nested maps).
type SlogHandler struct {
	attrs   []slog.Attr
	console *Console
	groups  []string
}

var _ slog.Handler = &SlogHandler{}

// Enabled implements [slog.Handler].
func (h *SlogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.console.ShouldProcess(slogMethod(level))
}

// Handle implements [slog.Handler].
func (h *SlogHandler) Handle(ctx context.Context, record slog.Record) error {
	attrs := slices.Clone(h.attrs)
	var recordAttrs []slog.Attr
	record.Attrs(func(attr slog.Attr) bool {
		recordAttrs = append(recordAttrs, attr)
		return true
	})
	attrs = append(attrs, nestAttrs(h.groups, recordAttrs)...)

	args := []any{record.Message}
	if fields := attrsToMap(attrs); len(fields) > 0 {
		args = append(args, fields)
	}
	method := slogMethod(record.Level)
	h.console.Emit(method, method, args...)
	return nil
}

// WithAttrs implements [slog.Handler].
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SlogHandler{
		attrs:   append(slices.Clone(h.attrs), nestAttrs(h.groups, attrs)...),
		console: h.console,
		groups:  slices.Clone(h.groups),
	}
}

// WithGroup implements [slog.Handler].
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SlogHandler{
		attrs:   slices.Clone(h.attrs),
		console: h.console,
		groups:  append(slices.Clone(h.groups), name),
	}
}

func slogMethod(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return MethodError
	case level >= slog.LevelWarn:
		return MethodWarn
	case level >= slog.LevelInfo:
		return MethodInfo
	default:
		return MethodDebug
	}
}

// nestAttrs wraps attrs into the open groups, innermost last.
func nestAttrs(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(attrs) == 0 {
		return nil
	}
	for idx := len(groups) - 1; idx >= 0; idx-- {
		attrs = []slog.Attr{{Key: groups[idx], Value: slog.GroupValue(attrs...)}}
	}
	return attrs
}

func attrsToMap(attrs []slog.Attr) map[string]any {
	fields := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		value := attr.Value.Resolve()
		if attr.Equal(slog.Attr{}) {
			continue
		}
		if value.Kind() == slog.KindGroup {
			group := attrsToMap(value.Group())
			if attr.Key == "" {
				for k, v := range group {
					fields[k] = v
				}
				continue
			}
			if existing, ok := fields[attr.Key].(map[string]any); ok {
				for k, v := range group {
					existing[k] = v
				}
				continue
			}
			fields[attr.Key] = group
			continue
		}
		fields[attr.Key] = value.Any()
	}
	return fields
}
