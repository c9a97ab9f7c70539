// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"encoding/json"
	"reflect"
	"runtime"

	"github.com/davecgh/go-spew/spew"
)

// Content types of [Record].
const (
	ContentTypeJSON     = "JSON"
	ContentTypeFunction = "function"
	ContentTypeObject   = "object"
)

// inspectDepth limits the nesting of the textual fallback content.
const inspectDepth = 3

// Record is the message streamed to the listener for each processed call.
type Record struct {
	// Event is always "console".
	Event string `json:"event"`

	// Level is the tag of the call, or nil when untagged.
	Level *string `json:"level"`

	// Type is the method name (e.g., "log").
	Type string `json:"type"`

	// Content holds the call arguments (see ContentType).
	Content any `json:"content"`

	// ContentType is [ContentTypeJSON] when Content is the JSON array of
	// arguments, [ContentTypeFunction] when it is the name of a single
	// function argument, [ContentTypeObject] when it is a textual dump.
	ContentType string `json:"contenttype"`

	// Timestamp is the time of the call in milliseconds since the epoch.
	Timestamp int64 `json:"timestamp"`

	// Script is the absolute path of the program.
	Script string `json:"script"`

	// File is the base name of Script.
	File string `json:"file"`

	// Name is the process title.
	Name string `json:"name"`
}

// newRecord builds the [*Record] for a call.
func newRecord(pi ProcessInfo, level, method string, args []any, timestampMillis int64) *Record {
	content, ctype := encodeContent(args)
	rec := &Record{
		Event:       "console",
		Type:        method,
		Content:     content,
		ContentType: ctype,
		Timestamp:   timestampMillis,
		Script:      pi.Script,
		File:        pi.File(),
		Name:        pi.Title,
	}
	if level != "" {
		rec.Level = &level
	}
	return rec
}

var inspectConfig = spew.ConfigState{
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	Indent:                  " ",
	MaxDepth:                inspectDepth,
	SortKeys:                true,
}

// encodeContent returns the arguments in a form that is always JSON-encodable.
func encodeContent(args []any) (any, string) {
	if args == nil {
		args = []any{}
	}
	if len(args) == 1 {
		if v := reflect.ValueOf(args[0]); v.Kind() == reflect.Func && !v.IsNil() {
			if fn := runtime.FuncForPC(v.Pointer()); fn != nil {
				return fn.Name(), ContentTypeFunction
			}
		}
	}
	raw, err := json.Marshal(args)
	if err == nil {
		return json.RawMessage(raw), ContentTypeJSON
	}
	return inspectConfig.Sdump(args...), ContentTypeObject
}
