// SPDX-License-Identifier: GPL-3.0-or-later

// Package lanconsole provides a console-style logging façade that can stream
// every processed call to a local debugging listener.
//
// # Overview
//
// A [*Console] is the object applications call instead of writing to the
// standard output directly. Each call goes through:
//
//   - a level filter ([*LevelFilter]) configured with a [LevelSpec],
//     memoizing the decision per level;
//   - an optional user [Override] for the method, which may stop the call;
//   - best-effort streaming of a [Record] over the shared [*Client];
//   - the real output ([Sink]), by default a [*StdSink].
//
// The base methods are log, info, error, warn, time, timeEnd, trace, assert,
// dir, debug and io. Additional methods are registered with
// [*Console.AddCustomLoggingMethod] and invoked with [*Console.Call].
//
// Calls carry an explicit level with [*Console.Emit], or use a tag set by
// [*Console.Tag] that applies to the next call only.
//
// # Remote Listener
//
// The [*Client] owns a single WebSocket connection to the listener at
// 127.0.0.1:55555 (see [DefaultPort]). [*Client.Connect] is asynchronous;
// until the connection is open, [*Client.Send] does nothing. Transport
// failures are logged and only affect [*Client.Connected].
//
// When the listener sends {"a":"welcome"}, the client replies once with a
// [HandshakeReply] describing the process ([ProcessInfo]). Afterwards, every
// processed call is streamed as:
//
//	{"event":"console","level":"warn","type":"log","content":[...],
//	 "contenttype":"JSON","timestamp":1700000000000,"script":"/abs/path",
//	 "file":"path","name":"title"}
//
// The connection is established by a pipeline of [Func] steps composed with
// [Compose5]: [NewEndpointFunc], [*ConnectFunc], [*ObserveConnFunc],
// [*CancelWatchFunc] and [*WebSocketHandshakeFunc].
//
// # Configuration
//
// [NewConfig] returns sensible defaults. [*Settings] reads overrides from
// TOML or YAML files ([LoadSettings]) and from LANCONSOLE_* environment
// variables ([*Settings.ApplyEnv]).
//
// # Observability
//
// The package reports on its own operation through an [SLogger] (compatible
// with [*slog.Logger]), disabled by default. Connection lifecycle events
// (transportConnectStart, transportOpen, transportHandshakeReply,
// transportClose, transportError) are emitted at [slog.LevelInfo] and carry
// a connID generated by [NewConnID]. Per-I/O events are emitted at
// [slog.LevelDebug], and so is transportSendSkipped, which reports a message
// dropped because it cannot be encoded as JSON. Errors are classified with
// [ErrClassifier].
//
// To route [log/slog] output through a console, use [NewSlogHandler].
package lanconsole
