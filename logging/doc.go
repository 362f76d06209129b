// Package logging provides a minimal logging interface and adapters for
// agenthost.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the pipeline, state layer and adapters use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - HostLogger with contextual helpers (channel, conversation, component)
//     and domain specific helpers for turns, storage and proactive sends
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	application, err := app.New(func(o *app.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
