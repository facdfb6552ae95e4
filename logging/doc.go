// Package logging provides a minimal logging interface and adapters for TrainMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the trainer and listeners use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - TrainLogger with contextual cloning and training-domain helpers
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	t := trainer.New(opt, forward, lossFn, func(o *trainer.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
