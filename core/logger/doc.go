// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) and two encodings.
//
// # Context Awareness
//
// Import runs process many records concurrently, so log lines are tagged:
// WithRun attaches the run id, WithRecord attaches the kind, natural key and
// source file position of the record being processed.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Import started")
//
//	l := logger.WithRecord(log, "series", "solo-leveling", "series.json#3")
//	l.Warn("Cover download failed", zap.Error(err))
package logger
