// Package logger provides structured logging for the KV backup tool.
//
// It wraps zerolog behind a small Logger interface so the rest of the
// codebase does not depend on a concrete logging library. A global
// instance is configured once at startup via Initialize and retrieved
// with GetLogger; package-level helpers (Info, WithField, ...) forward
// to it.
//
// Usage:
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("namespace", nsID).Info("starting backup")
//
//	log := logger.GetLogger()
//	log.InfoWithFields("page listed", map[string]interface{}{
//	    "keys":   42,
//	    "cursor": cursor,
//	})
package logger
