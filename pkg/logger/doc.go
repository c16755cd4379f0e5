// Package logger provides the structured logging interface used across the
// collector.
//
// It wraps zerolog with a small field-oriented API:
//
//	logger.GetLogger().
//	    WithField("run_id", runID).
//	    InfoWithFields("Stage started", map[string]interface{}{
//	        "stage": "reactions",
//	        "cap":   2000,
//	    })
//
// Initialize configures the global logger from config.LoggingConfig. Console
// output is colored; a configured file receives the same lines. Components
// take a Logger value so tests can pass NewNopLogger or a capturing
// NewTestLogger.
package logger
