// Package logging provides structured logging using uber/zap.
//
// Two modes are offered:
//   - Development: colored console output for a person at the terminal
//   - Production: JSON output for log collectors
//
// Logs go to stderr so they never mix with text a command prints for the user.
//
// Example Usage:
//
//	logger, err := logging.New(logging.DefaultConfig())
//	logger.Info("session created", zap.String("session", "Bench Console"))
//	logger.Error("submit failed", zap.Error(err))
package logging
