// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Preview server starting", zap.String("port", "8900"))
//	logger.Error("Failed to open document", zap.Error(err))
package logging
