// Package logging provides a simple leveled logging interface for the
// photo gallery.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// Messages are written through log/slog using a text or JSON handler.
// The level comes from LOG_LEVEL (or DEBUG=true) until Configure is called
// with the loaded configuration.
package logging
