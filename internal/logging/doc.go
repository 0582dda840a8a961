// Package logging provides structured logging for bflb-flash.
//
// This package wraps a zap logger with convenience functions. The logger
// returned by GetLogger is handed to the toolchain executor, which logs the
// command line of every vendor tool run and relays its output line by line.
// LogRawBytes dumps binary sections of factory data at debug level.
//
// # Log Levels
//
//   - Debug: tool output, rendered config files, hex dumps
//   - Info: tool invocations, discovered files, produced images
//   - Warn: non-fatal issues (missing optional files, listing failures)
//   - Error: failed tool runs
//
// # Configuration
//
// Logging is silent unless a level is given with --log-level or the
// BFLB_LOG_LEVEL environment variable, so the styled command output stays
// readable:
//
//	if err := logging.Initialize(logLevel); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Logs are written to stderr in console format.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has
// returned. The executor relays stdout and stderr of a tool from two
// goroutines through the same logger.
package logging
