// Package logging provides structured logging for the Smartap device lifecycle controller.
//
// This package wraps the zap logger with convenience functions for the logging
// patterns used throughout the controller, plus lifecycle-specific helpers for
// state transitions, notification fan-out, and configuration changes.
//
// # Log Levels
//
//   - Debug: Notification delivery, watchdog reloads, raw record dumps
//   - Info: Boot steps, state transitions, configuration changes, connections
//   - Warn: Recoverable failures (optional services not started, subscriber errors)
//   - Error: Fatal boot failures, persistence failures
//
// # Structured Logging
//
//	logging.Info("Connecting to access point",
//	    zap.String("ssid", "HomeNet"),
//	    logging.MAC("bssid", bssid[:]),
//	)
//
// Key material is never passed to the logger. Callers log field names, not values,
// when a merge changes the stored key (see LogConfigChange).
//
// # Configuration
//
//	if err := logging.InitializeWithFile("info", logging.FileOptions{
//	    Path: "/var/lib/smartap/device.log",
//	}); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An empty level falls back to SMARTAP_LOG_LEVEL; if that is empty too the
// logger is a no-op. The file sink rotates via lumberjack and writes JSON.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize and SetLogger
// are expected to run once at startup (or in tests) before goroutines log.
package logging
