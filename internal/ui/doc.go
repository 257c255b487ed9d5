// Package ui renders smartap-cfg output with Lipgloss.
//
// Everything here follows a "print once" pattern: commands build a value
// (a Header, a Result, a device list, an event line), render it to a string
// and write it to stdout. Nothing is interactive except ReadSecret, which
// reads a WiFi key without echo when stdin is a terminal.
//
// # Components
//
//   - Header: command banner with the target device and parameters
//   - Result: success, failure or warning box with details
//   - DeviceList: discovered devices, one block per device
//   - Event: one line per streamed notification for 'smartap-cfg watch'
//
// Widths follow the terminal (golang.org/x/term), clamped between
// MinTerminalWidth and MaxContentWidth.
//
// # Logging Integration
//
// zap logging stays silent unless SMARTAP_LOG_LEVEL is set, so the rendered
// output is not interleaved with log lines.
package ui
