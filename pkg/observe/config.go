package observe

import "log/slog"

// DebugMode enables debug logging of tracking activation and throttled
// notification delivery. Set it at startup; it is not synchronized.
var DebugMode bool

// debugLog logs through slog.Default when DebugMode is on.
func debugLog(msg string, args ...any) {
	if DebugMode {
		slog.Debug(msg, args...)
	}
}
