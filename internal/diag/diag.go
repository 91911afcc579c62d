// Package diag holds the process-wide debug-logging flag. It is the only
// global mutable state in this repository (see spec §9 "Global mutable
// state"): a set-once-at-startup option bundle that many packages read.
package diag

import (
	"os"
	"strings"
	"sync/atomic"
)

var debugEnabled atomic.Bool

// EnvVar is the environment variable that enables verbose diagnostic output
// at process start (spec §6).
const EnvVar = "IONIA_DEBUG_LOGS"

func init() {
	debugEnabled.Store(truthy(os.Getenv(EnvVar)))
}

// truthy reports whether s is one of the accepted "on" spellings.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// SetDebug enables or disables verbose logging. Safe to call concurrently.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// Debug reports whether verbose logging is currently enabled.
func Debug() bool {
	return debugEnabled.Load()
}
