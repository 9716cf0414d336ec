package errors

import (
	"sort"
	"sync"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

var (
	registryMu sync.RWMutex

	// registry maps error codes to their templates.
	registry = map[string]ErrorTemplate{
		// ============================================
		// Config Errors (O001-O009)
		// ============================================

		"O001": {
			Category: CategoryConfig,
			Message:  "Cannot read config file",
			Detail:   "The configuration file exists but could not be read.",
		},
		"O002": {
			Category: CategoryConfig,
			Message:  "Invalid config file",
			Detail:   "The configuration file is not valid JSON.",
		},
		"O003": {
			Category: CategoryConfig,
			Message:  "Invalid duration",
			Detail:   `Durations are written as Go duration strings such as "250ms" or "5s".`,
		},
		"O004": {
			Category: CategoryConfig,
			Message:  "Invalid port",
			Detail:   "The server port must be between 1 and 65535.",
		},
		"O005": {
			Category: CategoryConfig,
			Message:  "Invalid log setting",
			Detail:   `log.level must be one of debug, info, warn, error and log.format one of text, json.`,
		},
		"O006": {
			Category: CategoryConfig,
			Message:  "Incomplete snapshot settings",
			Detail:   "A snapshot key or prefix was configured without a bucket.",
		},
		"O007": {
			Category: CategoryConfig,
			Message:  "Invalid initial contents",
			Detail:   "initial must be a flat list of strings, numbers, booleans or nulls.",
		},

		// ============================================
		// Scenario Errors (O010-O019)
		// ============================================

		"O010": {
			Category: CategoryScenario,
			Message:  "Cannot read scenario file",
			Detail:   "The scenario file could not be opened.",
		},
		"O011": {
			Category: CategoryScenario,
			Message:  "Invalid scenario file",
			Detail:   "The scenario file is not valid YAML or does not match the scenario layout.",
		},
		"O012": {
			Category: CategoryScenario,
			Message:  "Unknown scenario operation",
			Detail:   "The step names an operation the array does not support.",
		},
		"O013": {
			Category: CategoryScenario,
			Message:  "Invalid operation arguments",
			Detail:   "The step passes the wrong number or kind of arguments for its operation.",
		},
		"O014": {
			Category: CategoryScenario,
			Message:  "Invalid throttle",
			Detail:   `The scenario throttle must be a duration string such as "50ms".`,
		},

		// ============================================
		// Stream Errors (O020-O029)
		// ============================================

		"O020": {
			Category: CategoryStream,
			Message:  "Server failed",
			Detail:   "The stream server stopped with an error.",
		},
		"O021": {
			Category: CategoryStream,
			Message:  "Address in use",
			Detail:   "Another process is already listening on the configured address.",
		},

		// ============================================
		// Snapshot Errors (O030-O039)
		// ============================================

		"O030": {
			Category: CategorySnapshot,
			Message:  "Snapshot sink unavailable",
			Detail:   "The S3 client could not be configured from the environment.",
		},

		// ============================================
		// CLI Errors (O040-O049)
		// ============================================

		"O040": {
			Category: CategoryCLI,
			Message:  "Missing argument",
			Detail:   "The command requires an argument that was not given.",
		},
	}
)

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = template
}
