package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration (P001-P019)

	"P001": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The config file could not be parsed. patchwire.json must be valid JSON and patchwire.yaml valid YAML.",
	},
	"P002": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "One or more configuration values failed validation.",
	},
	"P003": {
		Category: CategoryConfig,
		Message:  "Signing secret missing",
		Detail:   "Component state is signed with an HMAC secret of at least 16 bytes. Set it in the config file or in PATCHWIRE_SECRET.",
	},
	"P004": {
		Category: CategoryConfig,
		Message:  "Config file not readable",
		Detail:   "The config file exists but could not be read.",
	},

	// CLI (P020-P039)

	"P020": {
		Category: CategoryCLI,
		Message:  "Cannot read input file",
		Detail:   "The file given on the command line could not be read.",
	},
	"P021": {
		Category: CategoryCLI,
		Message:  "Invalid state file",
		Detail:   "The state file must hold a single JSON object.",
	},
	"P022": {
		Category: CategorySignature,
		Message:  "Signature mismatch",
		Detail:   "The signature does not match the state and component id. The state was changed after it was signed, or it was signed with another secret.",
	},
	"P023": {
		Category: CategoryCLI,
		Message:  "Server stopped with an error",
		Detail:   "The HTTP server failed to start or stopped unexpectedly.",
	},

	// Protocol (P040-P059)

	"P040": {
		Category: CategoryProtocol,
		Message:  "Invalid patch stream",
		Detail:   "The input is not a patch list in the selected wire mode.",
	},
	"P041": {
		Category: CategoryProtocol,
		Message:  "Invalid wire mode",
		Detail:   "The wire mode must be \"full\" or \"minified\".",
	},

	// Render and snapshots (P060-P079)

	"P060": {
		Category: CategoryRender,
		Message:  "Render failed",
		Detail:   "A component's render callback returned an error.",
	},
	"P061": {
		Category: CategorySnapshot,
		Message:  "Snapshot store unavailable",
		Detail:   "The configured snapshot backend could not be opened.",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
