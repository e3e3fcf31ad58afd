package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// Registered error codes.
const (
	CodeHookOutsideRender  = "R101"
	CodeHookOrderMismatch  = "R102"
	CodeDepsLengthChanged  = "R103"
	CodeUnknownFiberTag    = "R104"
	CodeUnknownElementKind = "R105"
	CodeRenderPanic        = "R106"
	CodeCommitWithoutLane  = "R107"
	CodeInvalidConfigFile  = "R120"
	CodeInvalidConfigValue = "R121"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Usage Errors (R100-R103)
	// ============================================

	"R101": {
		Category:   CategoryUsage,
		Message:    "Hook called outside a component render",
		Detail:     "Hooks may only be called through the *Hooks value passed to the component, while that component is rendering.",
		Suggestion: "Do not keep the *Hooks value past the render, and do not call hooks from effects or event handlers.",
	},
	"R102": {
		Category:   CategoryUsage,
		Message:    "Hook order changed between renders",
		Detail:     "A component called more hooks, or hooks of a different kind, than in its previous render.",
		Suggestion: "Call hooks unconditionally and in the same order on every render.",
	},
	"R103": {
		Category:   CategoryUsage,
		Message:    "Effect dependency list changed length",
		Detail:     "The dependency list passed to an effect or memo must have the same length on every render.",
		Suggestion: "Pass nil to rerun on every render, or keep a fixed set of dependencies.",
	},

	// ============================================
	// Render Errors (R104-R106)
	// ============================================

	"R104": {
		Category: CategoryRender,
		Message:  "Unknown fiber tag",
		Detail:   "The work loop met a fiber whose tag it does not know how to process.",
	},
	"R105": {
		Category:   CategoryRender,
		Message:    "Unknown element kind",
		Detail:     "A child could not be turned into a fiber and was skipped.",
		Suggestion: "Return *element.Element, strings, numbers, slices of these, or nil from components.",
	},
	"R106": {
		Category: CategoryRender,
		Message:  "Component panicked during render",
		Detail:   "The render was abandoned and the last committed tree stays visible. The update stays pending until the root is retried or updated again.",
	},

	// ============================================
	// Invariant Errors (R107-R119)
	// ============================================

	"R107": {
		Category: CategoryInvariant,
		Message:  "Commit without a lane",
		Detail:   "A finished tree was committed without a lane, or with a lane that was no longer pending.",
	},

	// ============================================
	// Config Errors (R120-R139)
	// ============================================

	"R120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or parsed as YAML.",
	},
	"R121": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
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
