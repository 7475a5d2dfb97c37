package ruleset

import "fmt"

// Error codes for rule file loading.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E004" // File could not be read
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // Document did not compile
	ErrCodeSchema      = "E008" // Document does not satisfy #RuleFile
	ErrCodeFormat      = "E009" // Unsupported file extension
	ErrCodeInvalidRule = "E010" // A rule could not be decoded
)

// LoadError describes a failure to load a rule file.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// RuleError describes a single malformed rule.
type RuleError struct {
	Source  string
	Index   int
	Field   string
	Message string
}

func (e *RuleError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: rules[%d].%s: %s", e.Source, e.Index, e.Field, e.Message)
	}
	return fmt.Sprintf("rules[%d].%s: %s", e.Index, e.Field, e.Message)
}
