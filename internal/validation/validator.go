// Package validation provides validation for routing intents and compose
// documents.
//
// It uses:
//   - go-playground/validator for struct-level intent validation
//   - yaml.v3 for compose document well-formedness checks
//
// Intent validation runs before any document mutation; the compose lint is
// an advisory check used by the CLI and the manual-edit path, not by the
// reconciliation hot path (which deliberately treats documents as opaque
// text).
package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"evalgo.org/stackyard/models"
)

// Validator validates routing intents and compose documents.
type Validator struct {
	// structValidator validates Go struct constraints and tags
	structValidator *validator.Validate
}

// ValidationError represents a single validation error with field-level details.
type ValidationError struct {
	// Field is the name of the field that failed validation
	Field string `json:"field"`

	// Message describes why the validation failed
	Message string `json:"message"`

	// Value is the invalid value that caused the error (optional)
	Value interface{} `json:"value,omitempty"`
}

// ValidationResult represents the complete result of a validation operation.
type ValidationResult struct {
	// Valid is true if validation passed, false otherwise
	Valid bool `json:"valid"`

	// Errors contains all validation errors found (empty if Valid is true)
	Errors []ValidationError `json:"errors,omitempty"`
}

// New creates a new Validator instance.
func New() *Validator {
	return &Validator{
		structValidator: validator.New(),
	}
}

// ValidateIntent checks a routing intent against its structural
// constraints: non-empty service name, syntactically valid hostname,
// port in [1, 65535], and a certificate resolver when TLS is enabled.
func (v *Validator) ValidateIntent(intent models.RoutingIntent) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := v.structValidator.Struct(intent); err != nil {
		result.Valid = false
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				result.Errors = append(result.Errors, ValidationError{
					Field:   fe.Field(),
					Message: intentMessage(fe),
					Value:   fe.Value(),
				})
			}
		} else {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "intent",
				Message: err.Error(),
			})
		}
	}

	return result
}

// intentMessage maps validator tags to operator-facing messages.
func intentMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "hostname_rfc1123":
		return "must be a valid hostname"
	case "min", "max":
		return "must be between 1 and 65535"
	case "required_if":
		return "is required when TLS is enabled"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// LintCompose checks a compose document for YAML well-formedness and the
// presence of a services section. Used by the CLI validate command and as
// an advisory check on operator-pasted documents.
func (v *Validator) LintCompose(content string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(content) == "" {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   "document",
			Message: "document is empty",
		})
		return result
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   "document",
			Message: fmt.Sprintf("invalid YAML: %v", err),
		})
		return result
	}

	services, ok := doc["services"]
	if !ok {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   "services",
			Message: "document has no services section",
		})
		return result
	}

	svcMap, ok := services.(map[string]interface{})
	if !ok || len(svcMap) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   "services",
			Message: "services section is empty or malformed",
		})
	}

	return result
}

// ErrorStrings flattens a result's errors for log and CLI output.
func (r *ValidationResult) ErrorStrings() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return msgs
}
