package mcp

import (
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// ValidationError reports why an argument object was rejected by a tool's
// input schema. Violations carry one entry per violated constraint so a
// caller can see every problem at once rather than fixing them one by one.
type ValidationError struct {
	Violations []string `json:"violations"`
}

var _ error = &ValidationError{}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments: %s", strings.Join(e.Violations, "; "))
}

// validateArguments checks args against a resolved schema. Missing required
// properties are enumerated exhaustively before handing off to the resolved
// schema for type, range, enum, and pattern constraints.
func validateArguments(schema *jsonschema.Schema, resolved *jsonschema.Resolved, args map[string]any) *ValidationError {
	if args == nil {
		args = map[string]any{}
	}

	var violations []string
	for _, name := range schema.Required {
		if _, ok := args[name]; !ok {
			violations = append(violations, fmt.Sprintf("%s: missing required property", name))
		}
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	if err := resolved.Validate(args); err != nil {
		return &ValidationError{Violations: []string{err.Error()}}
	}
	return nil
}
