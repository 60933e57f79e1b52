package utils

import (
	"fmt"
	"net/mail"
	"strings"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects field errors so a response can report all of
// them at once.
type ValidationErrors struct {
	Fields []FieldError `json:"errors"`
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a field error.
func (v *ValidationErrors) Add(field, message string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: message})
}

// Require records an error when value is blank.
func (v *ValidationErrors) Require(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
	}
}

// Any reports whether any field errors were collected.
func (v *ValidationErrors) Any() bool {
	return len(v.Fields) > 0
}

// ValidEmail reports whether address parses as an email address.
func ValidEmail(address string) bool {
	_, err := mail.ParseAddress(address)
	return err == nil
}
