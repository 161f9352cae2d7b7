package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUnavailable   = errors.New("unavailable")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to a stable category string suitable for wire
// payloads and log fields. Unknown errors classify as transient.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "transient"
	}
}

// Message extracts the human-readable portion of a wrapped service error:
// the text after the marker, component, and operation prefixes. Errors that
// were not built by Wrap come back unchanged.
func Message(err error) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	marker := markerFor(err)
	if marker == nil {
		return text
	}
	prefix := marker.Error() + ": "
	if !strings.HasPrefix(text, prefix) {
		return text
	}
	rest := strings.TrimPrefix(text, prefix)
	if parts := strings.SplitN(rest, ": ", 3); len(parts) == 3 {
		return parts[2]
	}
	return rest
}

func markerFor(err error) error {
	for _, marker := range []error{
		ErrValidation,
		ErrConfiguration,
		ErrNotFound,
		ErrConflict,
		ErrExternalTool,
		ErrUnavailable,
		ErrTransient,
	} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
