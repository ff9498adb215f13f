package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSource = errors.New("invalid source")
	ErrToolNotFound  = errors.New("tool not found")
	ErrExternalTool  = errors.New("external tool error")
	ErrTransient     = errors.New("transient failure")
	ErrPermanent     = errors.New("permanent service failure")
	ErrRejected      = errors.New("service rejected request")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later failure classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Cause names the failure class of err for run summaries and log fields.
func Cause(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSource):
		return "invalid_source"
	case errors.Is(err, ErrToolNotFound):
		return "tool_not_found"
	case errors.Is(err, ErrExternalTool):
		return "tool_failed"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrPermanent):
		return "permanent_service"
	case errors.Is(err, ErrRejected):
		return "service_rejected"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "unknown"
	}
}

// IsFatalForRun reports whether err means no further item can succeed, so the
// batch should stop instead of recording an item failure.
func IsFatalForRun(err error) bool {
	return errors.Is(err, ErrToolNotFound) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
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
