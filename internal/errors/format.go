package errors

import (
	"fmt"
	"strings"
)

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	he, ok := As(err)
	if !ok {
		he = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder

	msg := he.Message
	if he.ServiceMessage != "" {
		msg = he.ServiceMessage
	}
	sb.WriteString(fmt.Sprintf("Error: %s\n", msg))

	if he.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", he.Suggestion))
	}

	sb.WriteString(fmt.Sprintf("  Code: %s\n", he.Code))

	return sb.String()
}

// FormatForLog formats an error for structured logging.
// Returns key-value pairs suitable for slog attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	he, ok := As(err)
	if !ok {
		return map[string]any{
			"error": err.Error(),
		}
	}

	result := map[string]any{
		"error_code": he.Code,
		"message":    he.Message,
		"category":   string(he.Category),
		"severity":   string(he.Severity),
	}

	if he.Cause != nil {
		result["cause"] = he.Cause.Error()
	}

	if he.ServiceMessage != "" {
		result["service_message"] = he.ServiceMessage
	}

	for k, v := range he.Details {
		result["detail_"+k] = v
	}

	return result
}

// LogAttrs flattens FormatForLog into alternating key/value arguments for slog.
func LogAttrs(err error) []any {
	fields := FormatForLog(err)
	if fields == nil {
		return nil
	}
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
