// Package errors provides structured error handling for the Hirmes client.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (settings, history database)
//   - 3XX: Transport errors (connection to the Hirmes service)
//   - 4XX: Service errors (the service answered, but not with success)
//   - 5XX: Internal and input errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates local file and database errors.
	CategoryIO Category = "IO"
	// CategoryTransport indicates the service could not be reached.
	CategoryTransport Category = "TRANSPORT"
	// CategoryService indicates the service rejected or failed a request.
	CategoryService Category = "SERVICE"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeSettingsIO = "ERR_201_SETTINGS_IO"
	ErrCodeHistoryIO  = "ERR_202_HISTORY_IO"
	ErrCodeLockFailed = "ERR_203_LOCK_FAILED"

	// Transport errors (300-399)
	ErrCodeTransport = "ERR_301_TRANSPORT"
	ErrCodeTimeout   = "ERR_302_TIMEOUT"

	// Service errors (400-499)
	ErrCodeServiceStatus         = "ERR_401_SERVICE_STATUS"
	ErrCodeServiceError          = "ERR_402_SERVICE_ERROR"
	ErrCodeDecodeFailed          = "ERR_403_DECODE_FAILED"
	ErrCodeCapabilityUnavailable = "ERR_404_CAPABILITY_UNAVAILABLE"
	ErrCodeEnrichmentFailed      = "ERR_405_ENRICHMENT_FAILED"

	// Internal and input errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeInvalidInput = "ERR_502_INVALID_INPUT"
	ErrCodeQueryEmpty   = "ERR_503_QUERY_EMPTY"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "301" from "ERR_301_TRANSPORT")
	numStr := code[4:7]

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryTransport
	case '4':
		return CategoryService
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCapabilityUnavailable:
		// Degrades the UI silently
		return SeverityInfo
	case ErrCodeEnrichmentFailed:
		// Row-local, the result set still renders
		return SeverityWarning
	case ErrCodeConfigInvalid:
		return SeverityFatal
	}
	return SeverityError
}
