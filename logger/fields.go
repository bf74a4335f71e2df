package logger

// Standard field names for consistent structured logging across pixelfan.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldJobID    = "job_id"
	FieldCallerID = "caller_id"
	FieldTaskIdx  = "task_index"

	// Providers
	FieldProvider     = "provider"
	FieldProviderKind = "provider_kind"
	FieldSlotIndex    = "slot_index"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldRetryAfter = "retry_after"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount = "count"
	FieldTotal = "total"

	// Status
	FieldStatus = "status"

	// Storage
	FieldKey    = "key"
	FieldPrefix = "prefix"
)
