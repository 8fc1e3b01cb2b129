package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipeline failure classes
const (
	// ErrCodeSource indicates the producer could not obtain the next item.
	ErrCodeSource ErrorCode = "SOURCE_ERROR"
	// ErrCodeItem indicates a single item failed in a stage or the consumer.
	ErrCodeItem ErrorCode = "ITEM_ERROR"
	// ErrCodeFetch indicates a network fetch exhausted its retries.
	ErrCodeFetch ErrorCode = "FETCH_ERROR"
	// ErrCodeStore indicates a dedup or cursor store operation failed.
	ErrCodeStore ErrorCode = "STORE_ERROR"
)

// Availability errors (retryable)
const (
	// ErrCodeRateLimited indicates the remote side asked us to back off.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeConflict indicates the operation conflicts with current state.
	ErrCodeConflict ErrorCode = "CONFLICT"
)

// ErrCodeInternal indicates an unexpected internal failure.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

var retryableCodes = map[ErrorCode]bool{
	ErrCodeFetch:       true,
	ErrCodeRateLimited: true,
	ErrCodeTimeout:     true,
	ErrCodeStore:       true,
	ErrCodeSource:      true,
	ErrCodeItem:        false,
	ErrCodeInternal:    false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
