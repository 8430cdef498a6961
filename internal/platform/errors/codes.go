// Package errors provides structured error handling with machine-readable codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeValidation             Code = "VALIDATION"
	CodeBatchEmpty             Code = "BATCH_EMPTY"
	CodeBatchTooLarge          Code = "BATCH_TOO_LARGE"
	CodeOperationIDMissing     Code = "OPERATION_ID_MISSING"
	CodeOperationDataMissing   Code = "OPERATION_DATA_MISSING"
	CodeResourceIDMissing      Code = "RESOURCE_ID_MISSING"
	CodeCalculationParamsEmpty Code = "CALCULATION_PARAMS_EMPTY"

	// Unsupported-operation errors
	CodeUnsupportedCalculation Code = "UNSUPPORTED_CALCULATION"
	CodeUnsupportedResource    Code = "UNSUPPORTED_RESOURCE"
	CodeUnsupportedOperation   Code = "UNSUPPORTED_OPERATION"

	// Transient errors
	CodeTransient          Code = "TRANSIENT"
	CodeComputeUnavailable Code = "COMPUTE_UNAVAILABLE"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"

	// Timeout errors
	CodeTimeout      Code = "TIMEOUT"
	CodeBatchTimeout Code = "BATCH_TIMEOUT"

	// Batch admission errors
	CodeOperationSkipped Code = "OPERATION_SKIPPED"

	// Resource errors
	CodeResourceNotFound Code = "RESOURCE_NOT_FOUND"
)
