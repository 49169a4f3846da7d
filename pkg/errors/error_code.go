package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter   ErrorCode = 100
	ErrCodeInvalidObservation ErrorCode = 101
	ErrCodeInvalidDecision    ErrorCode = 102
	ErrCodeInvalidFill        ErrorCode = 103
	ErrCodeInvalidInstrument  ErrorCode = 104
	ErrCodeMissingParameter   ErrorCode = 105

	// Configuration errors (200-299)
	ErrCodeInvalidConfiguration ErrorCode = 200
	ErrCodeConfigLoadFailed     ErrorCode = 201
	ErrCodeUnknownStrategy      ErrorCode = 202
	ErrCodeUnknownFeeModel      ErrorCode = 203

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError ErrorCode = 400
	ErrCodeStrategyFault       ErrorCode = 401
	ErrCodeInsufficientHistory ErrorCode = 402

	// Execution errors (500-599)
	ErrCodeExecutionFailed   ErrorCode = 500
	ErrCodePositionNotFound  ErrorCode = 501
	ErrCodeInvalidFillPrice  ErrorCode = 502
	ErrCodeZeroFillQuantity  ErrorCode = 503
	ErrCodeInstrumentUnknown ErrorCode = 504

	// Ledger errors (600-699)
	ErrCodeLedgerInvariantViolation ErrorCode = 600
	ErrCodeLedgerHalted             ErrorCode = 601
	ErrCodeSnapshotFailed           ErrorCode = 602
	ErrCodeSnapshotIncompatible     ErrorCode = 603
	ErrCodeAuditStoreFailed         ErrorCode = 604

	// Feed errors (700-799)
	ErrCodeObservationOutOfOrder ErrorCode = 700
	ErrCodeFeedUnavailable       ErrorCode = 701
	ErrCodeFeedParseFailed       ErrorCode = 702

	// Collaborator errors (800-899)
	ErrCodeCollaboratorUnavailable ErrorCode = 800
	ErrCodeEventDropped            ErrorCode = 801
)
