package domain

import "time"

// SessionStatus tracks the lifecycle of one uploaded file.
type SessionStatus string

const (
	SessionProcessing SessionStatus = "processing"
	SessionCompleted  SessionStatus = "completed"
	SessionFailed     SessionStatus = "failed"
)

// BatchSize is the number of rows dispatched per batch-stage job.
const BatchSize = 500

// ImportSession tracks the processing of one uploaded spreadsheet.
// Sessions are never deleted automatically; they are the audit trail a
// caller inspects to learn the real outcome of an upload.
type ImportSession struct {
	ID        string
	FileName  string
	Status    SessionStatus
	CreatedAt time.Time
}

// ImportError is one append-only failure record. RowNumber is 1-based
// within the uploaded file; a batch-level failure uses RowNumber 0 and
// the BatchSKU sentinel.
type ImportError struct {
	ID        string
	SessionID string
	RowNumber int
	SKU       string
	Message   string
}

// BatchSKU is the sentinel SKU for a failure that affects a whole batch
// rather than a single row, such as the outbound marketplace call.
const BatchSKU = "BATCH_API"

// UnknownSKU is recorded when a row fails before its SKU could be read.
const UnknownSKU = "UNKNOWN"
