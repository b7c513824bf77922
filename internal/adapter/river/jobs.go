package river

import (
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// QueueTokenRefresh is the dedicated queue for token refresh jobs. Its
// worker count is the rate limit: at most 5 refreshes in flight across
// all tenants.
const QueueTokenRefresh = "token-refresh"

// refreshMaxAttempts bounds queue-level retries of one refresh job; after
// that the tenant waits for the next hourly sweep.
const refreshMaxAttempts = 3

// FileArgs is the file-stage payload. River serializes this as JSON into
// its job table.
type FileArgs struct {
	Path      string `json:"path"`
	FileName  string `json:"file_name"`
	Tenant    string `json:"tenant"`
	SessionID string `json:"session_id"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (FileArgs) Kind() string { return "import.file" }

// BatchArgs is the batch-stage payload. It carries the raw rows so the
// worker never re-reads the uploaded file, which is gone by then.
type BatchArgs struct {
	Rows      []domain.ImportRow `json:"rows"`
	Tenant    string             `json:"tenant"`
	SessionID string             `json:"session_id"`
	Offset    int                `json:"offset"`
}

func (BatchArgs) Kind() string { return "import.batch" }

// RefreshArgs is one tenant's token refresh request.
type RefreshArgs struct {
	Tenant string `json:"tenant"`
}

func (RefreshArgs) Kind() string { return "token.refresh" }

// InsertOpts routes refresh jobs to their rate-limited queue, caps the
// retries, and dedupes per tenant within the sweep period.
func (RefreshArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueTokenRefresh,
		MaxAttempts: refreshMaxAttempts,
		UniqueOpts: river.UniqueOpts{
			ByArgs:   true,
			ByPeriod: time.Hour,
		},
	}
}

// SweepArgs is the hourly trigger that enumerates tenants.
type SweepArgs struct{}

func (SweepArgs) Kind() string { return "token.sweep" }
