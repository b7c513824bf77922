package river

import (
	"context"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/storebridge/internal/app"
	"github.com/neomorfeo/storebridge/internal/domain"
)

// FileWorker runs the file stage of an import: stream the staged upload
// and fan rows out into batch jobs.
type FileWorker struct {
	river.WorkerDefaults[FileArgs]
	importer *app.Importer
}

func NewFileWorker(importer *app.Importer) *FileWorker {
	return &FileWorker{importer: importer}
}

func (w *FileWorker) Work(ctx context.Context, job *river.Job[FileArgs]) error {
	return w.importer.ProcessFile(ctx, domain.FileJob{
		Path:      job.Args.Path,
		FileName:  job.Args.FileName,
		Tenant:    job.Args.Tenant,
		SessionID: job.Args.SessionID,
	})
}

// BatchWorker runs the batch stage: validate rows, upsert them into the
// tenant database and forward the batch to the marketplace.
type BatchWorker struct {
	river.WorkerDefaults[BatchArgs]
	importer *app.Importer
}

func NewBatchWorker(importer *app.Importer) *BatchWorker {
	return &BatchWorker{importer: importer}
}

func (w *BatchWorker) Work(ctx context.Context, job *river.Job[BatchArgs]) error {
	return w.importer.ProcessBatch(ctx, domain.BatchJob{
		Rows:      job.Args.Rows,
		Tenant:    job.Args.Tenant,
		SessionID: job.Args.SessionID,
		Offset:    job.Args.Offset,
	})
}

// RefreshWorker refreshes one tenant's marketplace tokens.
type RefreshWorker struct {
	river.WorkerDefaults[RefreshArgs]
	tokens *app.TokenService
}

func NewRefreshWorker(tokens *app.TokenService) *RefreshWorker {
	return &RefreshWorker{tokens: tokens}
}

func (w *RefreshWorker) Work(ctx context.Context, job *river.Job[RefreshArgs]) error {
	return w.tokens.Refresh(ctx, job.Args.Tenant)
}

// NextRetry overrides River's exponential backoff with a fixed 5 second
// delay between refresh attempts.
func (w *RefreshWorker) NextRetry(job *river.Job[RefreshArgs]) time.Time {
	return time.Now().Add(5 * time.Second)
}

// SweepWorker is the hourly periodic job that enqueues a refresh per
// active tenant.
type SweepWorker struct {
	river.WorkerDefaults[SweepArgs]
	tokens *app.TokenService
}

func NewSweepWorker(tokens *app.TokenService) *SweepWorker {
	return &SweepWorker{tokens: tokens}
}

func (w *SweepWorker) Work(ctx context.Context, _ *river.Job[SweepArgs]) error {
	return w.tokens.Sweep(ctx)
}
