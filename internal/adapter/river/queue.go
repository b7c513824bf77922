package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// Client is the concrete River client this module runs on.
type Client = river.Client[*sql.Tx]

// Queue adapts the River client to the domain queue ports. It is created
// empty and bound to the client after Setup, because the workers that the
// client is configured with depend on services that in turn publish
// through this queue.
type Queue struct {
	client *Client
}

var _ domain.ImportQueue = (*Queue)(nil)
var _ domain.RefreshQueue = (*Queue)(nil)

func NewQueue() *Queue {
	return &Queue{}
}

// Bind attaches the running client. Must be called before any enqueue.
func (q *Queue) Bind(client *Client) {
	q.client = client
}

func (q *Queue) EnqueueFile(ctx context.Context, job domain.FileJob) (int64, error) {
	res, err := q.client.Insert(ctx, FileArgs{
		Path:      job.Path,
		FileName:  job.FileName,
		Tenant:    job.Tenant,
		SessionID: job.SessionID,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("enqueue file job: %w", err)
	}
	return res.Job.ID, nil
}

func (q *Queue) EnqueueBatch(ctx context.Context, job domain.BatchJob) error {
	if _, err := q.client.Insert(ctx, BatchArgs{
		Rows:      job.Rows,
		Tenant:    job.Tenant,
		SessionID: job.SessionID,
		Offset:    job.Offset,
	}, nil); err != nil {
		return fmt.Errorf("enqueue batch job: %w", err)
	}
	return nil
}

func (q *Queue) EnqueueRefresh(ctx context.Context, tenant string) error {
	if _, err := q.client.Insert(ctx, RefreshArgs{Tenant: tenant}, nil); err != nil {
		return fmt.Errorf("enqueue refresh job: %w", err)
	}
	return nil
}
