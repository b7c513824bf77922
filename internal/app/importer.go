package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// RowReader streams raw rows from an uploaded file. Next returns io.EOF
// at the end of the stream.
type RowReader interface {
	Next() (domain.ImportRow, error)
	Close() error
}

// ReaderOpener opens a RowReader for an uploaded file path, picking the
// format by extension.
type ReaderOpener func(path string) (RowReader, error)

// Importer drives the two-stage import pipeline: the file stage streams
// an upload and fans out row batches, the batch stage validates and
// upserts each batch against the tenant's catalog.
type Importer struct {
	registry  domain.ClientRegistry
	queue     domain.ImportQueue
	market    domain.Marketplace
	prober    domain.ImageProber
	openFile  ReaderOpener
	uploadDir string
}

// NewImporter creates the import service. uploadDir is the scratch
// directory accepted files are staged in until the file stage consumes
// them.
func NewImporter(
	registry domain.ClientRegistry,
	queue domain.ImportQueue,
	market domain.Marketplace,
	prober domain.ImageProber,
	openFile ReaderOpener,
	uploadDir string,
) *Importer {
	return &Importer{
		registry:  registry,
		queue:     queue,
		market:    market,
		prober:    prober,
		openFile:  openFile,
		uploadDir: uploadDir,
	}
}

// Accept takes an uploaded file, creates its tracking session, and
// enqueues the file-stage job. The response is optimistic: the real
// outcome lives in the session and its error log.
func (s *Importer) Accept(ctx context.Context, tenant, fileName string, src io.Reader) (domain.ImportSession, int64, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext != ".csv" && ext != ".xlsx" {
		return domain.ImportSession{}, 0, domain.ErrUnsupportedFile
	}

	client, err := s.registry.Resolve(ctx, tenant)
	if err != nil {
		return domain.ImportSession{}, 0, err
	}

	path := filepath.Join(s.uploadDir, newID()+ext)
	if err := writeUpload(path, src); err != nil {
		return domain.ImportSession{}, 0, err
	}

	session := domain.ImportSession{
		ID:        newID(),
		FileName:  fileName,
		Status:    domain.SessionProcessing,
		CreatedAt: time.Now().UTC(),
	}
	if err := client.Imports().CreateSession(ctx, session); err != nil {
		os.Remove(path)
		return domain.ImportSession{}, 0, fmt.Errorf("creating import session: %w", err)
	}

	jobID, err := s.queue.EnqueueFile(ctx, domain.FileJob{
		Path:      path,
		FileName:  fileName,
		Tenant:    tenant,
		SessionID: session.ID,
	})
	if err != nil {
		os.Remove(path)
		return domain.ImportSession{}, 0, fmt.Errorf("enqueuing file job: %w", err)
	}

	slog.InfoContext(ctx, "import accepted",
		"tenant", tenant,
		"session_id", session.ID,
		"file", fileName,
		"job_id", jobID,
	)
	return session, jobID, nil
}

func writeUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("staging upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return fmt.Errorf("staging upload: %w", err)
	}
	return dst.Close()
}

// Session returns one session and its error log for status inspection.
func (s *Importer) Session(ctx context.Context, tenant, sessionID string) (domain.ImportSession, []domain.ImportError, error) {
	client, err := s.registry.Resolve(ctx, tenant)
	if err != nil {
		return domain.ImportSession{}, nil, err
	}

	session, err := client.Imports().GetSession(ctx, sessionID)
	if err != nil {
		return domain.ImportSession{}, nil, err
	}

	importErrors, err := client.Imports().ErrorsBySession(ctx, sessionID)
	if err != nil {
		return domain.ImportSession{}, nil, err
	}
	return session, importErrors, nil
}

// ProcessFile is the file-stage job body: stream the staged file and
// dispatch row batches of domain.BatchSize in file order. The staged file
// is removed whether or not the stream succeeds.
func (s *Importer) ProcessFile(ctx context.Context, job domain.FileJob) error {
	defer func() {
		if err := os.Remove(job.Path); err != nil && !os.IsNotExist(err) {
			slog.WarnContext(ctx, "removing staged upload", "path", job.Path, "error", err)
		}
	}()

	reader, err := s.openFile(job.Path)
	if err != nil {
		s.markSessionFailed(ctx, job)
		return fmt.Errorf("opening upload %s: %w", job.FileName, err)
	}
	defer reader.Close()

	var (
		batch  []domain.ImportRow
		offset = 1 // 1-based data row number of the first row in batch
		rowNum = 0
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := s.queue.EnqueueBatch(ctx, domain.BatchJob{
			Rows:      batch,
			Tenant:    job.Tenant,
			SessionID: job.SessionID,
			Offset:    offset,
		})
		if err != nil {
			return fmt.Errorf("enqueuing batch at row %d: %w", offset, err)
		}
		offset += len(batch)
		batch = nil
		return nil
	}

	for {
		row, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.markSessionFailed(ctx, job)
			return fmt.Errorf("streaming %s: %w", job.FileName, err)
		}

		rowNum++
		batch = append(batch, row)
		if len(batch) >= domain.BatchSize {
			if err := flush(); err != nil {
				s.markSessionFailed(ctx, job)
				return err
			}
		}
	}

	if err := flush(); err != nil {
		s.markSessionFailed(ctx, job)
		return err
	}

	// All batches are dispatched; per-row outcomes land in the error log.
	if client, err := s.registry.Resolve(ctx, job.Tenant); err == nil {
		if err := client.Imports().SetSessionStatus(ctx, job.SessionID, domain.SessionCompleted); err != nil {
			slog.WarnContext(ctx, "marking session completed", "session_id", job.SessionID, "error", err)
		}
	}

	slog.InfoContext(ctx, "file stage finished",
		"tenant", job.Tenant,
		"session_id", job.SessionID,
		"rows", rowNum,
	)
	return nil
}

func (s *Importer) markSessionFailed(ctx context.Context, job domain.FileJob) {
	client, err := s.registry.Resolve(ctx, job.Tenant)
	if err != nil {
		return
	}
	if err := client.Imports().SetSessionStatus(ctx, job.SessionID, domain.SessionFailed); err != nil {
		slog.WarnContext(ctx, "marking session failed", "session_id", job.SessionID, "error", err)
	}
}

// ProcessBatch is the batch-stage job body. Each row is processed
// independently: a failure is logged against the session and the loop
// moves on, so no single row can sink a batch. Rows that make it through
// are forwarded to the marketplace in one call.
func (s *Importer) ProcessBatch(ctx context.Context, job domain.BatchJob) error {
	client, err := s.registry.Resolve(ctx, job.Tenant)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "processing batch",
		"tenant", job.Tenant,
		"session_id", job.SessionID,
		"rows", len(job.Rows),
		"offset", job.Offset,
	)

	valid := make([]domain.ImportProduct, 0, len(job.Rows))
	for i, row := range job.Rows {
		rowNum := job.Offset + i

		product, err := s.processRow(ctx, client, row)
		if err != nil {
			sku := strings.TrimSpace(row["sku"])
			if sku == "" {
				sku = domain.UnknownSKU
			}
			s.logRowError(ctx, client, job.SessionID, rowNum, sku, err.Error())
			continue
		}
		valid = append(valid, product)
	}

	if len(valid) == 0 {
		return nil
	}

	if err := s.market.SendProductBatch(ctx, job.Tenant, valid); err != nil {
		// The local writes already happened and stay; the outbound
		// failure is recorded once against the whole batch.
		slog.ErrorContext(ctx, "sending batch to marketplace",
			"tenant", job.Tenant,
			"session_id", job.SessionID,
			"error", err,
		)
		s.logRowError(ctx, client, job.SessionID, 0, domain.BatchSKU,
			fmt.Sprintf("Failed to send batch to API: %v", err))
	}
	return nil
}

// processRow runs the per-row gauntlet: image probe, schema validation,
// then upsert by SKU.
func (s *Importer) processRow(ctx context.Context, client domain.TenantClient, row domain.ImportRow) (domain.ImportProduct, error) {
	for _, imageURL := range domain.SplitImages(row["images"]) {
		if err := s.prober.Check(ctx, imageURL); err != nil {
			return domain.ImportProduct{}, err
		}
	}

	product, err := domain.ParseImportRow(row)
	if err != nil {
		return domain.ImportProduct{}, err
	}

	existing, err := client.Products().GetBySKU(ctx, product.SKU)
	switch {
	case err == nil:
		// Known SKU: narrow update, nothing else is clobbered.
		if err := client.Products().UpdatePriceAndStock(ctx, existing.SKU, product.Price, product.Stock); err != nil {
			return domain.ImportProduct{}, err
		}
	case errors.Is(err, domain.ErrProductNotFound):
		if err := s.insertProduct(ctx, client, product); err != nil {
			return domain.ImportProduct{}, err
		}
	default:
		return domain.ImportProduct{}, err
	}

	return product, nil
}

func (s *Importer) insertProduct(ctx context.Context, client domain.TenantClient, product domain.ImportProduct) error {
	brandID, err := client.References().BrandID(ctx, product.Brand)
	if err != nil {
		return err
	}
	packagingID, err := client.References().DefaultPackagingID(ctx)
	if err != nil {
		return err
	}

	_, err = client.Products().Insert(ctx, domain.NewProductFromImport(product, brandID, packagingID))
	return err
}

func (s *Importer) logRowError(ctx context.Context, client domain.TenantClient, sessionID string, rowNum int, sku, message string) {
	err := client.Imports().LogError(ctx, domain.ImportError{
		ID:        newID(),
		SessionID: sessionID,
		RowNumber: rowNum,
		SKU:       sku,
		Message:   message,
	})
	if err != nil {
		slog.ErrorContext(ctx, "recording import error",
			"session_id", sessionID,
			"row", rowNum,
			"error", err,
		)
	}
}
