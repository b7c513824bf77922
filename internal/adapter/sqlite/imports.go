package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// Compile-time check: ImportRepository implements the domain port.
var _ domain.ImportRepository = (*ImportRepository)(nil)

// ImportRepository persists import sessions and their append-only error
// log.
type ImportRepository struct {
	db *sql.DB
}

func (r *ImportRepository) CreateSession(ctx context.Context, s domain.ImportSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO import_sessions (id, file_name, status, created_at)
		 VALUES (?, ?, ?, ?)`,
		s.ID, s.FileName, string(s.Status), s.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting import session: %w", err)
	}
	return nil
}

func (r *ImportRepository) GetSession(ctx context.Context, id string) (domain.ImportSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, file_name, status, created_at FROM import_sessions WHERE id = ?`, id,
	)

	var s domain.ImportSession
	var status, createdAt string

	err := row.Scan(&s.ID, &s.FileName, &status, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ImportSession{}, domain.ErrSessionNotFound
		}
		return domain.ImportSession{}, fmt.Errorf("scanning import session: %w", err)
	}

	s.Status = domain.SessionStatus(status)
	s.CreatedAt, _ = time.Parse(timeFormat, createdAt)

	return s, nil
}

func (r *ImportRepository) SetSessionStatus(ctx context.Context, id string, status domain.SessionStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE import_sessions SET status = ? WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("updating import session status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *ImportRepository) LogError(ctx context.Context, e domain.ImportError) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO import_errors (id, session_id, row_number, sku, error_message)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.RowNumber, e.SKU, e.Message,
	)
	if err != nil {
		return fmt.Errorf("inserting import error: %w", err)
	}
	return nil
}

func (r *ImportRepository) ErrorsBySession(ctx context.Context, sessionID string) ([]domain.ImportError, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, row_number, sku, error_message
		 FROM import_errors WHERE session_id = ? ORDER BY row_number`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing import errors: %w", err)
	}
	defer rows.Close()

	var out []domain.ImportError
	for rows.Next() {
		var e domain.ImportError
		if err := rows.Scan(&e.ID, &e.SessionID, &e.RowNumber, &e.SKU, &e.Message); err != nil {
			return nil, fmt.Errorf("scanning import error: %w", err)
		}
		out = append(out, e)
	}

	return out, rows.Err()
}
