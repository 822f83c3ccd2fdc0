package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/networth/internal/domain"
)

// BackupRepository stores each user's latest backup document verbatim.
type BackupRepository struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewBackupRepository creates a new backup repository.
func NewBackupRepository(pool *pgxpool.Pool) *BackupRepository {
	return &BackupRepository{pool: pool, retrier: NewRetrier()}
}

// Put upserts the user's backup document. Concurrent uploads from multiple
// devices can collide on the same row, so the write retries on
// serialization failures.
func (r *BackupRepository) Put(ctx context.Context, userID string, document []byte, updatedAt time.Time) error {
	query := `
		INSERT INTO backups (user_id, document, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`

	return r.retrier.Retry(ctx, func() error {
		_, err := r.pool.Exec(ctx, query, userID, document, updatedAt)
		return err
	})
}

// Get returns the user's stored backup, or domain.ErrBackupNotFound.
func (r *BackupRepository) Get(ctx context.Context, userID string) (*domain.StoredBackup, error) {
	query := `
		SELECT user_id, document, updated_at
		FROM backups
		WHERE user_id = $1
	`

	var b domain.StoredBackup
	err := r.pool.QueryRow(ctx, query, userID).Scan(&b.UserID, &b.Document, &b.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBackupNotFound
	}
	if err != nil {
		return nil, err
	}

	return &b, nil
}
