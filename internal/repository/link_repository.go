package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/mgrushin/go-shortlink/internal/errors"
	"github.com/mgrushin/go-shortlink/internal/model"
)

type PostgresLinkRepository struct {
	db *sql.DB
}

var _ LinkRepository = (*PostgresLinkRepository)(nil)

func NewPostgresLinkRepository(db *sql.DB) *PostgresLinkRepository {
	return &PostgresLinkRepository{
		db: db,
	}
}

const linkColumns = `id, original_url, short_code, owner_id, is_custom_code, click_count, created_at, updated_at, expires_at`

// Create is the insert-if-absent step of allocation. ON CONFLICT DO NOTHING
// together with RETURNING makes the uniqueness check and the insert a single
// atomic operation: of two concurrent callers racing on the same candidate
// code exactly one gets a row back, the other sees ErrCodeTaken.
func (r *PostgresLinkRepository) Create(ctx context.Context, link *model.Link) error {
	query := `
	INSERT INTO links (original_url, short_code, owner_id, is_custom_code, expires_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (short_code) DO NOTHING
	RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		link.OriginalURL,
		link.ShortCode,
		nullableID(link.OwnerID),
		link.IsCustomCode,
		nullableTime(link.ExpiresAt),
	).Scan(&link.ID, &link.CreatedAt, &link.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrCodeTaken
	}

	if err != nil {
		return apperrors.NewStoreError("failed to create link", err)
	}

	return nil
}

func (r *PostgresLinkRepository) GetByShortCode(ctx context.Context, shortCode string) (*model.Link, error) {
	query := fmt.Sprintf(`
	SELECT %s
	FROM links
	WHERE short_code = $1 AND deleted_at IS NULL
	`, linkColumns)

	link, err := scanLink(r.db.QueryRowContext(ctx, query, shortCode))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link with short code '%s': %w", shortCode, apperrors.ErrLinkNotFound)
	}

	if err != nil {
		return nil, apperrors.NewStoreError("failed to get link", err)
	}

	return link, nil
}

func (r *PostgresLinkRepository) GetByID(ctx context.Context, id int64) (*model.Link, error) {
	query := fmt.Sprintf(`
	SELECT %s
	FROM links
	WHERE id = $1 AND deleted_at IS NULL
	`, linkColumns)

	link, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link with id %d: %w", id, apperrors.ErrLinkNotFound)
	}

	if err != nil {
		return nil, apperrors.NewStoreError("failed to get link", err)
	}

	return link, nil
}

func (r *PostgresLinkRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*model.Link, error) {
	query := fmt.Sprintf(`
	SELECT %s
	FROM links
	WHERE owner_id = $1 AND deleted_at IS NULL
	ORDER BY created_at DESC, id DESC
	`, linkColumns)

	return r.queryLinks(ctx, query, ownerID)
}

func (r *PostgresLinkRepository) TopByOwner(ctx context.Context, ownerID int64, n int) ([]*model.Link, error) {
	query := fmt.Sprintf(`
	SELECT %s
	FROM links
	WHERE owner_id = $1 AND deleted_at IS NULL
	ORDER BY click_count DESC, id ASC
	LIMIT $2
	`, linkColumns)

	return r.queryLinks(ctx, query, ownerID, n)
}

func (r *PostgresLinkRepository) UpdateOriginalURL(ctx context.Context, id int64, originalURL string) error {
	query := `
	UPDATE links
	SET original_url = $2, updated_at = now()
	WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, originalURL)
	if err != nil {
		return apperrors.NewStoreError("failed to update link", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewStoreError("failed to update link", err)
	}

	if affected == 0 {
		return fmt.Errorf("link with id %d: %w", id, apperrors.ErrLinkNotFound)
	}

	return nil
}

// Delete soft-deletes the link and removes its click events in one
// transaction. The row stays in the unique index, so the code is retired
// for good.
func (r *PostgresLinkRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStoreError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
	UPDATE links
	SET deleted_at = now(), updated_at = now()
	WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return apperrors.NewStoreError("failed to delete link", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewStoreError("failed to delete link", err)
	}

	if affected == 0 {
		return fmt.Errorf("link with id %d: %w", id, apperrors.ErrLinkNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM clicks WHERE link_id = $1`, id); err != nil {
		return apperrors.NewStoreError("failed to delete click events", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStoreError("failed to commit delete", err)
	}

	return nil
}

// IncrementClickCount is the store-level atomic increment. RETURNING hands
// back the committed value so callers never read-then-write.
func (r *PostgresLinkRepository) IncrementClickCount(ctx context.Context, id int64) (string, int64, error) {
	query := `
	UPDATE links
	SET click_count = click_count + 1, updated_at = now()
	WHERE id = $1 AND deleted_at IS NULL
	RETURNING short_code, click_count
	`

	var shortCode string
	var newCount int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&shortCode, &newCount)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, fmt.Errorf("link with id %d: %w", id, apperrors.ErrLinkNotFound)
	}

	if err != nil {
		return "", 0, apperrors.NewStoreError("failed to increment click count", err)
	}

	return shortCode, newCount, nil
}

func (r *PostgresLinkRepository) NextCodeSeq(ctx context.Context) (uint64, error) {
	var seq uint64
	err := r.db.QueryRowContext(ctx, `SELECT nextval('short_code_seq')`).Scan(&seq)
	if err != nil {
		return 0, apperrors.NewStoreError("failed to advance code sequence", err)
	}

	return seq, nil
}

func (r *PostgresLinkRepository) queryLinks(ctx context.Context, query string, args ...interface{}) ([]*model.Link, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("failed to query links", err)
	}
	defer rows.Close()

	var links []*model.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, apperrors.NewStoreError("failed to scan link", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError("failed to read links", err)
	}

	return links, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLink(row rowScanner) (*model.Link, error) {
	link := &model.Link{}
	var ownerID sql.NullInt64
	var expiresAt sql.NullTime

	err := row.Scan(
		&link.ID,
		&link.OriginalURL,
		&link.ShortCode,
		&ownerID,
		&link.IsCustomCode,
		&link.ClickCount,
		&link.CreatedAt,
		&link.UpdatedAt,
		&expiresAt,
	)
	if err != nil {
		return nil, err
	}

	if ownerID.Valid {
		link.OwnerID = &ownerID.Int64
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		link.ExpiresAt = &t
	}

	return link, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
