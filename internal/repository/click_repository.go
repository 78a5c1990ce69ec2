package repository

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/mgrushin/go-shortlink/internal/errors"
	"github.com/mgrushin/go-shortlink/internal/model"
)

type PostgresClickRepository struct {
	db *sql.DB
}

var _ ClickRepository = (*PostgresClickRepository)(nil)

func NewPostgresClickRepository(db *sql.DB) *PostgresClickRepository {
	return &PostgresClickRepository{
		db: db,
	}
}

func (r *PostgresClickRepository) Insert(ctx context.Context, event *model.ClickEvent) error {
	query := `
	INSERT INTO clicks (link_id, occurred_at, client_ip, user_agent, referrer)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id
	`

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	err := r.db.QueryRowContext(
		ctx,
		query,
		event.LinkID,
		occurredAt,
		event.ClientIP,
		event.UserAgent,
		event.Referrer,
	).Scan(&event.ID)

	if err != nil {
		return apperrors.NewStoreError("failed to insert click event", err)
	}

	event.OccurredAt = occurredAt
	return nil
}

func (r *PostgresClickRepository) CountByOwnerSince(ctx context.Context, ownerID int64, since time.Time) (int64, error) {
	query := `
	SELECT COUNT(*)
	FROM clicks c
	JOIN links l ON l.id = c.link_id
	WHERE l.owner_id = $1 AND l.deleted_at IS NULL AND c.occurred_at >= $2
	`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, ownerID, since).Scan(&count); err != nil {
		return 0, apperrors.NewStoreError("failed to count recent clicks", err)
	}

	return count, nil
}

func (r *PostgresClickRepository) ListTimesByOwnerBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]time.Time, error) {
	query := `
	SELECT c.occurred_at
	FROM clicks c
	JOIN links l ON l.id = c.link_id
	WHERE l.owner_id = $1 AND l.deleted_at IS NULL
	  AND c.occurred_at >= $2 AND c.occurred_at < $3
	ORDER BY c.occurred_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, from, to)
	if err != nil {
		return nil, apperrors.NewStoreError("failed to query click times", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, apperrors.NewStoreError("failed to scan click time", err)
		}
		times = append(times, t)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError("failed to read click times", err)
	}

	return times, nil
}

func (r *PostgresClickRepository) ListByLink(ctx context.Context, linkID int64) ([]model.ClickEvent, error) {
	query := `
	SELECT id, link_id, occurred_at, client_ip, user_agent, referrer
	FROM clicks
	WHERE link_id = $1
	ORDER BY occurred_at DESC, id DESC
	`

	return r.queryEvents(ctx, query, linkID)
}

func (r *PostgresClickRepository) ListRecentByLink(ctx context.Context, linkID int64, limit int) ([]model.ClickEvent, error) {
	query := `
	SELECT id, link_id, occurred_at, client_ip, user_agent, referrer
	FROM clicks
	WHERE link_id = $1
	ORDER BY occurred_at DESC, id DESC
	LIMIT $2
	`

	return r.queryEvents(ctx, query, linkID, limit)
}

func (r *PostgresClickRepository) CountUniqueVisitors(ctx context.Context, linkID int64) (int64, error) {
	query := `
	SELECT COUNT(DISTINCT client_ip)
	FROM clicks
	WHERE link_id = $1 AND client_ip <> ''
	`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, linkID).Scan(&count); err != nil {
		return 0, apperrors.NewStoreError("failed to count unique visitors", err)
	}

	return count, nil
}

func (r *PostgresClickRepository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]model.ClickEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("failed to query click events", err)
	}
	defer rows.Close()

	var events []model.ClickEvent
	for rows.Next() {
		var e model.ClickEvent
		if err := rows.Scan(&e.ID, &e.LinkID, &e.OccurredAt, &e.ClientIP, &e.UserAgent, &e.Referrer); err != nil {
			return nil, apperrors.NewStoreError("failed to scan click event", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError("failed to read click events", err)
	}

	return events, nil
}
