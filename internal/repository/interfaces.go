package repository

import (
	"context"
	"time"

	"github.com/mgrushin/go-shortlink/internal/model"
)

// LinkRepository is the persistence boundary for links. All mutations go
// through it; the store is the only shared mutable resource.
type LinkRepository interface {
	// Create persists the link only if its short code is not already
	// taken. Returns apperrors.ErrCodeTaken on conflict, in which case
	// nothing was written. The check and the insert are one atomic
	// store operation.
	Create(ctx context.Context, link *model.Link) error

	GetByShortCode(ctx context.Context, shortCode string) (*model.Link, error)
	GetByID(ctx context.Context, id int64) (*model.Link, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*model.Link, error)

	// TopByOwner returns the owner's n most clicked links, click count
	// descending, id ascending on ties.
	TopByOwner(ctx context.Context, ownerID int64, n int) ([]*model.Link, error)

	UpdateOriginalURL(ctx context.Context, id int64, originalURL string) error

	// Delete retires the link and removes its click events in one
	// transaction. The short code stays reserved forever.
	Delete(ctx context.Context, id int64) error

	// IncrementClickCount atomically bumps the counter and returns the
	// short code with the new value. Never a read-then-write in
	// application code.
	IncrementClickCount(ctx context.Context, id int64) (string, int64, error)

	// NextCodeSeq returns the next value of the allocation sequence for
	// deterministic base62 fallback codes.
	NextCodeSeq(ctx context.Context) (uint64, error)
}

// ClickRepository is the append-only click event log and its read queries.
type ClickRepository interface {
	Insert(ctx context.Context, event *model.ClickEvent) error

	CountByOwnerSince(ctx context.Context, ownerID int64, since time.Time) (int64, error)

	// ListTimesByOwnerBetween returns occurrence timestamps for all the
	// owner's links within [from, to), oldest first.
	ListTimesByOwnerBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]time.Time, error)

	ListByLink(ctx context.Context, linkID int64) ([]model.ClickEvent, error)
	ListRecentByLink(ctx context.Context, linkID int64, limit int) ([]model.ClickEvent, error)

	// CountUniqueVisitors counts distinct non-empty client IPs.
	CountUniqueVisitors(ctx context.Context, linkID int64) (int64, error)
}
