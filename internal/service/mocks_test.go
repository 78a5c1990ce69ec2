package service

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/mgrushin/go-shortlink/internal/errors"
	"github.com/mgrushin/go-shortlink/internal/model"
	"github.com/mgrushin/go-shortlink/internal/repository"
)

// mockLinkRepo is a map-backed in-memory LinkRepository. The mutex matters:
// concurrency tests hammer it from many goroutines.
type mockLinkRepo struct {
	mu      sync.Mutex
	links   map[string]*model.Link
	retired map[string]bool
	nextID  int64
	seq     uint64

	// conflictCount makes the next N Create calls fail with ErrCodeTaken
	// regardless of the candidate, to simulate random collisions.
	conflictCount int
	createCalls   int
	failWith      error
	failIncrement error

	// clicks, when set, receives the cascade on Delete.
	clicks *mockClickRepo
}

var _ repository.LinkRepository = (*mockLinkRepo)(nil)

func newMockLinkRepo() *mockLinkRepo {
	return &mockLinkRepo{
		links:   make(map[string]*model.Link),
		retired: make(map[string]bool),
		seq:     1000000,
	}
}

func (m *mockLinkRepo) Create(ctx context.Context, link *model.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++

	if m.failWith != nil {
		return m.failWith
	}

	if m.conflictCount > 0 {
		m.conflictCount--
		return apperrors.ErrCodeTaken
	}

	// Retired codes keep their unique-index entry, like the store's soft
	// delete does.
	if _, exists := m.links[link.ShortCode]; exists || m.retired[link.ShortCode] {
		return apperrors.ErrCodeTaken
	}

	m.nextID++
	link.ID = m.nextID
	now := time.Now()
	link.CreatedAt = now
	link.UpdatedAt = now

	stored := *link
	m.links[link.ShortCode] = &stored
	return nil
}

func (m *mockLinkRepo) GetByShortCode(ctx context.Context, shortCode string) (*model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}

	link, exists := m.links[shortCode]
	if !exists {
		return nil, apperrors.ErrLinkNotFound
	}

	copied := *link
	return &copied, nil
}

func (m *mockLinkRepo) GetByID(ctx context.Context, id int64) (*model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, link := range m.links {
		if link.ID == id {
			copied := *link
			return &copied, nil
		}
	}

	return nil, apperrors.ErrLinkNotFound
}

func (m *mockLinkRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var links []*model.Link
	for _, link := range m.links {
		if link.OwnerID != nil && *link.OwnerID == ownerID {
			copied := *link
			links = append(links, &copied)
		}
	}

	return links, nil
}

func (m *mockLinkRepo) TopByOwner(ctx context.Context, ownerID int64, n int) ([]*model.Link, error) {
	links, err := m.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	// click_count desc, id asc.
	for i := 0; i < len(links); i++ {
		for j := i + 1; j < len(links); j++ {
			a, b := links[i], links[j]
			if b.ClickCount > a.ClickCount ||
				(b.ClickCount == a.ClickCount && b.ID < a.ID) {
				links[i], links[j] = links[j], links[i]
			}
		}
	}

	if len(links) > n {
		links = links[:n]
	}

	return links, nil
}

func (m *mockLinkRepo) UpdateOriginalURL(ctx context.Context, id int64, originalURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, link := range m.links {
		if link.ID == id {
			link.OriginalURL = originalURL
			link.UpdatedAt = time.Now()
			return nil
		}
	}

	return apperrors.ErrLinkNotFound
}

func (m *mockLinkRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()

	var code string
	for c, link := range m.links {
		if link.ID == id {
			code = c
			break
		}
	}

	if code == "" {
		m.mu.Unlock()
		return apperrors.ErrLinkNotFound
	}

	delete(m.links, code)
	m.retired[code] = true
	m.mu.Unlock()

	if m.clicks != nil {
		m.clicks.deleteByLink(id)
	}

	return nil
}

func (m *mockLinkRepo) IncrementClickCount(ctx context.Context, id int64) (string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failIncrement != nil {
		return "", 0, m.failIncrement
	}

	for code, link := range m.links {
		if link.ID == id {
			link.ClickCount++
			return code, link.ClickCount, nil
		}
	}

	return "", 0, apperrors.ErrLinkNotFound
}

func (m *mockLinkRepo) NextCodeSeq(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	return m.seq, nil
}

func (m *mockLinkRepo) mustAdd(link *model.Link) *model.Link {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	link.ID = m.nextID
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
		link.UpdatedAt = link.CreatedAt
	}

	stored := *link
	m.links[link.ShortCode] = &stored
	return &stored
}

// mockClickRepo is the in-memory click event log. Owner-scoped queries
// resolve ownership through the link repo, like the SQL joins do.
type mockClickRepo struct {
	mu         sync.Mutex
	events     []model.ClickEvent
	nextID     int64
	failInsert error
	links      *mockLinkRepo
}

var _ repository.ClickRepository = (*mockClickRepo)(nil)

func newMockClickRepo(links *mockLinkRepo) *mockClickRepo {
	m := &mockClickRepo{links: links}
	if links != nil {
		links.clicks = m
	}
	return m
}

func (m *mockClickRepo) Insert(ctx context.Context, event *model.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInsert != nil {
		return m.failInsert
	}

	m.nextID++
	event.ID = m.nextID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	m.events = append(m.events, *event)
	return nil
}

func (m *mockClickRepo) CountByOwnerSince(ctx context.Context, ownerID int64, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, e := range m.events {
		if m.ownedBy(e.LinkID, ownerID) && !e.OccurredAt.Before(since) {
			count++
		}
	}

	return count, nil
}

func (m *mockClickRepo) ListTimesByOwnerBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var times []time.Time
	for _, e := range m.events {
		if m.ownedBy(e.LinkID, ownerID) && !e.OccurredAt.Before(from) && e.OccurredAt.Before(to) {
			times = append(times, e.OccurredAt)
		}
	}

	return times, nil
}

func (m *mockClickRepo) ListByLink(ctx context.Context, linkID int64) ([]model.ClickEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []model.ClickEvent
	// Newest first, like the SQL ORDER BY.
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].LinkID == linkID {
			events = append(events, m.events[i])
		}
	}

	return events, nil
}

func (m *mockClickRepo) ListRecentByLink(ctx context.Context, linkID int64, limit int) ([]model.ClickEvent, error) {
	events, err := m.ListByLink(ctx, linkID)
	if err != nil {
		return nil, err
	}

	if len(events) > limit {
		events = events[:limit]
	}

	return events, nil
}

func (m *mockClickRepo) CountUniqueVisitors(ctx context.Context, linkID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool)
	for _, e := range m.events {
		if e.LinkID == linkID && e.ClientIP != "" {
			seen[e.ClientIP] = true
		}
	}

	return int64(len(seen)), nil
}

func (m *mockClickRepo) deleteByLink(linkID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.events[:0]
	for _, e := range m.events {
		if e.LinkID != linkID {
			kept = append(kept, e)
		}
	}
	m.events = kept
}

func (m *mockClickRepo) eventCount(linkID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, e := range m.events {
		if e.LinkID == linkID {
			count++
		}
	}
	return count
}

func (m *mockClickRepo) ownedBy(linkID, ownerID int64) bool {
	if m.links == nil {
		return false
	}

	m.links.mu.Lock()
	defer m.links.mu.Unlock()

	for _, link := range m.links.links {
		if link.ID == linkID {
			return link.OwnerID != nil && *link.OwnerID == ownerID
		}
	}

	return false
}

func ownerRef(id int64) *int64 {
	return &id
}
