package handler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/mgrushin/go-shortlink/internal/errors"
	"github.com/mgrushin/go-shortlink/internal/model"
	"github.com/mgrushin/go-shortlink/internal/repository"
	"github.com/mgrushin/go-shortlink/internal/service"
)

// In-memory repositories backing real services. Handlers are exercised
// through the full gin router, the way requests arrive in production.

type memLinkRepo struct {
	mu     sync.Mutex
	links  map[string]*model.Link
	nextID int64
	seq    uint64
	clicks *memClickRepo
}

var _ repository.LinkRepository = (*memLinkRepo)(nil)

func newMemLinkRepo() *memLinkRepo {
	return &memLinkRepo{links: make(map[string]*model.Link), seq: 1000000}
}

func (m *memLinkRepo) Create(ctx context.Context, link *model.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[link.ShortCode]; exists {
		return apperrors.ErrCodeTaken
	}

	m.nextID++
	link.ID = m.nextID
	link.CreatedAt = time.Now()
	link.UpdatedAt = link.CreatedAt

	stored := *link
	m.links[link.ShortCode] = &stored
	return nil
}

func (m *memLinkRepo) GetByShortCode(ctx context.Context, shortCode string) (*model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.links[shortCode]
	if !exists {
		return nil, apperrors.ErrLinkNotFound
	}

	copied := *link
	return &copied, nil
}

func (m *memLinkRepo) GetByID(ctx context.Context, id int64) (*model.Link, error) {
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

func (m *memLinkRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*model.Link, error) {
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

func (m *memLinkRepo) TopByOwner(ctx context.Context, ownerID int64, n int) ([]*model.Link, error) {
	links, err := m.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

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

func (m *memLinkRepo) UpdateOriginalURL(ctx context.Context, id int64, originalURL string) error {
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

func (m *memLinkRepo) Delete(ctx context.Context, id int64) error {
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
	m.mu.Unlock()

	if m.clicks != nil {
		m.clicks.deleteByLink(id)
	}

	return nil
}

func (m *memLinkRepo) IncrementClickCount(ctx context.Context, id int64) (string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for code, link := range m.links {
		if link.ID == id {
			link.ClickCount++
			return code, link.ClickCount, nil
		}
	}

	return "", 0, apperrors.ErrLinkNotFound
}

func (m *memLinkRepo) NextCodeSeq(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	return m.seq, nil
}

func (m *memLinkRepo) add(link *model.Link) *model.Link {
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

type memClickRepo struct {
	mu     sync.Mutex
	events []model.ClickEvent
	nextID int64
	links  *memLinkRepo
}

var _ repository.ClickRepository = (*memClickRepo)(nil)

func newMemClickRepo(links *memLinkRepo) *memClickRepo {
	m := &memClickRepo{links: links}
	links.clicks = m
	return m
}

func (m *memClickRepo) Insert(ctx context.Context, event *model.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	event.ID = m.nextID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	m.events = append(m.events, *event)
	return nil
}

func (m *memClickRepo) CountByOwnerSince(ctx context.Context, ownerID int64, since time.Time) (int64, error) {
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

func (m *memClickRepo) ListTimesByOwnerBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]time.Time, error) {
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

func (m *memClickRepo) ListByLink(ctx context.Context, linkID int64) ([]model.ClickEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []model.ClickEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].LinkID == linkID {
			events = append(events, m.events[i])
		}
	}

	return events, nil
}

func (m *memClickRepo) ListRecentByLink(ctx context.Context, linkID int64, limit int) ([]model.ClickEvent, error) {
	events, err := m.ListByLink(ctx, linkID)
	if err != nil {
		return nil, err
	}

	if len(events) > limit {
		events = events[:limit]
	}

	return events, nil
}

func (m *memClickRepo) CountUniqueVisitors(ctx context.Context, linkID int64) (int64, error) {
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

func (m *memClickRepo) deleteByLink(linkID int64) {
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

func (m *memClickRepo) ownedBy(linkID, ownerID int64) bool {
	m.links.mu.Lock()
	defer m.links.mu.Unlock()

	for _, link := range m.links.links {
		if link.ID == linkID {
			return link.OwnerID != nil && *link.OwnerID == ownerID
		}
	}

	return false
}

// testEnv bundles the router with everything a test needs to seed state and
// wait for async click appends.
type testEnv struct {
	linkRepo   *memLinkRepo
	clickRepo  *memClickRepo
	accountant *service.ClickAccountant
}

const testBaseURL = "http://localhost:8080"

func newTestServices() (*service.LinkService, *service.RedirectService, *service.AnalyticsService, *testEnv) {
	linkRepo := newMemLinkRepo()
	clickRepo := newMemClickRepo(linkRepo)

	accountant := service.NewClickAccountant(linkRepo, clickRepo, zap.NewNop(), time.Second)
	linkService := service.NewLinkService(linkRepo, testBaseURL, 6, 5)
	redirectService := service.NewRedirectService(linkRepo, accountant)
	analyticsService := service.NewAnalyticsService(linkRepo, clickRepo, testBaseURL)

	return linkService, redirectService, analyticsService, &testEnv{
		linkRepo:   linkRepo,
		clickRepo:  clickRepo,
		accountant: accountant,
	}
}

func ownerRef(id int64) *int64 {
	return &id
}
