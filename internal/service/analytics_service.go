package service

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"

	apperrors "github.com/mgrushin/go-shortlink/internal/errors"
	"github.com/mgrushin/go-shortlink/internal/model"
	"github.com/mgrushin/go-shortlink/internal/repository"
)

const (
	topReferrersLimit    = 5
	userAgentsLimit      = 10
	recentEventsLimit    = 10
	defaultTopLinksN     = 10
	defaultHistogramDays = 7
)

// AnalyticsService computes derived statistics over links and the click
// event log. It is strictly read-only: counter-based figures come from the
// links table (latest committed increments), event-derived figures from the
// click log and may lag behind.
type AnalyticsService struct {
	linkRepo  repository.LinkRepository
	clickRepo repository.ClickRepository
	baseURL   string
}

func NewAnalyticsService(linkRepo repository.LinkRepository, clickRepo repository.ClickRepository, baseURL string) *AnalyticsService {
	return &AnalyticsService{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
		baseURL:   baseURL,
	}
}

// OverallStats summarizes an owner's links. Ties on click count go to the
// lower id so repeated calls agree. Links that were never clicked do not
// qualify as least clicked.
func (s *AnalyticsService) OverallStats(ctx context.Context, ownerID int64) (*model.OverallStats, error) {
	links, err := s.linkRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := &model.OverallStats{
		TotalLinks:  len(links),
		TotalClicks: lo.SumBy(links, func(l *model.Link) int64 { return l.ClickCount }),
	}

	var most, least *model.Link
	for _, l := range links {
		if most == nil || l.ClickCount > most.ClickCount ||
			(l.ClickCount == most.ClickCount && l.ID < most.ID) {
			most = l
		}
		if l.ClickCount > 0 {
			if least == nil || l.ClickCount < least.ClickCount ||
				(l.ClickCount == least.ClickCount && l.ID < least.ID) {
				least = l
			}
		}
	}

	if most != nil {
		stats.MostClicked = s.toResponse(most)
	}
	if least != nil {
		stats.LeastClickedNonZero = s.toResponse(least)
	}

	return stats, nil
}

// RecentActivity counts clicks across the owner's links within the trailing
// window.
func (s *AnalyticsService) RecentActivity(ctx context.Context, ownerID int64, window time.Duration) (*model.RecentActivity, error) {
	if window <= 0 {
		return nil, apperrors.NewValidationError("window", "window must be positive")
	}

	since := time.Now().Add(-window)
	count, err := s.clickRepo.CountByOwnerSince(ctx, ownerID, since)
	if err != nil {
		return nil, err
	}

	return &model.RecentActivity{
		Window: window,
		Since:  since,
		Count:  count,
	}, nil
}

// DailyHistogram buckets the owner's clicks into the last `days` local
// calendar days including today, oldest first. Every day appears even when
// its count is zero.
func (s *AnalyticsService) DailyHistogram(ctx context.Context, ownerID int64, days int) ([]model.DailyCount, error) {
	if days <= 0 {
		days = defaultHistogramDays
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := today.AddDate(0, 0, -(days - 1))
	end := today.AddDate(0, 0, 1)

	times, err := s.clickRepo.ListTimesByOwnerBetween(ctx, ownerID, start, end)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, days)
	for _, t := range times {
		counts[t.In(now.Location()).Format("2006-01-02")]++
	}

	histogram := make([]model.DailyCount, 0, days)
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		date := day.Format("2006-01-02")
		histogram = append(histogram, model.DailyCount{
			Date:  date,
			Count: counts[date],
		})
	}

	return histogram, nil
}

// TopLinks returns the owner's n most clicked links, descending.
func (s *AnalyticsService) TopLinks(ctx context.Context, ownerID int64, n int) ([]*model.LinkResponse, error) {
	if n <= 0 {
		n = defaultTopLinksN
	}

	links, err := s.linkRepo.TopByOwner(ctx, ownerID, n)
	if err != nil {
		return nil, err
	}

	return lo.Map(links, func(l *model.Link, _ int) *model.LinkResponse {
		return s.toResponse(l)
	}), nil
}

// LinkDetailByCode resolves a short code and assembles its breakdown.
func (s *AnalyticsService) LinkDetailByCode(ctx context.Context, shortCode string) (*model.LinkDetailStats, error) {
	link, err := s.linkRepo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	return s.linkDetail(ctx, link)
}

// LinkDetail is LinkDetailByCode addressed by id.
func (s *AnalyticsService) LinkDetail(ctx context.Context, linkID int64) (*model.LinkDetailStats, error) {
	link, err := s.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}

	return s.linkDetail(ctx, link)
}

// linkDetail assembles the per-link breakdown: live total from the counter,
// unique visitors by distinct non-empty client IP, latest events, referrer
// and user agent breakdowns, and an all-time hour-of-day histogram.
func (s *AnalyticsService) linkDetail(ctx context.Context, link *model.Link) (*model.LinkDetailStats, error) {
	linkID := link.ID

	unique, err := s.clickRepo.CountUniqueVisitors(ctx, linkID)
	if err != nil {
		return nil, err
	}

	recent, err := s.clickRepo.ListRecentByLink(ctx, linkID, recentEventsLimit)
	if err != nil {
		return nil, err
	}

	events, err := s.clickRepo.ListByLink(ctx, linkID)
	if err != nil {
		return nil, err
	}

	detail := &model.LinkDetailStats{
		LinkID:         link.ID,
		ShortCode:      link.ShortCode,
		TotalClicks:    link.ClickCount,
		UniqueVisitors: unique,
		RecentEvents:   recent,
	}

	referrers := lo.Filter(events, func(e model.ClickEvent, _ int) bool { return e.Referrer != "" })
	detail.TopReferrers = topGroupCounts(
		lo.CountValuesBy(referrers, func(e model.ClickEvent) string { return e.Referrer }),
		topReferrersLimit,
	)
	detail.UserAgentBreakdown = topGroupCounts(
		lo.CountValuesBy(events, func(e model.ClickEvent) string { return e.UserAgent }),
		userAgentsLimit,
	)

	for _, e := range events {
		detail.HourlyHistogram[e.OccurredAt.Local().Hour()]++
	}

	return detail, nil
}

// topGroupCounts sorts grouped counts descending and keeps the first n.
// Equal counts order by value so the result is deterministic.
func topGroupCounts(counts map[string]int, n int) []model.GroupCount {
	groups := make([]model.GroupCount, 0, len(counts))
	for value, count := range counts {
		groups = append(groups, model.GroupCount{Value: value, Count: int64(count)})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Value < groups[j].Value
	})

	if len(groups) > n {
		groups = groups[:n]
	}

	return groups
}

func (s *AnalyticsService) toResponse(link *model.Link) *model.LinkResponse {
	return &model.LinkResponse{
		ID:           link.ID,
		ShortCode:    link.ShortCode,
		OriginalURL:  link.OriginalURL,
		ShortURL:     buildShortURL(s.baseURL, link.ShortCode),
		IsCustomCode: link.IsCustomCode,
		ClickCount:   link.ClickCount,
		CreatedAt:    link.CreatedAt,
		ExpiresAt:    link.ExpiresAt,
	}
}
