package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mgrushin/go-shortlink/internal/model"
	"github.com/mgrushin/go-shortlink/internal/repository"
)

const defaultAppendTimeout = 5 * time.Second

// ClickAccountant records clicks for active redirects. The aggregate counter
// is bumped synchronously with a store-level atomic increment; the detailed
// click event is appended from a separate goroutine so that a slow or failing
// event log never holds up a redirect. The counter is the source of truth for
// totals, the event log for breakdowns, and the two may briefly disagree.
type ClickAccountant struct {
	linkRepo      repository.LinkRepository
	clickRepo     repository.ClickRepository
	log           *zap.Logger
	appendTimeout time.Duration

	wg sync.WaitGroup
}

func NewClickAccountant(linkRepo repository.LinkRepository, clickRepo repository.ClickRepository, logger *zap.Logger, appendTimeout time.Duration) *ClickAccountant {
	if appendTimeout <= 0 {
		appendTimeout = defaultAppendTimeout
	}

	return &ClickAccountant{
		linkRepo:      linkRepo,
		clickRepo:     clickRepo,
		log:           logger,
		appendTimeout: appendTimeout,
	}
}

// Record increments the link's click counter and schedules the event append.
// An increment failure is returned to the caller; an append failure is logged
// and dropped.
func (a *ClickAccountant) Record(ctx context.Context, linkID int64, meta model.ClickMeta) error {
	meta = meta.Truncated()

	shortCode, newCount, err := a.linkRepo.IncrementClickCount(ctx, linkID)
	if err != nil {
		return err
	}

	a.log.Debug("click recorded",
		zap.String("short_code", shortCode),
		zap.Int64("click_count", newCount),
	)

	occurredAt := time.Now()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		// Detached from the request context: a client disconnect must
		// not cancel an append that is already on its way.
		appendCtx, cancel := context.WithTimeout(context.Background(), a.appendTimeout)
		defer cancel()

		event := &model.ClickEvent{
			LinkID:     linkID,
			OccurredAt: occurredAt,
			ClientIP:   meta.ClientIP,
			UserAgent:  meta.UserAgent,
			Referrer:   meta.Referrer,
		}

		if err := a.clickRepo.Insert(appendCtx, event); err != nil {
			a.log.Warn("failed to append click event",
				zap.Int64("link_id", linkID),
				zap.Error(err),
			)
		}
	}()

	return nil
}

// Drain waits for in-flight event appends. Called on shutdown.
func (a *ClickAccountant) Drain() {
	a.wg.Wait()
}
