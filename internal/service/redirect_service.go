package service

import (
	"context"
	"errors"

	apperrors "github.com/mgrushin/go-shortlink/internal/errors"
	"github.com/mgrushin/go-shortlink/internal/model"
	"github.com/mgrushin/go-shortlink/internal/repository"
)

// Outcome is the terminal state of one resolution attempt.
type Outcome int

const (
	OutcomeActive Outcome = iota
	OutcomeExpired
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeActive:
		return "active"
	case OutcomeExpired:
		return "expired"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// RedirectService resolves short codes to destinations and triggers click
// accounting on active hits.
type RedirectService struct {
	linkRepo   repository.LinkRepository
	accountant *ClickAccountant
}

func NewRedirectService(linkRepo repository.LinkRepository, accountant *ClickAccountant) *RedirectService {
	return &RedirectService{
		linkRepo:   linkRepo,
		accountant: accountant,
	}
}

// Resolve walks the per-request state machine: lookup, then expired or
// active. Expired links keep their record and counters untouched. Only an
// active resolution records a click. Callers must redirect with a temporary
// status so a later edit or expiry is re-evaluated on every access.
func (s *RedirectService) Resolve(ctx context.Context, shortCode string, meta model.ClickMeta) (string, Outcome, error) {
	link, err := s.linkRepo.GetByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrLinkNotFound) {
			return "", OutcomeNotFound, nil
		}
		return "", OutcomeNotFound, err
	}

	if link.IsExpired() {
		return "", OutcomeExpired, nil
	}

	if err := s.accountant.Record(ctx, link.ID, meta); err != nil {
		return "", OutcomeActive, err
	}

	return link.OriginalURL, OutcomeActive, nil
}
