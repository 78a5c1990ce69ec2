package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	apperrors "github.com/mgrushin/go-shortlink/internal/errors"
	"github.com/mgrushin/go-shortlink/internal/model"
	"github.com/mgrushin/go-shortlink/internal/repository"
	"github.com/mgrushin/go-shortlink/internal/utils"
)

// LinkService owns allocation and the link lifecycle. Uniqueness is never
// checked up front: every attempt is an atomic insert-if-absent against the
// store, so two callers racing on the same candidate cannot both win.
type LinkService struct {
	linkRepo   repository.LinkRepository
	baseURL    string
	codeLength int
	maxRetries int
}

func NewLinkService(linkRepo repository.LinkRepository, baseURL string, codeLength, maxRetries int) *LinkService {
	if codeLength <= 0 {
		codeLength = utils.DefaultShortCodeLength
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}

	return &LinkService{
		linkRepo:   linkRepo,
		baseURL:    baseURL,
		codeLength: codeLength,
		maxRetries: maxRetries,
	}
}

// Allocate reserves a short code for the URL. A requested custom code is
// validated and tried exactly once; conflicts surface to the caller. Without
// one, random candidates are tried until the retry budget runs out.
func (s *LinkService) Allocate(ctx context.Context, req *model.CreateLinkRequest) (*model.LinkResponse, error) {
	if err := utils.ValidateURL(req.URL); err != nil {
		return nil, err
	}

	link := &model.Link{
		OriginalURL: utils.SanitizeInput(req.URL),
		OwnerID:     req.OwnerID,
		ExpiresAt:   req.ExpiresAt,
	}

	if req.CustomCode != "" {
		if err := utils.ValidateShortCode(req.CustomCode); err != nil {
			return nil, err
		}

		link.ShortCode = req.CustomCode
		link.IsCustomCode = true

		if err := s.linkRepo.Create(ctx, link); err != nil {
			return nil, err
		}

		return s.toResponse(link), nil
	}

	if err := s.allocateGenerated(ctx, link); err != nil {
		return nil, err
	}

	return s.toResponse(link), nil
}

// allocateGenerated drives the collision-retry loop. Collisions at the
// default length are birthday-rare until tens of millions of live codes, so
// repeated conflicts hint at a dense space: the second half of the budget
// generates one character longer, and the last attempt gives up on
// randomness entirely and encodes a store sequence value, which cannot
// collide with any other sequence-derived code.
func (s *LinkService) allocateGenerated(ctx context.Context, link *model.Link) error {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		code, err := s.nextCandidate(ctx, attempt)
		if err != nil {
			return fmt.Errorf("failed to generate short code: %w", err)
		}

		link.ShortCode = code

		err = s.linkRepo.Create(ctx, link)
		if err == nil {
			return nil
		}

		if errors.Is(err, apperrors.ErrCodeTaken) {
			continue
		}

		return err
	}

	return fmt.Errorf("%w: gave up after %d attempts", apperrors.ErrAllocationExhausted, s.maxRetries)
}

func (s *LinkService) nextCandidate(ctx context.Context, attempt int) (string, error) {
	if attempt == s.maxRetries-1 {
		seq, err := s.linkRepo.NextCodeSeq(ctx)
		if err != nil {
			return "", err
		}
		return utils.EncodeBase62(seq), nil
	}

	length := s.codeLength
	if attempt >= s.maxRetries/2 && length < utils.MaxShortCodeLength {
		length++
	}

	return utils.GenerateShortCodeWithLength(length)
}

func (s *LinkService) Get(ctx context.Context, shortCode string) (*model.LinkResponse, error) {
	if shortCode == "" {
		return nil, apperrors.NewValidationError("short_code", "short code cannot be empty")
	}

	link, err := s.linkRepo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	return s.toResponse(link), nil
}

func (s *LinkService) ListByOwner(ctx context.Context, ownerID int64) ([]*model.LinkResponse, error) {
	links, err := s.linkRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return lo.Map(links, func(l *model.Link, _ int) *model.LinkResponse {
		return s.toResponse(l)
	}), nil
}

// Edit replaces the destination URL. Only the owner may edit; anonymous
// links have no owner and are therefore never editable.
func (s *LinkService) Edit(ctx context.Context, shortCode, newURL string, requesterID int64) error {
	if err := utils.ValidateURL(newURL); err != nil {
		return err
	}

	link, err := s.linkRepo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return err
	}

	if err := checkOwnership(link, requesterID); err != nil {
		return err
	}

	return s.linkRepo.UpdateOriginalURL(ctx, link.ID, utils.SanitizeInput(newURL))
}

// Delete retires the link and its click events. The short code is never
// reused afterwards.
func (s *LinkService) Delete(ctx context.Context, shortCode string, requesterID int64) error {
	link, err := s.linkRepo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return err
	}

	if err := checkOwnership(link, requesterID); err != nil {
		return err
	}

	return s.linkRepo.Delete(ctx, link.ID)
}

func checkOwnership(link *model.Link, requesterID int64) error {
	if link.OwnerID == nil || *link.OwnerID != requesterID {
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *LinkService) toResponse(link *model.Link) *model.LinkResponse {
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

func buildShortURL(baseURL, shortCode string) string {
	return fmt.Sprintf("%s/%s", baseURL, shortCode)
}
