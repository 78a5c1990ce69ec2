package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/mgrushin/go-shortlink/internal/errors"
	"github.com/mgrushin/go-shortlink/internal/model"
	"github.com/mgrushin/go-shortlink/internal/service"
)

type LinkHandler struct {
	linkService     *service.LinkService
	redirectService *service.RedirectService
}

func NewLinkHandler(linkService *service.LinkService, redirectService *service.RedirectService) *LinkHandler {
	return &LinkHandler{
		linkService:     linkService,
		redirectService: redirectService,
	}
}

func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req model.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format",
		})
		return
	}

	response, err := h.linkService.Allocate(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *LinkHandler) GetLink(c *gin.Context) {
	shortCode := c.Param("shortCode")

	response, err := h.linkService.Get(c.Request.Context(), shortCode)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *LinkHandler) ListLinks(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		return
	}

	links, err := h.linkService.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"links": links,
		"total": len(links),
	})
}

func (h *LinkHandler) EditLink(c *gin.Context) {
	shortCode := c.Param("shortCode")

	var req model.EditLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format",
		})
		return
	}

	if err := h.linkService.Edit(c.Request.Context(), shortCode, req.URL, req.RequesterID); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *LinkHandler) DeleteLink(c *gin.Context) {
	shortCode := c.Param("shortCode")

	requesterID, ok := requesterIDParam(c)
	if !ok {
		return
	}

	if err := h.linkService.Delete(c.Request.Context(), shortCode, requesterID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Redirect serves the hot path. The redirect is deliberately temporary
// (302): destinations and expiry can change, so clients must not cache the
// mapping.
func (h *LinkHandler) Redirect(c *gin.Context) {
	shortCode := c.Param("shortCode")

	meta := clickMetaFromRequest(c.Request)

	destination, outcome, err := h.redirectService.Resolve(c.Request.Context(), shortCode, meta)
	if err != nil {
		handleError(c, err)
		return
	}

	switch outcome {
	case service.OutcomeActive:
		c.Redirect(http.StatusFound, destination)
	case service.OutcomeExpired:
		c.JSON(http.StatusGone, gin.H{
			"error":   "link_expired",
			"message": "This link has expired",
		})
	default:
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "link_not_found",
			"message": "Short link not found",
		})
	}
}

// handleError maps the error taxonomy onto HTTP statuses.
func handleError(c *gin.Context, err error) {
	if apperrors.IsValidationError(err) {
		validationErr := apperrors.GetValidationError(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": validationErr.Message,
			"field":   validationErr.Field,
		})
		return
	}

	if errors.Is(err, apperrors.ErrCodeTaken) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "code_conflict",
			"message": "This short code is already taken",
		})
		return
	}

	if errors.Is(err, apperrors.ErrLinkNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "link_not_found",
			"message": "Short link not found",
		})
		return
	}

	if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You do not own this link",
		})
		return
	}

	if errors.Is(err, apperrors.ErrAllocationExhausted) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "allocation_exhausted",
			"message": "Could not allocate a unique short code",
		})
		return
	}

	if errors.Is(err, apperrors.ErrStoreUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "store_unavailable",
			"message": "Storage is temporarily unavailable",
		})
		return
	}

	if apperrors.IsBusinessError(err) {
		businessErr := apperrors.GetBusinessError(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "business_error",
			"message": businessErr.Message,
			"code":    businessErr.Code,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "An unexpected error occurred",
	})
}
