package model

import "time"

type Link struct {
	ID           int64      `json:"id"`
	OriginalURL  string     `json:"original_url"`
	ShortCode    string     `json:"short_code"`
	OwnerID      *int64     `json:"owner_id,omitempty"`
	IsCustomCode bool       `json:"is_custom_code"`
	ClickCount   int64      `json:"click_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// IsExpired reports whether the link is past its expiration time.
// Links without an expiration never expire.
func (l *Link) IsExpired() bool {
	if l.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*l.ExpiresAt)
}

type CreateLinkRequest struct {
	URL        string     `json:"url" binding:"required"`
	OwnerID    *int64     `json:"owner_id,omitempty"`
	CustomCode string     `json:"custom_code,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type EditLinkRequest struct {
	URL         string `json:"url" binding:"required"`
	RequesterID int64  `json:"requester_id" binding:"required"`
}

type LinkResponse struct {
	ID           int64      `json:"id"`
	ShortCode    string     `json:"short_code"`
	OriginalURL  string     `json:"original_url"`
	ShortURL     string     `json:"short_url"`
	IsCustomCode bool       `json:"is_custom_code"`
	ClickCount   int64      `json:"click_count"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}
