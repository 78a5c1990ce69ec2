package model

import "time"

const (
	MaxUserAgentLength = 300
	MaxReferrerLength  = 2000
)

// ClickEvent is one recorded redirect. Rows are append-only and removed
// only when the owning link is deleted.
type ClickEvent struct {
	ID         int64     `json:"id"`
	LinkID     int64     `json:"link_id"`
	OccurredAt time.Time `json:"occurred_at"`
	ClientIP   string    `json:"client_ip,omitempty"`
	UserAgent  string    `json:"user_agent"`
	Referrer   string    `json:"referrer,omitempty"`
}

// ClickMeta carries the request metadata captured at redirect time.
type ClickMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// Truncated returns a copy with user agent and referrer cut to the
// persisted column widths.
func (m ClickMeta) Truncated() ClickMeta {
	m.UserAgent = truncateRunes(m.UserAgent, MaxUserAgentLength)
	m.Referrer = truncateRunes(m.Referrer, MaxReferrerLength)
	return m
}

// truncateRunes cuts s to at most max characters. The limit matches the
// varchar column widths, which count characters, and cutting on rune
// boundaries keeps the result valid UTF-8 for the store.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}

	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}

	return s
}
