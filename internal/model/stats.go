package model

import "time"

// OverallStats summarizes all links belonging to one owner.
type OverallStats struct {
	TotalLinks          int           `json:"total_links"`
	TotalClicks         int64         `json:"total_clicks"`
	MostClicked         *LinkResponse `json:"most_clicked,omitempty"`
	LeastClickedNonZero *LinkResponse `json:"least_clicked_non_zero,omitempty"`
}

// DailyCount is one calendar-day bucket of a click histogram.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD, local time
	Count int64  `json:"count"`
}

// GroupCount is a count for a single exact string value (referrer, user agent).
type GroupCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// LinkDetailStats is the per-link analytics breakdown.
type LinkDetailStats struct {
	LinkID             int64        `json:"link_id"`
	ShortCode          string       `json:"short_code"`
	TotalClicks        int64        `json:"total_clicks"`
	UniqueVisitors     int64        `json:"unique_visitors"`
	RecentEvents       []ClickEvent `json:"recent_events"`
	TopReferrers       []GroupCount `json:"top_referrers"`
	UserAgentBreakdown []GroupCount `json:"user_agent_breakdown"`
	HourlyHistogram    [24]int64    `json:"hourly_histogram"`
}

// RecentActivity is the click count over a trailing window.
type RecentActivity struct {
	Window time.Duration `json:"-"`
	Since  time.Time     `json:"since"`
	Count  int64         `json:"count"`
}
