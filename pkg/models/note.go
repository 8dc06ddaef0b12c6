package models

import "time"

// NoteSummary is the projection of a page's embedded state into the
// service's output schema. Field names mirror the upstream state object.
type NoteSummary struct {
	Title     string   `json:"title"`
	Desc      string   `json:"desc"`
	Type      *string  `json:"type"`
	ImageList []string `json:"image_list"`
	User      *string  `json:"user"`
	RawURL    string   `json:"raw_url"`
}

// CachedNote is a stored scrape result keyed by note ID
type CachedNote struct {
	ID        string      `json:"id" badgerhold:"key"`
	URL       string      `json:"url" badgerhold:"index"`
	Summary   NoteSummary `json:"summary"`
	Strategy  string      `json:"strategy"`
	FetchedAt time.Time   `json:"fetched_at"`
}

// Expired reports whether the cached entry is older than ttl.
func (c *CachedNote) Expired(ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return time.Since(c.FetchedAt) > ttl
}
