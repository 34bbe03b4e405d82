package models

import (
	"net/url"
	"strconv"
	"time"
)

// Privacy controls who can see a chat or project
type Privacy string

const (
	PrivacyPublic   Privacy = "public"
	PrivacyPrivate  Privacy = "private"
	PrivacyTeam     Privacy = "team"
	PrivacyTeamEdit Privacy = "team-edit"
	PrivacyUnlisted Privacy = "unlisted"
)

// IsValid checks if the privacy setting is one the API accepts
func (p Privacy) IsValid() bool {
	switch p {
	case PrivacyPublic, PrivacyPrivate, PrivacyTeam, PrivacyTeamEdit, PrivacyUnlisted:
		return true
	default:
		return false
	}
}

// List is the envelope the API wraps collections in
type List[T any] struct {
	Object     string      `json:"object"`
	Data       []T         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination represents cursor pagination information
type Pagination struct {
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor,omitempty"`
	NextURL    string `json:"nextUrl,omitempty"`
}

// DeleteResponse is returned by delete endpoints
type DeleteResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

// ListOptions represents options for listing resources
type ListOptions struct {
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

// ToQuery converts ListOptions to URL query parameters
func (o *ListOptions) ToQuery() url.Values {
	params := url.Values{}
	if o == nil {
		return params
	}
	if o.Limit > 0 {
		params.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		params.Set("offset", strconv.Itoa(o.Offset))
	}
	if o.Cursor != "" {
		params.Set("cursor", o.Cursor)
	}
	return params
}

// HealthStatus represents the health status of a service
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy", "unhealthy"
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	Checks    map[string]HealthCheck `json:"checks,omitempty"`
}

// HealthCheck represents an individual health check
type HealthCheck struct {
	Status     string  `json:"status"`
	Error      string  `json:"error,omitempty"`
	ErrorKind  string  `json:"error_kind,omitempty"`
	DurationMs float64 `json:"duration_ms"`
}
