package models

import "time"

// HookEvent names an event a webhook can subscribe to
type HookEvent string

const (
	HookEventChatCreated     HookEvent = "chat.created"
	HookEventChatUpdated     HookEvent = "chat.updated"
	HookEventChatDeleted     HookEvent = "chat.deleted"
	HookEventMessageCreated  HookEvent = "message.created"
	HookEventMessageUpdated  HookEvent = "message.updated"
	HookEventMessageDeleted  HookEvent = "message.deleted"
	HookEventMessageFinished HookEvent = "message.finished"
)

// Hook is a webhook subscription
type Hook struct {
	ID        string      `json:"id"`
	Object    string      `json:"object"`
	Name      string      `json:"name"`
	URL       string      `json:"url"`
	Events    []HookEvent `json:"events"`
	ChatID    string      `json:"chatId,omitempty"`
	CreatedAt *time.Time  `json:"createdAt,omitempty"`
}

// HookCreateRequest creates a webhook
type HookCreateRequest struct {
	Name   string      `json:"name"`
	URL    string      `json:"url"`
	Events []HookEvent `json:"events"`
	ChatID string      `json:"chatId,omitempty"`
}

// HookUpdateRequest changes a webhook; nil fields are left as is
type HookUpdateRequest struct {
	Name   *string     `json:"name,omitempty"`
	URL    *string     `json:"url,omitempty"`
	Events []HookEvent `json:"events,omitempty"`
}

// User is the account that owns the API key
type User struct {
	ID        string     `json:"id"`
	Object    string     `json:"object"`
	Name      string     `json:"name,omitempty"`
	Email     string     `json:"email"`
	Avatar    string     `json:"avatar,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Plan is the user's subscription
type Plan struct {
	Object       string       `json:"object"`
	Plan         string       `json:"plan"`
	BillingCycle BillingCycle `json:"billingCycle"`
	Balance      Balance      `json:"balance"`
}

// BillingCycle bounds the current billing period, in unix milliseconds
type BillingCycle struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Balance is the remaining credit in the current cycle
type Balance struct {
	Remaining float64 `json:"remaining"`
	Total     float64 `json:"total"`
}

// Billing describes billing for a scope. Data varies by billing type.
type Billing struct {
	BillingType string         `json:"billingType"`
	Data        map[string]any `json:"data"`
}

// Scope is a team or personal account the user can act as
type Scope struct {
	ID     string `json:"id"`
	Object string `json:"object"`
	Name   string `json:"name,omitempty"`
}

// RateLimit reports the caller's remaining request budget
type RateLimit struct {
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
	Limit     int   `json:"limit"`
}

// UsageEvent is one billable generation event
type UsageEvent struct {
	ID             string    `json:"id"`
	Object         string    `json:"object"`
	Type           string    `json:"type"`
	PromptCost     string    `json:"promptCost,omitempty"`
	CompletionCost string    `json:"completionCost,omitempty"`
	TotalCost      string    `json:"totalCost"`
	ChatID         string    `json:"chatId,omitempty"`
	MessageID      string    `json:"messageId,omitempty"`
	UserID         string    `json:"userId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UsageReportOptions filters a usage report
type UsageReportOptions struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	ChatID    string `json:"chatId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Cursor    string `json:"cursor,omitempty"`
}
