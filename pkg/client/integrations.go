package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
)

// IntegrationsClient handles the Vercel integration
type IntegrationsClient struct {
	client *Client
}

// NewIntegrationsClient creates a new integrations client
func NewIntegrationsClient(client *Client) *IntegrationsClient {
	return &IntegrationsClient{client: client}
}

// ListVercelProjects lists projects on the linked Vercel account
func (i *IntegrationsClient) ListVercelProjects(ctx context.Context) (*models.List[models.VercelProject], error) {
	var list models.List[models.VercelProject]
	err := i.client.invoke(ctx, call{
		op:     "integrations.list_vercel_projects",
		method: http.MethodGet,
		route:  "/integrations/vercel/projects",
		path:   "/integrations/vercel/projects",
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateVercelProject links a v0 project to a new Vercel project
func (i *IntegrationsClient) CreateVercelProject(ctx context.Context, req *models.VercelProjectCreateRequest) (*models.VercelProject, error) {
	if req == nil {
		return nil, apierror.New(apierror.KindBadRequest, "request is required")
	}
	if err := requireID("project ID", req.ProjectID); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, apierror.New(apierror.KindBadRequest, "name is required")
	}

	var project models.VercelProject
	err := i.client.invoke(ctx, call{
		op:     "integrations.create_vercel_project",
		method: http.MethodPost,
		route:  "/integrations/vercel/projects",
		path:   "/integrations/vercel/projects",
		body:   req,
	}, &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// RateLimitsClient reports the caller's API budget
type RateLimitsClient struct {
	client *Client
}

// NewRateLimitsClient creates a new rate limits client
func NewRateLimitsClient(client *Client) *RateLimitsClient {
	return &RateLimitsClient{client: client}
}

// Find returns the current rate limit, optionally for a team scope
func (r *RateLimitsClient) Find(ctx context.Context, scope string) (*models.RateLimit, error) {
	query := url.Values{}
	if scope != "" {
		query.Set("scope", scope)
	}

	var limit models.RateLimit
	err := r.client.invoke(ctx, call{
		op:     "rate_limits.find",
		method: http.MethodGet,
		route:  "/rate-limits",
		path:   "/rate-limits",
		query:  query,
	}, &limit)
	if err != nil {
		return nil, err
	}
	return &limit, nil
}

// ReportsClient exposes usage reporting
type ReportsClient struct {
	client *Client
}

// NewReportsClient creates a new reports client
func NewReportsClient(client *Client) *ReportsClient {
	return &ReportsClient{client: client}
}

// Usage returns billable usage events matching opts
func (r *ReportsClient) Usage(ctx context.Context, opts *models.UsageReportOptions) (*models.List[models.UsageEvent], error) {
	query := url.Values{}
	if opts != nil {
		for key, value := range map[string]string{
			"startDate": opts.StartDate,
			"endDate":   opts.EndDate,
			"chatId":    opts.ChatID,
			"messageId": opts.MessageID,
			"cursor":    opts.Cursor,
		} {
			if value != "" {
				query.Set(key, value)
			}
		}
		if opts.Limit > 0 {
			query.Set("limit", strconv.Itoa(opts.Limit))
		}
	}

	var list models.List[models.UsageEvent]
	err := r.client.invoke(ctx, call{
		op:     "reports.usage",
		method: http.MethodGet,
		route:  "/reports/usage",
		path:   "/reports/usage",
		query:  query,
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}
