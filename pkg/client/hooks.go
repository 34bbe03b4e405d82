package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
)

// HooksClient handles webhook operations
type HooksClient struct {
	client *Client
}

// NewHooksClient creates a new hooks client
func NewHooksClient(client *Client) *HooksClient {
	return &HooksClient{client: client}
}

// List returns the caller's webhooks
func (h *HooksClient) List(ctx context.Context) (*models.List[models.Hook], error) {
	var list models.List[models.Hook]
	err := h.client.invoke(ctx, call{
		op:     "hooks.list",
		method: http.MethodGet,
		route:  "/hooks",
		path:   "/hooks",
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Create registers a webhook
func (h *HooksClient) Create(ctx context.Context, req *models.HookCreateRequest) (*models.Hook, error) {
	if req == nil || req.Name == "" {
		return nil, apierror.New(apierror.KindBadRequest, "hook name is required")
	}
	if err := validateHookURL(req.URL); err != nil {
		return nil, err
	}
	if len(req.Events) == 0 {
		return nil, apierror.New(apierror.KindBadRequest, "at least one event is required")
	}

	var hook models.Hook
	err := h.client.invoke(ctx, call{
		op:     "hooks.create",
		method: http.MethodPost,
		route:  "/hooks",
		path:   "/hooks",
		body:   req,
	}, &hook)
	if err != nil {
		return nil, err
	}

	h.client.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"hook_id":     hook.ID,
		"event_count": len(req.Events),
	}).Info("Created hook")
	return &hook, nil
}

// Get retrieves a webhook by ID
func (h *HooksClient) Get(ctx context.Context, hookID string) (*models.Hook, error) {
	if err := requireID("hook ID", hookID); err != nil {
		return nil, err
	}

	var hook models.Hook
	err := h.client.invoke(ctx, call{
		op:     "hooks.get",
		method: http.MethodGet,
		route:  "/hooks/{hookId}",
		path:   "/hooks/" + escape(hookID),
	}, &hook)
	if err != nil {
		return nil, err
	}
	return &hook, nil
}

// Update changes a webhook
func (h *HooksClient) Update(ctx context.Context, hookID string, req *models.HookUpdateRequest) (*models.Hook, error) {
	if err := requireID("hook ID", hookID); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apierror.New(apierror.KindBadRequest, "nothing to update")
	}
	if req.URL != nil {
		if err := validateHookURL(*req.URL); err != nil {
			return nil, err
		}
	}

	var hook models.Hook
	err := h.client.invoke(ctx, call{
		op:     "hooks.update",
		method: http.MethodPatch,
		route:  "/hooks/{hookId}",
		path:   "/hooks/" + escape(hookID),
		body:   req,
	}, &hook)
	if err != nil {
		return nil, err
	}
	return &hook, nil
}

// Delete removes a webhook
func (h *HooksClient) Delete(ctx context.Context, hookID string) (*models.DeleteResponse, error) {
	if err := requireID("hook ID", hookID); err != nil {
		return nil, err
	}

	var resp models.DeleteResponse
	err := h.client.invoke(ctx, call{
		op:     "hooks.delete",
		method: http.MethodDelete,
		route:  "/hooks/{hookId}",
		path:   "/hooks/" + escape(hookID),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func validateHookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return apierror.New(apierror.KindBadRequest, "hook URL must be an absolute http(s) URL")
	}
	return nil
}
