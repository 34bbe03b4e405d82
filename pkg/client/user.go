package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/vercel/v0-sdk-sub002/pkg/cache"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
)

const userCacheName = "user"

// UserClient handles account lookups. Results are cached for the
// configured TTL since they rarely change within a session.
type UserClient struct {
	client  *Client
	user    *cache.TTL[*models.User]
	plan    *cache.TTL[*models.Plan]
	billing *cache.TTL[*models.Billing]
	scopes  *cache.TTL[*models.List[models.Scope]]
}

// NewUserClient creates a new user client
func NewUserClient(client *Client, ttl time.Duration) *UserClient {
	return &UserClient{
		client:  client,
		user:    cache.New[*models.User](ttl),
		plan:    cache.New[*models.Plan](ttl),
		billing: cache.New[*models.Billing](ttl),
		scopes:  cache.New[*models.List[models.Scope]](ttl),
	}
}

// cached runs a read-through lookup on store and records the hit or miss.
func cached[T any](ctx context.Context, u *UserClient, store *cache.TTL[T], key string, load func(context.Context) (T, error)) (T, error) {
	v, hit, err := store.GetOrLoad(ctx, key, load)
	if store.Enabled() && err == nil {
		u.client.metrics.RecordCacheLookup(userCacheName, hit)
		u.client.logger.LogCacheEvent(ctx, "get", key, hit)
	}
	return v, err
}

// Get returns the user that owns the API key
func (u *UserClient) Get(ctx context.Context) (*models.User, error) {
	return cached(ctx, u, u.user, "user", func(ctx context.Context) (*models.User, error) {
		var user models.User
		err := u.client.invoke(ctx, call{
			op:     "user.get",
			method: http.MethodGet,
			route:  "/user",
			path:   "/user",
		}, &user)
		if err != nil {
			return nil, err
		}
		return &user, nil
	})
}

// GetPlan returns the user's subscription and remaining balance
func (u *UserClient) GetPlan(ctx context.Context) (*models.Plan, error) {
	return cached(ctx, u, u.plan, "plan", func(ctx context.Context) (*models.Plan, error) {
		var plan models.Plan
		err := u.client.invoke(ctx, call{
			op:     "user.get_plan",
			method: http.MethodGet,
			route:  "/user/plan",
			path:   "/user/plan",
		}, &plan)
		if err != nil {
			return nil, err
		}
		return &plan, nil
	})
}

// GetBilling returns billing details, optionally for a team scope
func (u *UserClient) GetBilling(ctx context.Context, scope string) (*models.Billing, error) {
	return cached(ctx, u, u.billing, "billing:"+scope, func(ctx context.Context) (*models.Billing, error) {
		query := url.Values{}
		if scope != "" {
			query.Set("scope", scope)
		}
		var billing models.Billing
		err := u.client.invoke(ctx, call{
			op:     "user.get_billing",
			method: http.MethodGet,
			route:  "/user/billing",
			path:   "/user/billing",
			query:  query,
		}, &billing)
		if err != nil {
			return nil, err
		}
		return &billing, nil
	})
}

// GetScopes returns the accounts the user can act as
func (u *UserClient) GetScopes(ctx context.Context) (*models.List[models.Scope], error) {
	return cached(ctx, u, u.scopes, "scopes", func(ctx context.Context) (*models.List[models.Scope], error) {
		var list models.List[models.Scope]
		err := u.client.invoke(ctx, call{
			op:     "user.get_scopes",
			method: http.MethodGet,
			route:  "/user/scopes",
			path:   "/user/scopes",
		}, &list)
		if err != nil {
			return nil, err
		}
		return &list, nil
	})
}

// InvalidateCache drops every cached account lookup
func (u *UserClient) InvalidateCache() {
	u.user.Clear()
	u.plan.Clear()
	u.billing.Clear()
	u.scopes.Clear()
}
