package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
)

// ErrDeploymentFailed is returned by WaitReady when the deployment ends in
// an error or canceled state.
var ErrDeploymentFailed = errors.New("v0: deployment failed")

// ErrDeploymentNotReady is returned by WaitReady when the poll budget runs
// out while the deployment is still in progress.
var ErrDeploymentNotReady = errors.New("v0: deployment not ready")

// DeploymentsClient handles deployment operations
type DeploymentsClient struct {
	client *Client
}

// NewDeploymentsClient creates a new deployments client
func NewDeploymentsClient(client *Client) *DeploymentsClient {
	return &DeploymentsClient{client: client}
}

// Create deploys a chat version
func (d *DeploymentsClient) Create(ctx context.Context, req *models.DeploymentCreateRequest) (*models.Deployment, error) {
	if req == nil {
		return nil, apierror.New(apierror.KindBadRequest, "deployment request is required")
	}
	for _, f := range [][2]string{{"project ID", req.ProjectID}, {"chat ID", req.ChatID}, {"version ID", req.VersionID}} {
		if err := requireID(f[0], f[1]); err != nil {
			return nil, err
		}
	}

	var deployment models.Deployment
	err := d.client.invoke(ctx, call{
		op:     "deployments.create",
		method: http.MethodPost,
		route:  "/deployments",
		path:   "/deployments",
		body:   req,
	}, &deployment)
	if err != nil {
		return nil, err
	}

	d.client.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"deployment_id": deployment.ID,
		"chat_id":       req.ChatID,
		"version_id":    req.VersionID,
	}).Info("Created deployment")
	return &deployment, nil
}

// Find lists deployments matching the given filters
func (d *DeploymentsClient) Find(ctx context.Context, opts *models.DeploymentFindOptions) (*models.List[models.Deployment], error) {
	query := url.Values{}
	if opts != nil {
		if opts.ProjectID != "" {
			query.Set("projectId", opts.ProjectID)
		}
		if opts.ChatID != "" {
			query.Set("chatId", opts.ChatID)
		}
		if opts.VersionID != "" {
			query.Set("versionId", opts.VersionID)
		}
	}

	var list models.List[models.Deployment]
	err := d.client.invoke(ctx, call{
		op:     "deployments.find",
		method: http.MethodGet,
		route:  "/deployments",
		path:   "/deployments",
		query:  query,
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Get retrieves a deployment by ID
func (d *DeploymentsClient) Get(ctx context.Context, deploymentID string) (*models.Deployment, error) {
	if err := requireID("deployment ID", deploymentID); err != nil {
		return nil, err
	}

	var deployment models.Deployment
	err := d.client.invoke(ctx, call{
		op:     "deployments.get",
		method: http.MethodGet,
		route:  "/deployments/{deploymentId}",
		path:   "/deployments/" + escape(deploymentID),
	}, &deployment)
	if err != nil {
		return nil, err
	}
	return &deployment, nil
}

// Delete deletes a deployment
func (d *DeploymentsClient) Delete(ctx context.Context, deploymentID string) (*models.DeleteResponse, error) {
	if err := requireID("deployment ID", deploymentID); err != nil {
		return nil, err
	}

	var resp models.DeleteResponse
	err := d.client.invoke(ctx, call{
		op:     "deployments.delete",
		method: http.MethodDelete,
		route:  "/deployments/{deploymentId}",
		path:   "/deployments/" + escape(deploymentID),
	}, &resp)
	if err != nil {
		return nil, err
	}

	d.client.logger.WithContext(ctx).WithField("deployment_id", deploymentID).Info("Deleted deployment")
	return &resp, nil
}

// Logs returns deployment logs. since is a unix millisecond cursor from a
// previous page's NextSince; zero starts from the beginning.
func (d *DeploymentsClient) Logs(ctx context.Context, deploymentID string, since int64) (*models.DeploymentLogs, error) {
	if err := requireID("deployment ID", deploymentID); err != nil {
		return nil, err
	}
	query := url.Values{}
	if since > 0 {
		query.Set("since", strconv.FormatInt(since, 10))
	}

	var logs models.DeploymentLogs
	err := d.client.invoke(ctx, call{
		op:     "deployments.logs",
		method: http.MethodGet,
		route:  "/deployments/{deploymentId}/logs",
		path:   "/deployments/" + escape(deploymentID) + "/logs",
		query:  query,
	}, &logs)
	if err != nil {
		return nil, err
	}
	return &logs, nil
}

// Errors returns the failure details of a deployment
func (d *DeploymentsClient) Errors(ctx context.Context, deploymentID string) (*models.DeploymentErrors, error) {
	if err := requireID("deployment ID", deploymentID); err != nil {
		return nil, err
	}

	var errs models.DeploymentErrors
	err := d.client.invoke(ctx, call{
		op:     "deployments.errors",
		method: http.MethodGet,
		route:  "/deployments/{deploymentId}/errors",
		path:   "/deployments/" + escape(deploymentID) + "/errors",
	}, &errs)
	if err != nil {
		return nil, err
	}
	return &errs, nil
}

// WaitOptions controls how WaitReady polls
type WaitOptions struct {
	Interval    time.Duration
	MaxInterval time.Duration
	MaxPolls    int
}

// DefaultWaitOptions polls for up to roughly five minutes
func DefaultWaitOptions() WaitOptions {
	return WaitOptions{
		Interval:    2 * time.Second,
		MaxInterval: 15 * time.Second,
		MaxPolls:    30,
	}
}

// WaitReady polls a deployment until it reaches a final state. Transient
// API failures are retried on the same schedule. A deployment that ends in
// error or canceled state returns the deployment and ErrDeploymentFailed.
// When the polls run out first, the last seen deployment is returned with
// ErrDeploymentNotReady.
func (d *DeploymentsClient) WaitReady(ctx context.Context, deploymentID string, opts WaitOptions) (*models.Deployment, error) {
	if err := requireID("deployment ID", deploymentID); err != nil {
		return nil, err
	}

	ctx, span := d.client.tracer.StartSpan(ctx, "deployments.wait_ready")
	defer span.End()

	polls := 0
	var last *models.Deployment
	deployment, err := apierror.RetryWithBackoff(ctx, apierror.RetryConfig{
		MaxRetries: opts.MaxPolls,
		BaseDelay:  opts.Interval,
		MaxDelay:   opts.MaxInterval,
	}, func() (*models.Deployment, error) {
		polls++
		dep, err := d.Get(ctx, deploymentID)
		if err != nil {
			return nil, err
		}
		last = dep
		if !dep.Status.IsFinal() {
			d.client.logger.WithContext(ctx).WithFields(map[string]interface{}{
				"deployment_id": deploymentID,
				"status":        string(dep.Status),
				"poll":          polls,
			}).Debug("Deployment not ready")
			return dep, ErrDeploymentNotReady
		}
		return dep, nil
	}, func(err error) bool {
		return errors.Is(err, ErrDeploymentNotReady) || apierror.IsRetryable(err)
	})
	span.SetAttributes(attribute.Int("deployment.polls", polls))
	if errors.Is(err, ErrDeploymentNotReady) && ctx.Err() == nil && last != nil {
		d.client.tracer.RecordError(span, err, "Deployment did not become ready")
		return last, fmt.Errorf("%w after %d polls (status %s)", ErrDeploymentNotReady, polls, last.Status)
	}
	if err != nil {
		d.client.tracer.RecordError(span, err, "Deployment did not become ready")
		return nil, err
	}

	if deployment.Status != models.DeploymentStatusReady {
		return deployment, ErrDeploymentFailed
	}
	return deployment, nil
}
