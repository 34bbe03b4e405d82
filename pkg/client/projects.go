package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
)

// ProjectsClient handles project and environment variable operations
type ProjectsClient struct {
	client *Client
}

// NewProjectsClient creates a new projects client
func NewProjectsClient(client *Client) *ProjectsClient {
	return &ProjectsClient{client: client}
}

// List returns the caller's projects
func (p *ProjectsClient) List(ctx context.Context) (*models.List[models.Project], error) {
	var list models.List[models.Project]
	err := p.client.invoke(ctx, call{
		op:     "projects.list",
		method: http.MethodGet,
		route:  "/projects",
		path:   "/projects",
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Create creates a project
func (p *ProjectsClient) Create(ctx context.Context, req *models.ProjectCreateRequest) (*models.Project, error) {
	if req == nil || req.Name == "" {
		return nil, apierror.New(apierror.KindBadRequest, "project name is required")
	}

	var project models.Project
	err := p.client.invoke(ctx, call{
		op:     "projects.create",
		method: http.MethodPost,
		route:  "/projects",
		path:   "/projects",
		body:   req,
	}, &project)
	if err != nil {
		return nil, err
	}

	p.client.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"project_id":   project.ID,
		"project_name": project.Name,
	}).Info("Created project")
	return &project, nil
}

// Get retrieves a project by ID
func (p *ProjectsClient) Get(ctx context.Context, projectID string) (*models.Project, error) {
	if err := requireID("project ID", projectID); err != nil {
		return nil, err
	}

	var project models.Project
	err := p.client.invoke(ctx, call{
		op:     "projects.get",
		method: http.MethodGet,
		route:  "/projects/{projectId}",
		path:   "/projects/" + escape(projectID),
	}, &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Update changes project fields
func (p *ProjectsClient) Update(ctx context.Context, projectID string, req *models.ProjectUpdateRequest) (*models.Project, error) {
	if err := requireID("project ID", projectID); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apierror.New(apierror.KindBadRequest, "nothing to update")
	}

	var project models.Project
	err := p.client.invoke(ctx, call{
		op:     "projects.update",
		method: http.MethodPatch,
		route:  "/projects/{projectId}",
		path:   "/projects/" + escape(projectID),
		body:   req,
	}, &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Delete deletes a project
func (p *ProjectsClient) Delete(ctx context.Context, projectID string) (*models.DeleteResponse, error) {
	if err := requireID("project ID", projectID); err != nil {
		return nil, err
	}

	var resp models.DeleteResponse
	err := p.client.invoke(ctx, call{
		op:     "projects.delete",
		method: http.MethodDelete,
		route:  "/projects/{projectId}",
		path:   "/projects/" + escape(projectID),
	}, &resp)
	if err != nil {
		return nil, err
	}

	p.client.logger.WithContext(ctx).WithField("project_id", projectID).Info("Deleted project")
	return &resp, nil
}

// GetByChatID returns the project a chat belongs to
func (p *ProjectsClient) GetByChatID(ctx context.Context, chatID string) (*models.Project, error) {
	if err := requireID("chat ID", chatID); err != nil {
		return nil, err
	}

	var project models.Project
	err := p.client.invoke(ctx, call{
		op:     "projects.get_by_chat",
		method: http.MethodGet,
		route:  "/chats/{chatId}/project",
		path:   "/chats/" + escape(chatID) + "/project",
	}, &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Assign moves a chat into a project
func (p *ProjectsClient) Assign(ctx context.Context, projectID, chatID string) (*models.ProjectAssignResponse, error) {
	if err := requireID("project ID", projectID); err != nil {
		return nil, err
	}
	if err := requireID("chat ID", chatID); err != nil {
		return nil, err
	}

	var resp models.ProjectAssignResponse
	err := p.client.invoke(ctx, call{
		op:     "projects.assign",
		method: http.MethodPost,
		route:  "/projects/{projectId}/assign",
		path:   "/projects/" + escape(projectID) + "/assign",
		body:   map[string]string{"chatId": chatID},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListEnvVars returns a project's environment variables. Values are only
// returned in clear text when decrypted is true.
func (p *ProjectsClient) ListEnvVars(ctx context.Context, projectID string, decrypted bool) (*models.List[models.EnvVar], error) {
	if err := requireID("project ID", projectID); err != nil {
		return nil, err
	}
	query := url.Values{}
	if decrypted {
		query.Set("decrypted", "true")
	}

	var list models.List[models.EnvVar]
	err := p.client.invoke(ctx, call{
		op:     "projects.list_env_vars",
		method: http.MethodGet,
		route:  "/projects/{projectId}/env-vars",
		path:   "/projects/" + escape(projectID) + "/env-vars",
		query:  query,
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateEnvVars adds environment variables to a project
func (p *ProjectsClient) CreateEnvVars(ctx context.Context, projectID string, req *models.EnvVarsCreateRequest) (*models.List[models.EnvVar], error) {
	if err := requireID("project ID", projectID); err != nil {
		return nil, err
	}
	if req == nil || len(req.EnvironmentVariables) == 0 {
		return nil, apierror.New(apierror.KindBadRequest, "at least one environment variable is required")
	}
	for _, v := range req.EnvironmentVariables {
		if v.Key == "" {
			return nil, apierror.New(apierror.KindBadRequest, "environment variable key is required")
		}
	}

	var list models.List[models.EnvVar]
	err := p.client.invoke(ctx, call{
		op:     "projects.create_env_vars",
		method: http.MethodPost,
		route:  "/projects/{projectId}/env-vars",
		path:   "/projects/" + escape(projectID) + "/env-vars",
		body:   req,
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateEnvVars replaces the values of existing environment variables
func (p *ProjectsClient) UpdateEnvVars(ctx context.Context, projectID string, req *models.EnvVarsUpdateRequest) (*models.List[models.EnvVar], error) {
	if err := requireID("project ID", projectID); err != nil {
		return nil, err
	}
	if req == nil || len(req.EnvironmentVariables) == 0 {
		return nil, apierror.New(apierror.KindBadRequest, "at least one environment variable is required")
	}

	var list models.List[models.EnvVar]
	err := p.client.invoke(ctx, call{
		op:     "projects.update_env_vars",
		method: http.MethodPatch,
		route:  "/projects/{projectId}/env-vars",
		path:   "/projects/" + escape(projectID) + "/env-vars",
		body:   req,
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteEnvVars removes environment variables by ID
func (p *ProjectsClient) DeleteEnvVars(ctx context.Context, projectID string, ids []string) (*models.List[models.DeleteResponse], error) {
	if err := requireID("project ID", projectID); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, apierror.New(apierror.KindBadRequest, "at least one environment variable ID is required")
	}

	var list models.List[models.DeleteResponse]
	err := p.client.invoke(ctx, call{
		op:     "projects.delete_env_vars",
		method: http.MethodPost,
		route:  "/projects/{projectId}/env-vars/delete",
		path:   "/projects/" + escape(projectID) + "/env-vars/delete",
		body:   &models.EnvVarsDeleteRequest{EnvironmentVariableIDs: ids},
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}
