package models

import "time"

// DeploymentStatus represents the lifecycle state of a deployment
type DeploymentStatus string

const (
	DeploymentStatusPending  DeploymentStatus = "pending"
	DeploymentStatusBuilding DeploymentStatus = "building"
	DeploymentStatusReady    DeploymentStatus = "ready"
	DeploymentStatusError    DeploymentStatus = "error"
	DeploymentStatusCanceled DeploymentStatus = "canceled"
)

// IsFinal reports whether the deployment will not change state again
func (s DeploymentStatus) IsFinal() bool {
	return s == DeploymentStatusReady || s == DeploymentStatusError || s == DeploymentStatusCanceled
}

// Deployment is a deployed chat version
type Deployment struct {
	ID           string           `json:"id"`
	Object       string           `json:"object"`
	Status       DeploymentStatus `json:"status,omitempty"`
	InspectorURL string           `json:"inspectorUrl,omitempty"`
	ChatID       string           `json:"chatId"`
	ProjectID    string           `json:"projectId"`
	VersionID    string           `json:"versionId"`
	APIURL       string           `json:"apiUrl,omitempty"`
	WebURL       string           `json:"webUrl,omitempty"`
	CreatedAt    *time.Time       `json:"createdAt,omitempty"`
}

// DeploymentCreateRequest deploys a chat version
type DeploymentCreateRequest struct {
	ProjectID string `json:"projectId"`
	ChatID    string `json:"chatId"`
	VersionID string `json:"versionId"`
}

// DeploymentFindOptions filters a deployment listing
type DeploymentFindOptions struct {
	ProjectID string `json:"projectId,omitempty"`
	ChatID    string `json:"chatId,omitempty"`
	VersionID string `json:"versionId,omitempty"`
}

// DeploymentLog is a single build or runtime log line
type DeploymentLog struct {
	ID           string    `json:"id,omitempty"`
	Object       string    `json:"object,omitempty"`
	DeploymentID string    `json:"deploymentId,omitempty"`
	Type         string    `json:"type,omitempty"`
	Level        string    `json:"level,omitempty"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DeploymentLogs is a page of deployment logs
type DeploymentLogs struct {
	Logs      []DeploymentLog `json:"logs"`
	NextSince *int64          `json:"nextSince,omitempty"`
}

// DeploymentErrors describes why a deployment failed
type DeploymentErrors struct {
	Error          string `json:"error,omitempty"`
	FullErrorText  string `json:"fullErrorText,omitempty"`
	ErrorType      string `json:"errorType,omitempty"`
	FormattedError string `json:"formattedError,omitempty"`
}
