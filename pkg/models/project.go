package models

import "time"

// Project groups chats and carries shared instructions and env vars
type Project struct {
	ID              string     `json:"id"`
	Object          string     `json:"object"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Instructions    string     `json:"instructions,omitempty"`
	Icon            string     `json:"icon,omitempty"`
	Privacy         Privacy    `json:"privacy,omitempty"`
	VercelProjectID string     `json:"vercelProjectId,omitempty"`
	WebURL          string     `json:"webUrl,omitempty"`
	APIURL          string     `json:"apiUrl,omitempty"`
	Chats           []Chat     `json:"chats,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

// ProjectCreateRequest represents a new project request
type ProjectCreateRequest struct {
	Name                 string        `json:"name"`
	Description          string        `json:"description,omitempty"`
	Icon                 string        `json:"icon,omitempty"`
	Instructions         string        `json:"instructions,omitempty"`
	Privacy              Privacy       `json:"privacy,omitempty"`
	VercelProjectID      string        `json:"vercelProjectId,omitempty"`
	EnvironmentVariables []EnvVarInput `json:"environmentVariables,omitempty"`
}

// ProjectUpdateRequest changes project fields; nil fields are left as is
type ProjectUpdateRequest struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Instructions *string  `json:"instructions,omitempty"`
	Privacy      *Privacy `json:"privacy,omitempty"`
}

// ProjectAssignResponse confirms a chat was assigned to a project
type ProjectAssignResponse struct {
	ID       string `json:"id"`
	Object   string `json:"object"`
	Assigned bool   `json:"assigned"`
}

// EnvVar is a project environment variable
type EnvVar struct {
	ID        string     `json:"id"`
	Object    string     `json:"object"`
	Key       string     `json:"key"`
	Value     string     `json:"value"`
	Decrypted bool       `json:"decrypted"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// EnvVarInput is a key/value pair to create
type EnvVarInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EnvVarUpdate replaces the value of an existing variable
type EnvVarUpdate struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// EnvVarsCreateRequest creates environment variables
type EnvVarsCreateRequest struct {
	EnvironmentVariables []EnvVarInput `json:"environmentVariables"`
	Upsert               bool          `json:"upsert,omitempty"`
	Decrypted            bool          `json:"decrypted,omitempty"`
}

// EnvVarsUpdateRequest updates environment variables
type EnvVarsUpdateRequest struct {
	EnvironmentVariables []EnvVarUpdate `json:"environmentVariables"`
	Decrypted            bool           `json:"decrypted,omitempty"`
}

// EnvVarsDeleteRequest deletes environment variables by ID
type EnvVarsDeleteRequest struct {
	EnvironmentVariableIDs []string `json:"environmentVariableIds"`
}

// VercelProject is a project on the linked Vercel account
type VercelProject struct {
	ID     string `json:"id"`
	Object string `json:"object"`
	Name   string `json:"name"`
}

// VercelProjectCreateRequest links a v0 project to a new Vercel project
type VercelProjectCreateRequest struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
}
