package models

import "time"

// VersionStatus represents the generation status of a chat version
type VersionStatus string

const (
	VersionStatusPending   VersionStatus = "pending"
	VersionStatusCompleted VersionStatus = "completed"
	VersionStatusFailed    VersionStatus = "failed"
)

// IsDone reports whether generation has finished, successfully or not
func (s VersionStatus) IsDone() bool {
	return s == VersionStatusCompleted || s == VersionStatusFailed
}

// ResponseMode selects how the API returns a generated reply
type ResponseMode string

const (
	ResponseModeSync  ResponseMode = "sync"
	ResponseModeAsync ResponseMode = "async"
)

// Chat represents a v0 chat
type Chat struct {
	ID            string         `json:"id"`
	Object        string         `json:"object"`
	Name          string         `json:"name,omitempty"`
	Privacy       Privacy        `json:"privacy,omitempty"`
	Favorite      bool           `json:"favorite"`
	AuthorID      string         `json:"authorId,omitempty"`
	ProjectID     string         `json:"projectId,omitempty"`
	WebURL        string         `json:"webUrl,omitempty"`
	APIURL        string         `json:"apiUrl,omitempty"`
	Text          string         `json:"text,omitempty"`
	LatestVersion *Version       `json:"latestVersion,omitempty"`
	Messages      []Message      `json:"messages,omitempty"`
	Files         []File         `json:"files,omitempty"`
	Demo          string         `json:"demo,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     *time.Time     `json:"updatedAt,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Message represents a single chat message
type Message struct {
	ID           string    `json:"id"`
	Object       string    `json:"object"`
	ChatID       string    `json:"chatId,omitempty"`
	Role         string    `json:"role"` // "user" or "assistant"
	Type         string    `json:"type,omitempty"`
	Content      string    `json:"content"`
	FinishReason string    `json:"finishReason,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Version represents one generated version of a chat
type Version struct {
	ID        string        `json:"id"`
	Object    string        `json:"object"`
	Status    VersionStatus `json:"status"`
	DemoURL   string        `json:"demoUrl,omitempty"`
	Files     []File        `json:"files,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// File is a generated or uploaded source file
type File struct {
	Object  string `json:"object,omitempty"`
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
	Locked  bool   `json:"locked,omitempty"`
}

// Attachment references an external resource sent with a message
type Attachment struct {
	URL string `json:"url"`
}

// ModelConfiguration tunes the generation model
type ModelConfiguration struct {
	ModelID          string `json:"modelId,omitempty"`
	ImageGenerations *bool  `json:"imageGenerations,omitempty"`
	Thinking         *bool  `json:"thinking,omitempty"`
}

// ChatCreateRequest represents a new chat request
type ChatCreateRequest struct {
	Message            string              `json:"message"`
	System             string              `json:"system,omitempty"`
	ChatPrivacy        Privacy             `json:"chatPrivacy,omitempty"`
	ProjectID          string              `json:"projectId,omitempty"`
	Attachments        []Attachment        `json:"attachments,omitempty"`
	ModelConfiguration *ModelConfiguration `json:"modelConfiguration,omitempty"`
	ResponseMode       ResponseMode        `json:"responseMode,omitempty"`
}

// ChatInitType selects the source a chat is initialised from
type ChatInitType string

const (
	ChatInitFiles    ChatInitType = "files"
	ChatInitRepo     ChatInitType = "repo"
	ChatInitRegistry ChatInitType = "registry"
	ChatInitZip      ChatInitType = "zip"
	ChatInitTemplate ChatInitType = "template"
)

// RepoSource points at a git repository
type RepoSource struct {
	URL    string `json:"url"`
	Branch string `json:"branch,omitempty"`
}

// ZipSource points at a zip archive
type ZipSource struct {
	URL string `json:"url"`
}

// RegistrySource points at a shadcn registry item
type RegistrySource struct {
	URL string `json:"url"`
}

// ChatInitRequest creates a chat from existing code without generating
type ChatInitRequest struct {
	Type        ChatInitType    `json:"type"`
	Name        string          `json:"name,omitempty"`
	ChatPrivacy Privacy         `json:"chatPrivacy,omitempty"`
	ProjectID   string          `json:"projectId,omitempty"`
	Files       []File          `json:"files,omitempty"`
	Repo        *RepoSource     `json:"repo,omitempty"`
	Registry    *RegistrySource `json:"registry,omitempty"`
	Zip         *ZipSource      `json:"zip,omitempty"`
	TemplateID  string          `json:"templateId,omitempty"`
}

// ChatListOptions filters a chat listing
type ChatListOptions struct {
	ListOptions
	IsFavorite *bool `json:"isFavorite,omitempty"`
}

// ChatUpdateRequest changes a chat's name or privacy
type ChatUpdateRequest struct {
	Name    *string  `json:"name,omitempty"`
	Privacy *Privacy `json:"privacy,omitempty"`
}

// ChatForkRequest forks a chat, optionally from a specific version
type ChatForkRequest struct {
	VersionID string  `json:"versionId,omitempty"`
	Privacy   Privacy `json:"privacy,omitempty"`
}

// FavoriteResponse reports the favorite state after a toggle
type FavoriteResponse struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	Favorited bool   `json:"favorited"`
}

// MessageCreateRequest represents a follow-up message
type MessageCreateRequest struct {
	Message            string              `json:"message"`
	Attachments        []Attachment        `json:"attachments,omitempty"`
	ModelConfiguration *ModelConfiguration `json:"modelConfiguration,omitempty"`
	ResponseMode       ResponseMode        `json:"responseMode,omitempty"`
}
