package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
)

// ChatsClient handles chat, message and version operations
type ChatsClient struct {
	client *Client
}

// NewChatsClient creates a new chats client
func NewChatsClient(client *Client) *ChatsClient {
	return &ChatsClient{client: client}
}

// Create starts a new chat from a prompt
func (c *ChatsClient) Create(ctx context.Context, req *models.ChatCreateRequest) (*models.Chat, error) {
	if req == nil || req.Message == "" {
		return nil, apierror.New(apierror.KindBadRequest, "message is required")
	}
	if req.ChatPrivacy != "" && !req.ChatPrivacy.IsValid() {
		return nil, apierror.New(apierror.KindBadRequest, "invalid chat privacy: "+string(req.ChatPrivacy))
	}

	var chat models.Chat
	err := c.client.invoke(ctx, call{
		op:     "chats.create",
		method: http.MethodPost,
		route:  "/chats",
		path:   "/chats",
		body:   req,
	}, &chat)
	if err != nil {
		return nil, err
	}

	c.client.logger.WithContext(ctx).WithField("chat_id", chat.ID).Info("Created chat")
	return &chat, nil
}

// Init creates a chat from existing code without running generation
func (c *ChatsClient) Init(ctx context.Context, req *models.ChatInitRequest) (*models.Chat, error) {
	if err := validateInit(req); err != nil {
		return nil, err
	}

	var chat models.Chat
	err := c.client.invoke(ctx, call{
		op:     "chats.init",
		method: http.MethodPost,
		route:  "/chats/init",
		path:   "/chats/init",
		body:   req,
	}, &chat)
	if err != nil {
		return nil, err
	}

	c.client.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"chat_id":   chat.ID,
		"init_type": string(req.Type),
	}).Info("Initialized chat")
	return &chat, nil
}

func validateInit(req *models.ChatInitRequest) error {
	if req == nil {
		return apierror.New(apierror.KindBadRequest, "init request is required")
	}
	missing := func(what string) error {
		return apierror.New(apierror.KindBadRequest, what+" is required for init type "+string(req.Type))
	}
	switch req.Type {
	case models.ChatInitFiles:
		if len(req.Files) == 0 {
			return missing("files")
		}
	case models.ChatInitRepo:
		if req.Repo == nil || req.Repo.URL == "" {
			return missing("repo.url")
		}
	case models.ChatInitRegistry:
		if req.Registry == nil || req.Registry.URL == "" {
			return missing("registry.url")
		}
	case models.ChatInitZip:
		if req.Zip == nil || req.Zip.URL == "" {
			return missing("zip.url")
		}
	case models.ChatInitTemplate:
		if req.TemplateID == "" {
			return missing("templateId")
		}
	default:
		return apierror.New(apierror.KindBadRequest, "unknown init type: "+string(req.Type))
	}
	return nil
}

// List returns the caller's chats
func (c *ChatsClient) List(ctx context.Context, opts *models.ChatListOptions) (*models.List[models.Chat], error) {
	query := url.Values{}
	if opts != nil {
		query = opts.ListOptions.ToQuery()
		if opts.IsFavorite != nil {
			query.Set("isFavorite", strconv.FormatBool(*opts.IsFavorite))
		}
	}

	var list models.List[models.Chat]
	err := c.client.invoke(ctx, call{
		op:     "chats.list",
		method: http.MethodGet,
		route:  "/chats",
		path:   "/chats",
		query:  query,
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Get retrieves a chat by ID
func (c *ChatsClient) Get(ctx context.Context, chatID string) (*models.Chat, error) {
	if err := requireID("chat ID", chatID); err != nil {
		return nil, err
	}

	var chat models.Chat
	err := c.client.invoke(ctx, call{
		op:     "chats.get",
		method: http.MethodGet,
		route:  "/chats/{chatId}",
		path:   "/chats/" + escape(chatID),
	}, &chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// Update renames a chat or changes its privacy
func (c *ChatsClient) Update(ctx context.Context, chatID string, req *models.ChatUpdateRequest) (*models.Chat, error) {
	if err := requireID("chat ID", chatID); err != nil {
		return nil, err
	}
	if req == nil || (req.Name == nil && req.Privacy == nil) {
		return nil, apierror.New(apierror.KindBadRequest, "nothing to update")
	}
	if req.Privacy != nil && !req.Privacy.IsValid() {
		return nil, apierror.New(apierror.KindBadRequest, "invalid chat privacy: "+string(*req.Privacy))
	}

	var chat models.Chat
	err := c.client.invoke(ctx, call{
		op:     "chats.update",
		method: http.MethodPatch,
		route:  "/chats/{chatId}",
		path:   "/chats/" + escape(chatID),
		body:   req,
	}, &chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// Delete deletes a chat
func (c *ChatsClient) Delete(ctx context.Context, chatID string) (*models.DeleteResponse, error) {
	if err := requireID("chat ID", chatID); err != nil {
		return nil, err
	}

	var resp models.DeleteResponse
	err := c.client.invoke(ctx, call{
		op:     "chats.delete",
		method: http.MethodDelete,
		route:  "/chats/{chatId}",
		path:   "/chats/" + escape(chatID),
	}, &resp)
	if err != nil {
		return nil, err
	}

	c.client.logger.WithContext(ctx).WithField("chat_id", chatID).Info("Deleted chat")
	return &resp, nil
}

// Favorite marks or unmarks a chat as favorite
func (c *ChatsClient) Favorite(ctx context.Context, chatID string, isFavorite bool) (*models.FavoriteResponse, error) {
	if err := requireID("chat ID", chatID); err != nil {
		return nil, err
	}

	var resp models.FavoriteResponse
	err := c.client.invoke(ctx, call{
		op:     "chats.favorite",
		method: http.MethodPut,
		route:  "/chats/{chatId}/favorite",
		path:   "/chats/" + escape(chatID) + "/favorite",
		body:   map[string]bool{"isFavorite": isFavorite},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Fork copies a chat, optionally from a specific version
func (c *ChatsClient) Fork(ctx context.Context, chatID string, req *models.ChatForkRequest) (*models.Chat, error) {
	if err := requireID("chat ID", chatID); err != nil {
		return nil, err
	}
	if req == nil {
		req = &models.ChatForkRequest{}
	}

	var chat models.Chat
	err := c.client.invoke(ctx, call{
		op:     "chats.fork",
		method: http.MethodPost,
		route:  "/chats/{chatId}/fork",
		path:   "/chats/" + escape(chatID) + "/fork",
		body:   req,
	}, &chat)
	if err != nil {
		return nil, err
	}

	c.client.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"chat_id":   chat.ID,
		"forked_id": chatID,
	}).Info("Forked chat")
	return &chat, nil
}

// SendMessage sends a follow-up message and returns the updated chat
func (c *ChatsClient) SendMessage(ctx context.Context, chatID string, req *models.MessageCreateRequest) (*models.Chat, error) {
	if err := requireID("chat ID", chatID); err != nil {
		return nil, err
	}
	if req == nil || req.Message == "" {
		return nil, apierror.New(apierror.KindBadRequest, "message is required")
	}

	var chat models.Chat
	err := c.client.invoke(ctx, call{
		op:     "chats.send_message",
		method: http.MethodPost,
		route:  "/chats/{chatId}/messages",
		path:   "/chats/" + escape(chatID) + "/messages",
		body:   req,
	}, &chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListMessages returns a page of a chat's messages
func (c *ChatsClient) ListMessages(ctx context.Context, chatID string, opts *models.ListOptions) (*models.List[models.Message], error) {
	if err := requireID("chat ID", chatID); err != nil {
		return nil, err
	}

	var list models.List[models.Message]
	err := c.client.invoke(ctx, call{
		op:     "chats.list_messages",
		method: http.MethodGet,
		route:  "/chats/{chatId}/messages",
		path:   "/chats/" + escape(chatID) + "/messages",
		query:  opts.ToQuery(),
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// GetMessage retrieves a single message
func (c *ChatsClient) GetMessage(ctx context.Context, chatID, messageID string) (*models.Message, error) {
	if err := requireID("chat ID", chatID); err != nil {
		return nil, err
	}
	if err := requireID("message ID", messageID); err != nil {
		return nil, err
	}

	var msg models.Message
	err := c.client.invoke(ctx, call{
		op:     "chats.get_message",
		method: http.MethodGet,
		route:  "/chats/{chatId}/messages/{messageId}",
		path:   "/chats/" + escape(chatID) + "/messages/" + escape(messageID),
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListVersions returns the generated versions of a chat
func (c *ChatsClient) ListVersions(ctx context.Context, chatID string, opts *models.ListOptions) (*models.List[models.Version], error) {
	if err := requireID("chat ID", chatID); err != nil {
		return nil, err
	}

	var list models.List[models.Version]
	err := c.client.invoke(ctx, call{
		op:     "chats.list_versions",
		method: http.MethodGet,
		route:  "/chats/{chatId}/versions",
		path:   "/chats/" + escape(chatID) + "/versions",
		query:  opts.ToQuery(),
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// GetVersion retrieves a version with its files
func (c *ChatsClient) GetVersion(ctx context.Context, chatID, versionID string) (*models.Version, error) {
	if err := requireID("chat ID", chatID); err != nil {
		return nil, err
	}
	if err := requireID("version ID", versionID); err != nil {
		return nil, err
	}

	var version models.Version
	err := c.client.invoke(ctx, call{
		op:     "chats.get_version",
		method: http.MethodGet,
		route:  "/chats/{chatId}/versions/{versionId}",
		path:   "/chats/" + escape(chatID) + "/versions/" + escape(versionID),
	}, &version)
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// Resume continues an interrupted assistant message
func (c *ChatsClient) Resume(ctx context.Context, chatID, messageID string) (*models.Message, error) {
	if err := requireID("chat ID", chatID); err != nil {
		return nil, err
	}
	if err := requireID("message ID", messageID); err != nil {
		return nil, err
	}

	var msg models.Message
	err := c.client.invoke(ctx, call{
		op:     "chats.resume",
		method: http.MethodPost,
		route:  "/chats/{chatId}/messages/{messageId}/resume",
		path:   "/chats/" + escape(chatID) + "/messages/" + escape(messageID) + "/resume",
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
