package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codeseed-ai/codeseed/internal/core"
	"github.com/codeseed-ai/codeseed/internal/core/extract"
	"github.com/codeseed-ai/codeseed/internal/models"
)

const (
	// DefaultLanguage is the framework used when the client picks none.
	DefaultLanguage = "HTML + CSS"

	defaultTitle  = "New Chat"
	titleMaxRunes = 50
	listLimit     = 50
	searchLimit   = 10
	roleUser      = "user"
	roleAssistant = "assistant"
)

var (
	ErrEmptyMessage = errors.New("message is required")
	ErrEmptyPrompt  = errors.New("prompt is required")
)

// languageByFramework maps the UI's framework labels to fence language tags.
var languageByFramework = map[string]string{
	"HTML + CSS":          "html",
	"HTML + Tailwind CSS": "html",
	"HTML + Bootstrap":    "html",
	"HTML + CSS + JS":     "javascript",
	"React + Tailwind":    "jsx",
	"Vue + Tailwind":      "vue",
	"Angular + Bootstrap": "typescript",
	"Next.js + Tailwind":  "jsx",
}

// LanguageForFramework returns the fence language tag for a framework label,
// defaulting to html.
func LanguageForFramework(framework string) string {
	if lang, ok := languageByFramework[framework]; ok {
		return lang
	}
	return "html"
}

// ChatService orchestrates chat turns: it owns the prompt, the model
// fallback ladder, code-block extraction and chat persistence.
type ChatService struct {
	db       core.DbClient
	llm      core.CompletionProvider
	embedder core.EmbeddingProvider // optional; enables semantic search
	models   []string
	logger   *zap.Logger
}

func NewChatService(db core.DbClient, llm core.CompletionProvider, embedder core.EmbeddingProvider, modelNames []string, logger *zap.Logger) *ChatService {
	return &ChatService{db: db, llm: llm, embedder: embedder, models: modelNames, logger: logger}
}

// TruncateTitle shortens a user message into a chat title: at most 50
// characters plus an ellipsis when cut.
func TruncateTitle(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "..."
	}
	return s
}

// CreateChat starts an empty chat.
func (s *ChatService) CreateChat(ctx context.Context, userID, title, selectedLanguage string) (*models.Chat, error) {
	if title == "" {
		title = defaultTitle
	}
	if selectedLanguage == "" {
		selectedLanguage = DefaultLanguage
	}
	chat := &models.Chat{
		ID:               uuid.NewString(),
		UserID:           userID,
		Title:            title,
		SelectedLanguage: selectedLanguage,
		Messages:         []models.ChatMessage{},
		IsActive:         true,
	}
	if err := s.db.SaveChat(ctx, chat); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	if title != defaultTitle {
		s.embedTitle(ctx, chat.ID, title)
	}
	return s.db.GetChat(ctx, userID, chat.ID)
}

func (s *ChatService) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	return s.db.ListChats(ctx, userID, listLimit)
}

func (s *ChatService) GetChat(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	return s.db.GetChat(ctx, userID, chatID)
}

func (s *ChatService) UpdateChat(ctx context.Context, userID, chatID string, title, selectedLanguage *string) (*models.Chat, error) {
	chat, err := s.db.UpdateChat(ctx, userID, chatID, title, selectedLanguage)
	if err != nil {
		return nil, err
	}
	if title != nil {
		s.embedTitle(ctx, chatID, *title)
	}
	return chat, nil
}

func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID string) error {
	return s.db.SoftDeleteChat(ctx, userID, chatID)
}

// SearchChats finds the user's chats whose titles are semantically closest
// to the query.
func (s *ChatService) SearchChats(ctx context.Context, userID, query string) ([]models.ChatSummary, error) {
	if s.embedder == nil {
		return nil, errors.New("search is not available")
	}
	vecs, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.db.SearchChatsByEmbedding(ctx, userID, vecs[0], searchLimit)
}

// SendMessage runs one chat turn: it appends the user message, obtains a
// completion with model fallback, extracts code blocks, appends the
// assistant message and persists the chat in a single write. A failed turn
// persists nothing, so the history never holds a user message without its
// reply.
func (s *ChatService) SendMessage(ctx context.Context, userID, chatID, message, selectedLanguage string) (models.ChatMessage, models.ChatSummary, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return models.ChatMessage{}, models.ChatSummary{}, ErrEmptyMessage
	}

	chat, err := s.db.GetChat(ctx, userID, chatID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		// Create the chat inline, titled from the message.
		lang := selectedLanguage
		if lang == "" {
			lang = DefaultLanguage
		}
		chat = &models.Chat{
			ID:               uuid.NewString(),
			UserID:           userID,
			Title:            TruncateTitle(message),
			SelectedLanguage: lang,
			IsActive:         true,
		}
	case err != nil:
		return models.ChatMessage{}, models.ChatSummary{}, err
	}

	if selectedLanguage != "" {
		chat.SelectedLanguage = selectedLanguage
	}

	userMsg := models.ChatMessage{
		Role:      roleUser,
		Content:   message,
		Timestamp: time.Now(),
	}

	raw, err := s.generateWithFallback(ctx, componentSystemPrompt(chat.SelectedLanguage), "User request: "+message)
	if err != nil {
		return models.ChatMessage{}, models.ChatSummary{}, err
	}

	aiMsg := models.ChatMessage{
		Role:      roleAssistant,
		Content:   raw,
		Timestamp: time.Now(),
	}
	if blocks := extract.CodeBlocks(raw); len(blocks) > 0 {
		aiMsg.CodeBlocks = blocks
	}

	chat.Messages = append(chat.Messages, userMsg, aiMsg)

	retitled := false
	if len(chat.Messages) == 2 && chat.Title == defaultTitle {
		chat.Title = TruncateTitle(message)
		retitled = true
	}

	if err := s.db.SaveChat(ctx, chat); err != nil {
		return models.ChatMessage{}, models.ChatSummary{}, fmt.Errorf("save chat: %w", err)
	}

	if retitled || len(chat.Messages) == 2 {
		s.embedTitle(ctx, chat.ID, chat.Title)
	}

	summary := models.ChatSummary{
		ID:               chat.ID,
		Title:            chat.Title,
		SelectedLanguage: chat.SelectedLanguage,
	}
	return aiMsg, summary, nil
}

// GenerateCode is the one-shot, unpersisted generation endpoint's engine.
func (s *ChatService) GenerateCode(ctx context.Context, prompt, framework string) (code string, blocks []models.CodeBlock, usedFramework string, err error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", nil, "", ErrEmptyPrompt
	}
	if framework == "" {
		framework = DefaultLanguage
	}

	raw, err := s.generateWithFallback(ctx, oneShotSystemPrompt(framework), "User description: "+prompt)
	if err != nil {
		return "", nil, "", err
	}

	blocks = extract.CodeBlocks(raw)
	if len(blocks) == 0 {
		// No fences at all: treat the whole response as code.
		blocks = []models.CodeBlock{{
			Language: LanguageForFramework(framework),
			Code:     raw,
		}}
	}
	return raw, blocks, framework, nil
}

// generateWithFallback walks the candidate model list in order and returns
// the first successful completion. When every model fails, the aggregated
// error names the last underlying failure.
func (s *ChatService) generateWithFallback(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var lastErr error
	for _, model := range s.models {
		text, err := s.llm.Generate(ctx, model, systemPrompt, userPrompt)
		if err != nil {
			s.logger.Warn("model failed, trying next", zap.String("model", model), zap.Error(err))
			lastErr = err
			continue
		}
		return text, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no candidate models configured")
	}
	return "", fmt.Errorf("AI service unavailable, all models failed: %w", lastErr)
}

// embedTitle stores a title embedding for semantic search. Best effort: a
// failed embedding never fails the calling operation.
func (s *ChatService) embedTitle(ctx context.Context, chatID, title string) {
	if s.embedder == nil {
		return
	}
	vecs, err := s.embedder.EmbedTexts(ctx, []string{title})
	if err != nil || len(vecs) == 0 {
		s.logger.Warn("title embedding failed", zap.String("chatId", chatID), zap.Error(err))
		return
	}
	if err := s.db.SetChatTitleEmbedding(ctx, chatID, vecs[0]); err != nil {
		s.logger.Warn("store title embedding failed", zap.String("chatId", chatID), zap.Error(err))
	}
}
