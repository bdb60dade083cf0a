package core

import (
	"context"
	"errors"

	"github.com/codeseed-ai/codeseed/internal/models"
)

// ErrNotFound is returned for records that are absent or owned by someone
// else. Callers cannot tell the two cases apart, which keeps chat IDs
// unenumerable.
var ErrNotFound = errors.New("not found")

// DbClient defines all persistence operations the services need.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error

	// SaveChat upserts the whole chat row, messages included, in one write.
	// Both turn messages land atomically or not at all.
	SaveChat(ctx context.Context, chat *models.Chat) error
	GetChat(ctx context.Context, userID, chatID string) (*models.Chat, error)
	ListChats(ctx context.Context, userID string, limit int) ([]models.ChatSummary, error)
	UpdateChat(ctx context.Context, userID, chatID string, title, selectedLanguage *string) (*models.Chat, error)
	SoftDeleteChat(ctx context.Context, userID, chatID string) error

	SetChatTitleEmbedding(ctx context.Context, chatID string, embedding []float32) error
	SearchChatsByEmbedding(ctx context.Context, userID string, queryVec []float32, limit int) ([]models.ChatSummary, error)

	Close() error
}

// CompletionProvider turns a prompt into raw markdown text using the named
// model. Callers own the fallback ladder across models.
type CompletionProvider interface {
	Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

// EmbeddingProvider produces vector embeddings for texts.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}

// Mailer sends plain-text transactional mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
