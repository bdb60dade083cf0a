// Package database implements core.DbClient on Postgres via pgx.
//
// Chats are stored as single rows with the message history embedded as a
// JSONB array, so a turn's user and assistant messages always land in one
// write. Concurrent writers to the same chat follow last-writer-wins; chats
// are single-user so this is an accepted race.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/codeseed-ai/codeseed/internal/config"
	"github.com/codeseed-ai/codeseed/internal/core"
	"github.com/codeseed-ai/codeseed/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users
			(id, username, email, password_hash, is_account_verified,
			 verify_otp_secret, reset_otp_secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.Username, user.Email, user.PasswordHash, user.IsAccountVerified,
		user.VerifyOTPSecret, user.ResetOTPSecret)
	return err
}

const userColumns = `
	id, username, email, password_hash, is_account_verified,
	verify_otp_secret, reset_otp_secret, created_at, updated_at`

func (c *DatabaseClient) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAccountVerified,
		&u.VerifyOTPSecret, &u.ResetOTPSecret, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT` + userColumns + ` FROM users WHERE email = $1`
	return c.scanUser(c.db.QueryRowContext(ctx, q, email))
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	q := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return c.scanUser(c.db.QueryRowContext(ctx, q, id))
}

func (c *DatabaseClient) UpdateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		UPDATE users
		SET username = $2, password_hash = $3, is_account_verified = $4,
		    verify_otp_secret = $5, reset_otp_secret = $6, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q,
		user.ID, user.Username, user.PasswordHash, user.IsAccountVerified,
		user.VerifyOTPSecret, user.ResetOTPSecret)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Chats

// SaveChat upserts the entire chat row. The embedded message array is
// replaced wholesale, which is what makes a turn's two appends atomic.
func (c *DatabaseClient) SaveChat(ctx context.Context, chat *models.Chat) error {
	if chat == nil {
		return errors.New("nil chat")
	}
	messages, err := json.Marshal(chat.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	const q = `
		INSERT INTO chats
			(id, user_id, title, selected_language, messages, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			selected_language = EXCLUDED.selected_language,
			messages = EXCLUDED.messages,
			is_active = EXCLUDED.is_active,
			updated_at = now()
	`
	if _, err := c.db.ExecContext(ctx, q,
		chat.ID, chat.UserID, chat.Title, chat.SelectedLanguage, messages, chat.IsActive,
	); err != nil {
		return fmt.Errorf("save chat: %w", err)
	}
	return nil
}

// GetChat returns the full chat, messages included. Soft-deleted chats are
// still retrievable by ID; only listing filters them out.
func (c *DatabaseClient) GetChat(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	const q = `
		SELECT id, user_id, title, selected_language, messages, is_active, created_at, updated_at
		FROM chats
		WHERE id = $1 AND user_id = $2
	`
	var (
		chat models.Chat
		raw  []byte
	)
	err := c.db.QueryRowContext(ctx, q, chatID, userID).Scan(
		&chat.ID, &chat.UserID, &chat.Title, &chat.SelectedLanguage, &raw,
		&chat.IsActive, &chat.CreatedAt, &chat.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &chat.Messages); err != nil {
			return nil, fmt.Errorf("unmarshal messages: %w", err)
		}
	}
	return &chat, nil
}

func (c *DatabaseClient) ListChats(ctx context.Context, userID string, limit int) ([]models.ChatSummary, error) {
	const q = `
		SELECT id, title, selected_language, created_at, updated_at
		FROM chats
		WHERE user_id = $1 AND is_active
		ORDER BY updated_at DESC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChatSummary
	for rows.Next() {
		var s models.ChatSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.SelectedLanguage, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateChat(ctx context.Context, userID, chatID string, title, selectedLanguage *string) (*models.Chat, error) {
	const q = `
		UPDATE chats
		SET title = COALESCE($3, title),
		    selected_language = COALESCE($4, selected_language),
		    updated_at = now()
		WHERE id = $1 AND user_id = $2
	`
	res, err := c.db.ExecContext(ctx, q, chatID, userID, title, selectedLanguage)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, core.ErrNotFound
	}
	return c.GetChat(ctx, userID, chatID)
}

func (c *DatabaseClient) SoftDeleteChat(ctx context.Context, userID, chatID string) error {
	const q = `
		UPDATE chats
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND is_active
	`
	res, err := c.db.ExecContext(ctx, q, chatID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Title embeddings for semantic chat search.

func (c *DatabaseClient) SetChatTitleEmbedding(ctx context.Context, chatID string, embedding []float32) error {
	const q = `UPDATE chats SET title_embedding = $2 WHERE id = $1`
	_, err := c.db.ExecContext(ctx, q, chatID, pgvector.NewVector(embedding))
	return err
}

func (c *DatabaseClient) SearchChatsByEmbedding(ctx context.Context, userID string, queryVec []float32, limit int) ([]models.ChatSummary, error) {
	const q = `
		SELECT id, title, selected_language, created_at, updated_at
		FROM chats
		WHERE user_id = $1 AND is_active AND title_embedding IS NOT NULL
		ORDER BY title_embedding <-> $2
		LIMIT $3
	`
	rows, err := c.db.QueryContext(ctx, q, userID, pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChatSummary
	for rows.Next() {
		var s models.ChatSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.SelectedLanguage, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ core.DbClient = (*DatabaseClient)(nil)
