package models

import (
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID                string    `db:"id" json:"id"`
	Username          string    `db:"username" json:"username"`
	Email             string    `db:"email" json:"email"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	IsAccountVerified bool      `db:"is_account_verified" json:"isAccountVerified"`
	VerifyOTPSecret   string    `db:"verify_otp_secret" json:"-"`
	ResetOTPSecret    string    `db:"reset_otp_secret" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// CodeBlock is one fenced code segment extracted from an assistant reply.
// Description is a best-effort single-line label; Details holds the prose
// bullet lines found next to the fence.
type CodeBlock struct {
	Language    string `json:"language"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Details     string `json:"details"`
}

// ChatMessage is one turn of a conversation. Messages are immutable once
// stored and live embedded inside their parent Chat.
type ChatMessage struct {
	Role       string      `json:"role"` // "user" or "assistant"
	Content    string      `json:"content"`
	CodeBlocks []CodeBlock `json:"codeBlocks,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Chat is a conversation owned by a user. Messages are stored as an embedded
// array in the chat row; soft deletion flips IsActive instead of removing the
// row.
type Chat struct {
	ID               string        `db:"id" json:"_id"`
	UserID           string        `db:"user_id" json:"userId"`
	Title            string        `db:"title" json:"title"`
	SelectedLanguage string        `db:"selected_language" json:"selectedLanguage"`
	Messages         []ChatMessage `db:"messages" json:"messages"`
	IsActive         bool          `db:"is_active" json:"isActive"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updatedAt"`
}

// ChatSummary is the minimal projection returned by list endpoints and by the
// turn handler alongside the assistant message.
type ChatSummary struct {
	ID               string    `json:"_id"`
	Title            string    `json:"title"`
	SelectedLanguage string    `json:"selectedLanguage,omitempty"`
	CreatedAt        time.Time `json:"createdAt,omitzero"`
	UpdatedAt        time.Time `json:"updatedAt,omitzero"`
}

// Artifact is a derived display unit for one code block of an assistant
// message. It is never persisted; it is rebuilt from the message's code
// blocks on every read. CodeBlocks carries the entire sibling array so a
// viewer can switch between the "files" of one message.
type Artifact struct {
	ID         string      `json:"id"` // "<msgIdx>-<blockIdx>"
	Title      string      `json:"title"`
	Type       string      `json:"type"`
	Version    string      `json:"version"` // position label, not revision history
	CodeBlocks []CodeBlock `json:"codeBlocks"`
	Language   string      `json:"language"`
	Details    string      `json:"details"`
	Block      CodeBlock   `json:"block"`
}
