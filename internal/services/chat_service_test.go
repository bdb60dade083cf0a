package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/codeseed-ai/codeseed/internal/core"
	"github.com/codeseed-ai/codeseed/internal/models"
)

// fakeDB is an in-memory DbClient that mirrors the real client's ownership
// and soft-delete semantics.
type fakeDB struct {
	users map[string]*models.User
	chats map[string]*models.Chat
	saves int
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users: map[string]*models.User{},
		chats: map[string]*models.Chat{},
	}
}

func (f *fakeDB) CreateUser(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeDB) GetUserByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeDB) UpdateUser(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return core.ErrNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeDB) SaveChat(_ context.Context, chat *models.Chat) error {
	cp := *chat
	cp.Messages = append([]models.ChatMessage(nil), chat.Messages...)
	f.chats[chat.ID] = &cp
	f.saves++
	return nil
}

func (f *fakeDB) GetChat(_ context.Context, userID, chatID string) (*models.Chat, error) {
	c, ok := f.chats[chatID]
	if !ok || c.UserID != userID {
		return nil, core.ErrNotFound
	}
	cp := *c
	cp.Messages = append([]models.ChatMessage(nil), c.Messages...)
	return &cp, nil
}

func (f *fakeDB) ListChats(_ context.Context, userID string, limit int) ([]models.ChatSummary, error) {
	var out []models.ChatSummary
	var ids []string
	for id := range f.chats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		c := f.chats[id]
		if c.UserID != userID || !c.IsActive {
			continue
		}
		out = append(out, models.ChatSummary{ID: c.ID, Title: c.Title, SelectedLanguage: c.SelectedLanguage})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeDB) UpdateChat(ctx context.Context, userID, chatID string, title, selectedLanguage *string) (*models.Chat, error) {
	c, ok := f.chats[chatID]
	if !ok || c.UserID != userID {
		return nil, core.ErrNotFound
	}
	if title != nil {
		c.Title = *title
	}
	if selectedLanguage != nil {
		c.SelectedLanguage = *selectedLanguage
	}
	return f.GetChat(ctx, userID, chatID)
}

func (f *fakeDB) SoftDeleteChat(_ context.Context, userID, chatID string) error {
	c, ok := f.chats[chatID]
	if !ok || c.UserID != userID || !c.IsActive {
		return core.ErrNotFound
	}
	c.IsActive = false
	return nil
}

func (f *fakeDB) SetChatTitleEmbedding(_ context.Context, _ string, _ []float32) error {
	return nil
}

func (f *fakeDB) SearchChatsByEmbedding(_ context.Context, _ string, _ []float32, _ int) ([]models.ChatSummary, error) {
	return nil, nil
}

func (f *fakeDB) Close() error { return nil }

// fakeLLM returns canned responses per model name, or an error.
type fakeLLM struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeLLM) Generate(_ context.Context, model, _, _ string) (string, error) {
	f.calls = append(f.calls, model)
	if err, ok := f.errs[model]; ok {
		return "", err
	}
	if resp, ok := f.responses[model]; ok {
		return resp, nil
	}
	return "", errors.New("unknown model")
}

func newChatService(db *fakeDB, llm *fakeLLM, modelNames ...string) *ChatService {
	if len(modelNames) == 0 {
		modelNames = []string{"gemini-2.5-flash", "gemini-2.5-pro"}
	}
	return NewChatService(db, llm, nil, modelNames, zap.NewNop())
}

const buttonResponse = "Here is your button:\n\n" +
	"- A primary call-to-action button\n" +
	"- Hover state with a darker shade\n" +
	"- Rounded corners and subtle shadow\n\n" +
	"```html\n<button class=\"btn\">Click me</button>\n```\n"

func TestSendMessageFullTurn(t *testing.T) {
	db := newFakeDB()
	llm := &fakeLLM{responses: map[string]string{"gemini-2.5-flash": buttonResponse}}
	svc := newChatService(db, llm)

	chat, err := svc.CreateChat(context.Background(), "u1", "", "")
	require.NoError(t, err)
	assert.Equal(t, "New Chat", chat.Title)
	assert.Equal(t, "HTML + CSS", chat.SelectedLanguage)

	aiMsg, summary, err := svc.SendMessage(context.Background(), "u1", chat.ID, "Create a button", "")
	require.NoError(t, err)

	assert.Equal(t, "assistant", aiMsg.Role)
	assert.Equal(t, buttonResponse, aiMsg.Content)
	require.Len(t, aiMsg.CodeBlocks, 1)
	assert.Equal(t, "html", aiMsg.CodeBlocks[0].Language)
	assert.Equal(t, `<button class="btn">Click me</button>`, aiMsg.CodeBlocks[0].Code)
	assert.Equal(t,
		"A primary call-to-action button\nHover state with a darker shade\nRounded corners and subtle shadow",
		aiMsg.CodeBlocks[0].Details)

	// Retitled from the first user message.
	assert.Equal(t, "Create a button", summary.Title)

	stored, err := svc.GetChat(context.Background(), "u1", chat.ID)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "user", stored.Messages[0].Role)
	assert.Equal(t, "Create a button", stored.Messages[0].Content)
	assert.Equal(t, "assistant", stored.Messages[1].Role)
}

func TestSendMessageCreatesChatInline(t *testing.T) {
	db := newFakeDB()
	llm := &fakeLLM{responses: map[string]string{"gemini-2.5-flash": buttonResponse}}
	svc := newChatService(db, llm)

	long := strings.Repeat("x", 60)
	_, summary, err := svc.SendMessage(context.Background(), "u1", "missing-id", long, "React + Tailwind")
	require.NoError(t, err)

	assert.Equal(t, strings.Repeat("x", 50)+"...", summary.Title)
	assert.Equal(t, "React + Tailwind", summary.SelectedLanguage)

	chats, err := svc.ListChats(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, chats, 1)
}

func TestSendMessageEmptyRejected(t *testing.T) {
	svc := newChatService(newFakeDB(), &fakeLLM{})

	_, _, err := svc.SendMessage(context.Background(), "u1", "c1", "   ", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSendMessageKeepsExistingTitle(t *testing.T) {
	db := newFakeDB()
	llm := &fakeLLM{responses: map[string]string{"gemini-2.5-flash": buttonResponse}}
	svc := newChatService(db, llm)

	chat, err := svc.CreateChat(context.Background(), "u1", "My project", "")
	require.NoError(t, err)

	_, summary, err := svc.SendMessage(context.Background(), "u1", chat.ID, "Create a button", "")
	require.NoError(t, err)
	assert.Equal(t, "My project", summary.Title)
}

func TestSendMessageModelFallback(t *testing.T) {
	db := newFakeDB()
	llm := &fakeLLM{
		errs:      map[string]error{"gemini-2.5-flash": errors.New("quota exceeded")},
		responses: map[string]string{"gemini-2.5-pro": buttonResponse},
	}
	svc := newChatService(db, llm)

	chat, err := svc.CreateChat(context.Background(), "u1", "", "")
	require.NoError(t, err)

	aiMsg, _, err := svc.SendMessage(context.Background(), "u1", chat.ID, "Create a button", "")
	require.NoError(t, err)
	assert.Equal(t, buttonResponse, aiMsg.Content)
	assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.5-pro"}, llm.calls)
}

func TestSendMessageAllModelsFail(t *testing.T) {
	db := newFakeDB()
	llm := &fakeLLM{errs: map[string]error{
		"gemini-2.5-flash": errors.New("quota exceeded"),
		"gemini-2.5-pro":   errors.New("model overloaded"),
	}}
	svc := newChatService(db, llm)

	chat, err := svc.CreateChat(context.Background(), "u1", "", "")
	require.NoError(t, err)
	savesBefore := db.saves

	_, _, err = svc.SendMessage(context.Background(), "u1", chat.ID, "Create a button", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all models failed")
	assert.Contains(t, err.Error(), "model overloaded")

	// A failed turn persists nothing.
	assert.Equal(t, savesBefore, db.saves)
	stored, err := svc.GetChat(context.Background(), "u1", chat.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Messages)
}

func TestChatOwnershipIsolation(t *testing.T) {
	db := newFakeDB()
	llm := &fakeLLM{responses: map[string]string{"gemini-2.5-flash": buttonResponse}}
	svc := newChatService(db, llm)

	chat, err := svc.CreateChat(context.Background(), "alice", "Alice's chat", "")
	require.NoError(t, err)

	_, err = svc.GetChat(context.Background(), "bob", chat.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = svc.DeleteChat(context.Background(), "bob", chat.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	chats, err := svc.ListChats(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestSoftDelete(t *testing.T) {
	db := newFakeDB()
	svc := newChatService(db, &fakeLLM{})

	chat, err := svc.CreateChat(context.Background(), "u1", "Keep me", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteChat(context.Background(), "u1", chat.ID))

	// Gone from the list, still retrievable directly.
	chats, err := svc.ListChats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, chats)

	got, err := svc.GetChat(context.Background(), "u1", chat.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// Deleting again reports not found.
	assert.ErrorIs(t, svc.DeleteChat(context.Background(), "u1", chat.ID), core.ErrNotFound)
}

func TestUpdateChatTitleAndLanguage(t *testing.T) {
	db := newFakeDB()
	svc := newChatService(db, &fakeLLM{})

	chat, err := svc.CreateChat(context.Background(), "u1", "", "")
	require.NoError(t, err)

	title := "Renamed"
	updated, err := svc.UpdateChat(context.Background(), "u1", chat.ID, &title, nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "HTML + CSS", updated.SelectedLanguage)

	lang := "Vue + Tailwind"
	updated, err = svc.UpdateChat(context.Background(), "u1", chat.ID, nil, &lang)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "Vue + Tailwind", updated.SelectedLanguage)
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "short", TruncateTitle("  short  "))
	assert.Equal(t, strings.Repeat("a", 50), TruncateTitle(strings.Repeat("a", 50)))
	assert.Equal(t, strings.Repeat("a", 50)+"...", TruncateTitle(strings.Repeat("a", 51)))
}

func TestGenerateCode(t *testing.T) {
	llm := &fakeLLM{responses: map[string]string{"gemini-2.5-flash": buttonResponse}}
	svc := newChatService(newFakeDB(), llm)

	raw, blocks, framework, err := svc.GenerateCode(context.Background(), "a button", "")
	require.NoError(t, err)
	assert.Equal(t, buttonResponse, raw)
	assert.Equal(t, "HTML + CSS", framework)
	require.Len(t, blocks, 1)
	assert.Equal(t, "html", blocks[0].Language)
}

func TestGenerateCodeNoFences(t *testing.T) {
	llm := &fakeLLM{responses: map[string]string{"gemini-2.5-flash": "<div>bare markup</div>"}}
	svc := newChatService(newFakeDB(), llm)

	_, blocks, _, err := svc.GenerateCode(context.Background(), "a div", "React + Tailwind")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "jsx", blocks[0].Language)
	assert.Equal(t, "<div>bare markup</div>", blocks[0].Code)
}

func TestGenerateCodeEmptyPrompt(t *testing.T) {
	svc := newChatService(newFakeDB(), &fakeLLM{})

	_, _, _, err := svc.GenerateCode(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestLanguageForFramework(t *testing.T) {
	assert.Equal(t, "html", LanguageForFramework("HTML + CSS"))
	assert.Equal(t, "jsx", LanguageForFramework("Next.js + Tailwind"))
	assert.Equal(t, "vue", LanguageForFramework("Vue + Tailwind"))
	assert.Equal(t, "html", LanguageForFramework("something unknown"))
}
