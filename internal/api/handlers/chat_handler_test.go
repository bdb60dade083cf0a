package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/codeseed-ai/codeseed/internal/api/handlers"
	"github.com/codeseed-ai/codeseed/internal/api/middlewares"
	"github.com/codeseed-ai/codeseed/internal/core"
	"github.com/codeseed-ai/codeseed/internal/core/auth"
	"github.com/codeseed-ai/codeseed/internal/models"
	"github.com/codeseed-ai/codeseed/internal/services"
)

const testSecret = "test-secret"

// memDB implements core.DbClient in memory with the same ownership and
// soft-delete semantics as the Postgres client.
type memDB struct {
	chats map[string]*models.Chat
}

func newMemDB() *memDB { return &memDB{chats: map[string]*models.Chat{}} }

func (m *memDB) CreateUser(context.Context, *models.User) error { return nil }
func (m *memDB) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, core.ErrNotFound
}
func (m *memDB) GetUserByID(context.Context, string) (*models.User, error) {
	return nil, core.ErrNotFound
}
func (m *memDB) UpdateUser(context.Context, *models.User) error { return nil }

func (m *memDB) SaveChat(_ context.Context, chat *models.Chat) error {
	cp := *chat
	m.chats[chat.ID] = &cp
	return nil
}

func (m *memDB) GetChat(_ context.Context, userID, chatID string) (*models.Chat, error) {
	c, ok := m.chats[chatID]
	if !ok || c.UserID != userID {
		return nil, core.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memDB) ListChats(_ context.Context, userID string, limit int) ([]models.ChatSummary, error) {
	var out []models.ChatSummary
	for _, c := range m.chats {
		if c.UserID == userID && c.IsActive {
			out = append(out, models.ChatSummary{ID: c.ID, Title: c.Title, SelectedLanguage: c.SelectedLanguage})
		}
	}
	return out, nil
}

func (m *memDB) UpdateChat(ctx context.Context, userID, chatID string, title, lang *string) (*models.Chat, error) {
	c, ok := m.chats[chatID]
	if !ok || c.UserID != userID {
		return nil, core.ErrNotFound
	}
	if title != nil {
		c.Title = *title
	}
	if lang != nil {
		c.SelectedLanguage = *lang
	}
	return m.GetChat(ctx, userID, chatID)
}

func (m *memDB) SoftDeleteChat(_ context.Context, userID, chatID string) error {
	c, ok := m.chats[chatID]
	if !ok || c.UserID != userID || !c.IsActive {
		return core.ErrNotFound
	}
	c.IsActive = false
	return nil
}

func (m *memDB) SetChatTitleEmbedding(context.Context, string, []float32) error { return nil }
func (m *memDB) SearchChatsByEmbedding(context.Context, string, []float32, int) ([]models.ChatSummary, error) {
	return nil, nil
}
func (m *memDB) Close() error { return nil }

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Generate(context.Context, string, string, string) (string, error) {
	return s.response, s.err
}

const cardResponse = "- A compact pricing card\n- Highlighted call to action\n- Responsive layout\n\n```html\n<div class=\"card\">Pro</div>\n```\n"

func newTestRouter(db *memDB, llm *stubLLM) http.Handler {
	logger := zap.NewNop()
	chatSvc := services.NewChatService(db, llm, nil, []string{"gemini-2.5-flash"}, logger)
	chatHandler := handlers.NewChatHandler(chatSvc, logger)

	r := chi.NewRouter()
	r.Group(func(protected chi.Router) {
		protected.Use(middlewares.JWTAuth(testSecret))
		protected.Route("/api/chat", func(cr chi.Router) {
			cr.Post("/", chatHandler.Create)
			cr.Get("/", chatHandler.List)
			cr.Post("/generate-code", chatHandler.GenerateCode)
			cr.Get("/{chatId}", chatHandler.Get)
			cr.Post("/{chatId}/message", chatHandler.SendMessage)
			cr.Patch("/{chatId}", chatHandler.Update)
			cr.Delete("/{chatId}", chatHandler.Delete)
		})
	})
	return r
}

func authedRequest(t *testing.T, method, target, body, userID string) *http.Request {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	token, err := auth.IssueToken(testSecret, userID)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: token})
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestUnauthenticatedRejected(t *testing.T) {
	router := newTestRouter(newMemDB(), &stubLLM{})

	req := httptest.NewRequest(http.MethodGet, "/api/chat/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestBearerHeaderAccepted(t *testing.T) {
	router := newTestRouter(newMemDB(), &stubLLM{})

	token, err := auth.IssueToken(testSecret, "u1")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/chat/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChatTurnEndpoint(t *testing.T) {
	db := newMemDB()
	router := newTestRouter(db, &stubLLM{response: cardResponse})

	// Create a chat.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/chat/", `{"selectedLanguage":"HTML + CSS"}`, "u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeBody(t, rec)
	chat := created["chat"].(map[string]any)
	chatID := chat["_id"].(string)
	require.NotEmpty(t, chatID)

	// Run a turn.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/chat/"+chatID+"/message", `{"message":"Create a pricing card"}`, "u1"))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	msg := body["message"].(map[string]any)
	assert.Equal(t, "assistant", msg["role"])
	blocks := msg["codeBlocks"].([]any)
	require.Len(t, blocks, 1)
	block := blocks[0].(map[string]any)
	assert.Equal(t, "html", block["language"])
	assert.Contains(t, block["details"], "pricing card")

	summary := body["chat"].(map[string]any)
	assert.Equal(t, chatID, summary["_id"])
	assert.Equal(t, "Create a pricing card", summary["title"])
}

func TestChatTurnEmptyMessage(t *testing.T) {
	router := newTestRouter(newMemDB(), &stubLLM{response: cardResponse})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/chat/some-id/message", `{"message":"  "}`, "u1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatTurnProviderFailure(t *testing.T) {
	router := newTestRouter(newMemDB(), &stubLLM{err: errors.New("model overloaded")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/chat/some-id/message", `{"message":"Create a button"}`, "u1"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["message"], "all models failed")
}

func TestForeignChatIsNotFound(t *testing.T) {
	db := newMemDB()
	router := newTestRouter(db, &stubLLM{response: cardResponse})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/chat/", `{"title":"Mine"}`, "alice"))
	require.Equal(t, http.StatusOK, rec.Code)
	chatID := decodeBody(t, rec)["chat"].(map[string]any)["_id"].(string)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/chat/"+chatID, "", "bob"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteThenList(t *testing.T) {
	db := newMemDB()
	router := newTestRouter(db, &stubLLM{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/chat/", `{"title":"Temp"}`, "u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	chatID := decodeBody(t, rec)["chat"].(map[string]any)["_id"].(string)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodDelete, "/api/chat/"+chatID, "", "u1"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/chat/", "", "u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Empty(t, body["chats"])
}

func TestGenerateCodeEndpoint(t *testing.T) {
	router := newTestRouter(newMemDB(), &stubLLM{response: cardResponse})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/chat/generate-code", `{"prompt":"a card","framework":"React + Tailwind"}`, "u1"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, cardResponse, body["code"])
	assert.Equal(t, "React + Tailwind", body["framework"])
	require.Len(t, body["codeBlocks"].([]any), 1)
}

func TestUpdateChatEndpoint(t *testing.T) {
	db := newMemDB()
	router := newTestRouter(db, &stubLLM{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/chat/", `{}`, "u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	chatID := decodeBody(t, rec)["chat"].(map[string]any)["_id"].(string)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodPatch, "/api/chat/"+chatID, `{"title":"Renamed"}`, "u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	chat := decodeBody(t, rec)["chat"].(map[string]any)
	assert.Equal(t, "Renamed", chat["title"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodPatch, "/api/chat/"+chatID, `{}`, "u1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
