package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/codeseed-ai/codeseed/internal/api/middlewares"
	"github.com/codeseed-ai/codeseed/internal/core"
	"github.com/codeseed-ai/codeseed/internal/models"
	"github.com/codeseed-ai/codeseed/internal/services"
)

type ChatHandler struct {
	chats  *services.ChatService
	logger *zap.Logger
}

func NewChatHandler(chats *services.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chats: chats, logger: logger}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middlewares.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized. Login again")
	}
	return userID, ok
}

func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Title            string `json:"title"`
		SelectedLanguage string `json:"selectedLanguage"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	chat, err := h.chats.CreateChat(r.Context(), userID, req.Title, req.SelectedLanguage)
	if err != nil {
		h.logger.Error("create chat failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create chat")
		return
	}
	writeOK(w, map[string]any{"chat": chat})
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	chats, err := h.chats.ListChats(r.Context(), userID)
	if err != nil {
		h.logger.Error("list chats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list chats")
		return
	}
	if chats == nil {
		chats = []models.ChatSummary{}
	}
	writeOK(w, map[string]any{"chats": chats})
}

func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	chat, err := h.chats.GetChat(r.Context(), userID, chi.URLParam(r, "chatId"))
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if err != nil {
		h.logger.Error("get chat failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load chat")
		return
	}
	writeOK(w, map[string]any{"chat": chat})
}

// SendMessage runs one chat turn and returns the assistant message plus the
// possibly retitled chat summary.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Message          string `json:"message"`
		SelectedLanguage string `json:"selectedLanguage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	aiMsg, summary, err := h.chats.SendMessage(r.Context(), userID, chi.URLParam(r, "chatId"), req.Message, req.SelectedLanguage)
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "Message is required")
	case err != nil:
		h.logger.Error("chat turn failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeOK(w, map[string]any{
			"message": aiMsg,
			"chat": map[string]any{
				"_id":              summary.ID,
				"title":            summary.Title,
				"selectedLanguage": summary.SelectedLanguage,
			},
		})
	}
}

func (h *ChatHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Title            *string `json:"title"`
		SelectedLanguage *string `json:"selectedLanguage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == nil && req.SelectedLanguage == nil {
		writeError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	chat, err := h.chats.UpdateChat(r.Context(), userID, chi.URLParam(r, "chatId"), req.Title, req.SelectedLanguage)
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if err != nil {
		h.logger.Error("update chat failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not update chat")
		return
	}
	writeOK(w, map[string]any{"chat": chat})
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	err := h.chats.DeleteChat(r.Context(), userID, chi.URLParam(r, "chatId"))
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if err != nil {
		h.logger.Error("delete chat failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not delete chat")
		return
	}
	writeOK(w, nil)
}

// GenerateCode is the one-shot endpoint: same extraction pipeline as a chat
// turn, nothing persisted.
func (h *ChatHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req struct {
		Prompt    string `json:"prompt"`
		Framework string `json:"framework"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code, blocks, framework, err := h.chats.GenerateCode(r.Context(), req.Prompt, req.Framework)
	switch {
	case errors.Is(err, services.ErrEmptyPrompt):
		writeError(w, http.StatusBadRequest, "Prompt is required")
	case err != nil:
		h.logger.Error("generate code failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeOK(w, map[string]any{
			"code":       code,
			"codeBlocks": blocks,
			"framework":  framework,
		})
	}
}

// Search finds chats whose titles are semantically close to the query.
func (h *ChatHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	chats, err := h.chats.SearchChats(r.Context(), userID, query)
	if err != nil {
		h.logger.Error("search chats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if chats == nil {
		chats = []models.ChatSummary{}
	}
	writeOK(w, map[string]any{"chats": chats})
}
