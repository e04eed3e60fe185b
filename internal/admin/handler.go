// Package admin serves a small read-only HTTP view of the bot's state.
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lojasmm/askbot/internal/logging"
	"github.com/lojasmm/askbot/internal/store"
)

// ChatReader is the part of the store the admin views need.
type ChatReader interface {
	GetChat(chatID string) (*store.Chat, error)
	ListChats() ([]store.Chat, error)
}

// SessionCounter reports how many conversations hold in-memory history.
type SessionCounter interface {
	Len() int
}

type Handler struct {
	chats    ChatReader
	sessions SessionCounter
	log      *slog.Logger
}

func NewHandler(chats ChatReader, sessions SessionCounter) *Handler {
	return &Handler{chats: chats, sessions: sessions, log: logging.NewModuleLogger("admin")}
}

// Router mounts the admin endpoints.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HandleHealth)
	r.Get("/chats", h.HandleListChats)
	r.Get("/chats/{id}", h.HandleGetChat)
	return r
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":               "ok",
		"active_conversations": h.sessions.Len(),
	})
}

func (h *Handler) HandleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chats.ListChats()
	if err != nil {
		h.log.Error("list chats failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, chats)
}

func (h *Handler) HandleGetChat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	chat, err := h.chats.GetChat(id)
	if err != nil {
		h.log.Error("get chat failed", "chat_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if chat == nil {
		http.Error(w, "chat not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, chat)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("encoding response failed", "error", err)
	}
}
