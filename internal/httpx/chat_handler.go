package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/ariefcatur/go-seller-marketplace/internal/chat"
	"github.com/go-chi/chi/v5"
)

type ChatService interface {
	CreateConversation(ctx context.Context, actor auth.Actor, recipientID string) (chat.View, bool, error)
	ListMine(ctx context.Context, actor auth.Actor) ([]chat.View, error)
	ConversationsByUser(ctx context.Context, actor auth.Actor, selector string) ([]chat.View, error)
	SendMessage(ctx context.Context, conversationID, senderID, content string) (chat.Message, error)
	GetMessages(ctx context.Context, conversationID, requesterID string) ([]chat.Message, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	Typing(ctx context.Context, conversationID, userID string, typing bool) error
}

type ChatHandler struct{ Chat ChatService }

func (h *ChatHandler) Register(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		r.Get("/conversations", h.listMine)
		r.Post("/conversations", h.create)
		r.Get("/conversations/user/{userId}", h.byUser)
		r.Get("/conversations/with/{otherUserId}", h.with)
		r.Get("/conversations/{id}/messages", h.messages)
		r.Post("/conversations/{id}/messages", h.send)
		r.Post("/conversations/{id}/typing", h.typing)
		r.Get("/messages/unread", h.unread)
	})
}

func (h *ChatHandler) listMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	vs, err := h.Chat.ListMine(r.Context(), actor)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vs)
}

type createConversationRequest struct {
	RecipientID string `json:"recipientId"`
}

func (h *ChatHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, _ := auth.ActorFrom(r.Context())
	v, created, err := h.Chat.CreateConversation(r.Context(), actor, req.RecipientID)
	if err != nil {
		fail(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, v)
}

func (h *ChatHandler) byUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	vs, err := h.Chat.ConversationsByUser(r.Context(), actor, chi.URLParam(r, "userId"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vs)
}

func (h *ChatHandler) with(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	v, _, err := h.Chat.CreateConversation(r.Context(), actor, chi.URLParam(r, "otherUserId"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *ChatHandler) messages(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	ms, err := h.Chat.GetMessages(r.Context(), chi.URLParam(r, "id"), actor.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *ChatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, _ := auth.ActorFrom(r.Context())
	m, err := h.Chat.SendMessage(r.Context(), chi.URLParam(r, "id"), actor.ID, req.Content)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

type typingRequest struct {
	Typing bool `json:"typing"`
}

func (h *ChatHandler) typing(w http.ResponseWriter, r *http.Request) {
	var req typingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, _ := auth.ActorFrom(r.Context())
	if err := h.Chat.Typing(r.Context(), chi.URLParam(r, "id"), actor.ID, req.Typing); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) unread(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	n, err := h.Chat.GetUnreadCount(r.Context(), actor.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}
