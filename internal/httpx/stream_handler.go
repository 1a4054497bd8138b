package httpx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/ariefcatur/go-seller-marketplace/internal/realtime"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// StreamHandler serves server-sent events. A connection counts as presence for as long as it is open.
type StreamHandler struct {
	Hub       *realtime.Hub
	Presence  realtime.Presence
	Heartbeat time.Duration
}

func (h *StreamHandler) Register(r chi.Router) {
	r.Get("/stream", h.serve)
}

func (h *StreamHandler) serve(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming unsupported", nil)
		return
	}
	actor, _ := auth.ActorFrom(r.Context())
	ctx := r.Context()
	connID := uuid.NewString()
	log := slog.Default().With("component", "stream", "user_id", actor.ID, "conn_id", connID)

	if h.Presence != nil {
		if err := h.Presence.Register(ctx, actor.ID, connID); err != nil {
			fail(w, r, fmt.Errorf("register presence: %w", err))
			return
		}
		defer func() {
			if err := h.Presence.Unregister(context.WithoutCancel(ctx), connID); err != nil {
				log.Warn("unregister presence", "err", err)
			}
		}()
	}
	sub := h.Hub.Subscribe(actor.ID)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "event: connected\ndata: {\"connId\":%q}\n\n", connID)
	flusher.Flush()
	log.Debug("stream opened")

	every := h.Heartbeat
	if every <= 0 {
		every = 30 * time.Second
	}
	tick := time.NewTicker(every)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("stream closed")
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, ev.Data)
			flusher.Flush()
		case <-tick.C:
			if h.Presence != nil {
				if err := h.Presence.Register(ctx, actor.ID, connID); err != nil {
					log.Warn("refresh presence", "err", err)
				}
			}
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
