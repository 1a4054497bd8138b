package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/ariefcatur/go-seller-marketplace/internal/orders"
	"github.com/go-chi/chi/v5"
)

type OrderService interface {
	CreateOrder(ctx context.Context, in orders.CreateInput, actor auth.Actor) (orders.Order, error)
	ListOrders(ctx context.Context, actor auth.Actor) ([]orders.Order, error)
	GetOrder(ctx context.Context, id string, actor auth.Actor) (orders.Order, error)
	SellerOrderResponse(ctx context.Context, id string, in orders.ResponseInput, actor auth.Actor) (orders.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string, actor auth.Actor) (orders.Order, error)
	UpdateOrder(ctx context.Context, id string, p orders.Patch, actor auth.Actor) (orders.Order, error)
	DeleteOrder(ctx context.Context, id string, actor auth.Actor) error
	GetOrderStats(ctx context.Context, sellerID string, actor auth.Actor) (orders.Stats, error)
}

type OrdersHandler struct{ Orders OrderService }

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/stats", h.stats)
	r.Get("/orders/stats/{sellerId}", h.stats)
	r.Get("/orders/{id}", h.get)
	r.Put("/orders/{id}", h.update)
	r.Delete("/orders/{id}", h.delete)
	r.Post("/orders/{id}/status", h.updateStatus)
	r.Post("/orders/{id}/response", h.respond)
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in orders.CreateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	actor, _ := auth.ActorFrom(r.Context())
	o, err := h.Orders.CreateOrder(r.Context(), in, actor)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	all, err := h.Orders.ListOrders(r.Context(), actor)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	o, err := h.Orders.GetOrder(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) update(w http.ResponseWriter, r *http.Request) {
	var p orders.Patch
	if !decodeJSON(w, r, &p) {
		return
	}
	actor, _ := auth.ActorFrom(r.Context())
	o, err := h.Orders.UpdateOrder(r.Context(), chi.URLParam(r, "id"), p, actor)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	if err := h.Orders.DeleteOrder(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, _ := auth.ActorFrom(r.Context())
	o, err := h.Orders.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), req.Status, actor)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) respond(w http.ResponseWriter, r *http.Request) {
	var in orders.ResponseInput
	if !decodeJSON(w, r, &in) {
		return
	}
	actor, _ := auth.ActorFrom(r.Context())
	o, err := h.Orders.SellerOrderResponse(r.Context(), chi.URLParam(r, "id"), in, actor)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// stats serves both the seller's own view and an admin's view of one seller;
// the id comes from the path or, for older clients, ?sellerId.
func (h *OrdersHandler) stats(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	sellerID := chi.URLParam(r, "sellerId")
	if sellerID == "" {
		sellerID = r.URL.Query().Get("sellerId")
	}
	st, err := h.Orders.GetOrderStats(r.Context(), sellerID, actor)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
