package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/ariefcatur/go-seller-marketplace/internal/orders"
	"github.com/ariefcatur/go-seller-marketplace/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type UserService interface {
	Signup(ctx context.Context, in users.SignupInput) (users.User, error)
	Login(ctx context.Context, email, password string) (users.LoginResult, error)
	GetForActor(ctx context.Context, id string, actor auth.Actor) (users.User, error)
	ListSellers(ctx context.Context, actor auth.Actor) ([]users.User, error)
	SetApproved(ctx context.Context, id string, approved bool, actor auth.Actor) (users.User, error)
}

// CreditService is the ledger side of an account.
type CreditService interface {
	TopUpCredit(ctx context.Context, sellerID string, amount decimal.Decimal, actor auth.Actor) (orders.Balance, error)
}

type AccountsHandler struct {
	Users  UserService
	Credit CreditService
}

func (h *AccountsHandler) RegisterPublic(r chi.Router) {
	r.Post("/auth/signup", h.signup)
	r.Post("/auth/login", h.login)
}

func (h *AccountsHandler) Register(r chi.Router) {
	r.Get("/users/{id}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Get("/users", h.listSellers)
		r.Post("/users/{id}/approve", h.setApproved(true))
		r.Post("/users/{id}/revoke", h.setApproved(false))
		r.Post("/users/{id}/credit", h.topUp)
	})
}

func (h *AccountsHandler) signup(w http.ResponseWriter, r *http.Request) {
	var in users.SignupInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.Users.Signup(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "registration submitted, waiting for admin approval",
		"user":    u,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AccountsHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AccountsHandler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	id := chi.URLParam(r, "id")
	if id == "me" {
		id = actor.ID
	}
	u, err := h.Users.GetForActor(r.Context(), id, actor)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AccountsHandler) listSellers(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	us, err := h.Users.ListSellers(r.Context(), actor)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, us)
}

func (h *AccountsHandler) setApproved(approved bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := auth.ActorFrom(r.Context())
		u, err := h.Users.SetApproved(r.Context(), chi.URLParam(r, "id"), approved, actor)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

type creditRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *AccountsHandler) topUp(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, _ := auth.ActorFrom(r.Context())
	b, err := h.Credit.TopUpCredit(r.Context(), chi.URLParam(r, "id"), req.Amount, actor)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
