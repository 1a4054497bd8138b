package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	kafkax "github.com/ariefcatur/go-seller-marketplace/internal/kafka"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Tokens   *auth.Tokens
	Verifier auth.Verifier
	Accounts *AccountsHandler
	Products *ProductsHandler
	Orders   *OrdersHandler
	Chat     *ChatHandler
	Stream   *StreamHandler
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer, traceEvents)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(15 * time.Second))
			d.Accounts.RegisterPublic(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(d.Tokens, d.Verifier))
			// long-lived; stays outside the request timeout
			if d.Stream != nil {
				d.Stream.Register(r)
			}
			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(15 * time.Second))
				d.Accounts.Register(r)
				d.Products.Register(r)
				d.Orders.Register(r)
				d.Chat.Register(r)
			})
		})
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			slog.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// traceEvents stamps published events with the request id.
func traceEvents(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(kafkax.WithTraceID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
