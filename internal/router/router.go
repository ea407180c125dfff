package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/qr-billing/api/internal/backend"
	"github.com/qr-billing/api/internal/checkout"
	"github.com/qr-billing/api/internal/config"
	"github.com/qr-billing/api/internal/handler"
	mw "github.com/qr-billing/api/internal/middleware"
	"github.com/qr-billing/api/internal/session"
	"github.com/qr-billing/api/internal/ws"
)

// New creates a Chi router with all application routes wired up. The
// customer-facing endpoints are public; the checkout event stream validates
// its tracking token internally.
func New(cfg *config.Config, client *backend.Client, store *session.PGStore, flow *checkout.Controller, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/businesses/{bid}/checkout", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.TokenSecret, w, r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.TrackingClaims(cfg.TokenSecret))

		handler.NewCheckoutHandler(flow).RegisterRoutes(r)
		handler.NewSessionHandler(store, cfg.TokenSecret).RegisterRoutes(r)
		handler.NewOrdersHandler(client, store, cfg.DefaultBusinessID).RegisterRoutes(r)
		handler.NewMenuHandler(client).RegisterRoutes(r)
	})

	log.Println("Router initialized with all handlers")
	return r
}
