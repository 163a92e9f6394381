package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"smartcharger/internal/http/handlers"
	"smartcharger/internal/http/middleware"
)

// Handlers groups the handler sets the router mounts.
type Handlers struct {
	Reservations *handlers.ReservationHandlers
	Charging     *handlers.ChargingHandlers
	Prices       *handlers.PriceHandlers
	Piles        *handlers.PileHandlers
	Notices      *handlers.NoticeHandlers
	Health       http.HandlerFunc
}

// NewRouter registers endpoints. Everything except /health requires a valid
// JWT bearer token.
func NewRouter(h Handlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(jwtSecret))

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", h.Reservations.Create)
			r.Get("/", h.Reservations.List)
			r.Get("/current", h.Reservations.Current)
			r.Get("/{id}", h.Reservations.Get)
			r.Delete("/{id}", h.Reservations.Cancel)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/start", h.Charging.Start)
			r.Get("/", h.Charging.List)
			r.Get("/current", h.Charging.Current)
			r.Get("/{id}", h.Charging.Detail)
			r.Post("/{id}/end", h.Charging.End)
		})

		r.Route("/piles", func(r chi.Router) {
			r.Get("/{id}", h.Piles.Get)
			r.Get("/{id}/availability", h.Reservations.Availability)
		})

		r.Route("/prices", func(r chi.Router) {
			r.Get("/current", h.Prices.Current)
			r.Post("/estimate", h.Prices.Estimate)
		})

		r.Route("/notices", func(r chi.Router) {
			r.Get("/", h.Notices.List)
			r.Get("/unread-count", h.Notices.UnreadCount)
			r.Get("/threshold", h.Notices.Threshold)
			r.Put("/threshold", h.Notices.SetThreshold)
			r.Put("/read-all", h.Notices.MarkAllRead)
			r.Put("/{id}/read", h.Notices.MarkRead)
			r.Delete("/{id}", h.Notices.Delete)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Route("/piles", func(r chi.Router) {
				r.Post("/", h.Piles.Create)
				r.Put("/{id}/status", h.Piles.UpdateStatus)
				r.Post("/{id}/fault", h.Piles.ReportFault)
				r.Post("/{id}/fault/resolve", h.Piles.ResolveFault)
				r.Delete("/{id}", h.Piles.Delete)
			})
			r.Route("/prices", func(r chi.Router) {
				r.Post("/", h.Prices.Create)
				r.Get("/", h.Prices.List)
				r.Get("/{id}", h.Prices.Get)
				r.Put("/{id}", h.Prices.Update)
				r.Delete("/{id}", h.Prices.Delete)
			})
		})
	})

	return r
}
