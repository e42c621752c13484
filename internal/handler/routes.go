package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the services and optional extras the router is built from.
type Deps struct {
	Auth     AuthAPI
	Bookings BookingAPI
	Tables   TableAPI

	// Metrics and MetricsHandler are optional; when set, every request is
	// measured and MetricsHandler is mounted at GET /metrics.
	Metrics        *Metrics
	MetricsHandler http.Handler
}

// Routes builds the chi router with the global middleware stack.
func Routes(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(middleware.Recoverer) // recover from panics, return 500
	r.Use(middleware.RequestID) // attach request IDs
	r.Use(middleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger)               // structured access log
	r.Use(CORS)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Get("/health", HealthCheck)
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	authH := NewAuthHandler(d.Auth)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authH.Register)
		r.Post("/login", authH.Login)
	})

	bookingH := NewBookingHandler(d.Bookings)
	tableH := NewTableHandler(d.Tables)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(d.Auth))

		r.Get("/tables/available", tableH.Available)

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", bookingH.Create)
			r.Get("/my", bookingH.ListMy)
			r.Patch("/{id}", bookingH.Update)
			r.Delete("/{id}", bookingH.Cancel)
		})

		r.Route("/admin/tables", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/", tableH.List)
			r.Post("/", tableH.Create)
			r.Patch("/{id}", tableH.Update)
			r.Delete("/{id}", tableH.Delete)
		})
	})

	return r
}
