package httpapi

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/api/http/middleware"
	platformhealth "github.com/shestoi/railbook/platform/health/http"
	platformobservability "github.com/shestoi/railbook/platform/observability"
)

// NewRouter wires every route of the booking API.
// checks feed GET /health; a failing check turns it into 503.
func NewRouter(handler *Handler, sessions middleware.SessionValidator, checks map[string]platformhealth.Check, logger *zap.Logger) chi.Router {
	router := chi.NewRouter()
	router.Use(platformobservability.HTTPMiddleware("booking", logger))

	auth := middleware.WithSession(sessions, logger)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/logout", handler.Logout)
			r.Get("/me", handler.Me)
		})
	})

	router.Route("/users", func(r chi.Router) {
		r.Use(auth)
		r.Get("/profile", handler.Me)
		r.Put("/profile", handler.UpdateProfile)
	})

	router.Route("/trains", func(r chi.Router) {
		r.Get("/", handler.SearchTrains)
		r.Get("/{id}", handler.GetTrain)
		r.Group(func(r chi.Router) {
			r.Use(auth, middleware.RequireAdmin)
			r.Post("/", handler.CreateTrain)
			r.Put("/{id}", handler.UpdateTrain)
			r.Delete("/{id}", handler.DeleteTrain)
		})
	})

	router.Route("/bookings", func(r chi.Router) {
		r.Use(auth)
		r.Post("/", handler.CreateBooking)
		r.Get("/my", handler.MyBookings)
		r.Post("/verify-payment/{reference}", handler.VerifyPayment)
		r.Get("/{id}", handler.GetBooking)
		r.Post("/{id}/cancel", handler.CancelBooking)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/", handler.ListBookings)
			r.Patch("/{id}/status", handler.UpdateBookingStatus)
		})
	})

	router.Route("/notifications", func(r chi.Router) {
		r.Use(auth)
		r.Get("/", handler.ListNotifications)
		r.Put("/read-all", handler.MarkAllNotificationsRead)
		r.Get("/preferences", handler.GetPreferences)
		r.Put("/preferences", handler.UpdatePreferences)
		r.Put("/{id}/read", handler.MarkNotificationRead)
	})

	router.Get("/health", platformhealth.Handler(checks))

	return router
}
