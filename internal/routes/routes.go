package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/vantagehq/console/internal/handlers"
	"github.com/vantagehq/console/internal/middleware"
	"github.com/vantagehq/console/internal/session"
)

// RegisterRoutes registers all console routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	directoryHandler *handlers.DirectoryHandler,
	dialogHandler *handlers.DialogHandler,
	dashboardHandler *handlers.DashboardHandler,
	adminHandler *handlers.AdminHandler,
	shellHandler *handlers.ShellHandler,
	store session.Store,
	logger *slog.Logger,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	router.Route("/api", func(api chi.Router) {
		// Public routes - credential endpoints are rate limited by IP
		api.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/register", authHandler.Register)
			r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/login", authHandler.Login)
			r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/verify-otp", authHandler.VerifyOTP)
			r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/forgot", authHandler.Forgot)
			r.Post("/reset-password/{token}", authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession(store, logger))
				r.Use(middleware.CSRFProtection(logger))
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		// Protected routes - console session required
		api.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(store, logger))
			r.Use(middleware.CSRFProtection(logger))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", directoryHandler.List)
				r.Patch("/query", directoryHandler.UpdateQuery)

				r.Route("/dialog", func(r chi.Router) {
					r.Post("/", dialogHandler.Open)
					r.Get("/", dialogHandler.Get)
					r.Patch("/", dialogHandler.Apply)
					r.Post("/submit", dialogHandler.Submit)
					r.Delete("/", dialogHandler.Close)
				})

				r.Post("/{id}/delete", dialogHandler.OpenDelete)
				r.Post("/delete/confirm", dialogHandler.ConfirmDelete)
				r.Delete("/delete", dialogHandler.CancelDelete)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/today", dashboardHandler.Today)
				r.Get("/period", dashboardHandler.Period)
				r.Get("/gender", dashboardHandler.Gender)
			})

			// Admin-only routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/profile", adminHandler.GetProfile)
				r.Put("/profile", adminHandler.UpdateProfile)
				r.Put("/password", adminHandler.UpdatePassword)
				r.Get("/settings", adminHandler.GetSettings)
				r.Put("/settings", adminHandler.UpdateSettings)
			})
		})

		api.NotFound(shellHandler.APINotFound)
	})

	// Shell routes - the SPA owns rendering, every console path gets the
	// same document
	for _, path := range []string{
		"/", "/login", "/signup", "/reset-password/{token}",
		"/home", "/dashboard", "/users", "/admin",
	} {
		router.Get(path, shellHandler.Serve)
	}
	router.Handle("/static/*", shellHandler.Assets())
	router.NotFound(shellHandler.NotFound)
}
