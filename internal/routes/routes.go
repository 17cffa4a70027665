package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/urovesa/portal-api/internal/auth"
	"github.com/urovesa/portal-api/internal/handlers"
	"github.com/urovesa/portal-api/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	twoFactorHandler *handlers.TwoFactorHandler,
	documentHandler *handlers.DocumentHandler,
	tokenManager *auth.TokenManager,
	env string,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes, rate limited per client IP
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimitConfig))

		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/change-password", authHandler.ChangePassword)
		r.Post("/auth/2fa/setup", twoFactorHandler.Setup)
		r.Post("/auth/2fa/verify", twoFactorHandler.Verify)
		r.Get("/auth/2fa/status", twoFactorHandler.Status)

		// Secret reset shortcut for local development only
		if env != "production" {
			r.Post("/auth/2fa/disable", twoFactorHandler.Disable)
		}
	})

	router.Get("/auth/verify", authHandler.VerifyToken)

	// Document proxy requires a valid session token
	if documentHandler != nil {
		router.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokenManager))

			r.Post("/therefore/executeSingleQuery", documentHandler.ExecuteSingleQuery)
			r.Post("/therefore/createDocument", documentHandler.CreateDocument)
			r.Get("/therefore/getDocument", documentHandler.GetDocument)
		})
	}
}
