package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/vidyasetu/vidyasetu/internal/middleware"
)

// NewRouter constructs the backend handler.
//
// Routes:
//
//	POST /auth/login           → authHandler.Login
//	POST /auth/send-otp        → authHandler.SendOTP
//	POST /auth/reset-password  → authHandler.ResetPassword
//	GET  /profile              → profileHandler.Get (bearer)
//	PUT  /profile/update       → profileHandler.Update (bearer, multipart)
//	GET  /uploads/*            → stored profile photos
//
// Requests with a body must be JSON or multipart; every request is logged.
func NewRouter(
	authHandler *AuthHandler,
	profileHandler *ProfileHandler,
	tokens middleware.TokenResolver,
	uploadDir string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json", "multipart/form-data"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/send-otp", authHandler.SendOTP)
		r.Post("/reset-password", authHandler.ResetPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(tokens))
		r.Get("/profile", profileHandler.Get)
		r.Put("/profile/update", profileHandler.Update)
	})

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))

	return r
}
