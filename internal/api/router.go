// Package api exposes the inventory and user services over JSON HTTP.
package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/erazemk/oprema/internal/inventory"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/users"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, logger *zap.Logger) http.Handler {
	logger = logger.Named("api")
	usersSvc := users.NewService(db, logger)

	authHandler := &AuthHandler{DB: db, Users: usersSvc, JWTSecret: jwtSecret, Logger: logger}
	usersHandler := &UsersHandler{Users: usersSvc, Logger: logger}
	itemsHandler := &ItemsHandler{Items: inventory.NewService(db, logger), Logger: logger}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		// Public: login.
		api.Post("/auth/login", authHandler.Login)

		api.Group(func(api chi.Router) {
			api.Use(authMW)

			api.Get("/auth/me", authHandler.Me)
			api.Post("/auth/logout", authHandler.Logout)

			// Items: every signed-in user.
			api.Get("/items", itemsHandler.List)
			api.Post("/items", itemsHandler.Create)
			api.Get("/items/{id}", itemsHandler.Get)
			api.Put("/items/{id}", itemsHandler.Update)
			api.Post("/items/{id}/deploy", itemsHandler.Deploy)
			api.Post("/items/{id}/return", itemsHandler.Return)
			api.Post("/items/{id}/retire", itemsHandler.Retire)
			api.Post("/items/{id}/restore", itemsHandler.Restore)
			api.Post("/items/{id}/quantity", itemsHandler.AdjustQuantity)
			api.Get("/items/category/{category}/summary", itemsHandler.CategorySummary)
			api.Get("/categories", itemsHandler.Categories)

			// Users. Finer rules live in the users service.
			api.With(requireAdmin).Get("/users", usersHandler.List)
			api.With(requireAdmin).Post("/users", usersHandler.Create)
			api.With(requireAdmin).Put("/users/{user}/role", usersHandler.ChangeRole)
			api.Put("/users/{user}/reset-password", usersHandler.ResetPassword)
			api.With(requireAdmin).Get("/user-audit-logs", usersHandler.AuditLogs)
		})
	})

	return r
}
