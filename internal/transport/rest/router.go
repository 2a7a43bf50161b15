package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gfmoura/book-management/internal/auth"
	"github.com/gfmoura/book-management/internal/book"
	"github.com/gfmoura/book-management/internal/rbac"
	"github.com/gfmoura/book-management/internal/transport/middleware"
	"github.com/gfmoura/book-management/internal/transport/swagger"
	"github.com/gfmoura/book-management/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, authService *auth.Service, userHandler *user.Handler, bookHandler *book.Handler, rbacHandler *rbac.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	authz := authService.RBACAuthorization()

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/logout", authHandler.Logout)
		})

		// Open registration
		r.Post("/users", userHandler.Register)

		// Everything below requires a valid access token
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Get("/users/me", userHandler.GetCurrentUser)

			pr.Group(func(mr chi.Router) {
				mr.Use(authz.Require(auth.PermManageUsers))
				mr.Delete("/users/{id}", userHandler.DeleteUser)
				mr.Put("/users/{id}/roles", rbacHandler.AssignRoles)
			})

			pr.Route("/books", func(br chi.Router) {
				br.Get("/", bookHandler.GetAllBooks)
				br.Get("/{id}", bookHandler.GetBook)

				br.Group(func(wr chi.Router) {
					wr.Use(authz.Require(auth.PermCreateBooks))
					wr.Post("/", bookHandler.CreateBook)
				})
				br.Group(func(wr chi.Router) {
					wr.Use(authz.Require(auth.PermUpdateBooks))
					wr.Put("/{id}", bookHandler.UpdateBook)
				})
				br.Group(func(wr chi.Router) {
					wr.Use(authz.Require(auth.PermDeleteBooks))
					wr.Delete("/{id}", bookHandler.DeleteBook)
				})
			})

			pr.Group(func(mr chi.Router) {
				mr.Use(authz.Require(auth.PermManageRoles))
				mr.Route("/roles", func(rr chi.Router) {
					rr.Get("/", rbacHandler.ListRoles)
					rr.Post("/", rbacHandler.CreateRole)
					rr.Delete("/{id}", rbacHandler.DeleteRole)
					rr.Post("/{id}/restore", rbacHandler.RestoreRole)
					rr.Put("/{id}/permissions", rbacHandler.AssignPermissions)
				})
				mr.Route("/permissions", func(prr chi.Router) {
					prr.Get("/", rbacHandler.ListPermissions)
					prr.Post("/", rbacHandler.CreatePermission)
					prr.Delete("/{id}", rbacHandler.DeletePermission)
					prr.Post("/{id}/restore", rbacHandler.RestorePermission)
				})
			})

			// Administrative lockout management
			pr.Group(func(ar chi.Router) {
				ar.Use(authz.RequireAdmin())
				ar.Post("/admin/{id}/unlock", authHandler.UnlockAccount)
				ar.Get("/admin/{id}/security-status", authHandler.SecurityStatus)
			})
		})
	})
}
