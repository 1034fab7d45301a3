package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/bookshelf-api/internal/api"
	apiMiddleware "github.com/phrazzld/bookshelf-api/internal/api/middleware"
)

const requestTimeout = 60 * time.Second

// setupRouter mounts the API under /api/v1 plus an unauthenticated /health.
// Reads are public; writes require a bearer access token.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	authHandler := api.NewAuthHandler(app.authService)
	bookHandler := api.NewBookHandler(app.catalogService, app.config.Catalog)
	authorHandler := api.NewAuthorHandler(app.catalogService)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.authService)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)
		r.Post("/auth/logout", authHandler.Logout)

		r.Get("/books", bookHandler.ListBooks)
		r.Get("/books/{id}", bookHandler.GetBook)
		r.Get("/authors", authorHandler.ListAuthors)
		r.Get("/authors/{id}", authorHandler.GetAuthor)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/books", bookHandler.CreateBook)
			r.Post("/books/import", bookHandler.ImportBooks)
			r.Put("/books/{id}", bookHandler.UpdateBook)
			r.Delete("/books/{id}", bookHandler.DeleteBook)
		})
	})

	r.Get("/health", app.health)

	return r
}

// health reports whether the process is up and the database answers.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	if app.db != nil {
		if err := app.db.PingContext(r.Context()); err != nil {
			app.logger.Error("health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		app.logger.Error("failed to write health check response", "error", err)
	}
}
