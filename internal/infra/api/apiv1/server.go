// File: internal/infra/api/apiv1/server.go
package apiv1

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"coloring-book-generator/internal/infra/api"
	red "coloring-book-generator/internal/infra/redis"
	"coloring-book-generator/internal/usecase"
)

// Server holds the handlers of the versioned API.
type Server struct {
	gen     usecase.GenerationUseCase
	export  usecase.ExportUseCase
	secrets usecase.SecretUseCase
	auth    *api.AuthManager
	limiter api.Limiter
	limit   int
	log     *zerolog.Logger
}

type Options struct {
	// Auth enables POST /login and session checks; nil leaves the API open.
	Auth *api.AuthManager
	// Limiter and BatchLimit cap POST /batches per client per minute.
	Limiter    api.Limiter
	BatchLimit int
}

func NewServer(gen usecase.GenerationUseCase, export usecase.ExportUseCase, secrets usecase.SecretUseCase, opts Options, logger *zerolog.Logger) *Server {
	return &Server{
		gen:     gen,
		export:  export,
		secrets: secrets,
		auth:    opts.Auth,
		limiter: opts.Limiter,
		limit:   opts.BatchLimit,
		log:     logger,
	}
}

// RegisterAPIV1 attaches the routes to a router mounted at /api/v1.
func RegisterAPIV1(r chi.Router, s *Server) {
	if s.auth != nil {
		r.Post("/login", s.login)
	}

	r.Group(func(r chi.Router) {
		r.Use(api.RequireSession(s.auth))

		r.Get("/secret", s.getSecret)
		r.Put("/secret", s.putSecret)

		r.With(api.RateLimit(s.limiter, func(c string) string { return red.ClientActionKey(c, "batch") }, s.limit, time.Minute, s.log)).
			Post("/batches", s.startBatch)
		r.Get("/progress", s.progress)

		r.Get("/pages", s.listPages)
		r.Post("/pages/regenerate", s.regenerate)
		r.Post("/pages/{id}/retry", s.retryPage)
		r.Post("/pages/{id}/select", s.selectPage)
		r.Get("/pages/{id}/image", s.pageImage)

		r.Post("/export", s.exportBooklet)
		r.Post("/describe", s.describe)
	})
}
