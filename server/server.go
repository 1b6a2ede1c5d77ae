// Package server exposes the trained price model over HTTP: a small form
// UI for humans and a JSON endpoint for programs.
package server

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pricelab/go-book-pipeline/config"
	"github.com/pricelab/go-book-pipeline/ml"
	"github.com/pricelab/go-book-pipeline/models"
)

//go:embed templates/*.html
var templates embed.FS

// Server holds the handler dependencies.
type Server struct {
	cfg      *config.Config
	model    *ml.Artifact
	books    []*models.Book
	router   *chi.Mux
	validate *validator.Validate
	metrics  *Metrics
	tmpl     *template.Template
}

// New wires routes, middleware and templates around a loaded model. books
// backs the dataset explorer page and may be nil when no dataset was given.
func New(cfg *config.Config, model *ml.Artifact, books []*models.Book) (*Server, error) {
	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		model:    model,
		books:    books,
		router:   chi.NewRouter(),
		validate: newValidator(),
		metrics:  NewServerMetrics(),
		tmpl:     tmpl,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/", s.handleIndex)
	s.router.Post("/predict", s.handlePredict)
	s.router.Get("/data", s.handleData)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}).ServeHTTP)

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// newValidator reports field names from json tags so validation errors
// match the wire format.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		for i := 0; i < len(name); i++ {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})
	return v
}
