package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"nullid/internal/domain"
	"nullid/internal/http-server/handler/items"
	"nullid/internal/http-server/handler/object"
	"nullid/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type tokenParser interface {
	Parse(token string) (domain.Principal, error)
}

type Handler struct {
	ObjectHandler *object.ObjectHandler
	ItemsHandler  *items.ItemsHandler
	Tokens        tokenParser
	Metrics       http.Handler
	CORS          cors.Options
	StaticDir     string
	TemplatesDir  string
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RecoveryMiddleware)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/static/") {
				middleware.LoggingMiddleware(next).ServeHTTP(w, r)
			} else {
				next.ServeHTTP(w, r)
			}
		})
	})
	r.Use(cors.Handler(h.CORS))

	if h.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(h.StaticDir))))
	}

	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(h.Tokens))

			r.Get("/objects", h.ObjectHandler.ListObjects)
			r.Put("/objects/*", h.ObjectHandler.PutObject)
			r.Get("/objects/*", h.ObjectHandler.GetObject)
			r.Post("/uploads", h.ObjectHandler.UploadFile)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.Tokens))
		r.Use(middleware.RequireAuthenticated)

		r.Get("/items", h.ItemsHandler.Invoke)
		r.Post("/items", h.ItemsHandler.Invoke)
		r.Put("/items", h.ItemsHandler.Invoke)
		r.Delete("/items", h.ItemsHandler.Invoke)
		r.HandleFunc("/items/*", h.ItemsHandler.Invoke)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		serveHTML(w, r, h.TemplatesDir)
	})

	return r
}

func serveHTML(w http.ResponseWriter, r *http.Request, templatesDir string) {
	indexPath := filepath.Join(templatesDir, "index.html")

	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		http.Error(w, "HTML template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, indexPath)
}
