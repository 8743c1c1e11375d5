package api

import (
	"location-tracker-service/internal/api/handlers"
	"location-tracker-service/internal/realtime"
	"location-tracker-service/internal/services"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Dependencies struct {
	Accounts  *services.AccountService
	Locations *services.LocationService
	Tiles     *services.TileService
	Hub       *realtime.Hub
	Backend   string
	StaticDir string
	// Requests per minute per client IP on register and login; 0 disables.
	AuthRateLimit int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	health := &handlers.HealthHandler{Backend: d.Backend}
	accounts := &handlers.AccountHandler{Accounts: d.Accounts}
	locations := &handlers.LocationHandler{Locations: d.Locations}
	mapSources := &handlers.MapSourceHandler{Tiles: d.Tiles}
	auth := &handlers.Authenticator{Accounts: d.Accounts}

	r.Get("/health", health.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if d.AuthRateLimit > 0 {
				r.Use(httprate.LimitByIP(d.AuthRateLimit, time.Minute))
			}
			r.Post("/register", accounts.Register)
			r.Post("/login", accounts.Login)
		})

		r.Post("/check-user", accounts.CheckUser)
		r.Post("/location", locations.Latest)
		r.With(auth.Optional).Post("/save-location", locations.Save)
		r.Get("/locations/{phone}/track", locations.Track)

		r.Post("/convert", handlers.Convert)
		r.Post("/distance", handlers.Distance)

		r.Get("/map-sources", mapSources.List)
		r.Get("/map-sources/probe", mapSources.Probe)

		r.Group(func(r chi.Router) {
			r.Use(auth.Require)
			r.Get("/debug/locations", locations.Recent)
			r.Get("/debug/users", accounts.ListUsers)
		})
	})

	if d.Hub != nil {
		r.Get("/ws", d.Hub.ServeWS)
	}

	if d.StaticDir != "" {
		static := http.FileServer(http.Dir(d.StaticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", static))
		r.Get("/", servePage(d.StaticDir, "login.html"))
		r.Get("/login.html", servePage(d.StaticDir, "login.html"))
		r.Get("/index.html", servePage(d.StaticDir, "index.html"))
		r.Handle("/*", static)
	}

	return r
}

// servePage writes one page from dir. http.ServeFile would redirect
// "/index.html" to "/", so the file is served directly.
func servePage(dir, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()

		fi, err := f.Stat()
		if err != nil || fi.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, name, fi.ModTime(), f)
	}
}
