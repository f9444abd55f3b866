// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vrsandeep/shelf-go/internal/core"
	"github.com/vrsandeep/shelf-go/internal/covers"
	"github.com/vrsandeep/shelf-go/internal/library"
	"github.com/vrsandeep/shelf-go/internal/store"
)

// Server holds the dependencies for our API.
type Server struct {
	app     *core.App
	db      *sql.DB
	store   *store.Store
	covers  *covers.Store
	library *library.Service
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	st := store.New(app.DB())
	coverStore := covers.NewStore(app.Config().Covers.Path)
	return &Server{
		app:     app,
		db:      app.DB(),
		store:   st,
		covers:  coverStore,
		library: library.NewStoreService(st, app.WsHub(), coverStore),
	}
}

// App returns the application the server was built on.
func (s *Server) App() *core.App {
	return s.app
}

// Store returns the store instance.
func (s *Server) Store() *store.Store {
	return s.store
}

// Library returns the library service the handlers write through.
func (s *Server) Library() *library.Service {
	return s.library
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.ClientVersionMiddleware)

	r.Post("/api/users/login", s.handleLogin)
	r.Get("/api/version", s.handleGetVersion)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.Ping(); err != nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
			return
		}
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.AuthMiddleware)

		r.Post("/api/users/logout", s.handleLogout)
		r.Get("/api/users/me", s.handleGetMe)

		// Change feed for the user's family
		r.Get("/ws/changes", func(w http.ResponseWriter, r *http.Request) {
			s.app.WsHub().ServeWs(w, r, getUserFromContext(r).FamilyID)
		})

		// Covers are only served to members of the owning family.
		r.Get(covers.URLPrefix+"{familyID}/{file}", s.handleGetCover)

		r.Route("/api", func(r chi.Router) {
			r.Use(s.MemberMiddleware)

			r.Get("/members", s.handleListMembers)
			r.Post("/members", s.handleCreateMember)
			r.Delete("/members/{memberID}", s.handleDeleteMember)

			// Catalogue Routes
			r.Get("/books", s.handleListBooks)
			r.Post("/books", s.handleCreateBook)
			r.Get("/books/{bookID}", s.handleGetBook)
			r.Patch("/books/{bookID}", s.handleUpdateBook)
			r.Delete("/books/{bookID}", s.handleDeleteBook)
			r.Post("/books/{bookID}/cover", s.handleUploadCover)

			// Member Library Routes
			r.Get("/library", s.handleGetLibrary)
			r.Post("/library", s.handleAddToLibrary)
			r.Post("/library/import", s.handleImportLibrary)
			r.Put("/library/{entryID}/status", s.handleChangeStatus)
			r.Post("/library/{entryID}/cycle", s.handleCycleStatus)
			r.Delete("/library/{entryID}", s.handleRemoveFromLibrary)

			// Series Routes
			r.Get("/series", s.handleListSeries)
			r.Post("/series", s.handleCreateSeries)
			r.Get("/series/{seriesID}", s.handleGetSeries)
			r.Put("/series/{seriesID}", s.handleUpdateSeries)
			r.Delete("/series/{seriesID}", s.handleDeleteSeries)
			r.Post("/series/{seriesID}/library", s.handleAddSeriesToLibrary)
			r.Get("/series/{seriesID}/next-order", s.handleGetNextSeriesOrder)

			r.Get("/genres", s.handleListGenres)

			// Admin Routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(s.AdminOnlyMiddleware)

				r.Get("/jobs/status", s.handleGetAdminJobsStatus)
				r.Post("/jobs/run", s.handleRunAdminJob)

				r.Get("/users", s.handleAdminListUsers)
				r.Post("/users", s.handleAdminCreateUser)
				r.Delete("/users/{userID}", s.handleAdminDeleteUser)
			})
		})
	})

	return r
}
