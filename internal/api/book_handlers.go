package api

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/shelf-go/internal/aggregate"
	"github.com/vrsandeep/shelf-go/internal/library"
	"github.com/vrsandeep/shelf-go/internal/models"
)

// maxCoverUploadSize limits cover uploads to 10 MB.
const maxCoverUploadSize = 10 << 20

// handleListBooks returns the family catalogue, newest first. The optional
// genre query parameter keeps books tagged with that genre.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.store.ListBooks(getAppContext(r).FamilyID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve books")
		return
	}

	if genre := aggregate.NormalizeGenre(r.URL.Query().Get("genre")); genre != "" {
		var tagged []models.CatalogueBook
		for _, b := range books {
			for _, g := range b.Genres {
				if aggregate.NormalizeGenre(g) == genre {
					tagged = append(tagged, b)
					break
				}
			}
		}
		books = tagged
	}
	if books == nil {
		books = []models.CatalogueBook{}
	}
	RespondWithJSON(w, http.StatusOK, books)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var desc library.BookDescriptor
	if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	book, created, err := s.library.AddBookToCatalogue(getAppContext(r), desc)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add book")
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	RespondWithJSON(w, code, book)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.store.GetBook(getAppContext(r).FamilyID, chi.URLParam(r, "bookID"))
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve book")
		return
	}
	if book == nil {
		RespondWithError(w, http.StatusNotFound, "Book not found")
		return
	}
	RespondWithJSON(w, http.StatusOK, book)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	var upd models.BookUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	appCtx := getAppContext(r)
	bookID := chi.URLParam(r, "bookID")
	if err := s.library.UpdateBook(appCtx, bookID, upd); err != nil {
		respondWithServiceError(w, err, "Failed to update book")
		return
	}
	s.handleGetBook(w, r)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := s.library.DeleteCatalogueBook(getAppContext(r), chi.URLParam(r, "bookID")); err != nil {
		respondWithServiceError(w, err, "Failed to delete book")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadCover stores a resized copy of the uploaded image and points
// the book's cover URL at it.
func (s *Server) handleUploadCover(w http.ResponseWriter, r *http.Request) {
	appCtx := getAppContext(r)
	bookID := chi.URLParam(r, "bookID")

	book, err := s.store.GetBook(appCtx.FamilyID, bookID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve book")
		return
	}
	if book == nil {
		RespondWithError(w, http.StatusNotFound, "Book not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCoverUploadSize)
	if err := r.ParseMultipartForm(maxCoverUploadSize); err != nil {
		RespondWithError(w, http.StatusBadRequest, "File is too large or invalid")
		return
	}
	file, _, err := r.FormFile("cover")
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Missing cover file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Failed to read cover file")
		return
	}

	coverURL, err := s.covers.Save(appCtx.FamilyID, bookID, data)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Unsupported image: "+err.Error())
		return
	}
	if err := s.library.UpdateBook(appCtx, bookID, models.BookUpdate{CoverURL: &coverURL}); err != nil {
		respondWithServiceError(w, err, "Failed to update book")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"cover_url": coverURL})
}

// handleGetCover serves a stored cover to members of the owning family.
func (s *Server) handleGetCover(w http.ResponseWriter, r *http.Request) {
	familyID := chi.URLParam(r, "familyID")
	if user := getUserFromContext(r); user == nil || user.FamilyID != familyID {
		http.NotFound(w, r)
		return
	}

	file := chi.URLParam(r, "file")
	if filepath.Ext(file) != ".jpg" {
		http.NotFound(w, r)
		return
	}
	p, err := s.covers.Path(familyID, strings.TrimSuffix(file, ".jpg"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, p)
}
