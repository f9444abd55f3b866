package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/shelf-go/internal/aggregate"
	"github.com/vrsandeep/shelf-go/internal/importer"
	"github.com/vrsandeep/shelf-go/internal/library"
	"github.com/vrsandeep/shelf-go/internal/models"
)

// maxImportSize limits CSV imports to 5 MB.
const maxImportSize = 5 << 20

type libraryResponse struct {
	Books  []models.MemberBook  `json:"books"`
	Items  []models.DisplayItem `json:"items,omitempty"`
	Genres []string             `json:"genres"`
}

// handleGetLibrary returns the active member's books, newest first.
// status filters by reading status; group=series adds the grouped rows.
func (s *Server) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	appCtx := getAppContext(r)
	query := r.URL.Query()

	var status models.ReadingStatus
	if raw := query.Get("status"); raw != "" {
		parsed, err := models.ParseReadingStatus(raw)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	}

	snap, err := s.store.Snapshot(appCtx.FamilyID, appCtx.MemberID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to load library")
		return
	}
	view := aggregate.BuildLibraryView(appCtx, snap, status)

	resp := libraryResponse{Books: view.Books, Genres: view.Genres}
	if resp.Books == nil {
		resp.Books = []models.MemberBook{}
	}
	if query.Get("group") == "series" {
		resp.Items = view.Items
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddToLibrary(w http.ResponseWriter, r *http.Request) {
	var desc library.BookDescriptor
	if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := s.library.AddBookToLibrary(getAppContext(r), desc)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add book to library")
		return
	}
	code := http.StatusOK
	if result.EntryCreated {
		code = http.StatusCreated
	}
	RespondWithJSON(w, code, result)
}

// handleImportLibrary reads a CSV request body and adds every row to the
// active member's library.
func (s *Server) handleImportLibrary(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	summary, err := importer.Import(getAppContext(r), s.library, r.Body)
	if err != nil {
		if errors.Is(err, library.ErrNoFamily) || errors.Is(err, library.ErrNoMember) {
			respondWithServiceError(w, err, "Import failed")
			return
		}
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, summary)
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	status, err := models.ParseReadingStatus(payload.Status)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.library.ChangeBookStatus(getAppContext(r), chi.URLParam(r, "entryID"), status); err != nil {
		respondWithServiceError(w, err, "Failed to update status")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]models.ReadingStatus{"status": status})
}

func (s *Server) handleCycleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.library.CycleBookStatus(getAppContext(r), chi.URLParam(r, "entryID"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to update status")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]models.ReadingStatus{"status": status})
}

// handleRemoveFromLibrary deletes a library entry. With
// remove_from_catalogue=true the book is deleted from the family
// catalogue as well.
func (s *Server) handleRemoveFromLibrary(w http.ResponseWriter, r *http.Request) {
	appCtx := getAppContext(r)
	entryID := chi.URLParam(r, "entryID")

	var catalogueBookID *string
	if r.URL.Query().Get("remove_from_catalogue") == "true" {
		if !appCtx.HasMember() {
			respondWithServiceError(w, library.ErrNoMember, "Failed to remove book")
			return
		}
		entry, err := s.store.GetEntry(appCtx.FamilyID, *appCtx.MemberID, entryID)
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, "Failed to load library entry")
			return
		}
		if entry == nil {
			RespondWithError(w, http.StatusNotFound, "Library entry not found")
			return
		}
		catalogueBookID = &entry.BookID
	}

	if err := s.library.RemoveBook(appCtx, entryID, catalogueBookID); err != nil {
		respondWithServiceError(w, err, "Failed to remove book")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
