package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/shelf-go/internal/aggregate"
	"github.com/vrsandeep/shelf-go/internal/models"
)

type seriesDetailResponse struct {
	Series models.SeriesWithProgress `json:"series"`
	Books  []models.SeriesBookDetail `json:"books"`
}

func (s *Server) handleListSeries(w http.ResponseWriter, r *http.Request) {
	appCtx := getAppContext(r)
	snap, err := s.store.Snapshot(appCtx.FamilyID, appCtx.MemberID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve series")
		return
	}
	RespondWithJSON(w, http.StatusOK, aggregate.ListSeriesWithProgress(appCtx, snap))
}

func (s *Server) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	var in models.SeriesInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	series, err := s.library.CreateSeries(getAppContext(r), in)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create series")
		return
	}
	RespondWithJSON(w, http.StatusCreated, series)
}

// handleGetSeries returns a series with the active member's progress and
// every catalogue book linked to it, owned or not.
func (s *Server) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	appCtx := getAppContext(r)
	seriesID := chi.URLParam(r, "seriesID")

	series, err := s.store.GetSeries(appCtx.FamilyID, seriesID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve series")
		return
	}
	if series == nil {
		RespondWithError(w, http.StatusNotFound, "Series not found")
		return
	}

	snap, err := s.store.Snapshot(appCtx.FamilyID, appCtx.MemberID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve series")
		return
	}
	RespondWithJSON(w, http.StatusOK, seriesDetailResponse{
		Series: aggregate.ComputeSeriesProgress(appCtx, *series, aggregate.BooksInSeries(snap.Books, seriesID), snap.Entries),
		Books:  aggregate.ResolveSeriesDetail(appCtx, seriesID, snap.Books, snap.Entries),
	})
}

func (s *Server) handleUpdateSeries(w http.ResponseWriter, r *http.Request) {
	var in models.SeriesInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	appCtx := getAppContext(r)
	seriesID := chi.URLParam(r, "seriesID")
	if err := s.library.EditSeries(appCtx, seriesID, in); err != nil {
		respondWithServiceError(w, err, "Failed to update series")
		return
	}

	series, err := s.store.GetSeries(appCtx.FamilyID, seriesID)
	if err != nil || series == nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve series")
		return
	}
	RespondWithJSON(w, http.StatusOK, series)
}

// handleDeleteSeries removes a series. Its books stay in the catalogue.
func (s *Server) handleDeleteSeries(w http.ResponseWriter, r *http.Request) {
	if err := s.library.DeleteSeries(getAppContext(r), chi.URLParam(r, "seriesID")); err != nil {
		respondWithServiceError(w, err, "Failed to delete series")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddSeriesToLibrary adds every book of a series to the active
// member's library. The body is optional and may set the status of the
// new entries.
func (s *Server) handleAddSeriesToLibrary(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status models.ReadingStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	appCtx := getAppContext(r)
	seriesID := chi.URLParam(r, "seriesID")
	series, err := s.store.GetSeries(appCtx.FamilyID, seriesID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve series")
		return
	}
	if series == nil {
		RespondWithError(w, http.StatusNotFound, "Series not found")
		return
	}

	result, err := s.library.AddSeriesToLibrary(appCtx, seriesID, payload.Status)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add series to library")
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetNextSeriesOrder(w http.ResponseWriter, r *http.Request) {
	books, err := s.store.ListBooksInSeries(getAppContext(r).FamilyID, chi.URLParam(r, "seriesID"))
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve series books")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]int{"next_order": aggregate.NextSeriesOrder(books)})
}

// handleListGenres returns the genres used across the family catalogue,
// most frequent first.
func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	books, err := s.store.ListBooks(getAppContext(r).FamilyID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve genres")
		return
	}
	lists := make([][]string, 0, len(books))
	for _, b := range books {
		lists = append(lists, b.Genres)
	}
	RespondWithJSON(w, http.StatusOK, aggregate.GenresByFrequency(lists))
}
