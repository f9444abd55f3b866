// Helpers for sending standardized JSON responses.

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/vrsandeep/shelf-go/internal/library"
)

// RespondWithJSON writes a JSON response with the given status code and payload.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to marshal response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithError writes a standardized JSON error response.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps an error returned by the library service
// to a status code. Unexpected errors are logged and reported as 500
// with the fallback message.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	var bulkErr *library.BulkError
	switch {
	case errors.Is(err, library.ErrNoFamily), errors.Is(err, library.ErrNoMember), errors.Is(err, library.ErrInvalid):
		RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, library.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, "Not found")
	case errors.As(err, &bulkErr):
		log.Printf("%s: %v", fallback, err)
		RespondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   fallback,
			"added":   bulkErr.Result.Added,
			"skipped": bulkErr.Result.Skipped,
		})
	default:
		log.Printf("%s: %v", fallback, err)
		RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
