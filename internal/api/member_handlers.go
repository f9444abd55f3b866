package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/shelf-go/internal/models"
)

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.store.ListMembers(getAppContext(r).FamilyID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve members")
		return
	}
	if members == nil {
		members = []*models.Member{}
	}
	RespondWithJSON(w, http.StatusOK, members)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		RespondWithError(w, http.StatusBadRequest, "Member name is required")
		return
	}

	appCtx := getAppContext(r)
	member, err := s.store.CreateMember(appCtx.FamilyID, payload.Name)
	if err != nil {
		RespondWithError(w, http.StatusConflict, err.Error())
		return
	}
	s.app.WsHub().Publish(models.ChangeEvent{
		Collection: models.CollectionMembers, Op: "create", FamilyID: appCtx.FamilyID, ID: member.ID,
	})
	RespondWithJSON(w, http.StatusCreated, member)
}

// handleDeleteMember removes a member profile together with its library.
func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	appCtx := getAppContext(r)
	memberID := chi.URLParam(r, "memberID")
	if err := s.store.DeleteMember(appCtx.FamilyID, memberID); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to delete member")
		return
	}
	s.app.WsHub().Publish(models.ChangeEvent{
		Collection: models.CollectionMembers, Op: "delete", FamilyID: appCtx.FamilyID, ID: memberID,
	})
	w.WriteHeader(http.StatusNoContent)
}
