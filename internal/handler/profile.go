package handler

import (
	"net/http"

	"github.com/habitmate/habitmate/internal/ctxkeys"
	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/service"
	"github.com/habitmate/habitmate/internal/stats"
)

type ProfileHandler struct {
	profileService  *service.ProfileService
	progressService *service.ProgressService
}

func NewProfileHandler(profileService *service.ProfileService, progressService *service.ProgressService) *ProfileHandler {
	return &ProfileHandler{
		profileService:  profileService,
		progressService: progressService,
	}
}

type profileResponse struct {
	User    *model.User    `json:"user"`
	Profile *model.Profile `json:"profile"`
	Summary *stats.Summary `json:"summary"`
}

// Show returns the account, the profile and the lifetime statistics with badges.
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	writeJSON(w, http.StatusOK, profileResponse{
		User:    user,
		Profile: ctxkeys.Profile(r.Context()),
		Summary: h.progressService.Summary(r.Context(), user.ID),
	})
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var update service.ProfileUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	profile, err := h.profileService.UpdateDetails(r.Context(), ctxkeys.OwnerID(r.Context()), update)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
