package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"survivor-pool-go/middleware"
	"survivor-pool-go/models"
	"survivor-pool-go/services"
)

// PickHandler handles pick submissions
type PickHandler struct {
	pickService     *services.PickService
	gameweekService *services.GameweekService
}

// NewPickHandler creates a new pick handler
func NewPickHandler(pickService *services.PickService, gameweekService *services.GameweekService) *PickHandler {
	return &PickHandler{
		pickService:     pickService,
		gameweekService: gameweekService,
	}
}

// SubmitPick handles the pick form submission. The gameweek comes from
// the schedule resolver, not the form, so a stale page cannot submit
// into a closed week.
func (h *PickHandler) SubmitPick(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	poolID := mux.Vars(r)["id"]
	ctx := r.Context()

	teamID, err := strconv.Atoi(r.FormValue("team_id"))
	if err != nil {
		redirectWithError(w, r, "/pool/"+poolID, "Select a valid team.")
		return
	}

	gwCtx, err := h.gameweekService.ResolveContext(ctx, time.Now())
	if err != nil {
		logger.Errorf("Gameweek context lookup failed: %v", err)
		gwCtx = &models.GameweekContext{}
	}

	message, err := h.pickService.SubmitPick(ctx, user, poolID, teamID, gwCtx.PickGameweek())
	if err != nil {
		redirectServiceError(w, r, "/pool/"+poolID, err, "We could not save your pick. Please try again.")
		return
	}

	redirectWithSuccess(w, r, "/pool/"+poolID, message)
}
