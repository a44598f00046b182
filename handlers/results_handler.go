package handlers

import (
	"html/template"
	"net/http"
	"strconv"
	"time"

	"survivor-pool-go/middleware"
	"survivor-pool-go/models"
	"survivor-pool-go/services"
)

// ResultsHandler handles the gameweek result entry page. Results drive
// the elimination pass, so the page is restricted to signed-in users
// and meant for whoever administers the season.
type ResultsHandler struct {
	templates       *template.Template
	resultService   *services.ResultService
	gameweekService *services.GameweekService
	teamRepo        services.TeamRepository
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(templates *template.Template, resultService *services.ResultService, gameweekService *services.GameweekService, teamRepo services.TeamRepository) *ResultsHandler {
	return &ResultsHandler{
		templates:       templates,
		resultService:   resultService,
		gameweekService: gameweekService,
		teamRepo:        teamRepo,
	}
}

type resultsPageData struct {
	Title    string
	User     models.User
	Error    string
	Success  string
	Gameweek int
	Teams    []models.Team
	Existing map[int]models.MatchResult
}

// ResultsPage renders the result entry form for a gameweek. Defaults
// to the most recently closed gameweek; ?gameweek= overrides.
func (h *ResultsHandler) ResultsPage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	ctx := r.Context()

	gameweek := 0
	if raw := r.URL.Query().Get("gameweek"); raw != "" {
		gameweek, _ = strconv.Atoi(raw)
	}
	if gameweek < 1 {
		gwCtx, err := h.gameweekService.ResolveContext(ctx, time.Now())
		if err != nil {
			logger.Warnf("Gameweek context lookup failed: %v", err)
			gwCtx = &models.GameweekContext{}
		}
		gameweek = gwCtx.OddsGameweek()
	}

	teams, err := h.teamRepo.GetAll(ctx)
	if err != nil {
		logger.Errorf("Team list lookup failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	existing := make(map[int]models.MatchResult)
	stored, err := h.resultService.ResultsForGameweek(ctx, gameweek)
	if err != nil {
		logger.Warnf("Results lookup failed for GW%d: %v", gameweek, err)
	}
	for _, result := range stored {
		existing[result.TeamID] = result.Result
	}

	data := resultsPageData{
		Title:    "Enter Results - PL Survivor Pool",
		User:     user.ToSafeUser(),
		Error:    r.URL.Query().Get("error"),
		Success:  r.URL.Query().Get("success"),
		Gameweek: gameweek,
		Teams:    teams,
		Existing: existing,
	}
	renderTemplate(w, h.templates, "results.html", data)
}

// SaveResults handles the result entry form submission. Each team's
// select is named result_<teamID>; blanks are skipped.
func (h *ResultsHandler) SaveResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	gameweek, err := strconv.Atoi(r.FormValue("gameweek"))
	if err != nil || gameweek < 1 {
		redirectWithError(w, r, "/results", "Gameweek must be positive.")
		return
	}
	redirectPath := "/results?gameweek=" + strconv.Itoa(gameweek)

	teams, err := h.teamRepo.GetAll(ctx)
	if err != nil {
		logger.Errorf("Team list lookup failed: %v", err)
		redirectWithError(w, r, redirectPath, "We could not save the results right now. Please try again.")
		return
	}

	entries := make([]models.TeamResult, 0, len(teams))
	for _, team := range teams {
		value := r.FormValue("result_" + strconv.Itoa(team.ID))
		if value == "" {
			continue
		}
		entries = append(entries, models.TeamResult{
			Gameweek: gameweek,
			TeamID:   team.ID,
			Result:   models.MatchResult(value),
		})
	}

	if err := h.resultService.SaveResults(ctx, gameweek, entries); err != nil {
		redirectServiceError(w, r, redirectPath, err, "We could not save the results right now. Please try again.")
		return
	}

	redirectWithSuccess(w, r, redirectPath, "Results saved and standings updated.")
}
