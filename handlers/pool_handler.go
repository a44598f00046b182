package handlers

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"survivor-pool-go/cache"
	"survivor-pool-go/middleware"
	"survivor-pool-go/models"
	"survivor-pool-go/services"
)

// PoolHandler handles pool pages and member management
type PoolHandler struct {
	templates       *template.Template
	poolService     *services.PoolService
	pickService     *services.PickService
	gameweekService *services.GameweekService
	teamRepo        services.TeamRepository
	pageCache       *cache.PageCache
}

// NewPoolHandler creates a new pool handler
func NewPoolHandler(templates *template.Template, poolService *services.PoolService, pickService *services.PickService, gameweekService *services.GameweekService, teamRepo services.TeamRepository, pageCache *cache.PageCache) *PoolHandler {
	return &PoolHandler{
		templates:       templates,
		poolService:     poolService,
		pickService:     pickService,
		gameweekService: gameweekService,
		teamRepo:        teamRepo,
		pageCache:       pageCache,
	}
}

// CreatePoolPage displays the create-pool form
func (h *PoolHandler) CreatePoolPage(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Title string
		User  models.User
		Error string
	}{
		Title: "Create Pool - PL Survivor Pool",
		User:  middleware.GetUserFromContext(r).ToSafeUser(),
		Error: r.URL.Query().Get("error"),
	}
	renderTemplate(w, h.templates, "pool_create.html", data)
}

// CreatePool handles the create-pool form submission
func (h *PoolHandler) CreatePool(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)

	lives, err := strconv.Atoi(r.FormValue("lives"))
	if err != nil {
		redirectWithError(w, r, "/pool/create", "Lives must be between 1 and 3.")
		return
	}

	pool, err := h.poolService.CreatePool(r.Context(), user, r.FormValue("name"), lives, r.FormValue("entry_fee"))
	if err != nil {
		redirectServiceError(w, r, "/pool/create", err, "We could not create the pool right now. Please try again.")
		return
	}

	logger.Infof("User %d created pool %s (%s)", user.ID, pool.ID.Hex(), pool.Code)
	redirectWithSuccess(w, r, "/pool/"+pool.ID.Hex(), "Pool created. Share code "+pool.Code+" to invite players.")
}

// JoinPoolPage displays the join-pool form
func (h *PoolHandler) JoinPoolPage(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Title string
		User  models.User
		Error string
	}{
		Title: "Join Pool - PL Survivor Pool",
		User:  middleware.GetUserFromContext(r).ToSafeUser(),
		Error: r.URL.Query().Get("error"),
	}
	renderTemplate(w, h.templates, "pool_join.html", data)
}

// JoinPool handles the join-pool form submission
func (h *PoolHandler) JoinPool(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)

	pool, err := h.poolService.JoinPool(r.Context(), user, r.FormValue("code"))
	if err != nil {
		redirectServiceError(w, r, "/pool/join", err, "We could not join the pool right now. Please try again.")
		return
	}

	logger.Infof("User %d joined pool %s", user.ID, pool.ID.Hex())
	redirectWithSuccess(w, r, "/pool/"+pool.ID.Hex(), "Welcome to "+pool.Name+"!")
}

type poolPageData struct {
	Title        string
	User         models.User
	Error        string
	Success      string
	Pool         *models.Pool
	Membership   *models.PoolMember
	Members      []models.PoolMember
	IsOwner      bool
	PrizePot     *decimal.Decimal
	PickGameweek int
	CurrentPick  *models.Pick
	PickHistory  []models.Pick
	Teams        []models.Team
	UsedTeamIDs  map[int]bool
}

// PoolPage renders the pool detail page: the member leaderboard, the
// viewer's pick form for the open gameweek, and their pick history
func (h *PoolHandler) PoolPage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	poolID := mux.Vars(r)["id"]
	ctx := r.Context()

	banner := r.URL.Query().Get("error")
	success := r.URL.Query().Get("success")

	cacheKey := cache.PoolKey(poolID, user.ID)
	if banner == "" && success == "" {
		if cached := h.pageCache.Get(ctx, cacheKey); cached != "" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(cached))
			return
		}
	}

	detail, err := h.poolService.GetPoolDetail(ctx, user, poolID)
	if err != nil {
		redirectServiceError(w, r, "/dashboard", err, "Unable to load pool details.")
		return
	}

	gwCtx, err := h.gameweekService.ResolveContext(ctx, time.Now())
	if err != nil {
		logger.Warnf("Gameweek context lookup failed: %v", err)
		gwCtx = &models.GameweekContext{}
	}
	pickGameweek := gwCtx.PickGameweek()

	currentPick, err := h.pickService.CurrentPick(ctx, poolID, user.ID, pickGameweek)
	if err != nil {
		logger.Warnf("Current pick lookup failed for pool %s: %v", poolID, err)
	}

	history, err := h.pickService.PickHistory(ctx, poolID, user.ID)
	if err != nil {
		logger.Warnf("Pick history lookup failed for pool %s: %v", poolID, err)
	}

	used, err := h.pickService.UsedTeamIDs(ctx, poolID, user.ID, pickGameweek)
	if err != nil {
		logger.Warnf("Used teams lookup failed for pool %s: %v", poolID, err)
	}

	teams, err := h.teamRepo.GetAll(ctx)
	if err != nil {
		logger.Warnf("Team list lookup failed: %v", err)
	}

	data := poolPageData{
		Title:        detail.Pool.Name + " - PL Survivor Pool",
		User:         user.ToSafeUser(),
		Error:        banner,
		Success:      success,
		Pool:         detail.Pool,
		Membership:   detail.Membership,
		Members:      detail.Members,
		IsOwner:      detail.IsOwner,
		PrizePot:     detail.PrizePot,
		PickGameweek: pickGameweek,
		CurrentPick:  currentPick,
		PickHistory:  history,
		Teams:        teams,
		UsedTeamIDs:  used,
	}

	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "pool.html", data); err != nil {
		logger.Errorf("Template pool.html error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if banner == "" && success == "" {
		h.pageCache.Set(ctx, cacheKey, buf.String())
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// RemoveMember handles the owner's remove-member form submission
func (h *PoolHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	poolID := mux.Vars(r)["id"]

	err := h.poolService.RemoveMember(r.Context(), user, poolID, r.FormValue("membership_id"))
	if err != nil {
		redirectServiceError(w, r, "/pool/"+poolID, err, "Unable to remove that member right now.")
		return
	}

	redirectWithSuccess(w, r, "/pool/"+poolID, "Member removed.")
}

// ShareMessage returns the invite text for a pool as JSON, consumed by
// the share button
func (h *PoolHandler) ShareMessage(w http.ResponseWriter, r *http.Request) {
	poolID := mux.Vars(r)["id"]

	message, err := h.poolService.ShareMessage(r.Context(), poolID)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		fallback := "Unable to load pool details. Copy the code manually."
		if userMessage, ok := services.UserMessage(err); ok {
			fallback = userMessage
		} else {
			logger.Errorf("Share message failed for pool %s: %v", poolID, err)
		}
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": fallback})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "message": message})
}
