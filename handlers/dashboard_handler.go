package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"survivor-pool-go/cache"
	"survivor-pool-go/middleware"
	"survivor-pool-go/models"
	"survivor-pool-go/services"
)

// DashboardHandler renders the user's pools alongside the odds board
type DashboardHandler struct {
	templates       *template.Template
	poolService     *services.PoolService
	gameweekService *services.GameweekService
	oddsService     *services.OddsService
	pickLookup      services.PickLookup
	teamLookup      services.TeamLookup
	pageCache       *cache.PageCache
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(templates *template.Template, poolService *services.PoolService, gameweekService *services.GameweekService, oddsService *services.OddsService, pickLookup services.PickLookup, teamLookup services.TeamLookup, pageCache *cache.PageCache) *DashboardHandler {
	return &DashboardHandler{
		templates:       templates,
		poolService:     poolService,
		gameweekService: gameweekService,
		oddsService:     oddsService,
		pickLookup:      pickLookup,
		teamLookup:      teamLookup,
		pageCache:       pageCache,
	}
}

type dashboardData struct {
	Title        string
	User         models.User
	Error        string
	Success      string
	PickGameweek int
	OddsGameweek int
	Memberships  []services.MembershipView
	OddsRows     []models.OddsBestRow
	WinPcts      []models.TeamWinPct
	OddsStatus   models.OddsStatus
}

// Dashboard renders the landing page after login. Data lookups degrade
// individually: a failed odds or deadline query logs a warning and
// renders an empty section instead of failing the page.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctx := r.Context()
	banner := r.URL.Query().Get("error")
	success := r.URL.Query().Get("success")

	// Banner responses are per-request, only cache the plain page
	cacheKey := cache.DashboardKey(user.ID)
	if banner == "" && success == "" {
		if cached := h.pageCache.Get(ctx, cacheKey); cached != "" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(cached))
			return
		}
	}

	now := time.Now()
	gwCtx, err := h.gameweekService.ResolveContext(ctx, now)
	if err != nil {
		logger.Warnf("Gameweek context lookup failed: %v", err)
		gwCtx = &models.GameweekContext{}
	}
	pickGameweek := gwCtx.PickGameweek()
	oddsGameweek := gwCtx.OddsGameweek()

	memberships, err := h.poolService.DashboardMemberships(ctx, user.ID, pickGameweek, h.pickLookup, h.teamLookup)
	if err != nil {
		logger.Warnf("Dashboard memberships failed for user %d: %v", user.ID, err)
	}

	oddsRows, err := h.oddsService.BestOdds(ctx, oddsGameweek)
	if err != nil {
		logger.Warnf("Best odds lookup failed for GW%d: %v", oddsGameweek, err)
	}

	winPcts, err := h.oddsService.TeamWinPercentages(ctx, oddsGameweek)
	if err != nil {
		logger.Warnf("Win percentages lookup failed for GW%d: %v", oddsGameweek, err)
	}

	data := dashboardData{
		Title:        "Dashboard - PL Survivor Pool",
		User:         user.ToSafeUser(),
		Error:        banner,
		Success:      success,
		PickGameweek: pickGameweek,
		OddsGameweek: oddsGameweek,
		Memberships:  memberships,
		OddsRows:     oddsRows,
		WinPcts:      winPcts,
		OddsStatus:   h.oddsStatus(r, gwCtx, oddsGameweek, now),
	}

	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "dashboard.html", data); err != nil {
		logger.Errorf("Template dashboard.html error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if banner == "" && success == "" {
		h.pageCache.Set(ctx, cacheKey, buf.String())
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// oddsStatus assembles the "odds updating" banner state for a gameweek
func (h *DashboardHandler) oddsStatus(r *http.Request, gwCtx *models.GameweekContext, oddsGameweek int, now time.Time) models.OddsStatus {
	ctx := r.Context()

	var deadline, refreshAt *time.Time
	if row := gwCtx.DeadlineFor(oddsGameweek); row != nil {
		deadline = &row.PickDeadline
		refreshAt = &row.OddsRefreshAt
	}

	var snapshotTakenAt *time.Time
	snapshot, err := h.oddsService.LatestSnapshot(ctx, oddsGameweek)
	if err != nil {
		logger.Warnf("Snapshot lookup failed for GW%d: %v", oddsGameweek, err)
	} else if snapshot != nil {
		snapshotTakenAt = &snapshot.TakenAt
	}

	var earliestKickoff *time.Time
	if deadline == nil || refreshAt == nil {
		earliestKickoff, err = h.oddsService.EarliestKickoff(ctx, oddsGameweek)
		if err != nil {
			logger.Warnf("Earliest kickoff lookup failed for GW%d: %v", oddsGameweek, err)
		}
	}

	return services.ComputeOddsStatus(deadline, refreshAt, earliestKickoff, snapshotTakenAt, now)
}
