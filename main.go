package main

import (
	"context"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"survivor-pool-go/cache"
	"survivor-pool-go/config"
	"survivor-pool-go/database"
	"survivor-pool-go/handlers"
	"survivor-pool-go/logging"
	"survivor-pool-go/metrics"
	"survivor-pool-go/middleware"
	"survivor-pool-go/services"
	"survivor-pool-go/templates"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Configuration error: %v", err)
	}

	logging.Configure(logging.Config{
		Level:       cfg.Logging.Level,
		Output:      os.Stdout,
		Prefix:      cfg.Logging.Prefix,
		EnableColor: cfg.Logging.EnableColor,
	})
	cfg.LogConfiguration()

	db, err := database.NewMongoConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
	})
	if err != nil {
		logging.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.TestConnection(); err != nil {
		logging.Warnf("Database test failed: %v", err)
	}

	// Page cache is optional; a nil cache disables it
	var pageCache *cache.PageCache
	if cfg.Cache.Enabled {
		pageCache, err = cache.Connect(cfg.Cache.Addr, cfg.Cache.TTL)
		if err != nil {
			logging.Warnf("Redis connection failed, continuing without page cache: %v", err)
			pageCache = nil
		} else {
			defer pageCache.Close()
		}
	}

	// Repositories
	userRepo := database.NewMongoUserRepository(db)
	poolRepo := database.NewMongoPoolRepository(db)
	memberRepo := database.NewMongoMemberRepository(db)
	pickRepo := database.NewMongoPickRepository(db)
	teamRepo := database.NewMongoTeamRepository(db)
	gameweekRepo := database.NewMongoGameweekRepository(db)
	oddsRepo := database.NewMongoOddsRepository(db)
	resultRepo := database.NewMongoResultRepository(db)

	// Seed reference data
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := services.NewTeamSeeder(teamRepo).SeedTeams(seedCtx); err != nil {
		logging.Warnf("Team seeding failed: %v", err)
	}
	cancelSeed()

	// Services
	authService := services.NewAuthService(userRepo, cfg.Auth.JWTSecret)
	poolService := services.NewPoolService(poolRepo, memberRepo, userRepo, pageCache, cfg.App.AppURL)
	pickService := services.NewPickService(pickRepo, memberRepo, teamRepo, pageCache)
	gameweekService := services.NewGameweekService(gameweekRepo)
	oddsFeed := services.NewOddsFeedClient(cfg.Odds)
	oddsService := services.NewOddsService(oddsFeed, oddsRepo, gameweekService, cfg.BookmakerList())
	resultService := services.NewResultService(resultRepo, poolRepo, memberRepo, pickRepo, pageCache)

	// Templates
	tmpl, err := template.New("").Funcs(templates.GetTemplateFuncs()).ParseGlob("templates/*.html")
	if err != nil {
		logging.Fatalf("Error parsing templates: %v", err)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(tmpl, authService)
	dashboardHandler := handlers.NewDashboardHandler(tmpl, poolService, gameweekService, oddsService, pickRepo, teamRepo, pageCache)
	poolHandler := handlers.NewPoolHandler(tmpl, poolService, pickService, gameweekService, teamRepo, pageCache)
	pickHandler := handlers.NewPickHandler(pickService, gameweekService)
	resultsHandler := handlers.NewResultsHandler(tmpl, resultService, gameweekService, teamRepo)

	authMiddleware := middleware.NewAuthMiddleware(authService)

	// Routes
	r := mux.NewRouter()
	r.Use(middleware.SecurityMiddleware)

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir("static/"))))

	r.Handle("/", authMiddleware.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if middleware.IsAuthenticated(req) {
			http.Redirect(w, req, "/dashboard", http.StatusSeeOther)
			return
		}
		http.Redirect(w, req, "/login", http.StatusSeeOther)
	}))).Methods("GET")

	r.Handle("/login", authMiddleware.OptionalAuth(http.HandlerFunc(authHandler.LoginPage))).Methods("GET")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.Handle("/register", authMiddleware.OptionalAuth(http.HandlerFunc(authHandler.RegisterPage))).Methods("GET")
	r.HandleFunc("/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/logout", authHandler.Logout).Methods("GET")

	protected := r.NewRoute().Subrouter()
	protected.Use(authMiddleware.RequireAuth)
	protected.HandleFunc("/dashboard", dashboardHandler.Dashboard).Methods("GET")
	protected.HandleFunc("/pool/create", poolHandler.CreatePoolPage).Methods("GET")
	protected.HandleFunc("/pool/create", poolHandler.CreatePool).Methods("POST")
	protected.HandleFunc("/pool/join", poolHandler.JoinPoolPage).Methods("GET")
	protected.HandleFunc("/pool/join", poolHandler.JoinPool).Methods("POST")
	protected.HandleFunc("/pool/{id}", poolHandler.PoolPage).Methods("GET")
	protected.HandleFunc("/pool/{id}/pick", pickHandler.SubmitPick).Methods("POST")
	protected.HandleFunc("/pool/{id}/members/remove", poolHandler.RemoveMember).Methods("POST")
	protected.HandleFunc("/pool/{id}/share", poolHandler.ShareMessage).Methods("GET")
	protected.HandleFunc("/results", resultsHandler.ResultsPage).Methods("GET")
	protected.HandleFunc("/results", resultsHandler.SaveResults).Methods("POST")
	protected.HandleFunc("/api/me", authHandler.Me).Methods("GET")

	// Metrics and health on a separate port
	metricsServer := metrics.StartServer(cfg.App.MetricsPort, func(ctx context.Context) error {
		return db.TestConnection()
	})

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Infof("Server starting on %s", cfg.GetServerAddress())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logging.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Errorf("Server shutdown error: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Errorf("Metrics server shutdown error: %v", err)
	}
	logging.Info("Server stopped")
}
