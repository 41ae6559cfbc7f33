package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ladlehq/ladle/app/api"
	"github.com/ladlehq/ladle/app/cfg"
	"github.com/ladlehq/ladle/app/config"
	"github.com/ladlehq/ladle/app/database"
	"github.com/ladlehq/ladle/app/importer"
	"github.com/ladlehq/ladle/app/recipes"
	"github.com/ladlehq/ladle/app/remote"
	"github.com/ladlehq/ladle/app/segmenter"
	syncengine "github.com/ladlehq/ladle/app/sync"
)

const databaseFileName = "ladle.db"

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Ladle", "version", appCfg.Version, "data_dir", appCfg.DataDir)

	db, err := database.NewConnection(filepath.Join(appCfg.DataDir, databaseFileName))
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	recipeRepo := database.NewRecipeRepository(db)
	ingredientRepo := database.NewIngredientRepository(db)
	scheduleRepo := database.NewScheduleRepository(db)
	queueRepo := database.NewSyncQueueRepository(db)
	metaRepo := database.NewSyncMetaRepository(db)

	// A missing profile is the local-only mode, not an error.
	profile, err := config.LoadProfile(config.ProfilePath(appCfg.DataDir))
	if err != nil {
		slog.Error("Failed to load sync profile", "error", err)
		os.Exit(1)
	}

	var remoteClient *remote.Client
	var engineClient syncengine.RemoteClient
	if profile != nil {
		remoteClient = remote.NewClient(remote.Session{
			RemoteURL:   profile.RemoteURL,
			HouseholdID: profile.HouseholdID,
			AccessToken: profile.AccessToken,
			DeviceID:    profile.DeviceID,
		}, appCfg.UserAgent)
		engineClient = remoteClient
		slog.Info("Sync profile loaded", "household", profile.HouseholdName, "remote_url", profile.RemoteURL)
	}

	engine := syncengine.NewEngine(engineClient, recipeRepo, scheduleRepo, queueRepo, metaRepo,
		time.Duration(appCfg.SyncInterval)*time.Second, appCfg.SyncMaxRetries)
	engine.Start()
	defer engine.Stop()

	recipeService := recipes.NewService(recipeRepo, ingredientRepo, scheduleRepo, engine)
	importService := importer.NewService(recipeRepo, ingredientRepo, scheduleRepo)
	seg := segmenter.NewSegmenter()

	remoteURL := appCfg.RemoteURL
	if profile != nil {
		remoteURL = profile.RemoteURL
	}

	handler := api.NewHandler(recipeService, importService, seg, engine, remoteClient,
		recipeRepo, scheduleRepo, appCfg.DataDir, remoteURL, appCfg.UserAgent)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Sync engine is stopped via defer, after the HTTP surface is gone.
	slog.Info("Shutdown complete")
}
