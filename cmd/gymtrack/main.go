package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/gymtrack/internal/companion"
	"github.com/meltforce/gymtrack/internal/config"
	"github.com/meltforce/gymtrack/internal/history"
	gymmcp "github.com/meltforce/gymtrack/internal/mcp"
	"github.com/meltforce/gymtrack/internal/server"
	"github.com/meltforce/gymtrack/internal/storage"
	"github.com/meltforce/gymtrack/internal/tracking"
	"github.com/meltforce/gymtrack/internal/workoutdata"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("GymTrack starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Data service: Postgres, or in-process memory for development
	var svc workoutdata.Service
	if cfg.Database.InMemory {
		if *migrateOnly {
			log.Info("migrate-only: in-memory database, nothing to migrate")
			return
		}
		log.Warn("using in-memory data service; data is lost on restart")
		svc = workoutdata.NewMemory()
	} else {
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("database connected")
		svc = db
	}

	// Tracking engine; events fan out on one ordered goroutine
	dispatch := tracking.NewSerialDispatcher()
	defer dispatch.Close()
	engine := tracking.NewEngine(svc, dispatch, cfg.Tracking.TickInterval, log)
	defer engine.Timer().Stop()

	// Companion bridge
	store, err := companion.OpenSQLiteStore(cfg.Companion.StateDir)
	if err != nil {
		log.Error("failed to open companion store", "dir", cfg.Companion.StateDir, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	live := companion.NewHTTPTransport(cfg.Companion.URL, cfg.Companion.Timeout)
	if cfg.Companion.URL == "" {
		log.Info("no companion url configured; pushes go to context store only")
	}
	bridge := companion.NewBridge(engine, svc, live, store, log)
	bridge.Start()
	defer bridge.Close()

	// Create server
	hist := history.NewAggregator(svc, cfg.History.PageSize, log)
	srv := server.New(svc, engine, bridge, hist, cfg.Auth.APIKey, log)
	srv.SetDevUser(cfg.Auth.DevUser)
	srv.SetContextStore(store)

	// MCP over streamable HTTP, scoped to the caller's identity
	mcpSrv := gymmcp.New(svc, engine, cfg.History.PageSize, Version, log)
	srv.MountMCP(mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return gymmcp.WithUserID(ctx, server.UserID(r.Context()))
		}),
	))

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	if snap := engine.Snapshot(); snap.Live() {
		log.Warn("workout still live at shutdown; it is not saved", "session", snap.Session.ID, "sets", len(snap.CompletedSets))
	}
	log.Info("server stopped")
}
