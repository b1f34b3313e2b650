package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	gymmcp "github.com/meltforce/gymtrack/internal/mcp"
	"github.com/meltforce/gymtrack/internal/workoutdata"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "GymTrack server URL (e.g. https://gymtrack.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("GYMTRACK_AUTH_API_KEY"), "data service API key")
	user := flag.String("user", "", "login whose data the tools read")
	pageSize := flag.Int("page-size", 50, "log page size when merging history")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("gymtrack-mcp", Version)
		return
	}

	// stdout carries the protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" || *user == "" {
		fmt.Fprintf(os.Stderr, "Usage: gymtrack-mcp -server <URL> -user <login> [-api-key KEY]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	client := workoutdata.NewHTTPClient(*serverURL, *apiKey)
	s := gymmcp.New(client, nil, *pageSize, Version, log)

	log.Info("gymtrack-mcp serving stdio", "server", *serverURL, "user", *user)
	err := mcpserver.ServeStdio(s, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return gymmcp.WithUserID(ctx, *user)
	}))
	if err != nil {
		log.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}
