package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nukaze/vertex-search-rag/config"
	"github.com/Nukaze/vertex-search-rag/internal/auth"
	"github.com/Nukaze/vertex-search-rag/internal/feedback"
	"github.com/Nukaze/vertex-search-rag/internal/gemini"
	"github.com/Nukaze/vertex-search-rag/internal/runtime"
	"github.com/Nukaze/vertex-search-rag/internal/search"
	srv "github.com/Nukaze/vertex-search-rag/internal/server"
	"github.com/Nukaze/vertex-search-rag/internal/vertex"
)

const serviceVersion = "dev"

func main() {
	root := &cobra.Command{Use: "ragserver"}
	root.AddCommand(serveCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCMD() *cobra.Command {
	var cfgPath string
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the search and generation HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			if addr == "" {
				addr = cfg.General.Listen
			}
			return run(cfg, addr)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return serve
}

func run(cfg *config.Config, addr string) error {
	ctx := context.Background()

	telemetry, _, _, err := runtime.SetupTelemetry(ctx, cfg.Telemetry, "ragserver", serviceVersion)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	tokens, err := auth.NewManager(cfg.GCP.ServiceAccountKey)
	if err != nil {
		return err
	}
	searchClient := vertex.NewClient(cfg.GCP.ProjectID, cfg.Vertex.Location, cfg.Vertex.EngineID, cfg.Vertex.Timeout, tokens)
	generateClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Timeout)
	dispatcher := search.NewService(searchClient, generateClient, cfg.Gemini)

	archiver, err := feedback.NewArchiver(ctx, tokens.TokenSource(ctx), cfg.Feedback.Bucket, cfg.Feedback.Prefix)
	if err != nil {
		return err
	}

	server := srv.New(cfg, telemetry.Registry, dispatcher, archiver)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(addr) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
