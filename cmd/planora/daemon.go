package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fentz26/planora/internal/api"
	"github.com/fentz26/planora/internal/audit"
	"github.com/fentz26/planora/internal/llm"
	"github.com/fentz26/planora/internal/probe"
	"github.com/fentz26/planora/internal/selector"
	"github.com/fentz26/planora/internal/store"
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the Planora daemon",
	Long:  `Start the Planora daemon, which serves the HTTP API, generates plans and persists them to SQLite.`,
	RunE:  runDaemon,
}

var (
	daemonListen string
	daemonDB     string
)

func init() {
	daemonCmd.Flags().StringVar(&daemonListen, "listen", "127.0.0.1:7467", "address for the API server to listen on")
	daemonCmd.Flags().StringVar(&daemonDB, "db", "", "path to the SQLite database (defaults to ~/.planora/planora.db)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	dbPath := daemonDB
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".planora", "planora.db")
	}

	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	log.Printf("Using database: %s", dbPath)

	cfg, err := llm.LoadConfigFromHome()
	if err != nil {
		log.Printf("Warning: failed to load LLM config: %v (using defaults)", err)
		cfg = llm.DefaultConfig()
	}

	sel := selector.New(cfg)
	sel.Sink = audit.NewRecorder(st)

	// The prober shares the selector's provider clients so availability
	// reflects the same endpoints generation will hit.
	prober := probe.New([]llm.Provider{sel.Local, sel.Hosted}, cfg.Probe)
	prober.Start()
	defer prober.Stop()

	service := api.NewService(st, sel)
	server := api.NewServer(service, st, prober, daemonListen)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}

	return nil
}
