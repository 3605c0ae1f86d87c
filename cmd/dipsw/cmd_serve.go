package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/dipsw/internal/patches"
	"github.com/JonMunkholm/dipsw/internal/store"
	"github.com/JonMunkholm/dipsw/internal/web"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the DIP switch HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Create the dip_switches table if missing")
	return cmd
}

func runServe(ctx context.Context, migrate bool) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"require_api_key", cfg.Security.RequireAPIKey,
	)

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	st := store.New(pool)
	if migrate {
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	assembler, err := newAssembler()
	if err != nil {
		return err
	}
	slog.Info("patch rules registered", "builtin", patches.Count(), "active", len(assembler.Rules))

	server := web.NewServer(st, assembler, cfg.Server, cfg.Security)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sigCtx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.WaitForImports(shutdownCtx); err != nil {
		slog.Warn("imports did not complete in time", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}
