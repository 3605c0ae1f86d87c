package main

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/dipsw/internal/netcheck"
	"github.com/JonMunkholm/dipsw/internal/store"
	"github.com/spf13/cobra"
)

func newCheckDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-db",
		Short: "Connect to the configured database and report what is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Database.ConnectTimeout*2)
			defer cancel()

			pool, err := store.Connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			models, err := store.New(pool).ListModels(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database OK, %d models stored: %v\n", len(models), models)
			return nil
		},
	}
}

func newCheckPortCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "check-port <host:port>",
		Short: "Check that a TCP endpoint accepts connections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := netcheck.CheckTCP(cmd.Context(), args[0], timeout)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "resolved %s to %s, connected in %s\n",
				res.Host, res.IP, res.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Resolve and connect timeout")
	return cmd
}
