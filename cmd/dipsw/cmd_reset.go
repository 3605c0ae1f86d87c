package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/dipsw/internal/store"
	"github.com/spf13/cobra"
)

var errNotConfirmed = errors.New("refusing to delete without --yes")

type resetOptions struct {
	model string
	all   bool
	yes   bool
}

func newResetCmd() *cobra.Command {
	var opts resetOptions
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete stored records of one model or of every model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			return withStore(cmd.Context(), func(ctx context.Context, st *store.Store) error {
				if opts.all {
					if err := st.ResetAll(ctx); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "all models deleted")
					return nil
				}
				n, err := st.DeleteModel(ctx, opts.model)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d records of %s\n", n, store.NormalizeModel(opts.model))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model to delete")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Delete every model")
	cmd.Flags().BoolVar(&opts.yes, "yes", false, "Confirm the deletion")
	cmd.MarkFlagsMutuallyExclusive("model", "all")
	return cmd
}

func (o resetOptions) validate() error {
	if !o.all && store.NormalizeModel(o.model) == "" {
		return errors.New("either --model or --all is required")
	}
	if !o.yes {
		return errNotConfirmed
	}
	return nil
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Rename vendor-prefixed model names to their short form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st *store.Store) error {
				renames, err := st.NormalizeStoredModels(ctx)
				if err != nil {
					return err
				}
				for _, r := range renames {
					action := "renamed"
					if r.Merge {
						action = "dropped in favor of"
					}
					slog.Info("model normalized", "from", r.From, "to", r.To, "rows", r.Rows, "merge", r.Merge)
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s (%d rows)\n", r.From, action, r.To, r.Rows)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleanup finished, %d models changed\n", len(renames))
				return nil
			})
		},
	}
}

// withStore connects to the configured database and runs fn within
// store.ResetTimeout.
func withStore(ctx context.Context, fn func(context.Context, *store.Store) error) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, store.ResetTimeout)
	defer cancel()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, store.New(pool))
}
