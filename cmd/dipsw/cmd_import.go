package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JonMunkholm/dipsw/internal/dipsw"
	"github.com/JonMunkholm/dipsw/internal/importer"
	"github.com/JonMunkholm/dipsw/internal/source"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type importOptions struct {
	models []string
	url    string
	sheets []string
	dryRun bool
}

// uploader is the part of importer.Client the import command uses.
type uploader interface {
	Upload(ctx context.Context, records []dipsw.Record) (importer.Result, error)
}

func newImportCmd() *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import <tables.json|tables.xlsx>",
		Short: "Assemble records for each model and upload them to the API",
		Long: `One manual often documents several models. The tables are read once,
assembled separately for every model (so model-specific patches apply),
and each model's records replace what the API has stored for it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.models, "models", nil, "Models to import (default: $IMPORT_MODELS)")
	cmd.Flags().StringVar(&opts.url, "url", "", "Import endpoint (default: $IMPORT_API_URL)")
	cmd.Flags().StringSliceVar(&opts.sheets, "sheets", nil, "Workbook sheets to read, in order (default: all)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Assemble and report without uploading")
	return cmd
}

func runImport(cmd *cobra.Command, path string, opts *importOptions) error {
	models := opts.models
	if len(models) == 0 {
		models = cfg.Import.Models
	}
	if len(models) == 0 {
		return errors.New("no models given: pass --models or set IMPORT_MODELS")
	}

	url := opts.url
	if url == "" {
		url = cfg.Import.APIURL
	}

	src, err := openSource(path, opts.sheets)
	if err != nil {
		return err
	}
	pages, err := src.Pages(cmd.Context())
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	assembler, err := newAssembler()
	if err != nil {
		return err
	}

	var up uploader = importer.New(url, cfg.Import.APIKey, cfg.Import.Timeout)
	if opts.dryRun {
		up = dryRun{}
	}

	// Every model reads the same pages, so the dump is parsed once
	results, err := importModels(cmd.Context(), assembler, up, source.Static(pages), models, cfg.Import.MaxConcurrent)
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records, %d stored\n", r.Model, r.Records, r.Inserted)
	}
	return err
}

// modelResult is the outcome of one model's import.
type modelResult struct {
	Model    string
	Records  int
	Inserted int64
}

// importModels assembles and uploads every model with at most limit
// uploads in flight. Results are returned in model order for the models
// that succeeded; the first failure cancels the rest.
func importModels(ctx context.Context, a *dipsw.Assembler, up uploader, src dipsw.Source, models []string, limit int) ([]modelResult, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))

	var mu sync.Mutex
	done := make(map[string]modelResult, len(models))

	for _, model := range models {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			res, err := a.AssembleSource(ctx, model, src)
			if err != nil {
				return fmt.Errorf("assemble %s: %w", model, err)
			}
			logStats(model, res.Stats, len(res.Records))
			if len(res.Records) == 0 {
				slog.Warn("no records assembled, skipping upload", "model", model)
				return nil
			}

			out, err := up.Upload(ctx, res.Records)
			if err != nil {
				return fmt.Errorf("import %s: %w", model, err)
			}

			mu.Lock()
			done[model] = modelResult{Model: model, Records: len(res.Records), Inserted: out.Inserted}
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()

	results := make([]modelResult, 0, len(done))
	for _, model := range models {
		if r, ok := done[model]; ok {
			results = append(results, r)
		}
	}
	return results, err
}

// dryRun reports what would be uploaded.
type dryRun struct{}

func (dryRun) Upload(_ context.Context, records []dipsw.Record) (importer.Result, error) {
	slog.Info("dry run, not uploading", "records", len(records))
	model := ""
	if len(records) > 0 {
		model = records[0].ModelName
	}
	return importer.Result{Success: true, Model: model}, nil
}
