package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JonMunkholm/dipsw/internal/dipsw"
	"github.com/JonMunkholm/dipsw/internal/format"
	"github.com/JonMunkholm/dipsw/internal/source"
	"github.com/spf13/cobra"
)

type parseOptions struct {
	model  string
	format string
	output string
	pretty bool
	dedupe bool
	sheets []string
}

func newParseCmd() *cobra.Command {
	opts := &parseOptions{}
	cmd := &cobra.Command{
		Use:   "parse <tables.json|tables.xlsx>",
		Short: "Assemble DIP switch records from an extracted table dump",
		Long: `Reads the tables of one service manual and prints the normalized
DIP switch records as JSON or as SQL insert statements.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model name the manual documents (required)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "Output format: json, sql or csv")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().BoolVar(&opts.dedupe, "dedupe", false, "Keep only the last record for each switch and bit")
	cmd.Flags().StringSliceVar(&opts.sheets, "sheets", nil, "Workbook sheets to read, in order (default: all)")
	cmd.MarkFlagRequired("model")
	return cmd
}

func runParse(cmd *cobra.Command, path string, opts *parseOptions) error {
	outFormat, err := format.Parse(opts.format)
	if err != nil {
		return err
	}

	src, err := openSource(path, opts.sheets)
	if err != nil {
		return err
	}

	assembler, err := newAssembler()
	if err != nil {
		return err
	}

	res, err := assembler.AssembleSource(cmd.Context(), opts.model, src)
	if err != nil {
		return err
	}

	records := res.Records
	if opts.dedupe {
		records = dipsw.Dedupe(records)
	}
	logStats(opts.model, res.Stats, len(records))

	if opts.output == "" {
		return writeRecords(cmd.OutOrStdout(), outFormat, records, opts.pretty)
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := writeRecords(bw, outFormat, records, opts.pretty); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return f.Close()
}

func writeRecords(w io.Writer, f format.Format, records []dipsw.Record, pretty bool) error {
	if err := format.Write(w, f, records, pretty); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// openSource opens path and narrows workbooks to sheets.
func openSource(path string, sheets []string) (dipsw.Source, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	if wb, ok := src.(*source.Workbook); ok {
		wb.Sheets = sheets
	}
	return src, nil
}

func logStats(model string, st dipsw.Stats, written int) {
	slog.Info("assembled",
		"model", model,
		"rows", st.Rows,
		"primary", st.Primary,
		"expanded", st.Expanded,
		"default_unknown", st.DefaultUnknown,
		"patch_removed", st.PatchRemoved,
		"patch_injected", st.PatchInjected,
		"patches", st.PatchesApplied,
		"rejected", st.Rejected,
		"records", written,
	)
}
