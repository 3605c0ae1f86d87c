package dipsw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrEmptyModel is returned when a document is assembled without a model name.
var ErrEmptyModel = errors.New("model name is required")

// Stats counts what happened to the rows of one Assemble call.
type Stats struct {
	Rows           int            `json:"rows"`
	Rejected       map[string]int `json:"rejected"`
	Primary        int            `json:"primary"`
	Expanded       int            `json:"expanded"`
	DefaultUnknown int            `json:"default_unknown"`
	PatchRemoved   int            `json:"patch_removed"`
	PatchInjected  int            `json:"patch_injected"`
	PatchesApplied []string       `json:"patches_applied,omitempty"`
}

// Result is the output of one Assemble call.
type Result struct {
	Records []Record
	Stats   Stats
}

// Assembler turns the table rows of one document into records.
//
// An Assembler holds only configuration; all parsing state lives inside a
// single Assemble call, so one Assembler may be shared between goroutines.
type Assembler struct {
	// Rules are applied after the scan. Nil means no patches.
	Rules []PatchRule

	// Logger receives per-row diagnostics at debug level. Nil uses slog.Default().
	Logger *slog.Logger
}

// NewAssembler returns an Assembler with the given patch rules.
func NewAssembler(rules []PatchRule, logger *slog.Logger) *Assembler {
	return &Assembler{Rules: rules, Logger: logger}
}

// Assemble scans pages, then tables, then rows, in order, with one State
// for the whole document. Productive rows yield a primary record followed by
// any expansion records. Patches for model are applied last.
//
// The same input always yields the same output.
func (a *Assembler) Assemble(model string, pages []Page) Result {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("model", model)

	var (
		st      State
		records []Record
		stats   = Stats{Rejected: make(map[string]int)}
	)

	for _, page := range pages {
		for ti, table := range page.Tables {
			for ri, row := range table {
				stats.Rows++

				c, verdict := Classify(row, &st)
				if verdict != VerdictProductive {
					stats.Rejected[verdict.String()]++
					logger.Debug("row skipped",
						"page", page.Number,
						"table", ti,
						"row", ri,
						"reason", verdict.String(),
					)
					continue
				}

				if !c.DefaultKnown {
					stats.DefaultUnknown++
					logger.Warn("default value column is a guess",
						"page", page.Number,
						"switch", c.Switch,
						"bit", c.Bit,
						"cells", len(row),
					)
				}

				setting0, setting1 := ParseSettings(c.SettingsRaw)
				records = append(records, Record{
					ModelName:    model,
					SwitchNumber: c.Switch,
					BitNumber:    c.Bit,
					FunctionName: c.Function,
					Setting0:     setting0,
					Setting1:     setting1,
					DefaultVal:   c.Default,
				})
				stats.Primary++

				extra := ExpandRange(model, c)
				records = append(records, extra...)
				stats.Expanded += len(extra)
			}
		}
	}

	records, pr := ApplyPatches(model, records, a.Rules)
	stats.PatchRemoved = pr.Removed
	stats.PatchInjected = pr.Injected
	stats.PatchesApplied = pr.Applied
	for _, name := range pr.Applied {
		logger.Info("patch applied", "rule", name)
	}

	return Result{Records: records, Stats: stats}
}

// AssembleSource reads every page from src and assembles them.
// Errors from the source are fatal for the run; nothing is returned.
func (a *Assembler) AssembleSource(ctx context.Context, model string, src Source) (Result, error) {
	if strings.TrimSpace(model) == "" {
		return Result{}, ErrEmptyModel
	}
	pages, err := src.Pages(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read pages: %w", err)
	}
	return a.Assemble(model, pages), nil
}

// Dedupe keeps the last record for every key, in order of first appearance.
func Dedupe(records []Record) []Record {
	last := make(map[Key]int, len(records))
	for i, r := range records {
		last[r.Key()] = i
	}

	out := make([]Record, 0, len(last))
	seen := make(map[Key]bool, len(last))
	for _, r := range records {
		k := r.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, records[last[k]])
	}
	return out
}
