package store

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/dipsw/internal/dipsw"
)

// ResetTimeout is the maximum duration for destructive maintenance.
const ResetTimeout = 30 * time.Second

// DeleteModel removes every record of model and returns the row count.
func (s *Store) DeleteModel(ctx context.Context, model string) (int64, error) {
	model = NormalizeModel(model)
	if model == "" {
		return 0, dipsw.ErrEmptyModel
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM dip_switches WHERE model_name = $1`, model)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", model, err)
	}
	return tag.RowsAffected(), nil
}

// ResetAll empties the table.
// This is a destructive operation - use with caution.
func (s *Store) ResetAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE TABLE dip_switches`); err != nil {
		return fmt.Errorf("truncate %s: %w", TableName, err)
	}
	return nil
}

// Rename moves a stored model name written with a vendor prefix to its
// normalized form. Merge is set when the normalized model already has
// records, in which case the prefixed rows are dropped instead.
type Rename struct {
	From  string
	To    string
	Merge bool
	Rows  int64
}

// planRenames decides what happens to each stored model name.
func planRenames(models []string) []Rename {
	present := make(map[string]bool, len(models))
	for _, m := range models {
		present[m] = true
	}

	var plan []Rename
	for _, m := range models {
		to := NormalizeModel(m)
		if to == m || to == "" {
			continue
		}
		plan = append(plan, Rename{From: m, To: to, Merge: present[to]})
		// A second prefixed spelling of the same model merges into the first
		present[to] = true
	}
	return plan
}

// NormalizeStoredModels rewrites vendor-prefixed model names in one
// transaction. The normalized model's existing records win over the
// prefixed ones.
func (s *Store) NormalizeStoredModels(ctx context.Context) ([]Rename, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	models, err := s.listModels(ctx, tx)
	if err != nil {
		return nil, err
	}

	plan := planRenames(models)
	for i, r := range plan {
		query := `UPDATE dip_switches SET model_name = $2 WHERE model_name = $1`
		args := []any{r.From, r.To}
		if r.Merge {
			query = `DELETE FROM dip_switches WHERE model_name = $1`
			args = args[:1]
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("normalize %q: %w", r.From, err)
		}
		plan[i].Rows = tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return plan, nil
}
