// Package store persists DIP switch records in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/dipsw/internal/config"
	"github.com/JonMunkholm/dipsw/internal/dipsw"
	"github.com/JonMunkholm/dipsw/internal/format"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoRecords is returned when an import carries nothing to store.
var ErrNoRecords = errors.New("no records to import")

// TableName is the table every record lives in.
const TableName = "dip_switches"

// copyColumns lists the columns written by ReplaceModel, in copyRow order.
var copyColumns = []string{
	"id", "model_name", "switch_number", "bit_number",
	"function_name", "setting_0", "setting_1", "default_val",
}

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Pool is the subset of *pgxpool.Pool the store needs.
type Pool interface {
	DBTX
	Begin(context.Context) (pgx.Tx, error)
	Ping(context.Context) error
}

// Store reads and writes dip_switches.
type Store struct {
	pool Pool
}

// New returns a Store over pool.
func New(pool Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pgx pool configured from cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the table and its lookup index if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, format.CreateTable); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	// Tables created before seq existed get it here
	if _, err := s.pool.Exec(ctx, `ALTER TABLE dip_switches ADD COLUMN IF NOT EXISTS seq BIGSERIAL`); err != nil {
		return fmt.Errorf("add seq column: %w", err)
	}
	_, err := s.pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS dip_switches_model_key_idx ON dip_switches (model_name, switch_number, bit_number)`)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ReplaceModel swaps the stored records of model for records in one
// transaction. Every record is stored under model regardless of its own
// ModelName field.
func (s *Store) ReplaceModel(ctx context.Context, model string, records []dipsw.Record) (int64, error) {
	model = NormalizeModel(model)
	if model == "" {
		return 0, dipsw.ErrEmptyModel
	}
	if len(records) == 0 {
		return 0, ErrNoRecords
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if _, err := tx.Exec(ctx, `DELETE FROM dip_switches WHERE model_name = $1`, model); err != nil {
		return 0, fmt.Errorf("delete existing %s: %w", model, err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{TableName}, copyColumns, pgx.CopyFromRows(copyRows(model, records)))
	if err != nil {
		return 0, fmt.Errorf("copy records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// listSwitchesSQL orders duplicates of a key by seq, which COPY assigns in
// row order. created_at is the same for every row of one import.
const listSwitchesSQL = `
		SELECT model_name, switch_number, bit_number, function_name, setting_0, setting_1, default_val
		FROM dip_switches
		WHERE model_name = $1
		  AND ($2::int4 IS NULL OR switch_number = $2)
		  AND ($3::int4 IS NULL OR bit_number = $3)
		ORDER BY switch_number, bit_number, seq`

// SwitchQuery selects records of one model, optionally narrowed to a
// switch and bit.
type SwitchQuery struct {
	Model  string
	Switch *int
	Bit    *int
}

// ListSwitches returns the records matching q ordered by switch and bit.
func (s *Store) ListSwitches(ctx context.Context, q SwitchQuery) ([]dipsw.Record, error) {
	rows, err := s.pool.Query(ctx, listSwitchesSQL, NormalizeModel(q.Model), q.Switch, q.Bit)
	if err != nil {
		return nil, fmt.Errorf("query switches: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dipsw.Record, error) {
		var (
			r                          dipsw.Record
			sw, bit                    int32
			fn, set0, set1, defaultVal pgtype.Text
		)
		if err := row.Scan(&r.ModelName, &sw, &bit, &fn, &set0, &set1, &defaultVal); err != nil {
			return dipsw.Record{}, err
		}
		r.SwitchNumber = int(sw)
		r.BitNumber = int(bit)
		r.FunctionName = FromPgText(fn)
		r.Setting0 = FromPgText(set0)
		r.Setting1 = FromPgText(set1)
		r.DefaultVal = FromPgText(defaultVal)
		return r, nil
	})
}

// ListModels returns every model with stored records, sorted.
func (s *Store) ListModels(ctx context.Context) ([]string, error) {
	return s.listModels(ctx, s.pool)
}

func (s *Store) listModels(ctx context.Context, db DBTX) ([]string, error) {
	rows, err := db.Query(ctx, `SELECT DISTINCT model_name FROM dip_switches ORDER BY model_name`)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// copyRows converts records to COPY rows in copyColumns order.
func copyRows(model string, records []dipsw.Record) [][]any {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{
			uuid.New(),
			model,
			int32(r.SwitchNumber),
			int32(r.BitNumber),
			ToPgText(r.FunctionName),
			ToPgText(r.Setting0),
			ToPgText(r.Setting1),
			ToPgText(r.DefaultVal),
		}
	}
	return rows
}

// ToPgText converts an optional string to pgtype.Text.
// nil becomes NULL; an empty string is stored as an empty string.
func ToPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *s, Valid: true}
}

// FromPgText converts pgtype.Text back to an optional string.
func FromPgText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return dipsw.Text(t.String)
}

var modelPrefixes = []string{"Konica Minolta", "KonicaMinolta"}

// NormalizeModel strips the vendor prefix manuals put in front of model
// names, so "Konica Minolta C4080" and "C4080" are the same model.
func NormalizeModel(model string) string {
	model = strings.TrimSpace(model)
	for _, p := range modelPrefixes {
		if len(model) >= len(p) && strings.EqualFold(model[:len(p)], p) {
			model = strings.TrimSpace(model[len(p):])
			break
		}
	}
	return model
}
