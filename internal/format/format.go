// Package format renders records for files and other tools.
package format

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/dipsw/internal/dipsw"
)

// Format names an output format.
type Format string

const (
	JSON Format = "json"
	SQL  Format = "sql"
	CSV  Format = "csv"
)

// Parse returns the Format for s, case-insensitively.
func Parse(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case JSON:
		return JSON, nil
	case SQL:
		return SQL, nil
	case CSV:
		return CSV, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be json, sql or csv)", s)
	}
}

// Write renders records in format f.
func Write(w io.Writer, f Format, records []dipsw.Record, pretty bool) error {
	switch f {
	case JSON:
		return WriteJSON(w, records, pretty)
	case SQL:
		return WriteSQL(w, records)
	case CSV:
		return WriteCSV(w, records)
	default:
		return fmt.Errorf("invalid format: %s", f)
	}
}

// WriteJSON writes records as a single JSON array.
// An empty record set is written as [] rather than null.
func WriteJSON(w io.Writer, records []dipsw.Record, pretty bool) error {
	if records == nil {
		records = []dipsw.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(records)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json"
	case CSV:
		return "text/csv"
	default:
		return "text/plain; charset=utf-8"
	}
}

// CSVHeader is the header row written by WriteCSV.
var CSVHeader = []string{
	"model_name", "switch_number", "bit_number",
	"function_name", "setting_0", "setting_1", "default_val",
}

// WriteCSV writes a header row and one row per record. CSV has no NULL, so
// absent values are written as empty fields.
func WriteCSV(w io.Writer, records []dipsw.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{
			r.ModelName,
			strconv.Itoa(r.SwitchNumber),
			strconv.Itoa(r.BitNumber),
			dipsw.Deref(r.FunctionName),
			dipsw.Deref(r.Setting0),
			dipsw.Deref(r.Setting1),
			dipsw.Deref(r.DefaultVal),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CreateTable is the schema the SQL output inserts into.
const CreateTable = `CREATE TABLE IF NOT EXISTS dip_switches (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    model_name TEXT NOT NULL,
    switch_number INTEGER NOT NULL,
    bit_number INTEGER NOT NULL,
    function_name TEXT,
    setting_0 TEXT,
    setting_1 TEXT,
    default_val TEXT,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    seq BIGSERIAL
);`

// WriteSQL writes the table definition followed by one INSERT per record.
func WriteSQL(w io.Writer, records []dipsw.Record) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(CreateTable)
	bw.WriteString("\n\n")
	for _, r := range records {
		bw.WriteString(InsertStatement(r))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// InsertStatement returns a self-contained INSERT for r with every text
// value escaped for a SQL string literal.
func InsertStatement(r dipsw.Record) string {
	return fmt.Sprintf(
		"INSERT INTO dip_switches (model_name, switch_number, bit_number, function_name, setting_0, setting_1, default_val) VALUES (%s, %d, %d, %s, %s, %s, %s);",
		quote(&r.ModelName),
		r.SwitchNumber,
		r.BitNumber,
		quote(r.FunctionName),
		quote(r.Setting0),
		quote(r.Setting1),
		quote(r.DefaultVal),
	)
}

func quote(s *string) string {
	if s == nil {
		return "NULL"
	}
	return "'" + dipsw.EscapeSQL(*s) + "'"
}
