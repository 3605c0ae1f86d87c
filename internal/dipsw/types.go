package dipsw

import "context"

// Cell is a single table cell as produced by the table extractor.
// A nil Cell means the extractor saw no text at that position.
type Cell = *string

// Row is an ordered sequence of cells from one table row.
type Row []Cell

// Table is an ordered sequence of rows.
type Table []Row

// Page holds the tables found on one page of a document, in reading order.
type Page struct {
	Number int
	Tables []Table
}

// Source supplies the pages of one document.
// Implementations live outside this package (JSON dumps, workbooks).
type Source interface {
	Pages(ctx context.Context) ([]Page, error)
}

// Record is one normalized DIP switch bit.
// Records are values: build a new one rather than editing an existing one.
type Record struct {
	ModelName    string  `json:"model_name" yaml:"model_name"`
	SwitchNumber int     `json:"switch_number" yaml:"switch_number"`
	BitNumber    int     `json:"bit_number" yaml:"bit_number"`
	FunctionName *string `json:"function_name" yaml:"function_name"`
	Setting0     *string `json:"setting_0" yaml:"setting_0"`
	Setting1     *string `json:"setting_1" yaml:"setting_1"`
	DefaultVal   *string `json:"default_val" yaml:"default_val"`
}

// Key returns the (switch, bit) address of the record.
func (r Record) Key() Key {
	return Key{Switch: r.SwitchNumber, Bit: r.BitNumber}
}

// Key addresses a single bit of a DIP switch.
type Key struct {
	Switch int `json:"switch" yaml:"switch"`
	Bit    int `json:"bit" yaml:"bit"`
}

// Text returns a pointer to s. Convenience for building records by hand.
func Text(s string) *string {
	return &s
}

// Deref returns the pointed-to string, or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
