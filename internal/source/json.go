package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/JonMunkholm/dipsw/internal/dipsw"
)

// JSONFile reads an extractor dump of the form
//
//	[{"page": 1, "tables": [[["1", "0", "Function", "• 0: Off • 1: On", null], ...]]}]
//
// Pages without tables are kept so page numbers stay meaningful in logs,
// but contribute no rows.
type JSONFile struct {
	Path string
}

// Pages reads and decodes the whole file.
func (f *JSONFile) Pages(ctx context.Context) ([]dipsw.Page, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer file.Close()

	pages, err := DecodeJSON(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return pages, nil
}

type jsonPage struct {
	Page   int           `json:"page"`
	Tables [][][]jsonCell `json:"tables"`
}

// jsonCell accepts strings, null, numbers and booleans. Extractors emit
// numbers for cells that look numeric.
type jsonCell struct {
	text *string
}

func (c *jsonCell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		c.text = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		c.text = &s
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		s := n.String()
		c.text = &s
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		s := strconv.FormatBool(b)
		c.text = &s
		return nil
	}
	return fmt.Errorf("unsupported cell value %s", data)
}

// DecodeJSON decodes an extractor dump from r.
func DecodeJSON(ctx context.Context, r io.Reader) ([]dipsw.Page, error) {
	var raw []jsonPage
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	pages := make([]dipsw.Page, 0, len(raw))
	for i, p := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		number := p.Page
		if number == 0 {
			number = i + 1
		}
		page := dipsw.Page{Number: number}
		for _, t := range p.Tables {
			table := make(dipsw.Table, 0, len(t))
			for _, cells := range t {
				row := make(dipsw.Row, len(cells))
				for j, c := range cells {
					row[j] = c.text
				}
				table = append(table, row)
			}
			page.Tables = append(page.Tables, table)
		}
		pages = append(pages, page)
	}
	return pages, nil
}
