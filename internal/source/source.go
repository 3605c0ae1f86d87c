// Package source reads the table dumps produced by the extraction step.
//
// Table detection itself happens upstream. The readers here only turn a
// finished dump back into pages of tables of rows for the dipsw package.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/dipsw/internal/dipsw"
)

var (
	// ErrFileNotFound indicates the input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFormat indicates a file extension with no reader.
	ErrUnsupportedFormat = errors.New("unsupported table dump format")
)

// Open returns a Source for path, chosen by file extension:
// .json for extractor dumps, .xlsx for workbooks.
func Open(path string) (dipsw.Source, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return &JSONFile{Path: path}, nil
	case ".xlsx", ".xlsm":
		return &Workbook{Path: path}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Static is a Source over pages already in memory.
type Static []dipsw.Page

// Pages returns the pages unchanged.
func (s Static) Pages(context.Context) ([]dipsw.Page, error) {
	return s, nil
}
