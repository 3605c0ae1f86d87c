package dipsw

import (
	"regexp"
	"slices"
	"strconv"
)

// MinRowCells is the fewest cells a row needs to describe a bit
// (switch, bit, function, settings).
const MinRowCells = 4

// HeaderLabels are second-column values that mark a repeated table header.
// Page breaks split long tables and the extractor repeats the header row.
var HeaderLabels = []string{"Bit", "Bit number (0 to 7)"}

// FootnoteMarkers are first-column values that belong to footnote rows.
var FootnoteMarkers = []string{"[1]", "[5]"}

// FunctionHeader is the function-column label of a header row.
const FunctionHeader = "Function"

var bitRegex = regexp.MustCompile(`^\d+$`)

// Verdict is the classifier's decision for one row.
type Verdict int

const (
	VerdictProductive Verdict = iota
	VerdictShort
	VerdictHeader
	VerdictFootnote
	VerdictNoSwitch
	VerdictNoBit
	VerdictNoFunction
)

// String returns a short label used in logs and stats.
func (v Verdict) String() string {
	switch v {
	case VerdictProductive:
		return "productive"
	case VerdictShort:
		return "short"
	case VerdictHeader:
		return "header"
	case VerdictFootnote:
		return "footnote"
	case VerdictNoSwitch:
		return "no_switch"
	case VerdictNoBit:
		return "no_bit"
	case VerdictNoFunction:
		return "no_function"
	default:
		return "unknown"
	}
}

// Candidate is a productive row, resolved against the current state.
type Candidate struct {
	Switch       int
	Bit          int
	Function     *string
	SettingsRaw  string
	Default      *string
	DefaultKnown bool
}

// IsShortRow reports whether the row has too few cells to carry a bit.
func IsShortRow(row Row) bool {
	return len(row) < MinRowCells
}

// IsHeaderRow reports whether the second cell is a repeated header label.
func IsHeaderRow(row Row) bool {
	if len(row) < 2 {
		return false
	}
	return slices.Contains(HeaderLabels, cellText(row[1]))
}

// IsFootnoteRow reports whether the first cell is a bracketed footnote marker.
func IsFootnoteRow(row Row) bool {
	if len(row) < 1 {
		return false
	}
	return slices.Contains(FootnoteMarkers, cellText(row[0]))
}

// ParseBit parses the bit column. Only a plain run of digits is accepted;
// sub-headers and merged cells fail.
func ParseBit(c Cell) (int, bool) {
	s := cellText(c)
	if !bitRegex.MatchString(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsFunctionHeader reports whether a sanitized function cell cannot belong
// to a real bit: empty, or the literal header label.
func IsFunctionHeader(fn *string) bool {
	return fn == nil || *fn == FunctionHeader
}

// Classify decides what to do with a row and updates st from its first cell.
//
// The order matters: structural rejects are checked before the state is
// touched, so header and footnote rows never change the current switch.
// Ambiguous rows are accepted; a bad record can be patched away later, a
// missing one cannot.
func Classify(row Row, st *State) (Candidate, Verdict) {
	switch {
	case IsShortRow(row):
		return Candidate{}, VerdictShort
	case IsHeaderRow(row):
		return Candidate{}, VerdictHeader
	case IsFootnoteRow(row):
		return Candidate{}, VerdictFootnote
	}

	st.Observe(row[0])
	sw, ok := st.Current()
	if !ok {
		return Candidate{}, VerdictNoSwitch
	}

	bit, ok := ParseBit(row[1])
	if !ok {
		return Candidate{}, VerdictNoBit
	}

	fn := CleanCell(row[2])
	if IsFunctionHeader(fn) {
		return Candidate{}, VerdictNoFunction
	}

	def, known := DefaultValue(row)
	return Candidate{
		Switch:       sw,
		Bit:          bit,
		Function:     fn,
		SettingsRaw:  Deref(row[3]),
		Default:      def,
		DefaultKnown: known,
	}, VerdictProductive
}

// DefaultValue picks the default-value cell.
//
// Documented layouts are [SW, Bit, Function, Setting] (no default),
// [SW, Bit, Function, Setting, Default] and
// [SW, Bit, Function, Setting, Def1, Def2, Def3], where the last column is
// the default for the model. The 7th cell is preferred, then the 5th.
// For any other width the pick is a guess and known is false.
func DefaultValue(row Row) (value *string, known bool) {
	known = len(row) == 4 || len(row) == 5 || len(row) == 7
	if len(row) >= 7 {
		if v := CleanCell(row[6]); v != nil {
			return v, known
		}
	}
	if len(row) >= 5 {
		if v := CleanCell(row[4]); v != nil {
			return v, known
		}
	}
	return nil, known
}
