package dipsw

import (
	"regexp"
	"strconv"
)

var nonDigitRegex = regexp.MustCompile(`\D`)

// State carries the current switch number across the rows of one document.
//
// Manuals print the switch designator only on the first row of each switch;
// continuation rows leave the column blank. The number therefore survives
// table and page boundaries and is reset only by starting a new document.
type State struct {
	sw    int
	valid bool
}

// Observe updates the current switch from a row's first cell.
// All non-digit characters are dropped ("[1]" and "SW 1" both read as 1).
// A cell with no digits leaves the state unchanged.
func (s *State) Observe(first Cell) {
	if first == nil {
		return
	}
	digits := nonDigitRegex.ReplaceAllString(*first, "")
	if digits == "" {
		return
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return
	}
	s.sw = n
	s.valid = true
}

// Current returns the current switch number and whether one has been seen.
func (s *State) Current() (int, bool) {
	return s.sw, s.valid
}
