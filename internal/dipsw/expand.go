package dipsw

import (
	"fmt"
	"regexp"
	"strconv"
)

// MaxExpandedBit bounds the bit numbers a cross-reference may expand to.
// Larger references are treated as noise (page numbers, part codes).
const MaxExpandedBit = 63

// functionExcerptRunes is how much of the governing function name is quoted
// in an expanded record.
const functionExcerptRunes = 50

var bitRefRegex = regexp.MustCompile(`(\d+)-(\d+)=`)

// ReferencedBits returns every bit N referenced as "<sw>-<N>=" in text.
// The whole digit run before the dash must equal sw, so "11-7=" is not a
// reference for switch 1. References above MaxExpandedBit are skipped.
func ReferencedBits(sw int, text string) []int {
	var bits []int
	for _, m := range bitRefRegex.FindAllStringSubmatch(text, -1) {
		s, err := strconv.Atoi(m[1])
		if err != nil || s != sw {
			continue
		}
		b, err := strconv.Atoi(m[2])
		if err != nil || b > MaxExpandedBit {
			continue
		}
		bits = append(bits, b)
	}
	return bits
}

// ExpandRange synthesizes placeholder records for bits governed by c.
//
// Combination tables describe several bits in one row, writing the
// combinations as "1-5=0, 1-6=1, 1-7=0". Every bit after c.Bit up to the
// highest one referenced gets a record pointing back at the governing row.
func ExpandRange(model string, c Candidate) []Record {
	refs := ReferencedBits(c.Switch, c.SettingsRaw)
	if len(refs) == 0 {
		return nil
	}

	maxRef := refs[0]
	for _, b := range refs[1:] {
		maxRef = max(maxRef, b)
	}
	if maxRef <= c.Bit {
		return nil
	}

	setting0 := fmt.Sprintf("See SW %d-%d for combined settings", c.Switch, c.Bit)
	fn := setting0
	if c.Function != nil {
		fn = fmt.Sprintf("%s (%s...)", setting0, excerpt(*c.Function, functionExcerptRunes))
	}

	out := make([]Record, 0, maxRef-c.Bit)
	for b := c.Bit + 1; b <= maxRef; b++ {
		out = append(out, Record{
			ModelName:    model,
			SwitchNumber: c.Switch,
			BitNumber:    b,
			FunctionName: Text(fn),
			Setting0:     Text(setting0),
			Setting1:     nil,
			DefaultVal:   c.Default,
		})
	}
	return out
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
