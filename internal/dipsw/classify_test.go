package dipsw

import (
	"testing"
)

// row builds a Row from strings; a nil argument becomes an absent cell.
func row(cells ...any) Row {
	r := make(Row, len(cells))
	for i, c := range cells {
		if s, ok := c.(string); ok {
			r[i] = Text(s)
		}
	}
	return r
}

func stateAt(sw int) *State {
	st := &State{}
	st.Observe(Text(string(rune('0' + sw))))
	return st
}

func TestState_Observe(t *testing.T) {
	tests := []struct {
		name   string
		cells  []Cell
		want   int
		wantOK bool
	}{
		{name: "never set", cells: nil, wantOK: false},
		{name: "plain number", cells: []Cell{Text("3")}, want: 3, wantOK: true},
		{name: "bracketed", cells: []Cell{Text("[12]")}, want: 12, wantOK: true},
		{name: "prefixed text", cells: []Cell{Text("SW 250")}, want: 250, wantOK: true},
		{name: "blank keeps previous", cells: []Cell{Text("4"), Text("  ")}, want: 4, wantOK: true},
		{name: "nil keeps previous", cells: []Cell{Text("4"), nil}, want: 4, wantOK: true},
		{name: "pure text keeps previous", cells: []Cell{Text("7"), Text("Switch")}, want: 7, wantOK: true},
		{name: "text only never sets", cells: []Cell{Text("Switch")}, wantOK: false},
		{name: "overflow ignored", cells: []Cell{Text("2"), Text("99999999999999999999999")}, want: 2, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st State
			for _, c := range tt.cells {
				st.Observe(c)
			}
			got, ok := st.Current()
			if ok != tt.wantOK {
				t.Fatalf("Current() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Current() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseBit(t *testing.T) {
	tests := []struct {
		in     Cell
		want   int
		wantOK bool
	}{
		{in: Text("0"), want: 0, wantOK: true},
		{in: Text("7"), want: 7, wantOK: true},
		{in: Text(" 5 "), want: 5, wantOK: true},
		{in: Text("1-2"), wantOK: false},
		{in: Text("Bit"), wantOK: false},
		{in: Text("4\n5"), wantOK: false},
		{in: Text(""), wantOK: false},
		{in: nil, wantOK: false},
	}

	for _, tt := range tests {
		got, ok := ParseBit(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseBit(%q) = (%d, %v), want (%d, %v)", Deref(tt.in), got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestClassify_Verdicts(t *testing.T) {
	tests := []struct {
		name  string
		row   Row
		state *State
		want  Verdict
	}{
		{name: "too short", row: row("1", "0", "Func"), state: stateAt(1), want: VerdictShort},
		{name: "empty", row: row(), state: stateAt(1), want: VerdictShort},
		{name: "header Bit", row: row("DipSW", "Bit", "Function", "Setting"), state: &State{}, want: VerdictHeader},
		{name: "long header", row: row("", "Bit number (0 to 7)", "Function", "Setting"), state: &State{}, want: VerdictHeader},
		{name: "footnote 1", row: row("[1]", "x", "y", "z"), state: &State{}, want: VerdictFootnote},
		{name: "footnote 5", row: row("[5]", "x", "y", "z"), state: &State{}, want: VerdictFootnote},
		{name: "no switch yet", row: row("", "0", "Func", "0: a"), state: &State{}, want: VerdictNoSwitch},
		{name: "bit not numeric", row: row("1", "0 to 7", "Func", "0: a"), state: &State{}, want: VerdictNoBit},
		{name: "bit absent", row: row("1", nil, "Func", "0: a"), state: &State{}, want: VerdictNoBit},
		{name: "function absent", row: row("1", "0", nil, "0: a"), state: &State{}, want: VerdictNoFunction},
		{name: "function blank", row: row("1", "0", "   ", "0: a"), state: &State{}, want: VerdictNoFunction},
		{name: "function header", row: row("1", "0", "Function", "Setting"), state: &State{}, want: VerdictNoFunction},
		{name: "productive", row: row("1", "0", "Func", "0: a"), state: &State{}, want: VerdictProductive},
		{name: "reserved dash kept", row: row("1", "3", "-", "-"), state: &State{}, want: VerdictProductive},
		{name: "continuation row", row: row("", "2", "Func", ""), state: stateAt(2), want: VerdictProductive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := Classify(tt.row, tt.state)
			if got != tt.want {
				t.Errorf("Classify() verdict = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_StructuralRejectsIgnoreWhitespace(t *testing.T) {
	pads := []string{"", " ", "  ", "\t", "\n", " \t\n "}
	bases := []struct {
		build func(pad string) Row
		want  Verdict
	}{
		{build: func(p string) Row { return row(p+"1"+p, p+"Bit"+p, "Function", "Setting") }, want: VerdictHeader},
		{build: func(p string) Row { return row(p, p+"Bit number (0 to 7)"+p, p, p) }, want: VerdictHeader},
		{build: func(p string) Row { return row(p+"[1]"+p, p+"0"+p, "x", "y") }, want: VerdictFootnote},
		{build: func(p string) Row { return row(p+"[5]"+p, p, p, p) }, want: VerdictFootnote},
		{build: func(p string) Row { return row(p+"1", p+"0", p) }, want: VerdictShort},
	}

	for i, b := range bases {
		for _, pad := range pads {
			st := stateAt(3)
			_, got := Classify(b.build(pad), st)
			if got != b.want {
				t.Errorf("case %d pad %q: verdict = %v, want %v", i, pad, got, b.want)
			}
			if sw, _ := st.Current(); sw != 3 {
				t.Errorf("case %d pad %q: rejected row changed switch to %d", i, pad, sw)
			}
		}
	}
}

func TestClassify_Candidate(t *testing.T) {
	st := &State{}
	c, v := Classify(row("[2]", "6", "  Toner \n saving ", "• 0: Off\n• 1: On", "x", "y", " 1 "), st)
	if v != VerdictProductive {
		t.Fatalf("verdict = %v, want productive", v)
	}
	if c.Switch != 2 || c.Bit != 6 {
		t.Errorf("key = %d-%d, want 2-6", c.Switch, c.Bit)
	}
	if Deref(c.Function) != "Toner \n saving" {
		t.Errorf("Function = %q", Deref(c.Function))
	}
	if c.SettingsRaw != "• 0: Off\n• 1: On" {
		t.Errorf("SettingsRaw = %q", c.SettingsRaw)
	}
	if Deref(c.Default) != "1" || !c.DefaultKnown {
		t.Errorf("Default = (%q, %v), want (\"1\", true)", Deref(c.Default), c.DefaultKnown)
	}
}

func TestDefaultValue(t *testing.T) {
	tests := []struct {
		name      string
		row       Row
		want      *string
		wantKnown bool
	}{
		{name: "four cells", row: row("1", "0", "F", "S"), want: nil, wantKnown: true},
		{name: "five cells", row: row("1", "0", "F", "S", "0"), want: Text("0"), wantKnown: true},
		{name: "five cells blank", row: row("1", "0", "F", "S", " "), want: nil, wantKnown: true},
		{name: "seven prefers last", row: row("1", "0", "F", "S", "0", "0", "1"), want: Text("1"), wantKnown: true},
		{name: "seven falls back to fifth", row: row("1", "0", "F", "S", "0", "1", nil), want: Text("0"), wantKnown: true},
		{name: "six cells is a guess", row: row("1", "0", "F", "S", "1", "0"), want: Text("1"), wantKnown: false},
		{name: "eight cells is a guess", row: row("1", "0", "F", "S", "0", "0", "1", "x"), want: Text("1"), wantKnown: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := DefaultValue(tt.row)
			if Deref(got) != Deref(tt.want) || (got == nil) != (tt.want == nil) {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
			if known != tt.wantKnown {
				t.Errorf("known = %v, want %v", known, tt.wantKnown)
			}
		})
	}
}
