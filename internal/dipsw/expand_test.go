package dipsw

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReferencedBits(t *testing.T) {
	tests := []struct {
		name string
		sw   int
		text string
		want []int
	}{
		{name: "single", sw: 1, text: "1-7=0", want: []int{7}},
		{name: "several", sw: 1, text: "1-5=0, 1-6=1, 1-7=0", want: []int{5, 6, 7}},
		{name: "other switch ignored", sw: 1, text: "2-7=1", want: nil},
		{name: "longer switch ignored", sw: 1, text: "11-7=1", want: nil},
		{name: "multi-digit switch", sw: 11, text: "11-3=1 11-4=0", want: []int{3, 4}},
		{name: "out of range skipped", sw: 1, text: "1-5=0 1-120=1 1-7=0", want: []int{5, 7}},
		{name: "no equals", sw: 1, text: "see 1-7", want: nil},
		{name: "empty", sw: 1, text: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReferencedBits(tt.sw, tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ReferencedBits() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandRange_ThreeBits(t *testing.T) {
	c := Candidate{
		Switch:      1,
		Bit:         4,
		Function:    Text("Maintenance count"),
		SettingsRaw: "1-4=0 1-5=0 1-6=1 1-7=0: 3,000 prints",
		Default:     Text("0"),
	}

	got := ExpandRange("C4080", c)
	if len(got) != 3 {
		t.Fatalf("ExpandRange() returned %d records, want 3", len(got))
	}

	for i, r := range got {
		wantBit := 5 + i
		if r.SwitchNumber != 1 || r.BitNumber != wantBit {
			t.Errorf("record %d key = %d-%d, want 1-%d", i, r.SwitchNumber, r.BitNumber, wantBit)
		}
		if !strings.HasPrefix(Deref(r.FunctionName), "See SW 1-4") {
			t.Errorf("record %d FunctionName = %q, want prefix %q", i, Deref(r.FunctionName), "See SW 1-4")
		}
		if !strings.HasPrefix(Deref(r.Setting0), "See SW 1-4") {
			t.Errorf("record %d Setting0 = %q", i, Deref(r.Setting0))
		}
		if r.Setting1 != nil {
			t.Errorf("record %d Setting1 = %q, want nil", i, *r.Setting1)
		}
		if Deref(r.DefaultVal) != "0" {
			t.Errorf("record %d DefaultVal = %q, want %q", i, Deref(r.DefaultVal), "0")
		}
		if r.ModelName != "C4080" {
			t.Errorf("record %d ModelName = %q", i, r.ModelName)
		}
	}
}

func TestExpandRange_NoExpansion(t *testing.T) {
	tests := []struct {
		name string
		c    Candidate
	}{
		{name: "no references", c: Candidate{Switch: 1, Bit: 4, SettingsRaw: "• 0: Off • 1: On"}},
		{name: "reference below bit", c: Candidate{Switch: 1, Bit: 6, SettingsRaw: "1-5=0 1-6=1"}},
		{name: "reference to self", c: Candidate{Switch: 1, Bit: 6, SettingsRaw: "1-6=1"}},
		{name: "other switch", c: Candidate{Switch: 1, Bit: 0, SettingsRaw: "3-7=1"}},
		{name: "absurd span", c: Candidate{Switch: 1, Bit: 0, SettingsRaw: "1-2024=1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandRange("M", tt.c); len(got) != 0 {
				t.Errorf("ExpandRange() = %d records, want 0", len(got))
			}
		})
	}
}

func TestExpandRange_IgnoresOutOfRangeReference(t *testing.T) {
	c := Candidate{Switch: 1, Bit: 4, SettingsRaw: "1-5=0 1-7=1 (see p. 1-120=)", Default: Text("1")}

	var bits []int
	for _, r := range ExpandRange("M", c) {
		bits = append(bits, r.BitNumber)
	}
	if diff := cmp.Diff([]int{5, 6, 7}, bits); diff != "" {
		t.Errorf("expanded bits mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandRange_Text(t *testing.T) {
	got := ExpandRange("M", Candidate{Switch: 1, Bit: 4, Function: Text("Tray select"), SettingsRaw: "1-5="})
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if fn := Deref(got[0].FunctionName); fn != "See SW 1-4 for combined settings (Tray select...)" {
		t.Errorf("FunctionName = %q", fn)
	}
	if s0 := Deref(got[0].Setting0); s0 != "See SW 1-4 for combined settings" {
		t.Errorf("Setting0 = %q", s0)
	}

	bare := ExpandRange("M", Candidate{Switch: 1, Bit: 4, SettingsRaw: "1-5="})
	if fn := Deref(bare[0].FunctionName); fn != "See SW 1-4 for combined settings" {
		t.Errorf("FunctionName without function = %q", fn)
	}
}

func TestExpandRange_FunctionExcerpt(t *testing.T) {
	long := strings.Repeat("x", 80)
	got := ExpandRange("M", Candidate{Switch: 2, Bit: 0, Function: Text(long), SettingsRaw: "2-1=1"})
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	want := "See SW 2-0 for combined settings (" + strings.Repeat("x", 50) + "...)"
	if Deref(got[0].FunctionName) != want {
		t.Errorf("FunctionName = %q, want %q", Deref(got[0].FunctionName), want)
	}
}
