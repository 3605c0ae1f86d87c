package patches

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/JonMunkholm/dipsw/internal/dipsw"
	"gopkg.in/yaml.v3"
)

// Mode controls how rules from a file combine with the built-in rules.
type Mode string

const (
	// ModeMerge replaces built-in rules of the same name and appends the rest.
	ModeMerge Mode = "merge"
	// ModeReplace discards the built-in rules entirely.
	ModeReplace Mode = "replace"
)

// ErrInvalidRule is wrapped by every rule validation failure.
var ErrInvalidRule = errors.New("invalid patch rule")

// File is the on-disk form of a patch set.
//
//	mode: merge
//	rules:
//	  - name: c7100-air-blow
//	    model_contains: [C7100, C7090]
//	    remove:
//	      - {switch: 3, bit: 0}
//	    replacements:
//	      - switch_number: 3
//	        bit_number: 0
//	        function_name: PF Air-blow adjustment
//	        setting_0: Not display the air-blow adjustment button
//	        setting_1: Display the air-blow adjustment button
//	        default_val: "0"
type File struct {
	Mode  Mode              `yaml:"mode"`
	Rules []dipsw.PatchRule `yaml:"rules"`
}

// LoadFile reads and validates a patch file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patch file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("patch file %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a patch file from YAML.
// Unknown keys are rejected so typos do not silently disable a rule.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks every rule and the mode.
func (f *File) Validate() error {
	var errs []string

	switch f.Mode {
	case "", ModeMerge, ModeReplace:
	default:
		errs = append(errs, fmt.Sprintf("mode %q must be one of: merge, replace", f.Mode))
	}

	seen := make(map[string]bool)
	for i, r := range f.Rules {
		label := fmt.Sprintf("rule %d", i)
		if r.Name != "" {
			label = fmt.Sprintf("rule %q", r.Name)
		}

		if r.Name == "" {
			errs = append(errs, label+": name is required")
		} else if seen[r.Name] {
			errs = append(errs, label+": duplicate name")
		}
		seen[r.Name] = true

		if len(r.ModelContains) == 0 {
			errs = append(errs, label+": model_contains is required")
		}
		for _, sub := range r.ModelContains {
			if strings.TrimSpace(sub) == "" {
				errs = append(errs, label+": model_contains entries must not be blank")
				break
			}
		}
		for _, k := range r.Remove {
			if k.Switch < 0 || k.Bit < 0 {
				errs = append(errs, fmt.Sprintf("%s: remove key %d-%d must be non-negative", label, k.Switch, k.Bit))
			}
		}
		for _, rep := range r.Replacements {
			if rep.SwitchNumber < 0 || rep.BitNumber < 0 {
				errs = append(errs, fmt.Sprintf("%s: replacement %d-%d must be non-negative", label, rep.SwitchNumber, rep.BitNumber))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidRule, strings.Join(errs, "\n  - "))
	}
	return nil
}

// Resolve combines base rules with the file's rules.
// fallback is used when the file does not name a mode.
func (f *File) Resolve(base []dipsw.PatchRule, fallback Mode) []dipsw.PatchRule {
	mode := f.Mode
	if mode == "" {
		mode = fallback
	}

	if mode == ModeReplace {
		out := make([]dipsw.PatchRule, len(f.Rules))
		copy(out, f.Rules)
		return out
	}

	byName := make(map[string]dipsw.PatchRule, len(f.Rules))
	for _, r := range f.Rules {
		byName[r.Name] = r
	}

	out := make([]dipsw.PatchRule, 0, len(base)+len(f.Rules))
	used := make(map[string]bool)
	for _, r := range base {
		if override, ok := byName[r.Name]; ok {
			out = append(out, override)
			used[r.Name] = true
			continue
		}
		out = append(out, r)
	}
	for _, r := range f.Rules {
		if !used[r.Name] {
			out = append(out, r)
		}
	}
	return out
}

// Rules returns the rule set to run: the registry, combined with the file at
// path when path is non-empty.
func Rules(path string, fallback Mode) ([]dipsw.PatchRule, error) {
	base := All()
	if path == "" {
		return base, nil
	}
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return f.Resolve(base, fallback), nil
}
