package dipsw

import "strings"

// PatchRule replaces automatically extracted records for one family of
// models with hand-curated ones.
//
// Rules are data. The built-in set lives in package patches and can be
// extended or replaced from a YAML file without touching the parser.
type PatchRule struct {
	// Name identifies the rule in logs.
	Name string `yaml:"name"`

	// ModelContains lists substrings; the rule applies to any model name
	// containing at least one of them.
	ModelContains []string `yaml:"model_contains"`

	// Remove lists the keys whose extracted records are discarded.
	Remove []Key `yaml:"remove"`

	// Replacements are appended after removal, in order. ModelName is
	// filled in with the model being processed.
	Replacements []Record `yaml:"replacements"`
}

// Matches reports whether the rule applies to model.
func (p PatchRule) Matches(model string) bool {
	for _, sub := range p.ModelContains {
		if sub != "" && strings.Contains(model, sub) {
			return true
		}
	}
	return false
}

// PatchResult summarizes what ApplyPatches changed.
type PatchResult struct {
	Applied  []string // names of matching rules, in order
	Removed  int
	Injected int
}

// ApplyPatches runs every rule matching model over records.
//
// Each matching rule first drops the records at its keys, then appends its
// replacements. Rules run in order and their effects compose. The input
// slice is left untouched.
func ApplyPatches(model string, records []Record, rules []PatchRule) ([]Record, PatchResult) {
	out := make([]Record, len(records))
	copy(out, records)

	var res PatchResult
	for _, rule := range rules {
		if !rule.Matches(model) {
			continue
		}
		res.Applied = append(res.Applied, rule.Name)

		drop := make(map[Key]bool, len(rule.Remove))
		for _, k := range rule.Remove {
			drop[k] = true
		}

		kept := make([]Record, 0, len(out)+len(rule.Replacements))
		for _, r := range out {
			if drop[r.Key()] {
				res.Removed++
				continue
			}
			kept = append(kept, r)
		}

		for _, r := range rule.Replacements {
			r.ModelName = model
			kept = append(kept, r)
			res.Injected++
		}
		out = kept
	}
	return out, res
}
