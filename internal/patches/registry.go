// Package patches holds the curated corrections applied after extraction.
//
// Built-in rules register themselves at init time, the same way a driver
// registers with database/sql. Import this package to get them; load a
// YAML file with [LoadFile] to add or replace rules without a rebuild.
package patches

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/dipsw/internal/dipsw"
)

var (
	registry   = make(map[string]registered)
	registryMu sync.RWMutex
	seq        int
)

// registered keeps registration order so All is stable.
type registered struct {
	rule  dipsw.PatchRule
	order int
}

// Register adds a rule to the registry.
// Panics if a rule with the same name is already registered.
func Register(rule dipsw.PatchRule) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if rule.Name == "" {
		panic("patch rule must have a name")
	}
	if _, exists := registry[rule.Name]; exists {
		panic(fmt.Sprintf("patch rule already registered: %s", rule.Name))
	}

	seq++
	registry[rule.Name] = registered{rule: rule, order: seq}
}

// Get returns a rule by name.
// Returns false if not found.
func Get(name string) (dipsw.PatchRule, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	r, ok := registry[name]
	return r.rule, ok
}

// All returns every registered rule in registration order.
func All() []dipsw.PatchRule {
	registryMu.RLock()
	defer registryMu.RUnlock()

	entries := make([]registered, 0, len(registry))
	for _, r := range registry {
		entries = append(entries, r)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].order < entries[j].order
	})

	result := make([]dipsw.PatchRule, len(entries))
	for i, e := range entries {
		result[i] = e.rule
	}
	return result
}

// ForModel returns the registered rules that apply to model, in order.
func ForModel(model string) []dipsw.PatchRule {
	var result []dipsw.PatchRule
	for _, r := range All() {
		if r.Matches(model) {
			result = append(result, r)
		}
	}
	return result
}

// Count returns the number of registered rules.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered rules.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]registered)
	seq = 0
}
