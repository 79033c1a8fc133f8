// Package labelmap resolves raw classifier labels to canonical labels through
// an ordered decision policy: direct candidate match, synonym lookup, and an
// optional zero-shot semantic fallback.
package labelmap

import (
	"sort"
	"strings"
	"sync"
	"unicode"
)

// baseSynonyms is the built-in table of canonical labels and the raw
// classifier terms observed for them. Order matters: when a term appears
// under two canonical labels, the later entry wins the exact lookup
// (e.g. "bike" resolves to bicycle, not motorcycle).
var baseSynonyms = []struct {
	canonical string
	synonyms  []string
}{
	// People and animals
	{"person", []string{"human", "people", "man", "woman", "child", "boy", "girl", "adult"}},
	{"dog", []string{"puppy", "canine", "hound", "mutt"}},
	{"cat", []string{"kitten", "feline", "kitty"}},
	{"bird", []string{"eagle", "pigeon", "sparrow", "crow", "seagull", "hawk"}},

	// Vehicles
	{"car", []string{"automobile", "sedan", "hatchback", "coupe", "vehicle"}},
	{"truck", []string{"lorry", "pickup", "semi", "trailer"}},
	{"bus", []string{"coach", "transit"}},
	{"motorcycle", []string{"bike", "motorbike", "scooter"}},
	{"bicycle", []string{"bike", "cycle"}},

	// Objects
	{"bottle", []string{"container", "flask", "jar"}},
	{"cup", []string{"mug", "glass", "tumbler"}},
	{"chair", []string{"seat", "stool"}},
	{"table", []string{"desk", "surface"}},

	// Nature
	{"tree", []string{"oak", "pine", "maple", "palm", "bush", "shrub"}},
	{"flower", []string{"rose", "tulip", "daisy", "bloom"}},

	// Buildings and structures
	{"building", []string{"house", "structure", "edifice", "construction"}},
	{"road", []string{"street", "path", "highway", "avenue"}},
	{"bridge", []string{"overpass", "crossing"}},

	// Technology
	{"computer", []string{"laptop", "pc", "desktop"}},
	{"phone", []string{"smartphone", "mobile", "cellphone", "iphone"}},
	{"tv", []string{"television", "monitor", "screen", "display"}},
}

// Normalize lowercases a label and strips everything but letters and spaces.
func Normalize(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SynonymTable maps canonical labels to observed classifier synonyms and
// answers reverse lookups. It is safe for concurrent use; runtime extension
// goes through AddSynonyms rather than any shared global state.
type SynonymTable struct {
	mu      sync.RWMutex
	forward map[string][]string
	reverse map[string]string
	// keys holds the reverse keys sorted, so substring fallback scans are
	// deterministic.
	keys []string
}

// NewSynonymTable builds a table from the built-in synonyms plus an optional
// caller-supplied overlay. Overlay entries are applied after the base table,
// so they win conflicting reverse lookups.
func NewSynonymTable(overlay map[string][]string) *SynonymTable {
	st := &SynonymTable{
		forward: map[string][]string{},
		reverse: map[string]string{},
	}
	for _, entry := range baseSynonyms {
		st.add(entry.canonical, entry.synonyms)
	}
	overlayCanonicals := make([]string, 0, len(overlay))
	for canonical := range overlay {
		overlayCanonicals = append(overlayCanonicals, canonical)
	}
	sort.Strings(overlayCanonicals)
	for _, canonical := range overlayCanonicals {
		st.add(canonical, overlay[canonical])
	}
	st.rebuildKeys()
	return st
}

// AddSynonyms extends the table at runtime.
func (st *SynonymTable) AddSynonyms(canonical string, synonyms ...string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.add(canonical, synonyms)
	st.rebuildKeys()
}

func (st *SynonymTable) add(canonical string, synonyms []string) {
	existing := st.forward[canonical]
	for _, syn := range synonyms {
		found := false
		for _, have := range existing {
			if have == syn {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, syn)
		}
		st.reverse[Normalize(syn)] = canonical
	}
	st.forward[canonical] = existing
	st.reverse[Normalize(canonical)] = canonical
}

func (st *SynonymTable) rebuildKeys() {
	st.keys = st.keys[:0]
	for k := range st.reverse {
		st.keys = append(st.keys, k)
	}
	sort.Strings(st.keys)
}

// Lookup resolves a raw label to its canonical form. The normalized label is
// tried as an exact entry first, then by substring containment in either
// direction over all known terms. The second return reports whether any
// entry matched.
func (st *SynonymTable) Lookup(rawLabel string) (string, bool) {
	cleaned := Normalize(rawLabel)
	st.mu.RLock()
	defer st.mu.RUnlock()
	if canonical, ok := st.reverse[cleaned]; ok {
		return canonical, true
	}
	if cleaned == "" {
		return "", false
	}
	for _, key := range st.keys {
		if strings.Contains(cleaned, key) || strings.Contains(key, cleaned) {
			return st.reverse[key], true
		}
	}
	return "", false
}

// Synonyms returns the synonyms recorded for a label, resolving the label to
// canonical form first.
func (st *SynonymTable) Synonyms(label string) []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	canonical := label
	if c, ok := st.reverse[Normalize(label)]; ok {
		canonical = c
	}
	syns := st.forward[canonical]
	out := make([]string, len(syns))
	copy(out, syns)
	return out
}

// CanonicalLabels returns all canonical labels in the table, sorted.
func (st *SynonymTable) CanonicalLabels() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]string, 0, len(st.forward))
	for canonical := range st.forward {
		out = append(out, canonical)
	}
	sort.Strings(out)
	return out
}
