// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package recommend

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// defaultSubSectorRules maps a customer sub-sector to the insurance branches
// most relevant to it, in priority order.
var defaultSubSectorRules = map[string][]string{
	// Agriculture and food
	"AGRICULTURE, CHASSE, SERVICES ANNEXES": {"MULTIRISQUE AGRICOLE", "INCENDIE", "VIE"},
	"PECHE, AQUACULTURE":                    {"MULTIRISQUE AGRICOLE", "RESPONSABILITÉ CIVILE"},
	"INDUSTRIES ALIMENTAIRES":               {"INCENDIE", "MULTIRISQUE INDUSTRIELLE", "RESPONSABILITÉ CIVILE"},
	"BOUCHERIE":                             {"MULTIRISQUE COMMERCANT", "RESPONSABILITÉ CIVILE"},

	// Commerce and services
	"COMMERCE DE DETAIL":         {"MULTIRISQUE COMMERCANT", "INCENDIE"},
	"COMMERCE DE GROS":           {"MULTIRISQUE COMMERCANT", "TRANSPORT MARCHANDISES"},
	"STATION DE SERVICE":         {"MULTIRISQUE COMMERCANT", "RESPONSABILITÉ CIVILE", "INCENDIE"},
	"ACTIVITES IARD TARIFIABLES": {"AUTOMOBILE", "INCENDIE", "RESPONSABILITÉ CIVILE"},

	// Transport
	"TRANSPORT TERRESTRE": {"AUTOMOBILE", "RESPONSABILITÉ CIVILE"},
	"TRANSPORT AERIEN":    {"ASSURANCE AVIATION", "RESPONSABILITÉ CIVILE"},
	"TRANSPORT MARITIME":  {"ASSURANCE MARINE", "TRANSPORT MARCHANDISES"},

	// Construction and industry
	"CONSTRUCTION":                {"DECENNALE", "RESPONSABILITÉ CIVILE", "ACCIDENTS DU TRAVAIL"},
	"INDUSTRIE":                   {"MULTIRISQUE INDUSTRIELLE", "INCENDIE"},
	"EAU, ENERGIE, ENVIRONNEMENT": {"RESPONSABILITÉ CIVILE", "MULTIRISQUE INDUSTRIELLE"},

	// Public and private services
	"ADMINISTRATION PUBLIQUE": {"RESPONSABILITÉ CIVILE", "VIE COLLECTIVE"},
	"EMPLOYÉS":                {"ACCIDENTS DU TRAVAIL", "VIE COLLECTIVE"},
	"SANTÉ ET ACTION SOCIALE": {"MALADIE", "PRÉVOYANCE", "VIE"},
	"EDUCATION":               {"VIE", "ASSURANCE SCOLAIRE"},
	"ETUDIANT":                {"ASSURANCE SCOLAIRE", "SANTÉ"},

	// Financial and professional
	"INTERMEDIATION FINANCIERE": {"RESPONSABILITÉ CIVILE", "VIE"},
	"ASSURANCES ET CAISSES":     {"RESPONSABILITÉ CIVILE", "MULTIRISQUE BUREAU"},
	"PROFESSIONS LIBERALES":     {"RESPONSABILITÉ CIVILE", "MULTIRISQUE BUREAU", "VIE"},

	// Real estate and housing
	"IMMOBILIER": {"MULTIRISQUE IMMEUBLE", "INCENDIE"},
	"LOCATION":   {"MULTIRISQUE IMMEUBLE", "RESPONSABILITÉ CIVILE"},

	// Special cases
	"SPORT ET LOISIRS":        {"ASSURANCE INDIVIDUELLE ACCIDENT", "RESPONSABILITÉ CIVILE"},
	"HOTELS, RESTAURANTS":     {"MULTIRISQUE COMMERCANT", "RESPONSABILITÉ CIVILE", "INCENDIE"},
	"INFORMATIQUE ET TELECOM": {"RESPONSABILITÉ CIVILE", "MULTIRISQUE BUREAU"},
}

// RuleTable maps sub-sectors to ordered branch lists. Keys and branch names
// are compared after normalization, so "Santé et action sociale" matches
// "SANTE ET ACTION SOCIALE". A RuleTable is immutable and safe for
// concurrent use.
type RuleTable struct {
	display  map[string]string   // normalized sub-sector -> original label
	branches map[string][]string // normalized sub-sector -> original branch names
	index    map[string]map[string]struct{}
}

// DefaultRuleTable returns the built-in sub-sector table.
func DefaultRuleTable() *RuleTable {
	return NewRuleTable(defaultSubSectorRules)
}

// NewRuleTable builds a table from a sub-sector to branches mapping. The
// input is copied. Later duplicates of a normalized key replace earlier ones
// in key order.
func NewRuleTable(rules map[string][]string) *RuleTable {
	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := &RuleTable{
		display:  make(map[string]string, len(rules)),
		branches: make(map[string][]string, len(rules)),
		index:    make(map[string]map[string]struct{}, len(rules)),
	}
	for _, k := range keys {
		nk := NormalizeLabel(k)
		if nk == "" {
			continue
		}
		list := make([]string, 0, len(rules[k]))
		set := make(map[string]struct{}, len(rules[k]))
		for _, b := range rules[k] {
			nb := NormalizeLabel(b)
			if nb == "" {
				continue
			}
			if _, dup := set[nb]; dup {
				continue
			}
			set[nb] = struct{}{}
			list = append(list, b)
		}
		t.display[nk] = k
		t.branches[nk] = list
		t.index[nk] = set
	}
	return t
}

// Branches returns the ordered branches for a sub-sector, or nil when the
// sub-sector has no rule. The returned slice is a copy.
func (t *RuleTable) Branches(subSector string) []string {
	if t == nil {
		return nil
	}
	list, ok := t.branches[NormalizeLabel(subSector)]
	if !ok {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Has reports whether the sub-sector has a rule.
func (t *RuleTable) Has(subSector string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[NormalizeLabel(subSector)]
	return ok
}

// Matches reports whether branch is listed for subSector.
func (t *RuleTable) Matches(subSector, branch string) bool {
	if t == nil {
		return false
	}
	set, ok := t.index[NormalizeLabel(subSector)]
	if !ok {
		return false
	}
	_, ok = set[NormalizeLabel(branch)]
	return ok
}

// Len returns the number of sub-sectors in the table.
func (t *RuleTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.branches)
}

// SubSectors returns the sub-sector labels, sorted.
func (t *RuleTable) SubSectors() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.display))
	for _, label := range t.display {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// Map returns a copy of the table keyed by original sub-sector labels.
func (t *RuleTable) Map() map[string][]string {
	out := make(map[string][]string, t.Len())
	if t == nil {
		return out
	}
	for nk, label := range t.display {
		list := make([]string, len(t.branches[nk]))
		copy(list, t.branches[nk])
		out[label] = list
	}
	return out
}

// NormalizeLabel upper-cases s, strips diacritics and collapses whitespace.
func NormalizeLabel(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(tr, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}
