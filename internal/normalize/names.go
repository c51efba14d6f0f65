// Package normalize canonicalizes team names arriving from heterogeneous
// sources so that variant spellings resolve to a single TeamKey.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Club suffixes and prefixes that carry no identity. Matched as whole
// tokens after lowercasing.
var strippedTokens = map[string]bool{
	"fc": true, "afc": true, "cf": true, "sc": true, "ac": true,
	"rc": true, "cd": true, "sd": true, "ud": true, "bc": true,
	"1.": true, "as": true, "ss": true, "us": true, "fk": true,
	"sk": true, "nk": true, "if": true, "bk": true, "sv": true,
	"tsg": true, "vfb": true, "vfl": true, "rb": true,
}

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// TeamName returns the deterministic canonical form of a raw team name:
// diacritics stripped, lowercased, club-form tokens removed, whitespace
// collapsed. Two source names that normalize identically refer to the
// same team.
func TeamName(raw string) string {
	s, _, err := transform.String(diacriticStripper, raw)
	if err != nil {
		s = raw
	}
	s = strings.ToLower(s)

	// Punctuation separates tokens ("St. Pauli", "Brighton & Hove")
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' {
			return r
		}
		return ' '
	}, s)

	fields := strings.Fields(s)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if strippedTokens[f] || strippedTokens[strings.TrimSuffix(f, ".")] {
			continue
		}
		kept = append(kept, strings.TrimSuffix(f, "."))
	}
	if len(kept) == 0 {
		// Name consisted only of club-form tokens; keep the lowercased input
		return strings.Join(fields, " ")
	}
	return strings.Join(kept, " ")
}

// Mapper resolves source names through an explicit mapping table before
// falling back to deterministic normalization. The table carries
// provenance so conflicting upstream spellings stay auditable.
type Mapper struct {
	table map[string]MappedName
}

// MappedName is one mapping-table row
type MappedName struct {
	Canonical string `json:"canonical"`
	Source    string `json:"source"`
}

// NewMapper builds a mapper over an explicit source_name -> canonical table
func NewMapper(table map[string]MappedName) *Mapper {
	if table == nil {
		table = map[string]MappedName{}
	}
	return &Mapper{table: table}
}

// Resolve maps a raw source name to its canonical form. Mapping-table hits
// win; otherwise the deterministic normalization applies.
func (m *Mapper) Resolve(raw string) string {
	if row, ok := m.table[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return row.Canonical
	}
	return TeamName(raw)
}

// Similarity scores two normalized names in [0,1] using token overlap
// (Jaccard over token sets). Used by the fuzzy fallback, which only
// accepts candidates above 0.80.
func Similarity(a, b string) float64 {
	ta := tokenSet(TeamName(a))
	tb := tokenSet(TeamName(b))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if tb[t] {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

// FuzzyThreshold is the minimum similarity for a fuzzy candidate to win
const FuzzyThreshold = 0.80

func tokenSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, f := range strings.Fields(s) {
		out[f] = true
	}
	return out
}
