package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeamName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"strips fc suffix", "Liverpool FC", "liverpool"},
		{"strips afc prefix", "AFC Bournemouth", "bournemouth"},
		{"strips diacritics", "Atlético Madrid", "atletico madrid"},
		{"collapses whitespace", "  Manchester   City  ", "manchester city"},
		{"lowercases", "REAL MADRID CF", "real madrid"},
		{"numbered german clubs", "1. FC Köln", "koln"},
		{"keeps identity when only tokens", "FC", "fc"},
		{"ampersand split", "Brighton & Hove Albion", "brighton hove albion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TeamName(tt.input))
		})
	}
}

func TestTeamNameConvergence(t *testing.T) {
	// Variant source spellings must land on the same canonical key
	variants := []string{"Liverpool FC", "liverpool", "LIVERPOOL", "Liverpool  FC "}
	want := TeamName(variants[0])
	for _, v := range variants {
		assert.Equal(t, want, TeamName(v), "variant %q diverged", v)
	}
}

func TestMapperResolve(t *testing.T) {
	m := NewMapper(map[string]MappedName{
		"man city": {Canonical: "manchester city", Source: "oddsfeed"},
	})

	assert.Equal(t, "manchester city", m.Resolve("Man City"))
	assert.Equal(t, "liverpool", m.Resolve("Liverpool FC"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Liverpool FC", "liverpool"))
	assert.Greater(t, Similarity("Manchester City", "Manchester City FC"), FuzzyThreshold)
	assert.Less(t, Similarity("Liverpool", "Everton"), 0.2)
}
