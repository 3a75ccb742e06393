package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{name: "blank entries from a trailing separator", input: []string{"prover", " ", ""}, expected: []string{"prover"}},
		{name: "keeps first occurrence order", input: []string{" b", "a ", "b"}, expected: []string{"b", "a"}},
		{name: "case is preserved", input: []string{"Admin", "admin"}, expected: []string{"Admin", "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	got := DedupeAndTrimLower([]string{" Admin", "admin", "PROVER ", "", "0xAB", "0xab"})
	assert.Equal(t, []string{"admin", "prover", "0xab"}, got)
}
