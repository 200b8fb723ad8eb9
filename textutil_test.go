package keycal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvariantChars(t *testing.T) {
	assert.Len(t, []rune(invariantChars), 82)
	assert.False(t, isInvariant(']'))
	assert.True(t, isInvariant('A'))
	assert.True(t, isInvariant('0'))
}

func TestNonInvariantChars(t *testing.T) {
	assert.Contains(t, nonInvariantChars, "]")
	assert.Len(t, []rune(nonInvariantChars), 12)
	for _, r := range nonInvariantChars {
		assert.False(t, isInvariant(r), "non-invariant set must not overlap invariant set: %q", r)
	}
}

func TestDescribeRune(t *testing.T) {
	td := []struct {
		in   rune
		want string
	}{
		{'A', "A"},
		{charGS, "␝ (GS)"},
		{charNUL, "␀ (NUL)"},
	}
	for _, tc := range td {
		assert.Equal(t, tc.want, describeRune(tc.in))
	}
}

func TestClassifyScript(t *testing.T) {
	latin := map[rune]bool{'a': true, 'b': true, 'A': true}
	assert.Equal(t, "", classifyScript(latin))

	cyrillic := map[rune]bool{'а': true, 'б': true, 'в': true}
	assert.Equal(t, "Cyrillic", classifyScript(cyrillic))
}

func TestGraphemeLen(t *testing.T) {
	assert.Equal(t, 1, graphemeLen("a"))
	assert.Equal(t, 1, graphemeLen("é")) // e + combining acute accent
	assert.Equal(t, 2, graphemeLen("ae"))
}
