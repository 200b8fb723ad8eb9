package keycal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	td := []struct {
		name     string
		reported string
		expected rune
		want     classKind
	}{
		{"identical", "A", 'A', classIdentical},
		{"substitution", "Z", 'A', classSubstitution},
		{"dead key sequence", string([]rune{charNUL, 'e'}), 'A', classDeadKeySequence},
		{"scanner dead key", "e ", 'A', classScannerDeadKey},
		{"NUL space scanner dead key", string([]rune{charNUL, ' '}), 'A', classScannerDeadKey},
		{"unrecognised", "", 'A', classUnrecognised},
		{"chained dead keys", string([]rune{charNUL, charNUL, 'e'}), 'A', classChainedDeadKeys},
	}
	for _, tc := range td {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(tc.reported, tc.expected))
		})
	}
}

func TestIsTrivialCaseInversion(t *testing.T) {
	assert.True(t, isTrivialCaseInversion(map[rune]rune{}))
	assert.False(t, isTrivialCaseInversion(map[rune]rune{'a': 'A', 'B': 'b'}))
	assert.False(t, isTrivialCaseInversion(map[rune]rune{'a': 'Z'}))
}

func TestAsciiCaseFlip(t *testing.T) {
	becameLower, ok := asciiCaseFlip("a", 'A')
	assert.True(t, ok)
	assert.True(t, becameLower)

	becameLower, ok = asciiCaseFlip("A", 'a')
	assert.True(t, ok)
	assert.False(t, becameLower)

	_, ok = asciiCaseFlip("z", 'A')
	assert.False(t, ok)
}

func TestAnalyseBaselineIdentityKeyboard(t *testing.T) {
	segs := newSegments(segSuffix + 1)
	invariants := []string{}
	for _, r := range invariantChars {
		invariants = append(invariants, string(r))
	}
	segs.Segments[segInvariants] = invariants
	nonInvariants := []string{}
	for _, r := range nonInvariantChars {
		nonInvariants = append(nonInvariants, string(r))
	}
	segs.Segments[segNonInvariants] = nonInvariants

	outcome := analyseBaseline(segs, CapsLockOff, PlatformWindows)
	assert.Empty(t, outcome.data.CharacterMap)
	assert.True(t, outcome.keyboardMatch)
	assert.False(t, outcome.log.HasErrors())
}

func TestAnalyseBaselineNulSpaceIsScannerUnassignedNotDeadKey(t *testing.T) {
	segs := newSegments(segSuffix + 1)
	invariants := []string{}
	for _, r := range invariantChars {
		if r == 'A' {
			invariants = append(invariants, string([]rune{charNUL, ' '}))
			continue
		}
		invariants = append(invariants, string(r))
	}
	segs.Segments[segInvariants] = invariants
	segs.Segments[segNonInvariants] = make([]string, len([]rune(nonInvariantChars)))
	for i, r := range nonInvariantChars {
		segs.Segments[segNonInvariants][i] = string(r)
	}

	outcome := analyseBaseline(segs, CapsLockOff, PlatformWindows)
	assert.True(t, outcome.data.ScannerUnassignedKeys['A'])
	assert.NotContains(t, outcome.data.DeadKeysMap, "\x00 ")
	assert.False(t, outcome.pendingDeadKeys[' '])
}

func TestAnalyseBaselineSubstitution(t *testing.T) {
	segs := newSegments(segSuffix + 1)
	invariants := []string{}
	for _, r := range invariantChars {
		if r == 'A' {
			invariants = append(invariants, "Q")
			continue
		}
		invariants = append(invariants, string(r))
	}
	segs.Segments[segInvariants] = invariants
	segs.Segments[segNonInvariants] = make([]string, len([]rune(nonInvariantChars)))
	for i, r := range nonInvariantChars {
		segs.Segments[segNonInvariants][i] = string(r)
	}

	outcome := analyseBaseline(segs, CapsLockOff, PlatformWindows)
	assert.Equal(t, rune('A'), outcome.data.CharacterMap['Q'])
	assert.False(t, outcome.keyboardMatch)
}
