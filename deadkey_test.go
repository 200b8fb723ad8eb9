package keycal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMostFrequentDeadKeyChar(t *testing.T) {
	reported := string([]rune{charNUL, 'e', charNUL, 'e', charNUL, 'x'})
	c, ok := mostFrequentDeadKeyChar(reported)
	assert.True(t, ok)
	assert.Equal(t, 'e', c)
}

func TestMostFrequentDeadKeyCharNoMatches(t *testing.T) {
	_, ok := mostFrequentDeadKeyChar("abc")
	assert.False(t, ok)
}

func TestSplitOnDeadKeyChar(t *testing.T) {
	got := splitOnDeadKeyChar("^a^b^c", '^')
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestRewriteDeadKeyChar(t *testing.T) {
	data := newExtendedData()
	data.DeadKeysMap["\x00^a"] = "A"
	data.CharacterMap['^'] = 'a'

	rewriteDeadKeyChar(data, '^', '~')

	assert.Equal(t, "A", data.DeadKeysMap["\x00~a"])
	_, hasOld := data.DeadKeysMap["\x00^a"]
	assert.False(t, hasOld)
	assert.Equal(t, 'a', data.CharacterMap['~'])
	_, hasOldChar := data.CharacterMap['^']
	assert.False(t, hasOldChar)
}

func TestSupplementaryASCIIOrderExcludesUnassigned(t *testing.T) {
	unassigned := map[rune]bool{'A': true}
	order := supplementaryASCIIOrder(unassigned)
	for _, r := range order {
		assert.NotEqual(t, 'A', r)
	}
	assert.Contains(t, order, rune('B'))
}

func TestBuildSupplementaryPayload(t *testing.T) {
	unassigned := map[rune]bool{}
	payload := BuildSupplementaryPayload('^', unassigned)
	assert.Equal(t, len(supplementaryASCIIOrder(unassigned))*2, len([]rune(payload)))
	assert.Equal(t, '^', []rune(payload)[0])
}
