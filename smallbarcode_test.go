package keycal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmallBarcodeAccumulatorSingleChunk(t *testing.T) {
	acc := newSmallBarcodeAccumulator(1, "")
	full, complete := acc.add(1, "hello\r\n")
	assert.True(t, complete)
	assert.Equal(t, "hello", full)
}

func TestSmallBarcodeAccumulatorMultiChunk(t *testing.T) {
	acc := newSmallBarcodeAccumulator(3, "")

	_, complete := acc.add(1, "AAA")
	assert.False(t, complete)

	_, complete = acc.add(2, "BBB")
	assert.False(t, complete)

	full, complete := acc.add(3, "CCC")
	assert.True(t, complete)
	assert.Equal(t, "AAABBBCCC", full)
}

func TestCommonPrefix(t *testing.T) {
	assert.Equal(t, "PFX", commonPrefix("PFX   rest", "PFXother"))
	assert.Equal(t, "", commonPrefix("no delimiter here", "else"))
}

func TestSmallBarcodeAccumulatorStripsRepeatedScannerPrefixHeuristically(t *testing.T) {
	// No declared prefix: falls back to diffing chunk 1 against later chunks.
	acc := newSmallBarcodeAccumulator(3, "")

	_, complete := acc.add(1, ">!\"%&'")
	assert.False(t, complete)

	_, complete = acc.add(2, ">()*+,")
	assert.False(t, complete)

	full, complete := acc.add(3, ">-./0")
	assert.True(t, complete)
	assert.Equal(t, ">!\"%&'()*+,-./0", full)
}

func TestSmallBarcodeAccumulatorUsesDeclaredPrefixDirectly(t *testing.T) {
	// A declared prefix is trusted directly, even when a later chunk's body
	// happens to start with the same character(s) as chunk 1's body (which
	// would mislead the commonPrefix heuristic).
	acc := newSmallBarcodeAccumulator(3, ">")

	_, complete := acc.add(1, ">AAA")
	assert.False(t, complete)

	_, complete = acc.add(2, ">AAB")
	assert.False(t, complete)

	full, complete := acc.add(3, ">AAC")
	assert.True(t, complete)
	// Chunk 1 keeps its leading prefix intact (only chunks after the first
	// are stripped, spec §4.8); the segmenter recovers it later via
	// SetReportedPrefix.
	assert.Equal(t, ">AAAAABAAC", full)
}
