package keycal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyProvenanceNoData(t *testing.T) {
	assert.Equal(t, ProvenanceNoData, classifyProvenance("", false))
}

func TestClassifyProvenanceBaselineShape(t *testing.T) {
	// A fragment whose space-separated tokens approximate the 82-character
	// baseline's mean inter-space interval and length closely enough to
	// pass fitsExpectation's tolerance.
	var b strings.Builder
	for i := 0; i < 82; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('A')
	}
	fragment := "xxx   " + b.String() + "   xxx"
	got := classifyProvenance(fragment, false)
	assert.Contains(t, []Provenance{ProvenanceBaseline, ProvenancePartialBaseline}, got)
}

func TestIntervalsBetween(t *testing.T) {
	runes := []rune("a a a")
	got := intervalsBetween(runes, ' ')
	assert.Equal(t, []float64{2}, got)
}

func TestMeanStddev(t *testing.T) {
	mean, sd := meanStddev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 0.01)
	assert.InDelta(t, 2.138, sd, 0.01)
}

func TestMeanStddevSingleSample(t *testing.T) {
	mean, sd := meanStddev([]float64{3})
	assert.Equal(t, 3.0, mean)
	assert.Equal(t, 0.0, sd)
}

func TestLongestFragment(t *testing.T) {
	runes := []rune("a   bb   ccc")
	got := longestFragment(runes, ' ', 3)
	assert.Equal(t, "ccc", string(got))
}
