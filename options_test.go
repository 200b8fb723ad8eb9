package keycal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRunSettingsAppliesOptions(t *testing.T) {
	s := newRunSettings([]Option{
		WithCapsLock(CapsLockOn),
		WithPlatform(PlatformMacintosh),
		WithDataEntryTimespan(2 * time.Second),
		WithScriptAssessment(true),
		WithSmallBarcodeSequence(2, 5),
	})
	assert.Equal(t, CapsLockOn, s.capsLock)
	assert.Equal(t, PlatformMacintosh, s.platform)
	assert.Equal(t, 2*time.Second, s.dataEntryTimespan)
	assert.True(t, s.assessScript)
	assert.Equal(t, 2, s.smallBarcodeIndex)
	assert.Equal(t, 5, s.smallBarcodeCount)
}

func TestWithPreprocessorsAccumulates(t *testing.T) {
	noop := func(s string) (string, []PreprocessorException) { return s, nil }
	s := newRunSettings([]Option{WithPreprocessors(noop), WithPreprocessors(noop)})
	assert.Len(t, s.preprocessors, 2)
}

func TestWithRecognisedFirstChars(t *testing.T) {
	chars := map[rune]bool{'A': true}
	s := newRunSettings([]Option{WithRecognisedFirstChars(chars)})
	assert.True(t, s.recognisedFirstChars['A'])
}
