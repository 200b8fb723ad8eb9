package keycal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildReportedBaseline renders a baseline payload the way the scanner would
// if every expected character in subs were reported as a different sequence
// instead of itself, mirroring buildBaselinePayload's layout.
func buildReportedBaseline(formatAssessment bool, subs map[rune]string) string {
	reportOf := func(c rune) string {
		if s, ok := subs[c]; ok {
			return s
		}
		return string(c)
	}
	seqJoin := func(chars string) string {
		parts := make([]string, 0, len([]rune(chars)))
		for _, c := range chars {
			parts = append(parts, reportOf(c))
		}
		return strings.Join(parts, " ")
	}
	segs := []string{seqJoin(invariantChars), seqJoin(nonInvariantChars), string(charGS)}
	if formatAssessment {
		segs = append(segs, string(charRS), string(charFS), string(charUS), string(charEOT))
	}
	out := ""
	for _, s := range segs {
		out += s + "   "
	}
	return out + " "
}

func TestEndToEndS1IdentityKeyboard(t *testing.T) {
	c := New(Calibration, WithFormatAssessment(true))
	payload := c.BaselineBarcodeData(0)[0]

	tok := c.Calibrate(payload)
	require.False(t, tok.HasErrors())
	require.False(t, tok.CalibrationSessionAbandoned)
	require.NotNil(t, tok.ExtendedData)
	assert.Empty(t, tok.ExtendedData.CharacterMap)
	assert.Equal(t, "]", tok.ExtendedData.AimFlagSequence)

	out, exc := c.ProcessInput("]d2123456")
	assert.Empty(t, exc)
	assert.Equal(t, "]d2123456", out)
}

func TestEndToEndS2FrenchAzertyOnQwertyScanner(t *testing.T) {
	c := New(Calibration, WithFormatAssessment(true))
	subs := map[rune]string{
		'q': "a", 'a': "q",
		'w': "z", 'z': "w",
		'm': ",",
		'1': "&", '2': "é",
	}
	payload := buildReportedBaseline(true, subs)

	tok := c.Calibrate(payload)
	require.False(t, tok.HasErrors())
	require.False(t, tok.CalibrationSessionAbandoned)

	cm := tok.ExtendedData.CharacterMap
	assert.Equal(t, 'q', cm['a'])
	assert.Equal(t, 'a', cm['q'])
	assert.Equal(t, 'w', cm['z'])
	assert.Equal(t, 'z', cm['w'])
	assert.Equal(t, 'm', cm[','])
	assert.Equal(t, '1', cm['&'])
	assert.Equal(t, '2', cm['é'])

	out, exc := c.ProcessInput("&é")
	assert.Empty(t, exc)
	assert.Equal(t, "12", out)
}

// TestEndToEndS3SwissGermanDeadKeyGrave exercises the baseline-phase
// recognition of a "NUL literal" dead-key report (spec §8 S3) and the
// resulting translation table, without simulating a full statistical
// supplementary-scan provenance fingerprint (covered separately by
// deadkey_test.go).
func TestEndToEndS3SwissGermanDeadKeyGrave(t *testing.T) {
	c := New(Calibration, WithFormatAssessment(true))
	subs := map[rune]string{
		'\'': string([]rune{charNUL, '\''}),
	}
	payload := buildReportedBaseline(true, subs)

	tok := c.Calibrate(payload)
	require.False(t, tok.HasErrors())
	require.False(t, tok.CalibrationSessionAbandoned)
	require.Equal(t, "\x00'", tok.Key)
	require.Equal(t, 1, tok.CalibrationsRemaining)
	assert.Equal(t, "'", c.data.DeadKeysMap["\x00'"])

	translator := NewTranslator(c.data)
	out, exc := translator.ProcessInput("\x00'A")
	assert.Empty(t, exc)
	assert.Equal(t, "'A", out)
}

// TestAnalyseControlsMissingGroupSeparatorIsFatal exercises the literal
// spec §8 S4 diagnostic (an empty GS segment) directly against
// analyseControls, and confirms the error code is not one that abandons
// the session.
func TestAnalyseControlsMissingGroupSeparatorIsFatal(t *testing.T) {
	segs := newSegments(segSuffix + 1)
	data := newExtendedData()
	log := &Log{}

	analyseControls(segs, data, log, true)

	found := false
	for _, d := range log.Errors {
		if d.Type == CodeNoGroupSeparatorMapping {
			found = true
		}
	}
	assert.True(t, found)
	assert.True(t, log.HasErrors())
	assert.False(t, log.abandons())
}

// TestEndToEndS4FatalErrorDoesNotAbandonSession exercises spec §8 S4's
// broader point: a fatal-but-non-abandoning error (here two invariants
// colliding on the same reported sequence, CodeMultipleKeys) stops that
// scan from producing translation tables but leaves the calibration
// session open for a corrected rescan.
func TestEndToEndS4FatalErrorDoesNotAbandonSession(t *testing.T) {
	c := New(Calibration, WithFormatAssessment(true))
	bad := buildReportedBaseline(true, map[rune]string{'A': "5", 'B': "5"})

	tok := c.Calibrate(bad)
	require.True(t, tok.HasErrors())
	assert.False(t, tok.CalibrationSessionAbandoned)
	found := false
	for _, d := range tok.Errors {
		if d.Type == CodeMultipleKeys {
			found = true
		}
	}
	assert.True(t, found)
	assert.Nil(t, tok.ExtendedData)

	good := buildReportedBaseline(true, map[rune]string{})
	tok = c.Calibrate(good)
	require.False(t, tok.HasErrors())
	require.False(t, tok.CalibrationSessionAbandoned)
	require.NotNil(t, tok.ExtendedData)
}

func TestEndToEndS5CapsLockOnFullInversion(t *testing.T) {
	c := New(Calibration, WithFormatAssessment(true))
	subs := map[rune]string{}
	for _, r := range invariantChars {
		switch {
		case r >= 'A' && r <= 'Z':
			subs[r] = strings.ToLower(string(r))
		case r >= 'a' && r <= 'z':
			subs[r] = strings.ToUpper(string(r))
		}
	}
	payload := buildReportedBaseline(true, subs)

	tok := c.Calibrate(payload, WithCapsLock(CapsLockOn))
	require.False(t, tok.HasErrors())
	require.False(t, tok.CalibrationSessionAbandoned)

	found := false
	for _, d := range tok.Warnings {
		if d.Type == CodeCapsLockOn {
			found = true
		}
	}
	assert.True(t, found, "expected a CapsLockOn warning for full case inversion")
	assert.True(t, isTrivialCaseInversion(tok.ExtendedData.CharacterMap))

	out, exc := c.ProcessInput("ABC")
	assert.Empty(t, exc)
	assert.Equal(t, "abc", out)
}

func TestEndToEndS6SmallBarcodeSequenceWithRepeatedScannerPrefix(t *testing.T) {
	const prefix = ">"
	full := prefix + buildReportedBaseline(true, map[rune]string{})
	third := len([]rune(full)) / 3
	r := []rune(full)
	chunk1 := string(r[:third])
	chunk2 := prefix + string(r[third:2*third])
	chunk3 := prefix + string(r[2*third:])

	c := New(Calibration, WithFormatAssessment(true))
	c.SetReportedPrefix(prefix)
	tok := c.Calibrate(chunk1, WithSmallBarcodeSequence(1, 3))
	assert.Equal(t, 1, tok.SmallBarcodeSequenceIndex)
	assert.Equal(t, 3, tok.SmallBarcodeSequenceCount)

	tok = c.Calibrate(chunk2, WithSmallBarcodeSequence(2, 3))
	assert.Equal(t, 2, tok.SmallBarcodeSequenceIndex)

	tok = c.Calibrate(chunk3, WithSmallBarcodeSequence(3, 3))
	require.False(t, tok.HasErrors())
	require.False(t, tok.CalibrationSessionAbandoned)
	assert.Equal(t, prefix, tok.ExtendedData.ReportedPrefix)
}
