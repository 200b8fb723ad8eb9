package keycal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaselineBarcodeDataShape(t *testing.T) {
	c := New(Calibration)
	payloads := c.BaselineBarcodeData(0)
	assert.Len(t, payloads, 1)
	assert.Contains(t, payloads[0], string(charGS))
	for _, r := range invariantChars {
		assert.Contains(t, payloads[0], string(r))
	}
}

func TestBaselineBarcodeDataChunking(t *testing.T) {
	c := New(Calibration)
	payload := c.BaselineBarcodeData(0)[0]
	chunked := c.BaselineBarcodeData(10)
	assert.Greater(t, len(chunked), 1)
	reassembled := ""
	for _, p := range chunked {
		reassembled += p
	}
	assert.Equal(t, payload, reassembled)
}

func TestChunkPayloadNoSplitWhenUnderSize(t *testing.T) {
	got := chunkPayload("hello", 10)
	assert.Equal(t, []string{"hello"}, got)
}

func TestChunkPayloadSplitsBySize(t *testing.T) {
	got := chunkPayload("abcdefgh", 3)
	assert.Equal(t, []string{"abc", "def", "gh"}, got)
}

func TestCoerceReported(t *testing.T) {
	s, err := coerceReported("hello")
	assert.NoError(t, err)
	assert.Equal(t, "hello", s)

	s, err = coerceReported([]int{65, 66})
	assert.NoError(t, err)
	assert.Equal(t, "AB", s)

	_, err = coerceReported(42)
	assert.Error(t, err)
}

func TestProcessInputBeforeCalibrationIsPassthrough(t *testing.T) {
	c := New(Calibration)
	out, exc := c.ProcessInput("hello")
	assert.Equal(t, "hello", out)
	assert.Len(t, exc, 1)
	assert.Equal(t, CodeCalibrationFailed, exc[0].Code)
}

func TestCalibrateRejectsUnrecognisedDataType(t *testing.T) {
	c := New(Calibration)
	tok := c.Calibrate(42)
	assert.True(t, tok.HasErrors())
	assert.True(t, tok.CalibrationSessionAbandoned)
}

func TestCalibrateRejectsEmptyScan(t *testing.T) {
	c := New(Calibration)
	tok := c.Calibrate("")
	assert.True(t, tok.HasErrors())
	assert.True(t, tok.CalibrationSessionAbandoned)
}

func TestSystemCapabilitiesNilBeforeCompletion(t *testing.T) {
	c := New(Calibration)
	assert.Nil(t, c.SystemCapabilities())
}

func TestWithSmallBarcodeSequenceDefaults(t *testing.T) {
	s := newRunSettings(nil)
	assert.Equal(t, 1, s.smallBarcodeIndex)
	assert.Equal(t, 1, s.smallBarcodeCount)
}
