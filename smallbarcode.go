package keycal

import "strings"

// smallBarcodeAccumulator reassembles a baseline or supplementary payload
// that arrived chunked across several physical barcodes (spec §4.8).
type smallBarcodeAccumulator struct {
	count          int
	declaredPrefix string // from Calibrator.SetReportedPrefix, when known
	chunks         []string
	rawFirst       string // chunk 1, unstripped, kept to derive capturedPrefix
	capturedPrefix string
}

func newSmallBarcodeAccumulator(count int, declaredPrefix string) *smallBarcodeAccumulator {
	return &smallBarcodeAccumulator{count: count, declaredPrefix: declaredPrefix}
}

// add folds in chunk index (1-based) of the sequence. It returns the fully
// reassembled string once the final chunk has been added, and false
// otherwise.
func (a *smallBarcodeAccumulator) add(index int, reported string) (string, bool) {
	chunk := stripTrailingEOL(reported)
	switch {
	case index == 1:
		a.rawFirst = chunk
	case a.declaredPrefix != "":
		// The caller already told us the scanner-emitted prefix (spec §4.8:
		// "leading reported prefix matching the prefix captured from chunk
		// 1"); use it directly instead of guessing from content.
		chunk = strings.TrimPrefix(chunk, a.declaredPrefix)
	case a.capturedPrefix != "":
		chunk = strings.TrimPrefix(chunk, a.capturedPrefix)
	case a.rawFirst != "":
		// No declared prefix: fall back to diffing chunk 1 against this
		// chunk, since the boundary between a repeated prefix and the
		// payload body has no delimiter of its own.
		a.capturedPrefix = commonPrefix(a.rawFirst, chunk)
		chunk = strings.TrimPrefix(chunk, a.capturedPrefix)
	}
	for len(a.chunks) < index {
		a.chunks = append(a.chunks, "")
	}
	a.chunks[index-1] = chunk

	if index < a.count {
		return "", false
	}
	return strings.Join(a.chunks, ""), true
}

func stripTrailingEOL(s string) string {
	r := []rune(s)
	_, _, _, body := stripEOL(r)
	return string(body)
}

// commonPrefix returns the longest leading run shared by a and b.
func commonPrefix(a, b string) string {
	ra, rb := []rune(a), []rune(b)
	n := len(ra)
	if len(rb) < n {
		n = len(rb)
	}
	i := 0
	for i < n && ra[i] == rb[i] {
		i++
	}
	return string(ra[:i])
}
