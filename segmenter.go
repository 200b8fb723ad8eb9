package keycal

import "strings"

// Segment indices as fixed by spec §4.2.
const (
	segPrefix = iota
	segInvariants
	segNonInvariants
	segGS
	segRS
	segFS
	segUS
	segEOT
	segSuffix
)

// EOLKind records which end-of-line convention, if any, terminated a
// reported scan.
type EOLKind int

const (
	EOLNone EOLKind = iota
	EOLCR
	EOLLF
	EOLCRLF
	EOLLFCR
)

// Segments is the output of the segmenter: one slice of sequences per
// segment index, plus the end-of-line metadata stripped off the tail.
type Segments struct {
	Segments  [][]string
	EOL       EOLKind
	LFChar    rune // the reported character that encoded LF, 0 if none/identity
	HasLFChar bool
}

func (s Segments) at(i int) []string {
	if i < 0 || i >= len(s.Segments) {
		return nil
	}
	return s.Segments[i]
}

// newSegments returns n empty segment slots, indexed by the canonical list
// (segPrefix..segSuffix); slots the input never fills stay empty (e.g.
// format-assessment control segments when that mode is off).
func newSegments(n int) Segments {
	return Segments{Segments: make([][]string, n)}
}

// segment splits a reported baseline string into segments of sequences
// (spec §4.2). declaredPrefix is an optional caller-declared reported
// prefix (set via SetReportedPrefix) that may itself contain spaces.
func segment(reported string, declaredPrefix string, formatAssessment bool) (Segments, Diagnostic, bool) {
	runes := []rune(reported)

	// Step 1: strip trailing CR/LF.
	eol, lfChar, hasLF, body := stripEOL(runes)

	// Step 2: temporary space-holder candidate.
	holder, ok := findSpaceHolder(body)
	if !ok {
		return Segments{}, diagnosticf(CodeNoTemporaryDelimiterCandidate, ""), false
	}

	// Step 3: protect scanner-dead-key forms ("NUL X space") that would
	// otherwise look like the start of a 3-space delimiter.
	body = protectScannerDeadKeys(body, holder)

	// Step 4: normalise 4-space runs to 3, marking interior runs.
	body = normaliseSpaceRuns(body, holder)

	// Step 5: split into segments by 3-space runs, then into sequences by
	// single spaces, restoring holder-protected spaces.
	rawSegments := splitOnRun(body, ' ', 3)
	segments := make([][]string, len(rawSegments))
	for i, seg := range rawSegments {
		segments[i] = splitSequences(seg, holder)
	}
	if len(segments) < 2 {
		return Segments{}, diagnosticf(CodeUnrecognisedData, ""), false
	}

	// Step 6: locate the prefix/body boundary within segment 0. An absent
	// boundary marker with no declared prefix means the scanner reports no
	// prefix at all, not a segmentation failure.
	prefix, rest, _ := splitPrefixBoundary(segments[0], declaredPrefix, holder)

	ordered := newSegments(segSuffix + 1)
	ordered.EOL, ordered.LFChar, ordered.HasLFChar = eol, lfChar, hasLF
	ordered.Segments[segPrefix] = prefix

	body2 := append([][]string{rest}, segments[1:]...)
	idx := segInvariants
	for _, seg := range body2 {
		if idx > segSuffix {
			// Step 7: fold spurious extra segments back into the suffix.
			ordered.Segments[segSuffix] = append(ordered.Segments[segSuffix], seg...)
			continue
		}
		ordered.Segments[idx] = seg
		idx++
	}
	if !formatAssessment {
		// Without format assessment, FS/RS/US/EOT never appeared: whatever
		// followed GS belongs to the suffix, so move it out of the control
		// segment slots.
		var tail []string
		for i := segRS; i <= segSuffix; i++ {
			tail = append(tail, ordered.Segments[i]...)
			ordered.Segments[i] = nil
		}
		ordered.Segments[segSuffix] = tail
	}
	return ordered, Diagnostic{}, true
}

func stripEOL(runes []rune) (EOLKind, rune, bool, []rune) {
	n := len(runes)
	if n >= 2 && runes[n-2] == charCR && runes[n-1] == charLF {
		return EOLCRLF, charLF, true, runes[:n-2]
	}
	if n >= 2 && runes[n-2] == charLF && runes[n-1] == charCR {
		return EOLLFCR, charLF, true, runes[:n-2]
	}
	if n >= 1 && runes[n-1] == charCR {
		return EOLCR, 0, false, runes[:n-1]
	}
	if n >= 1 && runes[n-1] == charLF {
		return EOLLF, charLF, true, runes[:n-1]
	}
	return EOLNone, 0, false, runes
}

func findSpaceHolder(runes []rune) (rune, bool) {
	present := make(map[rune]bool, len(runes))
	for _, r := range runes {
		present[r] = true
	}
	for c := rune(0x80); c <= 0xFF; c++ {
		if !present[c] {
			return c, true
		}
	}
	return 0, false
}

// protectScannerDeadKeys replaces the space that follows a "NUL X" pair
// with holder when that space is immediately followed by a non-space or by
// the start of a 3-space delimiter, so the later delimiter split doesn't
// swallow it (spec §4.2 step 3). When a non-space follows, a separator space
// is inserted after the holder so that character starts the next sequence.
func protectScannerDeadKeys(runes []rune, holder rune) []rune {
	out := append([]rune(nil), runes...)
	for i := 0; i+2 < len(out); i++ {
		if out[i] != charNUL || out[i+2] != ' ' {
			continue
		}
		next := i + 3
		if next >= len(out) || out[next] != ' ' {
			out[i+2] = holder
			if next < len(out) {
				// the separator after the sequence was consumed: restore it
				// so the following character starts its own sequence.
				out = append(out[:next], append([]rune{' '}, out[next:]...)...)
			}
		} else {
			// start of a delimiter run: still protect it, the run
			// normaliser will see the holder instead of a real space.
			out[i+2] = holder
		}
	}
	return out
}

// normaliseSpaceRuns collapses 4-space runs to 3 (a dead key preceding a
// delimiter swallows one space) and marks non-terminal 3-space runs within
// longer runs using holder so only true delimiters remain as bare 3-space
// runs (spec §4.2 step 4).
func normaliseSpaceRuns(runes []rune, holder rune) []rune {
	var out []rune
	i := 0
	for i < len(runes) {
		if runes[i] != ' ' {
			out = append(out, runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && runes[j] == ' ' {
			j++
		}
		run := j - i
		switch {
		case run == 4:
			out = append(out, ' ', ' ', ' ')
		case run > 4:
			// keep the final 3 as the real delimiter, mark the rest.
			for k := 0; k < run-3; k++ {
				out = append(out, holder)
			}
			out = append(out, ' ', ' ', ' ')
		default:
			out = append(out, runes[i:j]...)
		}
		i = j
	}
	return out
}

// splitOnRun splits runes on every run of exactly n consecutive copies of
// sep, returning the fragments between runs.
func splitOnRun(runes []rune, sep rune, n int) [][]rune {
	var out [][]rune
	var cur []rune
	i := 0
	for i < len(runes) {
		if runes[i] == sep {
			j := i
			for j < len(runes) && runes[j] == sep {
				j++
			}
			if j-i == n {
				out = append(out, cur)
				cur = nil
				i = j
				continue
			}
		}
		cur = append(cur, runes[i])
		i++
	}
	out = append(out, cur)
	return out
}

// splitSequences splits a segment's runes on single spaces into sequences,
// restoring any holder runes back to literal spaces.
func splitSequences(runes []rune, holder rune) []string {
	parts := splitOnRune(runes, ' ')
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.ReplaceAll(string(p), string(holder), " ")
	}
	return out
}

func splitOnRune(runes []rune, sep rune) [][]rune {
	var out [][]rune
	var cur []rune
	for _, r := range runes {
		if r == sep {
			out = append(out, cur)
			cur = nil
			continue
		}
		cur = append(cur, r)
	}
	out = append(out, cur)
	return out
}

// splitPrefixBoundary finds the first holder+space occurrence in segment 0
// after any declared reported prefix, splitting it into the prefix
// sequences and the remainder of segment 0 which belongs to the payload
// body (spec §4.2 step 6).
func splitPrefixBoundary(seg0 []string, declaredPrefix string, holder rune) ([]string, []string, bool) {
	joined := strings.Join(seg0, " ")
	runes := []rune(joined)

	start := 0
	if declaredPrefix != "" && strings.HasPrefix(joined, declaredPrefix) {
		start = len([]rune(declaredPrefix))
	}
	marker := string(holder) + " "
	idx := strings.Index(string(runes[start:]), marker)
	if idx < 0 {
		// No holder+space boundary marker and no declared prefix: the
		// scanner emits no prefix at all, so segment 0 is the payload body
		// in full (spec §8 S1-S3, S5 have no scanner-reported prefix).
		if declaredPrefix == "" {
			return nil, seg0, true
		}
		return splitSequences([]rune(declaredPrefix), holder), splitSequences(runes[start:], holder), true
	}
	boundary := start + idx
	prefixRunes := runes[:boundary]
	restRunes := runes[boundary+2:] // skip holder+space marker
	return splitSequences(prefixRunes, holder), splitSequences(restRunes, holder), true
}
