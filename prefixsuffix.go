package keycal

import "strings"

// PreprocessorException is a non-fatal observation raised while
// pre-processing a reported scan, before the main translation pass runs
// (spec §4.9 steps 1-3).
type PreprocessorException struct {
	Code        Code
	Description string
}

// PreprocessorFunc is a host-supplied pre-processing hook run in order
// before the built-in prefix/suffix/dead-key-flush steps. It receives the
// string so far and returns the (possibly modified) string plus any
// exceptions to surface to the caller (spec §6 `calibrate(... preprocessors?)`).
type PreprocessorFunc func(s string) (string, []PreprocessorException)

// stripPrefix implements spec §4.9 step 1: delete reported_prefix from the
// head of s if it is found within the first len(aimFlagSequence)+2
// codepoints.
func stripPrefix(s, reportedPrefix, aimFlagSequence string) string {
	if reportedPrefix == "" {
		return s
	}
	window := graphemeLen(aimFlagSequence) + 2
	r := []rune(s)
	limit := window
	if limit > len(r) {
		limit = len(r)
	}
	head := string(r[:limit])
	idx := strings.Index(head, reportedPrefix)
	if idx < 0 {
		return s
	}
	return string(r[:idx]) + string(r[idx+len([]rune(reportedPrefix)):])
}

// stripSuffix implements spec §4.9 step 2: locate and remove
// reported_suffix from one of several candidate positions near the tail.
// If a different, unambiguous suffix is observed instead, it reports a
// soft exception but leaves s untouched.
func stripSuffix(s, reportedSuffix string) (string, []PreprocessorException) {
	if reportedSuffix == "" {
		return s, nil
	}
	r := []rune(s)
	suf := []rune(reportedSuffix)

	tryAt := func(end int) (string, bool) {
		start := end - len(suf)
		if start < 0 || end > len(r) {
			return "", false
		}
		if string(r[start:end]) != reportedSuffix {
			return "", false
		}
		return string(r[:start]) + string(r[end:]), true
	}

	// Absolute end.
	if out, ok := tryAt(len(r)); ok {
		return out, nil
	}
	// Just before a terminal EOT.
	if len(r) > 0 && r[len(r)-1] == charEOT {
		if out, ok := tryAt(len(r) - 1); ok {
			return out + string(charEOT), nil
		}
	}
	// After a terminal EOT.
	if idx := lastIndexRune(r, charEOT); idx >= 0 && idx+1 <= len(r) {
		start := idx + 1
		if start+len(suf) == len(r) && string(r[start:]) == reportedSuffix {
			return string(r[:start]), nil
		}
	}
	// After the last RS.
	if idx := lastIndexRune(r, charRS); idx >= 0 && idx+1 <= len(r) {
		start := idx + 1
		if start+len(suf) == len(r) && string(r[start:]) == reportedSuffix {
			return string(r[:start]), nil
		}
	}

	return s, []PreprocessorException{{
		Code:        CodeUnexpectedSuffixObserved,
		Description: "an unexpected trailing sequence was observed but left intact",
	}}
}

func lastIndexRune(r []rune, target rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == target {
			return i
		}
	}
	return -1
}

// relocateFlushedDeadKey implements spec §4.9 step 3: some format-05/06
// submit-time flushing leaves the literal dead-key character after a run of
// control characters that follows a NUL; this moves it back to directly
// after that NUL.
func relocateFlushedDeadKey(s string) string {
	r := []rune(s)
	for i := 0; i < len(r); i++ {
		if r[i] != charNUL {
			continue
		}
		j := i + 1
		for j < len(r) && isControlByte(r[j]) {
			j++
		}
		if j == i+1 || j >= len(r) {
			continue
		}
		// r[j] is the misplaced literal; move it back to i+1.
		moved := r[j]
		out := append([]rune{}, r[:i+1]...)
		out = append(out, moved)
		out = append(out, r[i+1:j]...)
		out = append(out, r[j+1:]...)
		return relocateFlushedDeadKey(string(out))
	}
	return s
}

func isControlByte(r rune) bool {
	return r == charFS || r == charGS || r == charRS || r == charUS || r == charEOT
}
