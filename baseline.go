package keycal

import (
	"unicode"
)

// classKind is the outcome of comparing one reported sequence against the
// expected character at the same baseline position (spec §4.4 step 1).
type classKind int

const (
	classIdentical classKind = iota
	classSubstitution
	classDeadKeySequence
	classScannerDeadKey
	classLigature
	classUnrecognised
	classChainedDeadKeys
)

// classify compares a reported sequence to the expected character it
// stands for.
func classify(reported string, expected rune) classKind {
	r := []rune(reported)
	switch {
	case len(r) == 0:
		return classUnrecognised
	case len(r) == 1 && r[0] == charNUL:
		return classUnrecognised
	case len(r) >= 1 && r[0] == expected && graphemeLen(reported) == 1:
		return classIdentical
	case len(r) >= 2 && r[0] == charNUL && r[1] == charNUL:
		return classChainedDeadKeys
	case len(r) == 2 && r[0] == charNUL && r[1] == ' ':
		return classScannerDeadKey // "NUL space", unassigned on OS
	case len(r) == 2 && r[0] == charNUL:
		return classDeadKeySequence
	case len(r) == 3 && r[0] == charNUL && r[2] == ' ':
		return classDeadKeySequence
	case len(r) == 2 && r[1] == ' ':
		return classScannerDeadKey // "c space"
	case graphemeLen(reported) > 1:
		return classLigature
	default:
		return classSubstitution
	}
}

// baselineOutcome is everything the baseline analyser produces before
// dead-key supplementary scans and ASCII-control analysis are folded in.
type baselineOutcome struct {
	data            *ExtendedData
	log             Log
	pendingDeadKeys map[rune]bool // OS-side dead keys awaiting a supplementary scan
	keyboardMatch   bool
	aimFlagSequence string
}

// analyseBaseline implements spec §4.4 steps 1-3, 5-9 (ASCII-control
// handling, step 4, lives in asciicontrol.go and is folded in by the
// caller).
func analyseBaseline(segs Segments, caps CapsLockState, platform Platform) baselineOutcome {
	data := newExtendedData()
	log := Log{}
	pending := map[rune]bool{}
	scannerDeadKeys := map[rune]bool{}
	obs := caseObservation{}

	type hit struct {
		expected rune
		reported string
		kind     classKind
	}
	var invariantHits, nonInvariantHits []hit

	invariantSeqs := segs.at(segInvariants)
	for i, expected := range []rune(invariantChars) {
		reported := ""
		if i < len(invariantSeqs) {
			reported = invariantSeqs[i]
		}
		invariantHits = append(invariantHits, hit{expected, reported, classify(reported, expected)})
	}
	nonInvariantSeqs := segs.at(segNonInvariants)
	for i, expected := range []rune(nonInvariantChars) {
		reported := ""
		if i < len(nonInvariantSeqs) {
			reported = nonInvariantSeqs[i]
		}
		nonInvariantHits = append(nonInvariantHits, hit{expected, reported, classify(reported, expected)})
	}

	recordReported := func(s string) {
		for _, r := range []rune(s) {
			data.ReportedCharacters[r] = true
		}
	}

	// seenInvariant/seenNonInvariant track duplicate reported
	// sequences for the MultipleKeys/MultipleSequences diagnostics (step 2,
	// 3).
	seenInvariant := map[string]rune{}
	seenNonInvariant := map[string]rune{}

	applyHit := func(h hit, invariant bool) {
		recordReported(h.reported)
		if unicode.IsUpper(h.expected) {
			if lower, ok := asciiCaseFlip(h.reported, h.expected); ok && lower {
				obs.upperToLower = true
			}
		}
		if unicode.IsLower(h.expected) {
			if lower, ok := asciiCaseFlip(h.reported, h.expected); ok && !lower {
				obs.lowerToUpper = true
			}
		}

		switch h.kind {
		case classIdentical:
			// no mapping entry needed.
		case classSubstitution:
			r := []rune(h.reported)[0]
			if prev, dup := seenIn(invariant, seenInvariant, seenNonInvariant)[string(r)]; dup && prev != h.expected {
				if invariant {
					log.add(diagnosticf(CodeMultipleKeys, "reported %s maps to both %s and %s",
						describeRune(r), describeRune(prev), describeRune(h.expected)))
				} else {
					log.add(diagnosticf(CodeMultipleSequencesNonInvariant, "reported %s maps to both %s and %s",
						describeRune(r), describeRune(prev), describeRune(h.expected)))
				}
			}
			seenMapFor(invariant, seenInvariant, seenNonInvariant)[string(r)] = h.expected

			// Invariant 2: when the same reported key already resolved to
			// an invariant target, a later non-invariant hit must not
			// clobber it.
			if existing, ok := data.CharacterMap[r]; ok && isInvariant(existing) && !isInvariant(h.expected) {
				break
			}
			data.CharacterMap[r] = h.expected
		case classDeadKeySequence:
			r := []rune(h.reported)
			key := "\x00" + string(r[1])
			pending[r[1]] = true
			if existing, ok := data.DeadKeysMap[key]; ok && existing != string(h.expected) {
				log.add(diagnosticf(CodeDeadKeyAmbiguityDowngraded,
					"dead-key sequence %q already maps to %s, also wants %s",
					key, existing, describeRune(h.expected)))
				if isInvariant(h.expected) && !isInvariant([]rune(existing)[0]) {
					data.DeadKeysMap[key] = string(h.expected)
				}
			} else {
				data.DeadKeysMap[key] = string(h.expected)
			}
		case classScannerDeadKey:
			r := []rune(h.reported)
			if r[0] == charNUL {
				data.ScannerUnassignedKeys[h.expected] = true
			} else {
				data.ScannerDeadKeysMap[h.expected] = h.reported
				scannerDeadKeys[h.expected] = true
			}
		case classLigature:
			if existing, dup := data.LigatureMap[h.reported]; dup && existing != h.expected {
				log.add(diagnosticf(CodeMultipleSequencesNonInvariant,
					"ligature %q already maps to %s, also wants %s", h.reported, string(existing), describeRune(h.expected)))
			}
			data.LigatureMap[h.reported] = h.expected
		case classChainedDeadKeys:
			log.add(diagnosticf(CodeDeadKeyMultipleKeys, "chained dead keys reported for %s", describeRune(h.expected)))
		case classUnrecognised:
			if invariant {
				log.add(diagnosticf(CodeMultipleKeys, "no legible sequence reported for invariant %s", describeRune(h.expected)))
			}
		}
	}

	for _, h := range invariantHits {
		applyHit(h, true)
	}
	for _, h := range nonInvariantHits {
		applyHit(h, false)
	}

	// step 8: de-duplication favouring invariant targets is done entirely
	// by the per-hit guard above: invariantHits are always applied before
	// nonInvariantHits, so a later non-invariant write can only see an
	// existing invariant entry, never the reverse; a post-hoc sweep over
	// the finished map would have nothing left to do.

	// step 6: keyboard-match decision. True iff the only entries are the
	// trivial full-alphabet case-inversion pattern, or no entries at all.
	keyboardMatch := isTrivialCaseInversion(data.CharacterMap) || len(data.CharacterMap) == 0

	// step 5: case & CAPS-LOCK inference.
	for _, d := range inferCaseAndCapsLock(obs, caps, platform) {
		log.add(d)
	}

	// step 9: OS-side dead keys that are ALSO scanner-side dead keys don't
	// need a supplementary scan: the scanner already produces the literal
	// glyph for them via its own "c space" handling.
	for c := range scannerDeadKeys {
		delete(pending, c)
	}
	for k := range data.DeadKeysMap {
		c := []rune(k)[1]
		data.DeadKeyCharacterMap[k] = c
	}

	// step 7: AIM flag sequence, derived from the non-invariant slot at ']'.
	aimSeq := ""
	for _, h := range nonInvariantHits {
		if h.expected == aimFlagChar {
			aimSeq = h.reported
			break
		}
	}
	data.AimFlagSequence = aimSeq

	if log.HasErrors() {
		log.add(newDiagnostic(CodeCalibrationFailed))
	}

	return baselineOutcome{
		data:            data,
		log:             log,
		pendingDeadKeys: pending,
		keyboardMatch:   keyboardMatch,
		aimFlagSequence: aimSeq,
	}
}

func seenIn(invariant bool, a, b map[string]rune) map[string]rune {
	if invariant {
		return a
	}
	return b
}

func seenMapFor(invariant bool, a, b map[string]rune) map[string]rune {
	return seenIn(invariant, a, b)
}

// asciiCaseFlip reports whether the single reported rune is the opposite
// ASCII case of expected, and which direction that is (true=now-lower,
// false=now-upper), when the reported sequence is a single simple
// substitution.
func asciiCaseFlip(reported string, expected rune) (becameLower bool, ok bool) {
	r := []rune(reported)
	if len(r) != 1 {
		return false, false
	}
	c := r[0]
	if unicode.IsUpper(expected) && unicode.ToLower(expected) == c {
		return true, true
	}
	if unicode.IsLower(expected) && unicode.ToUpper(expected) == c {
		return false, true
	}
	return false, false
}

// isTrivialCaseInversion reports whether m contains nothing but the 26
// letter pairs flipped between upper and lower case (spec §4.4 step 6).
func isTrivialCaseInversion(m map[rune]rune) bool {
	if len(m) == 0 {
		return true
	}
	upperKeys, lowerKeys := 0, 0
	for k, v := range m {
		if unicode.IsUpper(k) && unicode.ToLower(k) == v {
			upperKeys++
			continue
		}
		if unicode.IsLower(k) && unicode.ToUpper(k) == v {
			lowerKeys++
			continue
		}
		return false
	}
	return (upperKeys == 0 || upperKeys == 26) && (lowerKeys == 0 || lowerKeys == 26)
}
