package keycal

import (
	"strings"

	"github.com/samber/lo"
)

// supplementaryASCIIOrder returns the 94-character (or fewer, if some were
// marked scanner-unassigned) alphabet a supplementary dead-key payload
// pairs the dead key against, in baseline order (spec §6 on-the-wire
// formats).
func supplementaryASCIIOrder(unassigned map[rune]bool) []rune {
	var out []rune
	for _, r := range invariantChars + nonInvariantChars {
		if unassigned[r] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// BuildSupplementaryPayload renders the literal wire payload for a
// supplementary dead-key scan (spec §6 `supplemental_barcode_data`): the
// dead key's literal character followed by each character of the ASCII
// ordering, back to back, with no separators (the dead key itself re-arms
// before each subsequent character).
func BuildSupplementaryPayload(deadKeyChar rune, unassigned map[rune]bool) string {
	var b strings.Builder
	for _, c := range supplementaryASCIIOrder(unassigned) {
		b.WriteRune(deadKeyChar)
		b.WriteRune(c)
	}
	return b.String()
}

// deadKeyOutcome is the result of analysing one supplementary scan.
type deadKeyOutcome struct {
	fixedUpFrom rune // 0 if the nominated dead-key char was confirmed as-is
	fixedUpTo   rune
}

// analyseDeadKey implements spec §4.7 for the dead key nominated by
// value (the literal character carried on the calibration token), against
// the reported string from scanning that dead key's supplementary
// payload. unassigned is the scanner_unassigned_keys set already known
// from the baseline. recognisedFirstChars, when non-nil, constrains which
// first characters of GS1/ISO-IEC 15434 data-element identifiers are in
// use (an out-of-scope lookup collaborator per spec §1); nil means no
// constraint is known, and no recognised-identifier check is made
// (documented in DESIGN.md).
func analyseDeadKey(value rune, reported string, data *ExtendedData, log *Log, unassigned map[rune]bool, recognisedFirstChars map[rune]bool) deadKeyOutcome {
	var out deadKeyOutcome

	trueChar, ok := mostFrequentDeadKeyChar(reported)
	deadKeyChar := value
	if ok && trueChar != value {
		rewriteDeadKeyChar(data, value, trueChar)
		out.fixedUpFrom, out.fixedUpTo = value, trueChar
		deadKeyChar = trueChar
	}

	sequences := splitOnDeadKeyChar(reported, deadKeyChar)
	ascii := supplementaryASCIIOrder(unassigned)

	invariantFatalRaised := false
	for i, expected := range ascii {
		var seq string
		if i < len(sequences) {
			seq = sequences[i]
		}
		r := []rune(seq)

		switch {
		case len(r) == 2 && r[1] == ' ':
			data.ScannerDeadKeysMap[expected] = seq

		case len(r) >= 2 && r[0] == charNUL:
			key := "\x00" + string(deadKeyChar) + string(r[1])
			classifyAgainstControls(key, expected, r, recognisedFirstChars, data, log, &invariantFatalRaised)

		case len(r) == 0:
			if isInvariant(expected) {
				if invariantFatalRaised {
					log.add(diagnosticf(CodeDeadKeyMultipleKeys, "no legible sequence for %s after dead key %s", describeRune(expected), describeRune(deadKeyChar)))
				} else {
					log.add(diagnosticf(CodeDeadKeyMultipleKeys, "no legible sequence for %s after dead key %s (first occurrence)", describeRune(expected), describeRune(deadKeyChar)))
					invariantFatalRaised = true
				}
				log.add(newDiagnostic(CodeCalibrationFailed))
			} else {
				log.add(diagnosticf(CodeMultipleSequencesNonInvariant, "no legible sequence for %s after dead key %s", describeRune(expected), describeRune(deadKeyChar)))
			}

		default:
			// Invariant 2: a reported key already resolved to an invariant
			// target is never clobbered by a later non-invariant one; two
			// invariants colliding on the same reported key is an ambiguity,
			// not a silent overwrite.
			if existing, ok := data.CharacterMap[r[0]]; ok && existing != expected {
				if isInvariant(existing) && !isInvariant(expected) {
					continue
				}
				if isInvariant(existing) && isInvariant(expected) {
					log.add(diagnosticf(CodeMultipleKeys, "reported %s maps to both %s and %s after dead key %s",
						describeRune(r[0]), describeRune(existing), describeRune(expected), describeRune(deadKeyChar)))
				} else {
					log.add(diagnosticf(CodeMultipleSequencesNonInvariant, "reported %s maps to both %s and %s after dead key %s",
						describeRune(r[0]), describeRune(existing), describeRune(expected), describeRune(deadKeyChar)))
				}
			}
			data.CharacterMap[r[0]] = expected
		}
	}
	return out
}

// classifyAgainstControls handles the dead-key analyser's NUL-prefixed
// case, including the downgrade-vs-fatal rule for two invariant targets
// colliding (spec §4.7 step 3).
func classifyAgainstControls(key string, expected rune, r []rune, recognisedFirstChars map[rune]bool, data *ExtendedData, log *Log, invariantFatalRaised *bool) {
	if existing, ok := data.DeadKeysMap[key]; ok && existing != string(expected) {
		existingRune := []rune(existing)[0]
		bothInvariant := isInvariant(existingRune) && isInvariant(expected)
		if bothInvariant {
			log.add(diagnosticf(CodeDeadKeyMultiMapping, "dead-key sequence %q maps to both %s and %s", key, describeRune(existingRune), describeRune(expected)))
			log.add(newDiagnostic(CodeCalibrationFailed))
			return
		}
		log.add(diagnosticf(CodeDeadKeyAmbiguityDowngraded, "dead-key sequence %q maps to both %s and %s", key, describeRune(existingRune), describeRune(expected)))
		if isInvariant(expected) && !isInvariant(existingRune) {
			data.DeadKeysMap[key] = string(expected)
		}
		return
	}
	data.DeadKeysMap[key] = string(expected)

	// When the barcode held a control character at this ascii slot and the
	// OS reports NUL, check whether the recognised-identifier list cares
	// about this particular slot.
	if recognisedFirstChars != nil && recognisedFirstChars[expected] && len(r) == 2 {
		log.add(newDiagnostic(CodeCalibrationFailed))
	}
}

// mostFrequentDeadKeyChar ranks every "NUL X" pair in reported by
// frequency and returns the most common X, which is the true literal
// dead-key character on layouts that don't reproduce it via dead-key+space
// (spec §4.7 step 1).
func mostFrequentDeadKeyChar(reported string) (rune, bool) {
	counts := map[rune]int{}
	r := []rune(reported)
	for i := 0; i+1 < len(r); i++ {
		if r[i] == charNUL {
			counts[r[i+1]]++
		}
	}
	if len(counts) == 0 {
		return 0, false
	}
	type kv struct {
		r rune
		n int
	}
	kvs := make([]kv, 0, len(counts))
	for k, v := range counts {
		kvs = append(kvs, kv{k, v})
	}
	best := lo.MaxBy(kvs, func(item, max kv) bool { return item.n > max.n })
	return best.r, true
}

// rewriteDeadKeyChar fixes up every dead_keys_map/character_map entry keyed
// on the previously nominated dead-key character to use the newly
// discovered one instead.
func rewriteDeadKeyChar(data *ExtendedData, from, to rune) {
	prefix := "\x00" + string(from)
	for k, v := range data.DeadKeysMap {
		if strings.HasPrefix(k, prefix) {
			delete(data.DeadKeysMap, k)
			data.DeadKeysMap["\x00"+string(to)+strings.TrimPrefix(k, prefix)] = v
		}
	}
	if v, ok := data.CharacterMap[from]; ok {
		delete(data.CharacterMap, from)
		data.CharacterMap[to] = v
	}
}

// splitOnDeadKeyChar splits reported on every occurrence of deadKeyChar,
// matching the supplementary payload's "deadkey+c, deadkey+c, ..." shape;
// the dead key itself marks where one ascii slot's answer ends and the
// next begins (spec §4.7 step 2).
func splitOnDeadKeyChar(reported string, deadKeyChar rune) []string {
	parts := strings.Split(reported, string(deadKeyChar))
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	return parts
}
