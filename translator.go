package keycal

import (
	"sort"
	"strings"
)

// whiteSquare is emitted for a codepoint that was never seen during
// calibration and cannot otherwise be resolved (spec §4.9 step f).
const whiteSquare = '□'

// Translator applies a completed ExtendedData to arbitrary scanned input
// (spec §4.9). It is built once per calibration and is safe for reuse
// across many ProcessInput calls; it holds no per-call state.
type Translator struct {
	data             *ExtendedData
	scannerDeadKeyRev map[rune]rune // first char of "c space"/"NUL space" -> expected
	ligatureKeys      []string      // sorted longest-first, for prefix matching
	preprocessors     []PreprocessorFunc
}

// NewTranslator builds a Translator from completed extended data.
func NewTranslator(data *ExtendedData, preprocessors ...PreprocessorFunc) *Translator {
	t := &Translator{data: data, preprocessors: preprocessors}
	t.scannerDeadKeyRev = make(map[rune]rune, len(data.ScannerDeadKeysMap))
	for expected, pair := range data.ScannerDeadKeysMap {
		r := []rune(pair)
		if len(r) > 0 {
			t.scannerDeadKeyRev[r[0]] = expected
		}
	}
	t.ligatureKeys = make([]string, 0, len(data.LigatureMap))
	for k := range data.LigatureMap {
		t.ligatureKeys = append(t.ligatureKeys, k)
	}
	sort.Slice(t.ligatureKeys, func(i, j int) bool { return len(t.ligatureKeys[i]) > len(t.ligatureKeys[j]) })
	return t
}

// ProcessInput runs the runtime translator over a reported scan (spec
// §4.9). It always returns a translated string, along with any
// preprocessor exceptions raised along the way.
func (t *Translator) ProcessInput(reported string) (string, []PreprocessorException) {
	var exceptions []PreprocessorException

	s := reported
	for _, pp := range t.preprocessors {
		var exc []PreprocessorException
		s, exc = pp(s)
		exceptions = append(exceptions, exc...)
	}

	s = stripPrefix(s, t.data.ReportedPrefix, t.data.AimFlagSequence)
	var suffixExceptions []PreprocessorException
	s, suffixExceptions = stripSuffix(s, t.data.ReportedSuffix)
	exceptions = append(exceptions, suffixExceptions...)
	s = relocateFlushedDeadKey(s)

	r := []rune(s)
	var out strings.Builder
	aim := []rune(t.data.AimFlagSequence)

	for i := 0; i < len(r); {
		// (a) AIM flag sequence substitution.
		if len(aim) > 0 && i+len(aim) <= len(r) && string(r[i:i+len(aim)]) == string(aim) {
			out.WriteRune(aimFlagChar)
			i += len(aim)
			continue
		}

		c := r[i]

		// space and CR/LF always pass through unmapped.
		if c == ' ' || c == charCR || c == charLF {
			out.WriteRune(c)
			i++
			continue
		}

		// (b) NUL dead-key sequence.
		if c == charNUL && i+1 < len(r) {
			if v, ok := t.lookupDeadKey(r, i); ok {
				out.WriteString(v.value)
				i += v.consumed
				continue
			}
		}

		// (c) scanner-dead-key "c space".
		if expected, ok := t.scannerDeadKeyRev[c]; ok && i+1 < len(r) && r[i+1] == ' ' {
			out.WriteRune(expected)
			i += 2
			continue
		}

		// (d) longest ligature prefix match.
		if key, v, ok := t.matchLigature(r[i:]); ok {
			out.WriteRune(v)
			i += len([]rune(key))
			continue
		}

		// (e) direct character map.
		if v, ok := t.data.CharacterMap[c]; ok {
			out.WriteRune(v)
			i++
			continue
		}

		// (f) pass through known alphabet, else sentinel.
		if t.data.ReportedCharacters[c] {
			out.WriteRune(c)
		} else {
			out.WriteRune(whiteSquare)
		}
		i++
	}

	return out.String(), exceptions
}

type deadKeyMatch struct {
	value    string
	consumed int
}

// lookupDeadKey tries the 3-codepoint "NUL c space" form first (the
// literal-dead-key + space variant, invariant 4), then the 2-codepoint
// "NUL c" form.
func (t *Translator) lookupDeadKey(r []rune, i int) (deadKeyMatch, bool) {
	if i+2 < len(r) && r[i+2] == ' ' {
		key := "\x00" + string(r[i+1]) + " "
		if v, ok := t.data.DeadKeysMap[key]; ok {
			return deadKeyMatch{v, 3}, true
		}
	}
	key := "\x00" + string(r[i+1])
	if v, ok := t.data.DeadKeysMap[key]; ok {
		return deadKeyMatch{v, 2}, true
	}
	return deadKeyMatch{}, false
}

func (t *Translator) matchLigature(tail []rune) (string, rune, bool) {
	s := string(tail)
	for _, key := range t.ligatureKeys {
		if strings.HasPrefix(s, key) {
			return key, t.data.LigatureMap[key], true
		}
	}
	return "", 0, false
}
