package keycal

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
	"github.com/samber/lo"
)

// Control characters of interest (spec §3). HT is ignored throughout; NUL
// is reserved as the dead-key marker and is never an expected control.
const (
	charNUL rune = 0x00
	charHT  rune = 0x09
	charLF  rune = 0x0A
	charCR  rune = 0x0D
	charFS  rune = 0x1C
	charGS  rune = 0x1D
	charRS  rune = 0x1E
	charUS  rune = 0x1F
	charEOT rune = 0x04

	// aimFlagChar is the leading character of a symbology identifier.
	aimFlagChar = ']'
)

// invariantChars is the 82-character invariant set I (spec §3), in the
// fixed order the baseline payload encodes them.
const invariantChars = `!"%&'()*+,-./0123456789:;<=>?ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz`

// nonInvariantChars is every other printable ASCII codepoint in 0x21-0x7E
// (space excluded), in baseline-payload order. It includes the AIM flag character.
var nonInvariantChars = buildNonInvariantChars()

func buildNonInvariantChars() string {
	invariantSet := lo.SliceToMap([]rune(invariantChars), func(r rune) (rune, bool) { return r, true })
	var b strings.Builder
	for c := rune(0x21); c <= 0x7E; c++ {
		if invariantSet[c] {
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// isInvariant reports whether r belongs to the 82-character invariant set.
func isInvariant(r rune) bool {
	return strings.ContainsRune(invariantChars, r)
}

// isPrintableASCII reports whether r is in the printable ASCII range
// 0x20-0x7E (space included).
func isPrintableASCII(r rune) bool {
	return r >= 0x20 && r <= 0x7E
}

// isExtendedASCII reports whether r falls in 0x80-0xFF, the range
// findSpaceHolder searches for an unused temporary delimiter candidate
// (spec §4.2 step 2).
func isExtendedASCII(r rune) bool {
	return r >= 0x80 && r <= 0xFF
}

// controlPictureName returns the Unicode "Control Pictures" block glyph
// (U+2400-U+2421) standing in for a C0 control character, for use in
// traces and diagnostics where printing the raw byte would be illegible.
func controlPictureName(r rune) string {
	switch {
	case r >= 0 && r <= 0x20:
		return string(rune(0x2400 + r))
	case r == 0x7F:
		return string(rune(0x2421))
	default:
		return string(r)
	}
}

// describeRune renders r for diagnostic text: printable characters render
// literally, controls render as their control-picture glyph plus a name.
func describeRune(r rune) string {
	if isPrintableASCII(r) && r != ' ' {
		return string(r)
	}
	name, ok := controlNames[r]
	if !ok {
		return fmt.Sprintf("U+%04X", r)
	}
	return fmt.Sprintf("%s (%s)", controlPictureName(r), name)
}

var controlNames = map[rune]string{
	charNUL: "NUL",
	charHT:  "HT",
	charLF:  "LF",
	charCR:  "CR",
	charFS:  "FS",
	charGS:  "GS",
	charRS:  "RS",
	charUS:  "US",
	charEOT: "EOT",
	0x7F:    "DEL",
}

// scripts is the subset of unicode.Scripts worth distinguishing for
// keyboard-layout classification. The standard library's table is used
// directly: no example repo in the retained pack exercises a third-party
// script/range-table library directly (golang.org/x/text appears only as
// an indirect dependency of other packages), so reaching for unicode.Scripts
// is the grounded, no-new-dependency choice here (see DESIGN.md).
var scripts = []struct {
	name  string
	table *unicode.RangeTable
}{
	{"Latin", unicode.Latin},
	{"Cyrillic", unicode.Cyrillic},
	{"Greek", unicode.Greek},
	{"Arabic", unicode.Arabic},
	{"Hebrew", unicode.Hebrew},
	{"Han", unicode.Han},
	{"Hiragana", unicode.Hiragana},
	{"Katakana", unicode.Katakana},
	{"Hangul", unicode.Hangul},
	{"Thai", unicode.Thai},
}

// classifyScript returns the most represented script name among the given
// alphabet of reported codepoints, or "" if the alphabet carries no letters
// outside ASCII digits/punctuation (i.e. plain Latin/ASCII).
func classifyScript(alphabet map[rune]bool) string {
	counts := make(map[string]int, len(scripts))
	for r := range alphabet {
		if r < 0x80 {
			continue // ASCII tells us nothing about the layout's script
		}
		for _, s := range scripts {
			if unicode.Is(s.table, r) {
				counts[s.name]++
				break
			}
		}
	}
	best, bestCount := "", 0
	for name, n := range counts {
		if n > bestCount {
			best, bestCount = name, n
		}
	}
	return best
}

// graphemeLen returns the number of user-perceived characters in s, using
// grapheme-cluster segmentation so that a reported sequence combining a
// base letter with combining marks (as some European layouts emit for
// accented invariants) is not mistaken for a multi-key ligature.
func graphemeLen(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
