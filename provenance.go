package keycal

import "math"

// Provenance is the outcome of checking whether a reported scan is
// plausibly our calibration payload (spec §4.3).
type Provenance int

const (
	ProvenanceNoData Provenance = iota
	ProvenanceBaseline
	ProvenancePartialBaseline
	ProvenanceDeadKey
	ProvenancePartialDeadkey
	ProvenanceUnknown
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceNoData:
		return "NoData"
	case ProvenanceBaseline:
		return "Baseline"
	case ProvenancePartialBaseline:
		return "PartialBaseline"
	case ProvenanceDeadKey:
		return "DeadKey"
	case ProvenancePartialDeadkey:
		return "PartialDeadkey"
	default:
		return "Unknown"
	}
}

// expectation describes the statistical fingerprint of a well-formed
// payload of a given shape.
type expectation struct {
	meanInterval float64
	length       int
	count        int
}

var (
	baselineExpectation82 = expectation{meanInterval: 1.976, length: 165, count: 82}
	baselineExpectation94 = expectation{meanInterval: 1.959, length: 191, count: 94}
	deadKeyExpectation    = expectation{meanInterval: 2.894, length: 273, count: 94}
)

const (
	baselineToleranceSigma = 4.0
	deadKeyToleranceSigma  = 3.0
)

// classifyProvenance inspects the longest three-space-delimited fragment of
// a reported string and decides what kind of calibration payload, if any,
// it plausibly is (spec §4.3).
func classifyProvenance(reported string, expectingDeadKey bool) Provenance {
	runes := []rune(reported)
	if len(runes) == 0 {
		return ProvenanceNoData
	}

	fragment := longestFragment(runes, ' ', 3)
	if len(fragment) == 0 {
		return ProvenanceNoData
	}

	spaceIntervals := intervalsBetween(fragment, ' ')
	nulIntervals := intervalsBetween(fragment, charNUL)

	baselineExp := baselineExpectation82
	if countRune(fragment, ' ') > (baselineExpectation82.count+baselineExpectation94.count)/2 {
		baselineExp = baselineExpectation94
	}

	baselineFit := fitsExpectation(spaceIntervals, len(fragment), countRune(fragment, ' '), baselineExp, baselineToleranceSigma)
	deadKeyFit := fitsExpectation(nulIntervals, len(fragment), countRune(fragment, charNUL), deadKeyExpectation, deadKeyToleranceSigma)

	switch {
	case baselineFit == fitFull && !expectingDeadKey:
		return ProvenanceBaseline
	case baselineFit == fitPartial && !expectingDeadKey:
		return ProvenancePartialBaseline
	case deadKeyFit == fitFull && expectingDeadKey:
		return ProvenanceDeadKey
	case deadKeyFit == fitPartial && expectingDeadKey:
		return ProvenancePartialDeadkey
	case baselineFit != fitNone && expectingDeadKey:
		return ProvenanceBaseline // crossed type: baseline-shaped data during a dead-key step
	case deadKeyFit != fitNone && !expectingDeadKey:
		return ProvenanceDeadKey // crossed type: dead-key-shaped data during the baseline step
	default:
		return ProvenanceUnknown
	}
}

type fit int

const (
	fitNone fit = iota
	fitPartial
	fitFull
)

// minIntervalStddev floors the sample standard deviation fed into the
// interval check: a perfectly uniform reported stream has sd == 0, which
// would otherwise demand an exact match to the expected mean interval.
const minIntervalStddev = 0.05

func fitsExpectation(intervals []float64, length, count int, exp expectation, sigmaTolerance float64) fit {
	if count == 0 {
		return fitNone
	}
	mean, sd := meanStddev(intervals)
	if sd < minIntervalStddev {
		sd = minIntervalStddev
	}
	within := func(got, want, sigma float64) bool {
		return math.Abs(got-want) <= sigma
	}
	intervalOK := within(mean, exp.meanInterval, sigmaTolerance*sd)
	lengthOK := within(float64(length), float64(exp.length), sigmaTolerance*float64(exp.length)/float64(exp.count))
	countOK := within(float64(count), float64(exp.count), sigmaTolerance)
	switch {
	case intervalOK && lengthOK && countOK:
		return fitFull
	case intervalOK || countOK:
		return fitPartial
	default:
		return fitNone
	}
}

// longestFragment returns the longest run of runes between (or around)
// 3-copy delimiter runs of sep.
func longestFragment(runes []rune, sep rune, n int) []rune {
	fragments := splitOnRun(runes, sep, n)
	best := []rune{}
	for _, f := range fragments {
		if len(f) > len(best) {
			best = f
		}
	}
	return best
}

func countRune(runes []rune, r rune) int {
	n := 0
	for _, c := range runes {
		if c == r {
			n++
		}
	}
	return n
}

// intervalsBetween returns the distances between successive occurrences of
// marker within runes.
func intervalsBetween(runes []rune, marker rune) []float64 {
	var positions []int
	for i, r := range runes {
		if r == marker {
			positions = append(positions, i)
		}
	}
	if len(positions) < 2 {
		return nil
	}
	out := make([]float64, 0, len(positions)-1)
	for i := 1; i < len(positions); i++ {
		out = append(out, float64(positions[i]-positions[i-1]))
	}
	return out
}

// meanStddev computes the sample mean and Bessel-corrected sample standard
// deviation (spec §4.3).
func meanStddev(xs []float64) (mean, sd float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	sd = math.Sqrt(sq / float64(len(xs)-1))
	return mean, sd
}
