package keycal

import (
	"fmt"
	"sort"
)

// phase tracks which scan the calibrator is currently expecting.
type phase int

const (
	phaseAwaitingBaseline phase = iota
	phaseAwaitingDeadKey
	phaseDone
	phaseAbandoned
)

// Calibrator drives one calibration session end to end (spec §5, §6). It
// is single-threaded, in-memory, and owned by one caller for the duration
// of a session: there is no shared mutable state and no locking, matching
// the concurrency model of spec §5.
type Calibrator struct {
	assumption       CalibrationAssumption
	formatAssessment bool
	chunkSize        int

	reportedPrefix string

	ph   phase
	data *ExtendedData
	log  Log

	pendingDeadKeys []rune // ordered worklist, spec §4.4 step 9
	deadKeyIndex    int

	baselineAcc     *smallBarcodeAccumulator
	supplementalAcc *smallBarcodeAccumulator

	lastToken Token

	capsLockLatest CapsLockState
}

// NewOption configures a Calibrator at construction time.
type NewOption func(*Calibrator)

// WithFormatAssessment enables the FS/RS/US/EOT control segments in the
// baseline payload and their analysis (spec §4.1, §4.6). Off by default:
// only the mandatory GS segment is checked.
func WithFormatAssessment(enabled bool) NewOption {
	return func(c *Calibrator) { c.formatAssessment = enabled }
}

// WithChunkSize caps how many characters BaselineBarcodeData/
// SupplementalBarcodeData put in a single physical barcode before
// splitting into a small-barcode sequence (spec §4.8). 0 (the default)
// means never split.
func WithChunkSize(n int) NewOption {
	return func(c *Calibrator) { c.chunkSize = n }
}

// New constructs a Calibrator for a fresh session (spec §6 `new`).
func New(assumption CalibrationAssumption, opts ...NewOption) *Calibrator {
	c := &Calibrator{assumption: assumption, ph: phaseAwaitingBaseline}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetReportedPrefix declares a scanner-emitted prefix containing spaces, to
// disambiguate segmentation (spec §6).
func (c *Calibrator) SetReportedPrefix(s string) {
	c.reportedPrefix = s
}

// BaselineBarcodeData returns the exact payload(s) to encode into 2-D
// symbols for the baseline scan (spec §4.1, §6). When size > 0 and the
// payload exceeds it, the payload is split into a small-barcode sequence.
func (c *Calibrator) BaselineBarcodeData(size int) []string {
	payload := buildBaselinePayload(c.formatAssessment)
	return chunkPayload(payload, effectiveChunkSize(size, c.chunkSize))
}

// SupplementalBarcodeData returns, for every OS-side dead key discovered
// during baseline analysis, the payload(s) to encode for its supplementary
// scan (spec §6). It is only meaningful after a successful baseline call.
func (c *Calibrator) SupplementalBarcodeData() map[rune][]string {
	out := make(map[rune][]string, len(c.pendingDeadKeys))
	unassigned := map[rune]bool{}
	if c.data != nil {
		unassigned = c.data.ScannerUnassignedKeys
	}
	for _, dk := range c.pendingDeadKeys {
		literal := dk
		if c.data != nil {
			if v, ok := c.data.DeadKeyCharacterMap["\x00"+string(dk)]; ok {
				literal = v
			}
		}
		payload := BuildSupplementaryPayload(literal, unassigned)
		out[dk] = chunkPayload(payload, effectiveChunkSize(0, c.chunkSize))
	}
	return out
}

func effectiveChunkSize(callSize, configured int) int {
	if callSize > 0 {
		return callSize
	}
	return configured
}

func chunkPayload(payload string, size int) []string {
	if size <= 0 || len([]rune(payload)) <= size {
		return []string{payload}
	}
	r := []rune(payload)
	var out []string
	for i := 0; i < len(r); i += size {
		end := i + size
		if end > len(r) {
			end = len(r)
		}
		out = append(out, string(r[i:end]))
	}
	return out
}

// buildBaselinePayload renders the literal baseline payload of spec §4.1.
func buildBaselinePayload(formatAssessment bool) string {
	segs := []string{
		spaceJoinRunes(invariantChars),
		spaceJoinRunes(nonInvariantChars),
		string(charGS),
	}
	if formatAssessment {
		segs = append(segs, string(charRS), string(charFS), string(charUS), string(charEOT))
	}
	out := ""
	for _, s := range segs {
		out += s + "   "
	}
	return out + " " // trailing four-space delimiter
}

func spaceJoinRunes(s string) string {
	r := []rune(s)
	out := make([]rune, 0, len(r)*2-1)
	for i, c := range r {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, c)
	}
	return string(out)
}

// Calibrate advances the session with one reported scan (spec §6
// `calibrate`). data may be a string or a []int of codepoints. A panic
// inside an analyser phase is recovered and reported on the returned token
// as CodeCalibrationFailedUnexpectedly.
func (c *Calibrator) Calibrate(data any, opts ...Option) (result Token) {
	defer func() {
		if p := recover(); p != nil {
			result = c.fail(diagnosticf(CodeCalibrationFailedUnexpectedly, "%v", p), false)
			c.lastToken = result
		}
	}()
	settings := newRunSettings(opts)
	c.capsLockLatest = settings.capsLock

	if c.ph == phaseAbandoned {
		return c.lastToken
	}

	reported, err := coerceReported(data)
	if err != nil {
		tok := c.fail(diagnosticf(CodeUnrecognisedData, "%v", err), true)
		settings.trace.emitAll(tokenLog(tok))
		return tok
	}

	var tok Token
	switch c.ph {
	case phaseAwaitingBaseline:
		tok = c.calibrateBaseline(reported, settings)
	case phaseAwaitingDeadKey:
		tok = c.calibrateDeadKey(reported, settings)
	default:
		tok = c.lastToken
	}

	settings.trace.emitAll(tokenLog(tok))
	c.lastToken = tok
	return tok
}

func coerceReported(data any) (string, error) {
	switch v := data.(type) {
	case string:
		return v, nil
	case []int:
		r := make([]rune, len(v))
		for i, cp := range v {
			r[i] = rune(cp)
		}
		return string(r), nil
	case []rune:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported scan data type %T", data)
	}
}

func (c *Calibrator) calibrateBaseline(reported string, settings runSettings) Token {
	if c.baselineAcc == nil {
		c.baselineAcc = newSmallBarcodeAccumulator(maxInt(settings.smallBarcodeCount, 1), c.reportedPrefix)
	}
	full, complete := c.baselineAcc.add(settings.smallBarcodeIndex, reported)
	if !complete {
		return Token{
			SmallBarcodeSequenceIndex: settings.smallBarcodeIndex,
			SmallBarcodeSequenceCount: settings.smallBarcodeCount,
			Remaining:                 settings.smallBarcodeCount - settings.smallBarcodeIndex,
			CalibrationsRemaining:     -1,
		}
	}

	provenance := classifyProvenance(full, false)
	if d, abandon, ok := provenanceFailure(provenance, false); !ok {
		return c.fail(d, abandon)
	}

	segs, segDiag, ok := segment(full, c.reportedPrefix, c.formatAssessment)
	if !ok {
		return c.fail(segDiag, true)
	}

	outcome := analyseBaseline(segs, settings.capsLock, settings.platform)
	data := outcome.data
	ctl := analyseControls(segs, data, &outcome.log, c.formatAssessment)
	_ = ctl

	data.ReportedPrefix = joinSeq(segs.at(segPrefix))
	data.ReportedSuffix = joinSeq(segs.at(segSuffix))
	data.Prefix = data.ReportedPrefix
	data.Suffix = data.ReportedSuffix
	if segs.HasLFChar && segs.LFChar != charLF {
		v := segs.LFChar
		data.LineFeedCharacter = &v
	}

	log := outcome.log
	log.add(newDiagnostic(CodeAimIdentifiersSupported))
	if data.ReportedPrefix != "" {
		log.add(newDiagnostic(CodeReportedPrefixPresent))
	}
	if data.ReportedSuffix != "" {
		log.add(newDiagnostic(CodeReportedSuffixPresent))
	}

	c.data = data
	c.pendingDeadKeys = sortedRunes(outcome.pendingDeadKeys)
	c.deadKeyIndex = 0

	if log.abandons() {
		c.ph = phaseAbandoned
		return withLog(Token{CalibrationSessionAbandoned: true}, log)
	}
	if log.HasErrors() {
		// A fatal-but-non-abandoning error (e.g. no group separator mapping):
		// this scan produced no translation tables, but the session itself
		// stays open for a corrected rescan.
		return withLog(Token{}, log)
	}

	if len(c.pendingDeadKeys) == 0 {
		return c.finish(log, settings)
	}

	c.ph = phaseAwaitingDeadKey
	next := c.pendingDeadKeys[0]
	literal := next
	if v, ok := data.DeadKeyCharacterMap["\x00"+string(next)]; ok {
		literal = v
	}
	return withLog(Token{
		Key:                   "\x00" + string(next),
		Value:                 string(literal),
		CalibrationsRemaining: len(c.pendingDeadKeys),
		Remaining:             len(c.pendingDeadKeys),
	}, log)
}

func (c *Calibrator) calibrateDeadKey(reported string, settings runSettings) Token {
	if c.deadKeyIndex >= len(c.pendingDeadKeys) {
		return c.finish(Log{}, settings)
	}
	dk := c.pendingDeadKeys[c.deadKeyIndex]
	value := dk
	if v, ok := c.data.DeadKeyCharacterMap["\x00"+string(dk)]; ok {
		value = v
	}

	if c.supplementalAcc == nil {
		c.supplementalAcc = newSmallBarcodeAccumulator(maxInt(settings.smallBarcodeCount, 1), c.reportedPrefix)
	}
	full, complete := c.supplementalAcc.add(settings.smallBarcodeIndex, reported)
	if !complete {
		return Token{
			Key:                       "\x00" + string(dk),
			Value:                     string(value),
			SmallBarcodeSequenceIndex: settings.smallBarcodeIndex,
			SmallBarcodeSequenceCount: settings.smallBarcodeCount,
		}
	}
	c.supplementalAcc = nil

	provenance := classifyProvenance(full, true)
	if d, abandon, ok := provenanceFailure(provenance, true); !ok {
		return c.fail(d, abandon)
	}

	log := Log{}
	analyseDeadKey(value, full, c.data, &log, c.data.ScannerUnassignedKeys, settings.recognisedFirstChars)

	if log.abandons() {
		c.ph = phaseAbandoned
		return withLog(Token{CalibrationSessionAbandoned: true}, log)
	}

	c.deadKeyIndex++
	if c.deadKeyIndex >= len(c.pendingDeadKeys) {
		return c.finish(log, settings)
	}

	next := c.pendingDeadKeys[c.deadKeyIndex]
	nextValue := next
	if v, ok := c.data.DeadKeyCharacterMap["\x00"+string(next)]; ok {
		nextValue = v
	}
	remaining := len(c.pendingDeadKeys) - c.deadKeyIndex
	return withLog(Token{
		Key:                   "\x00" + string(next),
		Value:                 string(nextValue),
		CalibrationsRemaining: remaining,
		Remaining:             remaining,
	}, log)
}

func (c *Calibrator) finish(log Log, settings runSettings) Token {
	c.ph = phaseDone
	log.add(newDiagnostic(CodeCalibrationComplete))
	sc := synthesiseCapabilities(capabilitiesInput{
		data:              c.data,
		log:               log,
		dataEntryTimespan: settings.dataEntryTimespan,
		charsScanned:      len(invariantChars) + len(nonInvariantChars),
		aimFlagSequence:   c.data.AimFlagSequence,
		assessScript:      settings.assessScript,
		capsLock:          settings.capsLock,
	})
	tok := withLog(Token{
		ExtendedData:          c.data.clone(),
		SystemCapabilities:    sc,
		ReportedPrefixSegment: c.data.ReportedPrefix,
		ReportedSuffix:        c.data.ReportedSuffix,
	}, log)
	return tok
}

func (c *Calibrator) fail(d Diagnostic, abandon bool) Token {
	log := Log{}
	log.add(d)
	log.add(newDiagnostic(CodeCalibrationFailed))
	if abandon {
		c.ph = phaseAbandoned
	}
	return withLog(Token{CalibrationSessionAbandoned: abandon}, log)
}

// provenanceFailure maps a classifyProvenance result to the diagnostic and
// abandon decision of spec §4.3's policy table. ok is false when the scan
// must be rejected.
func provenanceFailure(p Provenance, expectingDeadKey bool) (Diagnostic, bool, bool) {
	switch {
	case p == ProvenanceNoData:
		return diagnosticf(CodeNoCalibrationDataReported, ""), true, false
	case !expectingDeadKey && p == ProvenanceBaseline:
		return Diagnostic{}, false, true
	case !expectingDeadKey && p == ProvenancePartialBaseline:
		return diagnosticf(CodePartialCalibrationDataReported, ""), true, false
	case expectingDeadKey && (p == ProvenanceDeadKey):
		return Diagnostic{}, false, true
	case expectingDeadKey && p == ProvenancePartialDeadkey:
		return diagnosticf(CodePartialCalibrationDataReported, ""), true, false
	default:
		return diagnosticf(CodeIncorrectCalibrationDataReported, "expected %v, classified as %v", expectedKind(expectingDeadKey), p), true, false
	}
}

func expectedKind(expectingDeadKey bool) string {
	if expectingDeadKey {
		return "DeadKey"
	}
	return "Baseline"
}

func sortedRunes(m map[rune]bool) []rune {
	out := make([]rune, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func joinSeq(seqs []string) string {
	out := ""
	for _, s := range seqs {
		out += s
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// CalibrationTokens returns an iterator (Go 1.23 range-over-func shape)
// that pulls one token per expected scan until the session finishes or is
// abandoned, feeding each reported scan from next (spec §6
// `calibration_tokens`).
func (c *Calibrator) CalibrationTokens(next func() (data any, opts []Option, ok bool)) func(func(Token) bool) {
	return func(yield func(Token) bool) {
		for {
			data, opts, ok := next()
			if !ok {
				return
			}
			tok := c.Calibrate(data, opts...)
			if !yield(tok) {
				return
			}
			if c.ph == phaseDone || c.ph == phaseAbandoned {
				return
			}
		}
	}
}

// ProcessInput runs the runtime translator (spec §4.9, §6). It is only
// meaningful once calibration has completed; calling it earlier returns
// the input unchanged with an exception noting calibration is incomplete.
func (c *Calibrator) ProcessInput(reported string, preprocessors ...PreprocessorFunc) (string, []PreprocessorException) {
	if c.ph != phaseDone || c.data == nil {
		return reported, []PreprocessorException{{
			Code:        CodeCalibrationFailed,
			Description: "calibration has not completed; input passed through unchanged",
		}}
	}
	return NewTranslator(c.data, preprocessors...).ProcessInput(reported)
}

// SystemCapabilities returns the derived capability view for the completed
// session (spec §6), optionally overriding the CAPS LOCK tri-state (e.g.
// when the host later learns its true value out of band).
func (c *Calibrator) SystemCapabilities(capsLock ...CapsLockState) *SystemCapabilities {
	if c.lastToken.SystemCapabilities == nil {
		return nil
	}
	sc := *c.lastToken.SystemCapabilities
	if len(capsLock) > 0 {
		sc.CapsLockOn = capsLock[0]
	}
	return &sc
}
