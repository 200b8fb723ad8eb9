package keycal

// CalibrationAssumption tells the calibrator whether it should expect to
// run a calibration session at all (spec §6 `new`).
type CalibrationAssumption int

const (
	// Calibration means the caller intends to calibrate; BaselineBarcodeData
	// is meaningful and Calibrate will process scans normally.
	Calibration CalibrationAssumption = iota
	// NoCalibration means the host believes no calibration is necessary
	// (e.g. identity keyboards known in advance); the calibrator still
	// works but callers typically skip straight to ProcessInput with an
	// identity ExtendedData.
	NoCalibration
)

// ExtendedData is the product of a successful calibration: the complete set
// of translation tables the runtime translator applies to arbitrary scanned
// input (spec §3).
type ExtendedData struct {
	CharacterMap        map[rune]rune   `json:"characterMap"`
	DeadKeysMap         map[string]string `json:"deadKeysMap"`
	DeadKeyCharacterMap map[string]rune   `json:"deadKeyCharacterMap"`
	ScannerDeadKeysMap  map[rune]string   `json:"scannerDeadKeysMap"`
	ScannerUnassignedKeys map[rune]bool   `json:"scannerUnassignedKeys"`
	LigatureMap         map[string]rune   `json:"ligatureMap"`
	AimFlagSequence     string            `json:"aimFlagSequence"`
	Prefix              string `json:"prefix"`
	Code                string `json:"code"`
	Suffix              string `json:"suffix"`
	ReportedPrefix       string `json:"reportedPrefix"`
	ReportedCode         string `json:"reportedCode"`
	ReportedSuffix       string `json:"reportedSuffix"`
	LineFeedCharacter    *rune  `json:"lineFeedCharacter,omitempty"`
	ReportedCharacters   map[rune]bool `json:"reportedCharacters"`
}

func newExtendedData() *ExtendedData {
	return &ExtendedData{
		CharacterMap:          map[rune]rune{},
		DeadKeysMap:           map[string]string{},
		DeadKeyCharacterMap:   map[string]rune{},
		ScannerDeadKeysMap:    map[rune]string{},
		ScannerUnassignedKeys: map[rune]bool{},
		LigatureMap:           map[string]rune{},
		ReportedCharacters:    map[rune]bool{},
	}
}

func (e *ExtendedData) clone() *ExtendedData {
	if e == nil {
		return nil
	}
	out := &ExtendedData{
		CharacterMap:          cloneMap(e.CharacterMap),
		DeadKeysMap:           cloneMap(e.DeadKeysMap),
		DeadKeyCharacterMap:   cloneMap(e.DeadKeyCharacterMap),
		ScannerDeadKeysMap:    cloneMap(e.ScannerDeadKeysMap),
		ScannerUnassignedKeys: cloneMap(e.ScannerUnassignedKeys),
		LigatureMap:           cloneMap(e.LigatureMap),
		AimFlagSequence:       e.AimFlagSequence,
		Prefix:                e.Prefix,
		Code:                  e.Code,
		Suffix:                e.Suffix,
		ReportedPrefix:        e.ReportedPrefix,
		ReportedCode:          e.ReportedCode,
		ReportedSuffix:        e.ReportedSuffix,
		ReportedCharacters:    cloneMap(e.ReportedCharacters),
	}
	if e.LineFeedCharacter != nil {
		v := *e.LineFeedCharacter
		out.LineFeedCharacter = &v
	}
	return out
}

// Token is the immutable record passed between the caller and the
// calibrator. Each step of calibration produces a new Token; callers must
// not mutate a Token in place (spec §3).
type Token struct {
	BarcodeData []string `json:"barcodeData"`

	Key   string `json:"key"`
	Value string `json:"value"`

	SmallBarcodeSequenceIndex int `json:"smallBarcodeSequenceIndex"`
	SmallBarcodeSequenceCount int `json:"smallBarcodeSequenceCount"`

	Remaining             int `json:"remaining"`
	CalibrationsRemaining int `json:"calibrationsRemaining"`

	Information []Diagnostic `json:"information"`
	Warnings    []Diagnostic `json:"warnings"`
	Errors      []Diagnostic `json:"errors"`

	SystemCapabilities *SystemCapabilities `json:"systemCapabilities,omitempty"`
	ExtendedData       *ExtendedData       `json:"extendedData,omitempty"`

	ReportedPrefixSegment string `json:"prefix"`
	ReportedSuffix        string `json:"suffix"`

	CalibrationSessionAbandoned bool `json:"calibrationSessionAbandoned"`
}

// tokenLog builds the Log view of a token's diagnostics for mutation, and
// withLog writes it back. Kept as free functions rather than methods so
// Token itself stays a plain, JSON-friendly value type.
func tokenLog(t Token) Log {
	return Log{Information: t.Information, Warnings: t.Warnings, Errors: t.Errors}
}

func withLog(t Token, l Log) Token {
	t.Information, t.Warnings, t.Errors = l.Information, l.Warnings, l.Errors
	return t
}

// HasErrors reports whether the token carries any error-level diagnostic.
func (t Token) HasErrors() bool {
	return len(t.Errors) > 0
}

// clone returns a deep-enough copy of t so that a caller mutating the
// returned token cannot affect the calibrator's internal state.
func (t Token) clone() Token {
	out := t
	out.BarcodeData = append([]string(nil), t.BarcodeData...)
	out.Information = append([]Diagnostic(nil), t.Information...)
	out.Warnings = append([]Diagnostic(nil), t.Warnings...)
	out.Errors = append([]Diagnostic(nil), t.Errors...)
	out.ExtendedData = t.ExtendedData.clone()
	if t.SystemCapabilities != nil {
		sc := *t.SystemCapabilities
		out.SystemCapabilities = &sc
	}
	return out
}
