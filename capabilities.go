package keycal

import "time"

// Performance bands the scanner's effective keying rate, derived from the
// caller-supplied data-entry interval (spec §4.10). The core never
// measures time itself (spec §5); it only classifies the value handed in.
type Performance int

const (
	PerformanceLow Performance = iota
	PerformanceMedium
	PerformanceHigh
)

func (p Performance) String() string {
	switch p {
	case PerformanceHigh:
		return "High"
	case PerformanceMedium:
		return "Medium"
	default:
		return "Low"
	}
}

// Performance bands, chars/sec, spec §4.10. These are nominal defaults for
// a baseline's 82+12 characters; a caller supplying a different alphabet
// size still gets a consistent relative banding since the rate is derived
// from characters-per-second, not a fixed char count.
const (
	performanceHighCPS   = 40.0
	performanceMediumCPS = 15.0
)

// SystemCapabilities is the derived, boolean-and-enum feature matrix
// clients use for decision making once calibration ends (spec §4.10).
type SystemCapabilities struct {
	CanReadInvariants      bool          `json:"canReadInvariants"`
	CanReadNonInvariants   bool          `json:"canReadNonInvariants"`
	CanReadFormat05        bool          `json:"canReadFormat05"`
	CanReadFormat06        bool          `json:"canReadFormat06"`
	CanReadEdi             bool          `json:"canReadEdi"`
	AimSupported           bool          `json:"aimSupported"`
	AimReliablySupported   bool          `json:"aimReliablySupported"`
	ScannerTransmitsAim    bool          `json:"scannerTransmitsAim"`
	ScannerTransmitsPrefix bool          `json:"scannerTransmitsPrefix"`
	ScannerTransmitsCode   bool          `json:"scannerTransmitsCode"`
	ScannerTransmitsSuffix bool          `json:"scannerTransmitsSuffix"`
	ScannerTransmitsEOL    bool          `json:"scannerTransmitsEndOfLine"`
	KeyboardScriptName     string        `json:"keyboardScriptName"`
	ScannerPerformance     Performance   `json:"scannerKeyboardPerformance"`
	ScannerCharsPerSecond  float64       `json:"scannerCharsPerSecond"`
	CapsLockOn             CapsLockState `json:"capsLockOn"`
}

// capabilitiesInput carries everything the synthesiser needs beyond the
// ExtendedData table: signals recorded by earlier analyser phases that
// aren't part of the translation tables themselves.
type capabilitiesInput struct {
	data              *ExtendedData
	log               Log
	dataEntryTimespan time.Duration
	charsScanned      int
	aimFlagSequence   string
	assessScript      bool
	capsLock          CapsLockState
}

// synthesiseCapabilities implements spec §4.10.
func synthesiseCapabilities(in capabilitiesInput) *SystemCapabilities {
	sc := &SystemCapabilities{
		CanReadInvariants:      !hasErrorCode(in.log, CodeNoGroupSeparatorMapping, CodeMultipleKeys, CodeMultipleSequences, CodeDeadKeyMultipleKeys, CodeDeadKeyMultiMapping),
		CanReadNonInvariants:   !hasWarningCode(in.log, CodeNonInvariantsNotReliablyReadable, CodeMultipleSequencesNonInvariant),
		ScannerTransmitsPrefix: in.data.ReportedPrefix != "",
		ScannerTransmitsSuffix: in.data.ReportedSuffix != "",
		ScannerTransmitsCode:   in.data.ReportedCode != "",
		ScannerTransmitsEOL:    in.data.LineFeedCharacter != nil,
		CapsLockOn:             in.capsLock,
	}

	sc.AimSupported = in.aimFlagSequence != ""
	sc.ScannerTransmitsAim = in.aimFlagSequence == string(aimFlagChar)
	sc.AimReliablySupported = sc.AimSupported && !hasWarningCode(in.log, CodeAimIdentifierAmbiguous)

	unreadableFS := hasWarningCode(in.log, CodeFileSeparatorNotReliablyReadable, CodeFileSeparatorNotReliablyReadableInvariant)
	unreadableUS := hasWarningCode(in.log, CodeUnitSeparatorNotReliablyReadable, CodeUnitSeparatorNotReliablyReadableInvariant)
	sc.CanReadFormat05 = !unreadableFS
	sc.CanReadFormat06 = !unreadableUS
	sc.CanReadEdi = !(unreadableFS && unreadableUS)

	if in.assessScript {
		sc.KeyboardScriptName = classifyScript(in.data.ReportedCharacters)
	}

	if in.dataEntryTimespan > 0 && in.charsScanned > 0 {
		cps := float64(in.charsScanned) / in.dataEntryTimespan.Seconds()
		sc.ScannerCharsPerSecond = cps
		switch {
		case cps >= performanceHighCPS:
			sc.ScannerPerformance = PerformanceHigh
		case cps >= performanceMediumCPS:
			sc.ScannerPerformance = PerformanceMedium
		default:
			sc.ScannerPerformance = PerformanceLow
		}
	}

	return sc
}

func hasErrorCode(log Log, codes ...Code) bool {
	want := make(map[Code]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	for _, d := range log.Errors {
		if want[d.Type] {
			return true
		}
	}
	return false
}

func hasWarningCode(log Log, codes ...Code) bool {
	want := make(map[Code]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	for _, d := range log.Warnings {
		if want[d.Type] {
			return true
		}
	}
	return false
}
