package keycal

import "fmt"

// Severity bands a diagnostic by how much it affects the calibration
// outcome. The numeric ranges are part of the wire ABI: Information codes
// live in [100,200), Warning in [200,300), Error in [300,400).
type Severity int

const (
	Information Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Information:
		return "information"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Code is a stable numeric diagnostic identifier. Exact values are part of
// the wire ABI (spec §6) and must never be renumbered once shipped.
type Code int

const (
	// Information, [100,200).
	CodeAimIdentifiersSupported Code = 100 + iota
	CodeGroupSeparatorSupported
	CodeRecordSeparatorSupported
	CodeFileSeparatorSupported
	CodeUnitSeparatorSupported
	CodeEotCharacterSupported
	CodeKeyboardScriptDetected
	CodePlatformReported
	CodeEndOfLineSupported
	CodeCalibrationComplete
)

const (
	// Warning, [200,300).
	CodeReportedPrefixPresent Code = 200 + iota
	CodeReportedSuffixPresent
	CodeUnexpectedSuffixObserved
	CodeCapsLockOn
	CodeCapsLockProbablyOn
	CodeScannerMayConvertToUpperCase
	CodeScannerMayConvertToLowerCase
	CodeScannerMayInvertCase
	CodeScannerMayCompensateForCapsLock
	CodeNonInvariantsNotReliablyReadable
	CodeGroupSeparatorNotReliablyReadableInvariant
	CodeRecordSeparatorNotReliablyReadableInvariant
	CodeFileSeparatorNotReliablyReadableInvariant
	CodeUnitSeparatorNotReliablyReadableInvariant
	CodeEotCharacterNotReliablyReadableInvariant
	CodeFileSeparatorNotReliablyReadable
	CodeUnitSeparatorNotReliablyReadable
	CodeEotCharacterNotReliablyReadable
	CodeMultipleSequencesNonInvariant
	CodeDeadKeyAmbiguityDowngraded
	CodeAimIdentifierAmbiguous
	CodeGroupSeparatorNotReliablyReadable
	CodeRecordSeparatorNotReliablyReadable
)

const (
	// Error, [300,400).
	CodeCalibrationFailed Code = 300 + iota
	CodeCalibrationFailedUnexpectedly
	CodeNoGroupSeparatorMapping
	CodeMultipleKeys
	CodeMultipleSequences
	CodeDeadKeyMultipleKeys
	CodeDeadKeyMultiMapping
	CodeNoTemporaryDelimiterCandidate
	CodeUnrecognisedData
	CodeNoDelimiters
	CodePartialCalibrationDataReported
	CodeIncorrectCalibrationDataReported
	CodeNoCalibrationDataReported
	CodeIsoIec15434EdiNotReliablyReadable
)

// abandoningCodes are the failures that make the whole calibration session
// unrecoverable (spec §6, §7).
var abandoningCodes = map[Code]bool{
	CodePartialCalibrationDataReported:   true,
	CodeIncorrectCalibrationDataReported: true,
	CodeUnrecognisedData:                 true,
	CodeNoCalibrationDataReported:        true,
}

// messages holds the human-readable, language-agnostic description for each
// code. In the full system this table is looked up through an external
// resource-string collaborator (spec §1); the core ships a plain default so
// it is usable standalone.
var messages = map[Code]string{
	CodeAimIdentifiersSupported:                     "AIM identifiers are supported",
	CodeGroupSeparatorSupported:                      "group separator is supported",
	CodeRecordSeparatorSupported:                     "record separator is supported",
	CodeFileSeparatorSupported:                       "file separator is supported",
	CodeUnitSeparatorSupported:                       "unit separator is supported",
	CodeEotCharacterSupported:                         "end-of-transmission character is supported",
	CodeKeyboardScriptDetected:                        "keyboard layout script detected",
	CodePlatformReported:                              "platform reported by caller",
	CodeEndOfLineSupported:                            "end-of-line sequence is supported",
	CodeCalibrationComplete:                           "calibration completed",
	CodeReportedPrefixPresent:                         "scanner reports a prefix before the payload",
	CodeReportedSuffixPresent:                         "scanner reports a suffix after the payload",
	CodeUnexpectedSuffixObserved:                      "an unexpected, unambiguous suffix was observed",
	CodeCapsLockOn:                                    "CAPS LOCK is on",
	CodeCapsLockProbablyOn:                            "CAPS LOCK is probably on",
	CodeScannerMayConvertToUpperCase:                  "scanner may be converting letters to upper case",
	CodeScannerMayConvertToLowerCase:                  "scanner may be converting letters to lower case",
	CodeScannerMayInvertCase:                          "scanner may be inverting letter case",
	CodeScannerMayCompensateForCapsLock:               "scanner may be compensating for CAPS LOCK",
	CodeNonInvariantsNotReliablyReadable:              "non-invariant characters are not reliably readable",
	CodeGroupSeparatorNotReliablyReadableInvariant:    "group separator collides with an invariant character",
	CodeRecordSeparatorNotReliablyReadableInvariant:   "record separator collides with an invariant character",
	CodeFileSeparatorNotReliablyReadableInvariant:     "file separator collides with an invariant character",
	CodeUnitSeparatorNotReliablyReadableInvariant:     "unit separator collides with an invariant character",
	CodeEotCharacterNotReliablyReadableInvariant:      "end-of-transmission character collides with an invariant character",
	CodeFileSeparatorNotReliablyReadable:              "file separator is not reliably readable",
	CodeUnitSeparatorNotReliablyReadable:              "unit separator is not reliably readable",
	CodeEotCharacterNotReliablyReadable:                "end-of-transmission character is not reliably readable",
	CodeMultipleSequencesNonInvariant:                 "multiple non-invariant characters share a reported sequence",
	CodeDeadKeyAmbiguityDowngraded:                    "a dead-key ambiguity was resolved in favour of an invariant target",
	CodeAimIdentifierAmbiguous:                        "the AIM flag character is ambiguous",
	CodeGroupSeparatorNotReliablyReadable:             "group separator is not reliably readable",
	CodeRecordSeparatorNotReliablyReadable:            "record separator is not reliably readable",
	CodeCalibrationFailed:                             "calibration failed",
	CodeCalibrationFailedUnexpectedly:                 "calibration failed unexpectedly",
	CodeNoGroupSeparatorMapping:                       "no mapping could be determined for the group separator",
	CodeMultipleKeys:                                  "multiple invariant characters share a reported sequence",
	CodeMultipleSequences:                             "multiple reported sequences map to the same invariant character",
	CodeDeadKeyMultipleKeys:                           "multiple invariant characters share a reported dead-key sequence",
	CodeDeadKeyMultiMapping:                           "a dead-key sequence maps to two distinct invariant characters",
	CodeNoTemporaryDelimiterCandidate:                 "no unused codepoint is available to use as a temporary delimiter",
	CodeUnrecognisedData:                              "the reported data could not be recognised",
	CodeNoDelimiters:                                  "no segment delimiters could be found in the reported data",
	CodePartialCalibrationDataReported:                "partial calibration data was reported",
	CodeIncorrectCalibrationDataReported:              "incorrect calibration data was reported",
	CodeNoCalibrationDataReported:                      "no calibration data was reported",
	CodeIsoIec15434EdiNotReliablyReadable:              "ISO/IEC 15434 EDI data is not reliably readable",
}

// Diagnostic is one entry in a token's information/warnings/errors log.
type Diagnostic struct {
	Type        Code     `json:"type"`
	Level       Severity `json:"level"`
	Description string   `json:"description"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%d %s] %s", d.Type, d.Level, d.Description)
}

func newDiagnostic(code Code) Diagnostic {
	level := Information
	switch {
	case code >= 300:
		level = Error
	case code >= 200:
		level = Warning
	}
	return Diagnostic{Type: code, Level: level, Description: messages[code]}
}

// diagnosticf builds a diagnostic whose description is extended with extra
// context (e.g. the offending reported sequence) while keeping the stable
// code and severity from the table.
func diagnosticf(code Code, format string, args ...any) Diagnostic {
	d := newDiagnostic(code)
	if format != "" {
		d.Description = fmt.Sprintf("%s: %s", d.Description, fmt.Sprintf(format, args...))
	}
	return d
}

// Log is an ordered, append-only diagnostic buffer split by severity, as
// carried on the Token.
type Log struct {
	Information []Diagnostic `json:"information"`
	Warnings    []Diagnostic `json:"warnings"`
	Errors      []Diagnostic `json:"errors"`
}

func (l *Log) add(d Diagnostic) {
	switch d.Level {
	case Error:
		l.Errors = append(l.Errors, d)
	case Warning:
		l.Warnings = append(l.Warnings, d)
	default:
		l.Information = append(l.Information, d)
	}
}

// HasErrors reports whether any error-level diagnostic was recorded.
func (l Log) HasErrors() bool {
	return len(l.Errors) > 0
}

// abandons reports whether any recorded error carries a session-abandoning
// code (spec §6, §7).
func (l Log) abandons() bool {
	for _, d := range l.Errors {
		if abandoningCodes[d.Type] {
			return true
		}
	}
	return false
}

func (l Log) clone() Log {
	return Log{
		Information: append([]Diagnostic(nil), l.Information...),
		Warnings:    append([]Diagnostic(nil), l.Warnings...),
		Errors:      append([]Diagnostic(nil), l.Errors...),
	}
}
