package keycal

// CapsLockState is the caller-declared state of the CAPS LOCK key at scan
// time (spec §4.5). Unknown lets the inference rules fall back to the
// off/unknown row of the decision table.
type CapsLockState int

const (
	CapsLockUnknown CapsLockState = iota
	CapsLockOn
	CapsLockOff
)

// Platform identifies the host operating system family, which changes how
// CAPS LOCK interacts with letter case (spec §4.5).
type Platform int

const (
	PlatformWindows Platform = iota
	PlatformLinux
	PlatformMacintosh
)

// caseObservation summarises what the upper/lower-case substitutions found
// in the baseline's letter entries look like.
type caseObservation struct {
	upperToLower bool
	lowerToUpper bool
}

// inferCaseAndCapsLock applies the decision table of spec §4.5 and returns
// zero or more diagnostics.
func inferCaseAndCapsLock(obs caseObservation, caps CapsLockState, platform Platform) []Diagnostic {
	var diags []Diagnostic
	mac := platform == PlatformMacintosh

	switch caps {
	case CapsLockOn:
		switch {
		case obs.upperToLower && obs.lowerToUpper:
			diags = append(diags, newDiagnostic(CodeCapsLockOn))
		case !obs.upperToLower && obs.lowerToUpper:
			if !mac {
				diags = append(diags, newDiagnostic(CodeScannerMayConvertToLowerCase))
			}
		case obs.upperToLower && !obs.lowerToUpper:
			diags = append(diags, newDiagnostic(CodeScannerMayConvertToUpperCase))
		default: // neither
			if !mac {
				diags = append(diags, newDiagnostic(CodeScannerMayCompensateForCapsLock))
			}
		}
	default: // CapsLockOff or CapsLockUnknown
		switch {
		case obs.upperToLower && obs.lowerToUpper:
			if mac {
				diags = append(diags, newDiagnostic(CodeScannerMayInvertCase))
			} else {
				diags = append(diags, newDiagnostic(CodeCapsLockProbablyOn))
			}
		case obs.upperToLower && !obs.lowerToUpper:
			diags = append(diags, newDiagnostic(CodeScannerMayConvertToUpperCase))
		case !obs.upperToLower && obs.lowerToUpper:
			diags = append(diags, newDiagnostic(CodeScannerMayConvertToLowerCase))
		}
	}
	return diags
}
