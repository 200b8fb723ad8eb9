package keycal

// controlSpec names one of the five ASCII-control segments the baseline
// payload carries (spec §4.6).
type controlSpec struct {
	name            string
	expected        rune
	notReliablyCode Code // "not reliably readable" warning, 0 if not applicable
	ambiguousCode   Code // "...NotReliablyReadableInvariant" warning
	supportedCode   Code
	priority        int // lower is higher priority for the NUL-slot race
}

var controlSpecs = []controlSpec{
	{"GS", charGS, CodeGroupSeparatorNotReliablyReadable, CodeGroupSeparatorNotReliablyReadableInvariant, CodeGroupSeparatorSupported, 0},
	{"RS", charRS, CodeRecordSeparatorNotReliablyReadable, CodeRecordSeparatorNotReliablyReadableInvariant, CodeRecordSeparatorSupported, 1},
	{"EOT", charEOT, CodeEotCharacterNotReliablyReadable, CodeEotCharacterNotReliablyReadableInvariant, CodeEotCharacterSupported, 2},
	{"FS", charFS, CodeFileSeparatorNotReliablyReadable, CodeFileSeparatorNotReliablyReadableInvariant, CodeFileSeparatorSupported, 3},
	{"US", charUS, CodeUnitSeparatorNotReliablyReadable, CodeUnitSeparatorNotReliablyReadableInvariant, CodeUnitSeparatorSupported, 3},
}

// controlOutcome is what ASCII-control analysis contributes to the
// baseline, merged into the same ExtendedData/Log as §4.4.
type controlOutcome struct {
	unreadableFS bool
	unreadableUS bool
}

// nulClaim records one control whose reported form was a bare NUL, so the
// GS>RS>EOT>FS/US priority race can run once all five are seen.
type nulClaim struct {
	spec     controlSpec
	sequence string
}

// analyseControls implements spec §4.6, consuming the GS/RS/FS/US/EOT
// segments. formatAssessment gates whether FS/RS/US/EOT are expected at
// all (when off, only GS is checked).
func analyseControls(segs Segments, data *ExtendedData, log *Log, formatAssessment bool) controlOutcome {
	var out controlOutcome

	segFor := func(name string) []string {
		switch name {
		case "GS":
			return segs.at(segGS)
		case "RS":
			return segs.at(segRS)
		case "FS":
			return segs.at(segFS)
		case "US":
			return segs.at(segUS)
		case "EOT":
			return segs.at(segEOT)
		}
		return nil
	}

	var nulClaims []nulClaim

	for _, spec := range controlSpecs {
		if !formatAssessment && spec.name != "GS" {
			continue
		}
		seq := ""
		segment := segFor(spec.name)
		if len(segment) > 0 {
			seq = segment[0]
		}
		r := []rune(seq)

		switch {
		case len(r) == 0:
			if spec.name == "GS" {
				log.add(newDiagnostic(CodeNoGroupSeparatorMapping))
				log.add(newDiagnostic(CodeCalibrationFailed))
				continue
			}
			if spec.notReliablyCode != 0 {
				log.add(diagnosticf(spec.notReliablyCode, "%s was not reported", spec.name))
			}
			if spec.name == "FS" {
				out.unreadableFS = true
			}
			if spec.name == "US" {
				out.unreadableUS = true
			}

		case len(r) == 1 && r[0] == spec.expected:
			log.add(newDiagnostic(spec.supportedCode))

		case len(r) == 1 && r[0] == charNUL:
			nulClaims = append(nulClaims, nulClaim{spec, seq})

		case len(r) == 1:
			if isInvariant(r[0]) {
				log.add(diagnosticf(spec.ambiguousCode, "reported as %s", describeRune(r[0])))
				if spec.name == "FS" {
					out.unreadableFS = true
				}
				if spec.name == "US" {
					out.unreadableUS = true
				}
			} else {
				data.CharacterMap[r[0]] = spec.expected
				log.add(newDiagnostic(spec.supportedCode))
			}

		case len(r) == 2 && r[0] == charNUL:
			key := "\x00" + string(r[1])
			data.DeadKeysMap[key] = string(spec.expected)
			log.add(newDiagnostic(spec.supportedCode))

		case len(r) == 3 && r[0] == charNUL && r[2] == ' ':
			key := "\x00" + string(r[1])
			data.DeadKeysMap[key] = string(spec.expected)
			log.add(newDiagnostic(spec.supportedCode))

		default:
			data.LigatureMap[seq] = spec.expected
			log.add(newDiagnostic(spec.supportedCode))
		}
	}

	resolveNulClaims(nulClaims, data, log, &out)

	if out.unreadableFS && out.unreadableUS {
		log.add(newDiagnostic(CodeIsoIec15434EdiNotReliablyReadable))
	}
	return out
}

func resolveNulClaims(claims []nulClaim, data *ExtendedData, log *Log, out *controlOutcome) {
	if len(claims) == 0 {
		return
	}
	winner := claims[0]
	for _, c := range claims[1:] {
		if c.spec.priority < winner.spec.priority {
			winner = c
		}
	}
	data.CharacterMap[charNUL] = winner.spec.expected
	log.add(newDiagnostic(winner.spec.supportedCode))
	for _, c := range claims {
		if c.spec.name == winner.spec.name {
			continue
		}
		if c.spec.notReliablyCode != 0 {
			log.add(diagnosticf(c.spec.notReliablyCode, "reported as NUL, already claimed by %s", winner.spec.name))
		}
		if c.spec.name == "FS" {
			out.unreadableFS = true
		}
		if c.spec.name == "US" {
			out.unreadableUS = true
		}
	}
}
