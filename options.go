package keycal

import "time"

// runSettings collects the optional parameters of a single Calibrate call
// (spec §6 `calibrate(data, token, caps_lock?, platform, data_entry_timespan,
// preprocessors?, assess_script?, trace?)`). Built through functional
// options, the way the teacher configures a Program via ProgramOption
// (options.go: WithContext, WithOutput, WithInput, WithEnvironment, ...).
type runSettings struct {
	capsLock          CapsLockState
	platform          Platform
	dataEntryTimespan time.Duration
	preprocessors     []PreprocessorFunc
	assessScript      bool
	trace             *TraceSink
	recognisedFirstChars map[rune]bool
	smallBarcodeIndex int
	smallBarcodeCount int
}

// Option configures a single Calibrate call.
type Option func(*runSettings)

// WithCapsLock declares the CAPS LOCK state observed at scan time.
func WithCapsLock(s CapsLockState) Option {
	return func(r *runSettings) { r.capsLock = s }
}

// WithPlatform declares the host operating system family.
func WithPlatform(p Platform) Option {
	return func(r *runSettings) { r.platform = p }
}

// WithDataEntryTimespan supplies how long the scan took to arrive, used
// only to derive SystemCapabilities.ScannerCharsPerSecond/ScannerPerformance
// (spec §5: the core never measures time itself).
func WithDataEntryTimespan(d time.Duration) Option {
	return func(r *runSettings) { r.dataEntryTimespan = d }
}

// WithPreprocessors collects host-supplied pre-processing hooks on this
// call's settings (spec §4.9, §6). Calibrate itself does not run them; the
// hooks the translator runs are the ones passed to ProcessInput or
// NewTranslator.
func WithPreprocessors(fns ...PreprocessorFunc) Option {
	return func(r *runSettings) { r.preprocessors = append(r.preprocessors, fns...) }
}

// WithScriptAssessment enables keyboard-layout script detection, feeding
// SystemCapabilities.KeyboardScriptName (spec §4.10).
func WithScriptAssessment(enabled bool) Option {
	return func(r *runSettings) { r.assessScript = enabled }
}

// WithTrace routes every diagnostic produced by this call through sink, in
// addition to it being recorded on the returned token (spec §9).
func WithTrace(sink *TraceSink) Option {
	return func(r *runSettings) { r.trace = sink }
}

// WithRecognisedFirstChars supplies the out-of-scope GS1/ISO-IEC 15434
// recognised-data-element-identifier lookup (spec §1, §4.7) as the set of
// first characters those identifiers may start with. Without it, the
// dead-key analyser makes no recognised-identifier check at all.
func WithRecognisedFirstChars(chars map[rune]bool) Option {
	return func(r *runSettings) { r.recognisedFirstChars = chars }
}

// WithSmallBarcodeSequence declares that data is chunk index of count total
// physical barcodes carrying a single logical payload (spec §4.8). The
// default, when omitted, is (1, 1): an unchunked scan.
func WithSmallBarcodeSequence(index, count int) Option {
	return func(r *runSettings) { r.smallBarcodeIndex, r.smallBarcodeCount = index, count }
}

func newRunSettings(opts []Option) runSettings {
	s := runSettings{platform: PlatformWindows, smallBarcodeIndex: 1, smallBarcodeCount: 1}
	for _, o := range opts {
		o(&s)
	}
	return s
}
