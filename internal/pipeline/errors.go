package pipeline

import "fmt"

// FailureCode classifies where in the pipeline a request died.
type FailureCode string

const (
	CodeFileNotFound      FailureCode = "file_not_found"
	CodeInvalidPageRange  FailureCode = "invalid_page_range"
	CodeExtractionFailed  FailureCode = "extraction_failed"
	CodeCleaningFailed    FailureCode = "cleaning_failed"
	CodeSynthesisFailed   FailureCode = "synthesis_failed"
	CodeStitchUnavailable FailureCode = "stitch_unavailable"
	CodeEncoderTimeout    FailureCode = "encoder_timeout"
)

// Failure is the typed stage error carried by a ProcessingResult. Retryable
// marks failures worth re-enqueueing (transient I/O, rate limits) as opposed
// to bad input.
type Failure struct {
	Code      FailureCode `json:"code"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

func newFailure(code FailureCode, format string, args ...any) *Failure {
	return &Failure{Code: code, Message: fmt.Sprintf(format, args...)}
}

// newTransientFailure marks conditions worth another attempt: provider rate
// limits, flaky engines. Bad input never goes through here.
func newTransientFailure(code FailureCode, format string, args ...any) *Failure {
	f := newFailure(code, format, args...)
	f.Retryable = true
	return f
}

// ProcessingResult is the pipeline's terminal report: either a set of audio
// artifacts or a Failure, never both. DebugInfo echoes the effective
// configuration so operators can see what a job actually ran with.
type ProcessingResult struct {
	Success     bool           `json:"success"`
	AudioFiles  []string       `json:"audio_files,omitempty"`
	CombinedMP3 string         `json:"combined_mp3,omitempty"`
	TimingFile  string         `json:"timing_file,omitempty"`
	Failure     *Failure       `json:"failure,omitempty"`
	DebugInfo   map[string]any `json:"debug_info,omitempty"`
}

func failureResult(f *Failure, debug map[string]any) ProcessingResult {
	return ProcessingResult{Success: false, Failure: f, DebugInfo: debug}
}
