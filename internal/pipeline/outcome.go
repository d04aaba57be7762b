package pipeline

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrInputNotFound  = errors.New("input not found")
	ErrDurationProbe  = errors.New("duration probe failed")
	ErrEngine         = errors.New("transcription engine failed")
	ErrSegmentExtract = errors.New("segment extraction failed")
	ErrPersist        = errors.New("persist transcript failed")
)

// SegmentResult is the outcome of transcribing one window.
type SegmentResult struct {
	Window   Window
	Success  bool
	Text     string
	Language string
	Err      error
}

// Outcome is the result of one pipeline run. A failed run carries only
// Error and Err; every other field is left zero.
type Outcome struct {
	Success          bool
	Text             string
	OutputFile       string
	LanguageDetected string
	Duration         time.Duration
	ChunksUsed       bool
	ProcessingTime   time.Duration
	ModelUsed        string
	Error            string

	// Err wraps one of the Err* kinds for failed runs.
	Err error
}

type successRecord struct {
	Success          bool    `json:"success"`
	Text             string  `json:"text"`
	OutputFile       string  `json:"output_file"`
	LanguageDetected string  `json:"language_detected"`
	Duration         float64 `json:"duration"`
	ChunksUsed       bool    `json:"chunks_used"`
	ProcessingTime   float64 `json:"processing_time"`
	ModelUsed        string  `json:"model_used,omitempty"`
}

type failureRecord struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Error   string `json:"error"`
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	if !o.Success {
		return json.Marshal(failureRecord{Success: false, Text: "", Error: o.Error})
	}

	return json.Marshal(successRecord{
		Success:          true,
		Text:             o.Text,
		OutputFile:       o.OutputFile,
		LanguageDetected: o.LanguageDetected,
		Duration:         o.Duration.Seconds(),
		ChunksUsed:       o.ChunksUsed,
		ProcessingTime:   o.ProcessingTime.Seconds(),
		ModelUsed:        o.ModelUsed,
	})
}

// Failed builds the outcome of a run that stopped with err. message is the
// user-facing text carried in the JSON record.
func Failed(err error, message string) Outcome {
	return Outcome{Success: false, Error: message, Err: err}
}
