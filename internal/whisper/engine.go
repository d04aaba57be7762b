package whisper

import (
	"context"
	"slices"
)

type TranscriptionRequest struct {
	AudioPath string
	// Language is a language code or "auto" for detection.
	Language string
}

type Result struct {
	Text string
	// Language is the tag the engine detected or used, empty when unknown.
	Language string
}

type Engine interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (Result, error)
}

// SupportedLanguages is the set accepted by the transcription tools.
var SupportedLanguages = []string{"auto", "zh", "en", "yue", "ja", "ko"}

func IsSupportedLanguage(code string) bool {
	return slices.Contains(SupportedLanguages, code)
}
