package pipeline

import (
	"time"

	"go.uber.org/zap"
)

// Reporter receives progress notifications from a run. Calls arrive on the
// goroutine executing Run, in order: Started, one WindowStarted per window,
// Finished. Single-pass runs report windows == 1.
type Reporter interface {
	Started(audioPath string, total time.Duration, windows int)
	WindowStarted(w Window, windows int)
	Finished(outcome Outcome)
}

type nopReporter struct{}

func (nopReporter) Started(string, time.Duration, int) {}
func (nopReporter) WindowStarted(Window, int)          {}
func (nopReporter) Finished(Outcome)                   {}

// ReporterFuncs adapts plain functions to Reporter. Nil fields are skipped.
type ReporterFuncs struct {
	OnStarted       func(audioPath string, total time.Duration, windows int)
	OnWindowStarted func(w Window, windows int)
	OnFinished      func(outcome Outcome)
}

func (r ReporterFuncs) Started(audioPath string, total time.Duration, windows int) {
	if r.OnStarted != nil {
		r.OnStarted(audioPath, total, windows)
	}
}

func (r ReporterFuncs) WindowStarted(w Window, windows int) {
	if r.OnWindowStarted != nil {
		r.OnWindowStarted(w, windows)
	}
}

func (r ReporterFuncs) Finished(outcome Outcome) {
	if r.OnFinished != nil {
		r.OnFinished(outcome)
	}
}

// LogReporter writes progress as structured log entries. Tool servers use it
// because stdout carries the protocol.
type LogReporter struct {
	Logger *zap.Logger
}

func (r LogReporter) Started(audioPath string, total time.Duration, windows int) {
	r.log().Info("transcription started", zap.String("audio", audioPath), zap.Duration("duration", total), zap.Int("windows", windows))
}

func (r LogReporter) WindowStarted(w Window, windows int) {
	r.log().Info("transcribing window",
		zap.Int("window", w.Index+1),
		zap.Int("windows", windows),
		zap.Duration("start", w.Start),
		zap.Duration("end", w.End),
	)
}

func (r LogReporter) Finished(outcome Outcome) {
	if outcome.Success {
		r.log().Info("transcription complete", zap.Int("characters", len([]rune(outcome.Text))))
		return
	}
	r.log().Info("transcription stopped", zap.String("error", outcome.Error))
}

func (r LogReporter) log() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
