package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fmueller/voxtools/internal/pipeline"
	"github.com/schollz/progressbar/v3"
)

type stopFunc func()

func startSpinner(w io.Writer, description string) stopFunc {
	bar := progressbar.NewOptions(
		-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopCh)
			<-doneCh
		})
	}
}

// barReporter shows a spinner for single-pass runs and a window counter for
// chunked runs.
type barReporter struct {
	out io.Writer

	bar  *progressbar.ProgressBar
	stop stopFunc
}

func newBarReporter(out io.Writer) *barReporter {
	return &barReporter{out: out}
}

func (r *barReporter) Started(_ string, _ time.Duration, windows int) {
	if windows <= 1 {
		r.stop = startSpinner(r.out, "Transcribing")
		return
	}

	r.bar = progressbar.NewOptions(
		windows,
		progressbar.OptionSetDescription("Transcribing"),
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *barReporter) WindowStarted(w pipeline.Window, _ int) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(fmt.Sprintf("Transcribing %.0fs-%.0fs", w.Start.Seconds(), w.End.Seconds()))
	_ = r.bar.Set(w.Index)
}

func (r *barReporter) Finished(pipeline.Outcome) {
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}
