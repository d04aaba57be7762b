package pipeline

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultChunkDuration = 600 * time.Second
	DefaultOverlap       = 5 * time.Second
)

var ErrInvalidWindowing = errors.New("invalid windowing")

// Window is one slice of the source audio selected for independent
// transcription. Windows are ordered by Index, which follows Start.
type Window struct {
	Index int
	Start time.Duration
	End   time.Duration
}

func (w Window) Length() time.Duration {
	return w.End - w.Start
}

func (w Window) String() string {
	return fmt.Sprintf("window %d: %.1fs - %.1fs", w.Index, w.Start.Seconds(), w.End.Seconds())
}

// Windows splits total into windows of at most chunk, each starting
// chunk-overlap after the previous one. The last window ends exactly at total.
func Windows(total, chunk, overlap time.Duration) ([]Window, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: total duration %v must be positive", ErrInvalidWindowing, total)
	}
	if chunk <= 0 {
		return nil, fmt.Errorf("%w: chunk duration %v must be positive", ErrInvalidWindowing, chunk)
	}
	if overlap < 0 || overlap >= chunk {
		return nil, fmt.Errorf("%w: overlap %v must be in [0, %v)", ErrInvalidWindowing, overlap, chunk)
	}

	step := chunk - overlap
	var windows []Window
	for i := 0; ; i++ {
		start := time.Duration(i) * step
		end := min(start+chunk, total)
		windows = append(windows, Window{Index: i, Start: start, End: end})
		if end >= total {
			break
		}
	}

	return windows, nil
}
