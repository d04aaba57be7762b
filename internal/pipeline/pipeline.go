package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmueller/voxtools/internal/whisper"
	"go.uber.org/zap"
)

type DurationProbe interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

type SegmentExtractor interface {
	ExtractSegment(ctx context.Context, src string, index int, start, end time.Duration) (string, error)
}

type Sink interface {
	Write(dir, name, text string) (string, error)
}

type Request struct {
	AudioPath  string
	Language   string
	OutputName string
	OutputDir  string
}

// Pipeline transcribes audio of any length. Audio longer than ChunkDuration
// is split into overlapping windows that are transcribed one after another
// and merged into a single transcript. Use New for the default windowing.
type Pipeline struct {
	Probe     DurationProbe
	Extractor SegmentExtractor
	Engine    whisper.Engine
	Sink      Sink
	Reporter  Reporter
	Logger    *zap.Logger

	ChunkDuration time.Duration
	Overlap       time.Duration
	OutputDir     string

	// Model names the speech model behind Engine in successful outcomes.
	Model string

	now func() time.Time
}

func New(probe DurationProbe, extractor SegmentExtractor, engine whisper.Engine, outputDir string) *Pipeline {
	return &Pipeline{
		Probe:         probe,
		Extractor:     extractor,
		Engine:        engine,
		Sink:          FileSink{},
		ChunkDuration: DefaultChunkDuration,
		Overlap:       DefaultOverlap,
		OutputDir:     outputDir,
	}
}

func (p *Pipeline) Run(ctx context.Context, req Request) Outcome {
	started := p.clock()()
	reporter := p.reporter()

	outcome := p.run(ctx, req)
	if outcome.Success {
		outcome.ProcessingTime = p.clock()().Sub(started)
		p.log().Info("transcription finished",
			zap.String("output", outcome.OutputFile),
			zap.String("language", outcome.LanguageDetected),
			zap.Bool("chunks_used", outcome.ChunksUsed),
			zap.Duration("elapsed", outcome.ProcessingTime),
		)
	} else {
		p.log().Warn("transcription failed", zap.String("audio", req.AudioPath), zap.Error(outcome.Err))
	}

	reporter.Finished(outcome)
	return outcome
}

func (p *Pipeline) run(ctx context.Context, req Request) Outcome {
	if outcome, ok := CheckInput(req.AudioPath); !ok {
		return outcome
	}

	outputDir := req.OutputDir
	if strings.TrimSpace(outputDir) == "" {
		outputDir = p.OutputDir
	}
	if strings.TrimSpace(outputDir) == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Failed(fmt.Errorf("%w: %w", ErrPersist, err), fmt.Sprintf("create output directory %s: %v", outputDir, err))
	}

	total, err := p.Probe.Duration(ctx, req.AudioPath)
	if err == nil && total <= 0 {
		err = errors.New("zero duration")
	}
	if err != nil {
		return Failed(fmt.Errorf("%w: %w", ErrDurationProbe, err), "Failed to get audio duration or file is corrupted")
	}
	p.log().Info("audio duration probed", zap.String("audio", req.AudioPath), zap.Duration("duration", total))

	chunk := p.chunkDuration()
	chunked := total > chunk

	var text, language string
	if chunked {
		text, language, err = p.transcribeWindows(ctx, req, total)
		if err != nil {
			return Failed(err, err.Error())
		}
	} else {
		reporter := p.reporter()
		reporter.Started(req.AudioPath, total, 1)
		reporter.WindowStarted(Window{Index: 0, Start: 0, End: total}, 1)
		result, err := p.Engine.Transcribe(ctx, whisper.TranscriptionRequest{AudioPath: req.AudioPath, Language: req.Language})
		if err != nil {
			return Failed(fmt.Errorf("%w: %w", ErrEngine, err), err.Error())
		}
		text = result.Text
		language = result.Language
		if language == "" {
			language = req.Language
		}
	}

	name := req.OutputName
	if strings.TrimSpace(name) == "" {
		name = "transcript_" + stem(req.AudioPath)
	}
	sink := p.Sink
	if sink == nil {
		sink = FileSink{}
	}
	outputFile, err := sink.Write(outputDir, name, text)
	if err != nil {
		return Failed(fmt.Errorf("%w: %w", ErrPersist, err), err.Error())
	}

	return Outcome{
		Success:          true,
		Text:             text,
		OutputFile:       outputFile,
		LanguageDetected: language,
		Duration:         total,
		ChunksUsed:       chunked,
		ModelUsed:        p.Model,
	}
}

func (p *Pipeline) transcribeWindows(ctx context.Context, req Request, total time.Duration) (string, string, error) {
	windows, err := Windows(total, p.chunkDuration(), p.overlap())
	if err != nil {
		return "", "", err
	}

	p.log().Info("audio exceeds chunk duration; transcribing in windows",
		zap.Int("windows", len(windows)),
		zap.Duration("chunk", p.chunkDuration()),
		zap.Duration("overlap", p.overlap()),
	)
	p.reporter().Started(req.AudioPath, total, len(windows))

	texts := make([]string, 0, len(windows))
	var languages []string
	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return "", "", fmt.Errorf("transcription interrupted before %s: %w", w, err)
		}

		p.reporter().WindowStarted(w, len(windows))
		result, err := p.transcribeWindow(ctx, req, w)
		if err != nil {
			return "", "", err
		}

		if !result.Success {
			p.log().Warn("window transcription failed", zap.Stringer("window", w), zap.Error(result.Err))
			texts = append(texts, failurePlaceholder(w))
			continue
		}

		texts = append(texts, result.Text)
		if result.Language != "" {
			languages = append(languages, result.Language)
		}
	}

	return strings.Join(texts, "\n\n"), majorityLanguage(languages, req.Language), nil
}

// transcribeWindow returns an error only for extraction failures; engine
// failures are reported in the SegmentResult.
func (p *Pipeline) transcribeWindow(ctx context.Context, req Request, w Window) (SegmentResult, error) {
	segmentPath, err := p.Extractor.ExtractSegment(ctx, req.AudioPath, w.Index, w.Start, w.End)
	if err != nil {
		return SegmentResult{}, fmt.Errorf("%w: %s: %w", ErrSegmentExtract, w, err)
	}
	defer func() {
		if err := os.Remove(segmentPath); err != nil {
			p.log().Debug("failed to remove segment", zap.String("path", segmentPath), zap.Error(err))
		}
	}()

	result, err := p.Engine.Transcribe(ctx, whisper.TranscriptionRequest{AudioPath: segmentPath, Language: req.Language})
	if err != nil {
		return SegmentResult{Window: w, Err: err}, nil
	}

	return SegmentResult{Window: w, Success: true, Text: result.Text, Language: result.Language}, nil
}

// CheckInput reports whether path exists, returning the failure outcome a
// run would produce when it does not.
func CheckInput(path string) (Outcome, bool) {
	if _, err := os.Stat(path); err != nil {
		return Failed(fmt.Errorf("%w: %s: %w", ErrInputNotFound, path, err), "Input file not found: "+path), false
	}
	return Outcome{}, true
}

func failurePlaceholder(w Window) string {
	return fmt.Sprintf("[transcription failed: %.1fs - %.1fs]", w.Start.Seconds(), w.End.Seconds())
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (p *Pipeline) chunkDuration() time.Duration {
	if p.ChunkDuration <= 0 {
		return DefaultChunkDuration
	}
	return p.ChunkDuration
}

func (p *Pipeline) overlap() time.Duration {
	if p.Overlap < 0 {
		return 0
	}
	return p.Overlap
}

func (p *Pipeline) reporter() Reporter {
	if p.Reporter == nil {
		return nopReporter{}
	}
	return p.Reporter
}

func (p *Pipeline) clock() func() time.Time {
	if p.now == nil {
		return time.Now
	}
	return p.now
}

func (p *Pipeline) log() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
