package whisper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIEngine transcribes through the hosted Whisper API.
type OpenAIEngine struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  *zap.Logger
}

func NewOpenAIEngine(opts OpenAIOptions) (*OpenAIEngine, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai engine requires an API key; set OPENAI_API_KEY or [openai] api_key in the config file")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	model := opts.Model
	if model == "" {
		model = openai.Whisper1
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAIEngine{client: openai.NewClientWithConfig(cfg), model: model, logger: logger}, nil
}

// Model is the remote model name sent with every request.
func (e *OpenAIEngine) Model() string {
	return e.model
}

func (e *OpenAIEngine) Transcribe(ctx context.Context, req TranscriptionRequest) (Result, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return Result{}, errors.New("audio path is required")
	}

	areq := openai.AudioRequest{
		Model:    e.model,
		FilePath: req.AudioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
	if req.Language != "" && req.Language != "auto" {
		areq.Language = req.Language
	}

	e.logger.Debug("requesting openai transcription", zap.String("audio", req.AudioPath), zap.String("model", e.model))
	resp, err := e.client.CreateTranscription(ctx, areq)
	if err != nil {
		return Result{}, fmt.Errorf("openai transcription: %w", err)
	}

	return Result{Text: strings.TrimSpace(resp.Text), Language: languageCode(resp.Language)}, nil
}

// The API reports languages by English name in verbose_json responses.
var languageNames = map[string]string{
	"chinese":   "zh",
	"english":   "en",
	"cantonese": "yue",
	"japanese":  "ja",
	"korean":    "ko",
}

func languageCode(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if code, ok := languageNames[name]; ok {
		return code
	}
	return name
}
