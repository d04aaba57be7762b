package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/fmueller/voxtools/internal/pipeline"
	"github.com/fmueller/voxtools/internal/whisper"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const transcribeToolName = "transcribe_audio"

func transcribeTool(deps Deps) server.ServerTool {
	language := deps.DefaultLanguage
	if language == "" {
		language = "auto"
	}
	model := deps.DefaultModel
	if model == "" {
		model = whisper.DefaultModel
	}

	tool := mcp.NewTool(transcribeToolName,
		mcp.WithDescription("Transcribe an audio file to text. Audio longer than ten minutes is split into overlapping windows that are transcribed in order and merged."),
		mcp.WithString("input_path",
			mcp.Required(),
			mcp.Description("Path to the audio file (MP3, WAV, M4A, ...)"),
		),
		mcp.WithString("output_name",
			mcp.Description("Custom transcript file name without extension"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Directory for the transcript file"),
		),
		mcp.WithString("language",
			mcp.Description("Language hint; auto enables detection"),
			mcp.Enum(whisper.SupportedLanguages...),
			mcp.DefaultString(language),
		),
		mcp.WithString("model",
			mcp.Description("whisper.cpp model size; ignored when the server runs the openai engine, which uses its configured remote model. The result reports the model in model_used"),
			mcp.Enum(whisper.ModelNames()...),
			mcp.DefaultString(model),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := req.RequireString("input_path")
		if err != nil {
			return failedTranscription(err.Error()), nil
		}

		lang := req.GetString("language", language)
		if !whisper.IsSupportedLanguage(lang) {
			return failedTranscription(fmt.Sprintf("language must be one of: %s", strings.Join(whisper.SupportedLanguages, ", "))), nil
		}
		m := req.GetString("model", model)
		if _, ok := whisper.LookupModel(m); !ok && m != model {
			return failedTranscription(fmt.Sprintf("model must be one of: %s", strings.Join(whisper.ModelNames(), ", "))), nil
		}

		deps.log().Info("transcribe_audio called", zap.String("input", input), zap.String("language", lang), zap.String("model", m))
		outcome := deps.Transcribe(ctx, m, pipeline.Request{
			AudioPath:  input,
			Language:   lang,
			OutputName: req.GetString("output_name", ""),
			OutputDir:  req.GetString("output_dir", ""),
		})
		return jsonResult(outcome, !outcome.Success), nil
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func failedTranscription(message string) *mcp.CallToolResult {
	return jsonResult(pipeline.Outcome{Error: message}, true)
}
