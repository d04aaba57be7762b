package tools

import (
	"context"

	"github.com/fmueller/voxtools/internal/media"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const extractToolName = "extract_audio_from_video"

func extractTool(deps Deps) server.ServerTool {
	quality := deps.DefaultQuality
	if quality == "" {
		quality = "medium"
	}

	tool := mcp.NewTool(extractToolName,
		mcp.WithDescription("Extract the audio track of a video file or URL into an MP3 file using ffmpeg."),
		mcp.WithString("input_path",
			mcp.Required(),
			mcp.Description("Path to a local video file or an http(s) URL"),
		),
		mcp.WithString("output_name",
			mcp.Description("Custom output file name without extension"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Directory for the extracted audio"),
		),
		mcp.WithString("audio_quality",
			mcp.Description("Quality preset: low (128k, 44.1kHz), medium (192k, 44.1kHz), high (320k, 48kHz)"),
			mcp.Enum(media.Qualities...),
			mcp.DefaultString(quality),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := req.RequireString("input_path")
		if err != nil {
			return jsonResult(media.Extraction{Error: err.Error()}, true), nil
		}

		extractReq := media.ExtractRequest{
			InputPath:  input,
			OutputName: req.GetString("output_name", ""),
			OutputDir:  req.GetString("output_dir", ""),
			Quality:    req.GetString("audio_quality", quality),
		}
		deps.log().Info("extract_audio_from_video called", zap.String("input", input), zap.String("quality", extractReq.Quality))

		result := deps.Extract(ctx, extractReq)
		return jsonResult(result, !result.Success), nil
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}
