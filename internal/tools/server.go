// Package tools exposes transcription, audio extraction and date/time
// helpers as MCP tools served over stdio.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fmueller/voxtools/internal/datetime"
	"github.com/fmueller/voxtools/internal/media"
	"github.com/fmueller/voxtools/internal/pipeline"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const (
	ServerTranscribe   = "transcribe"
	ServerExtractAudio = "extract-audio"
	ServerDatetime     = "datetime"
	ServerAll          = "all"
)

var ServerNames = []string{ServerTranscribe, ServerExtractAudio, ServerDatetime, ServerAll}

// TranscribeFunc runs one transcription with the named model.
type TranscribeFunc func(ctx context.Context, model string, req pipeline.Request) pipeline.Outcome

type ExtractFunc func(ctx context.Context, req media.ExtractRequest) media.Extraction

// Deps wires the tool handlers to their engines. Default* values fill in
// optional arguments the caller omits.
type Deps struct {
	Transcribe TranscribeFunc
	Extract    ExtractFunc
	Clock      datetime.Clock

	DefaultLanguage string
	DefaultModel    string
	DefaultQuality  string
	DefaultTimezone string

	Logger *zap.Logger
}

// Tools returns the tools a named server exposes.
func Tools(name string, deps Deps) ([]server.ServerTool, error) {
	switch name {
	case ServerTranscribe:
		return []server.ServerTool{transcribeTool(deps)}, nil
	case ServerExtractAudio:
		return []server.ServerTool{extractTool(deps)}, nil
	case ServerDatetime:
		return datetimeTools(deps), nil
	case ServerAll:
		all := []server.ServerTool{transcribeTool(deps), extractTool(deps)}
		return append(all, datetimeTools(deps)...), nil
	default:
		return nil, fmt.Errorf("unknown server %q (expected one of: %s)", name, strings.Join(ServerNames, ", "))
	}
}

func NewServer(name, version string, deps Deps) (*server.MCPServer, error) {
	tools, err := Tools(name, deps)
	if err != nil {
		return nil, err
	}

	s := server.NewMCPServer("voxtools-"+name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTools(tools...)
	return s, nil
}

// Serve speaks MCP over in/out until ctx is done or in is closed.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(zap.NewStdLog(logger))
	return stdio.Listen(ctx, in, out)
}

// jsonResult renders v as indented JSON text content.
func jsonResult(v any, isError bool) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err))
	}
	result := mcp.NewToolResultText(string(raw))
	result.IsError = isError
	return result
}

func (d Deps) log() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
