package tools

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type rpcResponse struct {
	ID     int `json:"id"`
	Result struct {
		ServerInfo struct {
			Name string `json:"name"`
		} `json:"serverInfo"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func TestServeOverStdio(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s, err := NewServer(ServerTranscribe, "1.2.3", testDeps(rec))
	require.NoError(t, err)

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"transcribe_audio","arguments":{"input_path":"a.mp3","language":"fr"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"transcribe_audio","arguments":{"input_path":"/audio/b.wav"}}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, Serve(context.Background(), s, strings.NewReader(in), &out, nil))

	responses := map[int]rpcResponse{}
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp rpcResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp), scanner.Text())
		responses[resp.ID] = resp
	}
	require.Len(t, responses, 3)

	require.Nil(t, responses[1].Error)
	require.Equal(t, "voxtools-transcribe", responses[1].Result.ServerInfo.Name)

	rejected := responses[2]
	require.Nil(t, rejected.Error)
	require.True(t, rejected.Result.IsError)
	require.Len(t, rejected.Result.Content, 1)
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(rejected.Result.Content[0].Text), &record))
	require.Equal(t, false, record["success"])
	require.Contains(t, record["error"], "language must be one of")

	accepted := responses[3]
	require.Nil(t, accepted.Error)
	require.False(t, accepted.Result.IsError)
	require.Equal(t, "/audio/b.wav", rec.transcribe.AudioPath)
	require.Contains(t, accepted.Result.Content[0].Text, `"model_used": "base"`)
}
