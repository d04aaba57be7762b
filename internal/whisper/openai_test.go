package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenAIEngineMapsLanguageName(t *testing.T) {
	t.Parallel()

	var gotPath, gotLanguage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseMultipartForm(1 << 20)
		gotLanguage = r.FormValue("language")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"task":"transcribe","language":"japanese","duration":1.5,"text":" konnichiwa "}`))
	}))
	defer server.Close()

	audioPath := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(audioPath, []byte("RIFF"), 0o644))

	engine, err := NewOpenAIEngine(OpenAIOptions{APIKey: "test", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	result, err := engine.Transcribe(context.Background(), TranscriptionRequest{AudioPath: audioPath, Language: "auto"})
	require.NoError(t, err)
	require.Equal(t, "/v1/audio/transcriptions", gotPath)
	require.Empty(t, gotLanguage)
	require.Equal(t, "konnichiwa", result.Text)
	require.Equal(t, "ja", result.Language)
}

func TestOpenAIEngineSurfacesAPIErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad audio","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	audioPath := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(audioPath, []byte("RIFF"), 0o644))

	engine, err := NewOpenAIEngine(OpenAIOptions{APIKey: "test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = engine.Transcribe(context.Background(), TranscriptionRequest{AudioPath: audioPath, Language: "en"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad audio")
}

func TestOpenAIEngineModel(t *testing.T) {
	t.Parallel()

	engine, err := NewOpenAIEngine(OpenAIOptions{APIKey: "sk-test"})
	require.NoError(t, err)
	require.Equal(t, "whisper-1", engine.Model())

	engine, err = NewOpenAIEngine(OpenAIOptions{APIKey: "sk-test", Model: "gpt-4o-transcribe"})
	require.NoError(t, err)
	require.Equal(t, "gpt-4o-transcribe", engine.Model())
}

func TestNewOpenAIEngineRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewOpenAIEngine(OpenAIOptions{})
	require.Error(t, err)
}
