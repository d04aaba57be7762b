package media

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeStub drops an executable shell script into a fresh temp dir.
func writeStub(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

// Records its arguments next to itself and writes a small file to the last argument.
const stubFFmpeg = `
if [ "$1" = "-version" ]; then
  echo "ffmpeg version stub"
  exit 0
fi
dir=$(dirname "$0")
printf '%s\n' "$@" > "$dir/args"
for last in "$@"; do :; done
printf 'audio' > "$last"
`

func readArgs(t *testing.T, stub string) []string {
	t.Helper()

	raw, err := os.ReadFile(filepath.Join(filepath.Dir(stub), "args"))
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(raw)), "\n")
}

func TestParseProbeDuration(t *testing.T) {
	t.Parallel()

	d, err := parseProbeDuration([]byte(`{"format":{"duration":"1200.250000"}}`))
	require.NoError(t, err)
	require.Equal(t, 1200*time.Second+250*time.Millisecond, d)

	for _, raw := range []string{
		`{"format":{"duration":"N/A"}}`,
		`{"format":{}}`,
		`{"format":{"duration":"0.000"}}`,
		`{"format":{"duration":"abc"}}`,
		`not json`,
	} {
		_, err := parseProbeDuration([]byte(raw))
		require.Error(t, err, raw)
	}
}

func TestDurationUsesFFprobe(t *testing.T) {
	t.Parallel()

	probe := writeStub(t, "ffprobe", `echo '{"format":{"duration":"42.5"}}'`+"\n")
	f := NewFFmpeg("ffmpeg", probe, nil)

	d, err := f.Duration(context.Background(), "input.mp3")
	require.NoError(t, err)
	require.Equal(t, 42500*time.Millisecond, d)
}

func TestDurationReportsProbeFailure(t *testing.T) {
	t.Parallel()

	probe := writeStub(t, "ffprobe", "echo 'Invalid data found when processing input' >&2\nexit 1\n")
	f := NewFFmpeg("ffmpeg", probe, nil)

	_, err := f.Duration(context.Background(), "broken.mp3")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid data found")
}

func TestDurationFallsBackToWAVHeader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	require.NoError(t, os.WriteFile(path, pcm16WAV(32000, 16000), 0o644))

	f := NewFFmpeg("ffmpeg", filepath.Join(dir, "missing-ffprobe"), nil)
	d, err := f.Duration(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, d)
}

func TestExtractSegmentArguments(t *testing.T) {
	t.Parallel()

	stub := writeStub(t, "ffmpeg", stubFFmpeg)
	f := NewFFmpeg(stub, "", nil)
	f.TempDir = t.TempDir()

	out, err := f.ExtractSegment(context.Background(), "talk.mp3", 2, 1190*time.Second, 1200*time.Second)
	require.NoError(t, err)
	require.Equal(t, f.TempDir, filepath.Dir(out))
	require.True(t, strings.HasPrefix(filepath.Base(out), "voxtools_segment_"))
	require.True(t, strings.HasSuffix(out, "_002.wav"))
	require.FileExists(t, out)

	args := readArgs(t, stub)
	require.Contains(t, strings.Join(args, " "), "-ss 1190.000 -t 10.000 -i talk.mp3")
	require.Contains(t, args, "pcm_s16le")
	require.Equal(t, out, args[len(args)-1])
}

func TestExtractSegmentRejectsEmptyWindow(t *testing.T) {
	t.Parallel()

	f := NewFFmpeg("ffmpeg", "", nil)
	_, err := f.ExtractSegment(context.Background(), "talk.mp3", 0, time.Second, time.Second)
	require.Error(t, err)
}

func TestExtractSegmentCleansUpOnFailure(t *testing.T) {
	t.Parallel()

	stub := writeStub(t, "ffmpeg", "for last in \"$@\"; do :; done\nprintf 'x' > \"$last\"\necho 'boom' >&2\nexit 1\n")
	f := NewFFmpeg(stub, "", nil)
	f.TempDir = t.TempDir()

	_, err := f.ExtractSegment(context.Background(), "talk.mp3", 0, 0, time.Second)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ffmpeg failed: boom")

	entries, err := os.ReadDir(f.TempDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestExtractAudioUsesQualityPreset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "lecture.mp4")
	require.NoError(t, os.WriteFile(input, []byte("video"), 0o644))

	stub := writeStub(t, "ffmpeg", stubFFmpeg)
	f := NewFFmpeg(stub, "", nil)
	outDir := filepath.Join(dir, "out")

	res := f.ExtractAudio(context.Background(), ExtractRequest{InputPath: input, Quality: "high"}, outDir)
	require.True(t, res.Success, res.Error)
	require.Equal(t, outDir, filepath.Dir(res.OutputFile))
	require.True(t, strings.HasPrefix(filepath.Base(res.OutputFile), "video_lecture_audio_"))
	require.True(t, strings.HasSuffix(res.OutputFile, ".mp3"))
	require.Equal(t, int64(len("audio")), res.FileSize)
	require.Equal(t, "high", res.Quality)
	require.Equal(t, 320, res.Bitrate)
	require.Equal(t, 48000, res.SampleRate)
	require.Contains(t, res.Message, "Audio extracted successfully")

	args := strings.Join(readArgs(t, stub), " ")
	require.Contains(t, args, "-acodec libmp3lame -ab 320k -ar 48000")
}

func TestExtractAudioDefaultsToMediumAndNamesURLs(t *testing.T) {
	t.Parallel()

	stub := writeStub(t, "ffmpeg", stubFFmpeg)
	f := NewFFmpeg(stub, "", nil)

	res := f.ExtractAudio(context.Background(), ExtractRequest{InputPath: "https://example.com/clip.mp4", OutputDir: t.TempDir()}, "")
	require.True(t, res.Success, res.Error)
	require.Equal(t, "medium", res.Quality)
	require.Equal(t, 192, res.Bitrate)
	require.True(t, strings.HasPrefix(filepath.Base(res.OutputFile), "url_audio_"))
}

func TestExtractAudioFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(input, []byte("video"), 0o644))
	okStub := writeStub(t, "ffmpeg", stubFFmpeg)

	cases := []struct {
		name   string
		binary string
		req    ExtractRequest
		want   string
	}{
		{
			name:   "missing input",
			binary: okStub,
			req:    ExtractRequest{InputPath: filepath.Join(dir, "nope.mp4")},
			want:   "Input file does not exist: " + filepath.Join(dir, "nope.mp4"),
		},
		{
			name:   "bad quality",
			binary: okStub,
			req:    ExtractRequest{InputPath: input, Quality: "ultra"},
			want:   "Invalid quality. Must be one of: low, medium, high",
		},
		{
			name:   "no ffmpeg",
			binary: filepath.Join(dir, "missing-ffmpeg"),
			req:    ExtractRequest{InputPath: input},
			want:   "ffmpeg is not available or not in PATH",
		},
		{
			name:   "ffmpeg error",
			binary: writeStub(t, "ffmpeg", "[ \"$1\" = \"-version\" ] && exit 0\necho 'Output file #0 does not contain any stream' >&2\nexit 1\n"),
			req:    ExtractRequest{InputPath: input},
			want:   "ffmpeg failed: Output file #0 does not contain any stream",
		},
		{
			name:   "empty output",
			binary: writeStub(t, "ffmpeg", "exit 0\n"),
			req:    ExtractRequest{InputPath: input},
			want:   "Output file was not created or is empty",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			outDir := t.TempDir()
			f := NewFFmpeg(tc.binary, "", nil)
			res := f.ExtractAudio(context.Background(), tc.req, outDir)
			require.False(t, res.Success)
			require.Equal(t, tc.want, res.Error)
			require.Empty(t, res.OutputFile)

			entries, err := os.ReadDir(outDir)
			require.NoError(t, err)
			require.Empty(t, entries)
		})
	}
}

func pcm16WAV(samples, rate int) []byte {
	dataSize := samples * 2
	buf := make([]byte, 44+dataSize)
	copy(buf[0:], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(36+dataSize))
	copy(buf[8:], "WAVE")
	copy(buf[12:], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 1)
	binary.LittleEndian.PutUint16(buf[22:], 1)
	binary.LittleEndian.PutUint32(buf[24:], uint32(rate))
	binary.LittleEndian.PutUint32(buf[28:], uint32(rate*2))
	binary.LittleEndian.PutUint16(buf[32:], 2)
	binary.LittleEndian.PutUint16(buf[34:], 16)
	copy(buf[36:], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataSize))
	return buf
}
