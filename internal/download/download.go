// Package download fetches model assets over HTTP into place, verifying
// their SHA-256 before the final rename.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const (
	defaultRetries = 3
	userAgent      = "voxtools/1"
)

var ErrChecksumMismatch = errors.New("checksum mismatch")

var checksumPattern = regexp.MustCompile(`(?i)\b([a-f0-9]{64})\b`)

// Asset is one file to fetch. SHA256 wins over ChecksumURL when both are set.
type Asset struct {
	URL         string
	Destination string
	SHA256      string
	ChecksumURL string
}

type Fetcher struct {
	HTTPClient *http.Client
	// Retries is the number of attempts per asset; zero means 3.
	Retries int
	Backoff time.Duration
	// Progress renders a byte progress bar to ProgressOut when it is a terminal.
	Progress    bool
	ProgressOut *os.File
	Logger      *zap.Logger
}

func NewFetcher(progress bool, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		HTTPClient:  &http.Client{Timeout: 10 * time.Minute},
		Retries:     defaultRetries,
		Backoff:     300 * time.Millisecond,
		Progress:    progress,
		ProgressOut: os.Stderr,
		Logger:      logger,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, asset Asset) error {
	if asset.URL == "" {
		return errors.New("download URL is required")
	}
	if asset.Destination == "" {
		return errors.New("destination path is required")
	}

	expected := normalizeChecksum(asset.SHA256)
	if expected == "" && asset.ChecksumURL != "" {
		resolved, err := f.ResolveChecksum(ctx, asset.ChecksumURL, filepath.Base(asset.Destination))
		if err != nil {
			return fmt.Errorf("fetch checksum: %w", err)
		}
		expected = resolved
	}

	if err := os.MkdirAll(filepath.Dir(asset.Destination), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	retries := f.Retries
	if retries <= 0 {
		retries = defaultRetries
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 {
			f.log().Warn("retrying download", zap.Int("attempt", attempt), zap.Int("max", retries), zap.String("url", asset.URL), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(time.Duration(attempt-1) * f.Backoff):
			}
		}

		lastErr = f.fetchOnce(ctx, asset, expected)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// ResolveChecksum downloads a checksum listing and picks the entry for fileName.
func (f *Fetcher) ResolveChecksum(ctx context.Context, checksumURL, fileName string) (string, error) {
	if strings.TrimSpace(checksumURL) == "" {
		return "", errors.New("checksum URL is required")
	}

	body, err := f.get(ctx, checksumURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	content, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return ParseChecksum(content, fileName)
}

// ParseChecksum prefers the line naming fileName and falls back to the first
// hash found.
func ParseChecksum(content []byte, fileName string) (string, error) {
	lines := strings.Split(string(content), "\n")

	if fileName != "" {
		for _, line := range lines {
			if !strings.Contains(line, fileName) {
				continue
			}
			if checksum := checksumFromLine(line); checksum != "" {
				return checksum, nil
			}
		}
	}

	for _, line := range lines {
		if checksum := checksumFromLine(line); checksum != "" {
			return checksum, nil
		}
	}
	return "", errors.New("sha256 checksum not found")
}

// VerifyFile hashes path and compares it with expected. An empty expected
// checksum accepts any content.
func VerifyFile(path, expected string) error {
	expected = normalizeChecksum(expected)
	if expected == "" {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file for checksum: %w", err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return fmt.Errorf("hash file: %w", err)
	}

	if actual := hex.EncodeToString(h.Sum(nil)); actual != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, actual)
	}
	return nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, asset Asset, expected string) error {
	partPath := asset.Destination + ".part"
	_ = os.Remove(partPath)

	part, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	committed := false
	defer func() {
		_ = part.Close()
		if !committed {
			_ = os.Remove(partPath)
		}
	}()

	resp, err := f.request(ctx, asset.URL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	hash := sha256.New()
	writer := io.MultiWriter(part, hash)

	bar := f.progressBar(resp.ContentLength)
	if bar != nil {
		writer = io.MultiWriter(part, hash, bar)
	}
	if _, err := io.Copy(writer, resp.Body); err != nil {
		return fmt.Errorf("download body: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if err := part.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if actual := hex.EncodeToString(hash.Sum(nil)); expected != "" && actual != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, actual)
	}
	if err := part.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(partPath, asset.Destination); err != nil {
		return fmt.Errorf("move temp file into destination: %w", err)
	}

	committed = true
	f.log().Info("download complete", zap.String("path", asset.Destination))
	return nil
}

func (f *Fetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := f.request(ctx, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (f *Fetcher) request(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("request %s: unexpected status %d", url, resp.StatusCode)
	}
	return resp, nil
}

func (f *Fetcher) progressBar(contentLength int64) *progressbar.ProgressBar {
	out := f.ProgressOut
	if !f.Progress || contentLength <= 0 || out == nil || !term.IsTerminal(int(out.Fd())) {
		return nil
	}

	return progressbar.NewOptions64(
		contentLength,
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(out),
		progressbar.OptionClearOnFinish(),
	)
}

func (f *Fetcher) log() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

func checksumFromLine(line string) string {
	match := checksumPattern.FindStringSubmatch(line)
	if len(match) < 2 {
		return ""
	}
	return strings.ToLower(match[1])
}

func normalizeChecksum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
