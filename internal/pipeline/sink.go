package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileSink writes transcripts as UTF-8 text files named
// <name>_<8 hex chars>.txt so repeated runs never collide.
type FileSink struct{}

func (FileSink) Write(dir, name, text string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", name, shortID()))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write transcript %s: %w", path, err)
	}
	return path, nil
}

func shortID() string {
	return uuid.NewString()[:8]
}
