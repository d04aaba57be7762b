package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "voxtools"

type Runtime struct {
	OS   string
	Arch string
}

func CurrentRuntime() Runtime {
	return Runtime{
		OS:   runtime.GOOS,
		Arch: NormalizeArch(runtime.GOARCH),
	}
}

func NormalizeArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}

// Env carries the inputs of directory resolution so it can be computed for
// any OS in tests.
type Env struct {
	GOOS          string
	HomeDir       string
	XDGDataHome   string
	XDGConfigHome string
}

func CurrentEnv() (Env, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Env{}, fmt.Errorf("resolve user home: %w", err)
	}
	return Env{
		GOOS:          runtime.GOOS,
		HomeDir:       homeDir,
		XDGDataHome:   os.Getenv("XDG_DATA_HOME"),
		XDGConfigHome: os.Getenv("XDG_CONFIG_HOME"),
	}, nil
}

func (e Env) DataDir() (string, error) {
	if e.HomeDir == "" {
		return "", errors.New("home directory is empty")
	}

	switch e.GOOS {
	case "linux":
		if e.XDGDataHome != "" {
			return filepath.Join(e.XDGDataHome, appName), nil
		}
		return filepath.Join(e.HomeDir, ".local", "share", appName), nil
	case "darwin":
		return filepath.Join(e.HomeDir, "Library", "Application Support", appName), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", e.GOOS)
	}
}

func (e Env) ModelDir() (string, error) {
	return e.dataSubdir("models")
}

// OutputDir is where transcripts and extracted audio land by default.
func (e Env) OutputDir() (string, error) {
	return e.dataSubdir("outputs")
}

// ConfigFile is the default TOML config location. macOS follows the same
// ~/.config convention as Linux.
func (e Env) ConfigFile() (string, error) {
	if e.XDGConfigHome != "" {
		return filepath.Join(e.XDGConfigHome, appName, "config.toml"), nil
	}
	if e.HomeDir == "" {
		return "", errors.New("home directory is empty")
	}
	return filepath.Join(e.HomeDir, ".config", appName, "config.toml"), nil
}

func (e Env) dataSubdir(name string) (string, error) {
	dataDir, err := e.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}

func ResolveModelDir(override string) (string, error) {
	if override != "" {
		return filepath.Clean(override), nil
	}
	env, err := CurrentEnv()
	if err != nil {
		return "", err
	}
	return env.ModelDir()
}

func ResolveOutputDir(override string) (string, error) {
	if override != "" {
		return filepath.Clean(override), nil
	}
	env, err := CurrentEnv()
	if err != nil {
		return "", err
	}
	return env.OutputDir()
}
