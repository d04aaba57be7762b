// Package version reports the build version of voxtools.
package version

import (
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X github.com/fmueller/voxtools/internal/version.Version=1.2.3".
var (
	Version = ""
	Commit  = ""
)

const develVersion = "0.0.0-dev"

// Resolve prefers the ldflags version, then the module version recorded in
// the build info, and annotates development builds with the VCS revision.
func Resolve() string {
	info, _ := debug.ReadBuildInfo()
	return resolve(Version, Commit, info)
}

func resolve(base, commit string, info *debug.BuildInfo) string {
	base = strings.TrimPrefix(strings.TrimSpace(base), "v")
	if base != "" {
		return base
	}

	if info != nil {
		if v := strings.TrimPrefix(info.Main.Version, "v"); v != "" && v != "(devel)" {
			return v
		}
	}

	revision, dirty := vcsState(info)
	if commit != "" {
		revision = commit
	}
	if revision == "" {
		return develVersion
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}

	version := develVersion + "+" + revision
	if dirty {
		version += ".dirty"
	}
	return version
}

func vcsState(info *debug.BuildInfo) (revision string, dirty bool) {
	if info == nil {
		return "", false
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	return revision, dirty
}
