// Package version reports which hirmes build is running.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Set with -ldflags "-X github.com/hirmes/hirmes/pkg/version.Version=v0.3.0".
// Builds without ldflags fall back to the module and VCS data the Go
// toolchain embeds.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo is the --json shape of `hirmes version`.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

var (
	resolveOnce sync.Once
	resolved    BuildInfo
)

// GetInfo returns the build information, filling ldflags gaps from
// runtime/debug once per process.
func GetInfo() BuildInfo {
	resolveOnce.Do(func() {
		resolved = BuildInfo{
			Version:   Version,
			Commit:    Commit,
			Date:      Date,
			GoVersion: runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
		}
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		fillFromBuildInfo(&resolved, bi)
	})
	return resolved
}

func fillFromBuildInfo(info *BuildInfo, bi *debug.BuildInfo) {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String is the one-line form printed by `hirmes version`.
func String() string {
	info := GetInfo()
	commit := info.Commit
	if info.Modified {
		commit += "+dirty"
	}
	return fmt.Sprintf("hirmes %s (commit: %s, built: %s, go: %s, %s/%s)",
		info.Version, commit, info.Date, info.GoVersion, info.OS, info.Arch)
}

// Short returns the version alone.
func Short() string {
	return GetInfo().Version
}

// UserAgent is sent with every request to the indexing service.
func UserAgent() string {
	info := GetInfo()
	return fmt.Sprintf("hirmes/%s (%s; %s)", info.Version, info.OS, info.Arch)
}
