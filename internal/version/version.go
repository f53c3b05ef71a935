// Package version reports build information for adminsync.
//
// Set at build time:
//
//	go build -ldflags "-X github.com/faceofmind/admin-sync/internal/version.Version=1.2.0 \
//	                   -X github.com/faceofmind/admin-sync/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/faceofmind/admin-sync/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/adminsync
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the build description printed by `adminsync version`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build info. A "dev" build falls back to the module
// version and VCS revision recorded by the Go toolchain.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" && len(s.Value) >= 7 {
				info.Commit = s.Value[:7]
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// String returns a one-line version string.
func (i Info) String() string {
	return fmt.Sprintf("%s (%s) built %s, %s %s", i.Version, i.Commit, i.BuildTime, i.GoVersion, i.Platform)
}

// UserAgent is sent on REST requests and the channel handshake.
func UserAgent() string {
	return "adminsync/" + Version
}
