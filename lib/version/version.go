// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// These variables are set via -ldflags at build time, for example:
//
//	go build -ldflags "-X github.com/reelstore/reelstore/lib/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Build is the resolved build stamp.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Dirty     bool   `json:"dirty"`
	BuildTime string `json:"build_time"`
	Go        string `json:"go"`
	Platform  string `json:"platform"`
}

var (
	resolveOnce sync.Once
	resolved    Build
)

// Current returns the build stamp, filling fields left "unknown" by
// -ldflags from the embedded VCS settings.
func Current() Build {
	resolveOnce.Do(func() {
		resolved = resolve(GitCommit, GitDirty, BuildTime, readVCS())
	})
	return resolved
}

func readVCS() map[string]string {
	settings := make(map[string]string)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return settings
	}
	for _, setting := range info.Settings {
		settings[setting.Key] = setting.Value
	}
	return settings
}

func resolve(commit, dirty, buildTime string, vcs map[string]string) Build {
	if commit == "unknown" {
		if revision := vcs["vcs.revision"]; revision != "" {
			commit = revision[:min(len(revision), 7)]
			dirty = vcs["vcs.modified"]
		}
	}
	if buildTime == "unknown" {
		if stamp := vcs["vcs.time"]; stamp != "" {
			buildTime = stamp
		}
	}
	return Build{
		Version:   Version,
		Commit:    commit,
		Dirty:     dirty == "true",
		BuildTime: buildTime,
		Go:        runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	build := Current()
	dirty := ""
	if build.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", build.Version, build.Commit, dirty, build.BuildTime)
}

// Full returns detailed version information including Go version.
func Full() string {
	build := Current()
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s", Info(), build.Go, build.Platform)
}

// Short returns just the version number.
func Short() string {
	return Version
}
