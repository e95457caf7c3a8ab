// Package version exposes build metadata injected with -ldflags -X. Binaries built without
// ldflags fall back to the VCS stamp recorded by the Go toolchain.
package version

import (
	"runtime/debug"

	"github.com/samber/lo"
)

const undefined = "undefined"

//nolint:gochecknoglobals // Set via ldflags at build time.
var (
	version = "0.1.0-dev"
	name    = "mpegh3da"
	commit  = undefined
	date    = undefined
)

// Commit returns the compile time commit.
func Commit() string { return orBuildSetting(commit, "vcs.revision") }

// Version returns the compile time version.
func Version() string { return version }

// Name returns the compile time name.
func Name() string { return name }

// Date returns the compile time build date.
func Date() string { return orBuildSetting(date, "vcs.time") }

// Full returns the version with its commit and build date, as shown by --version.
func Full() string {
	return Version() + " (" + Commit() + " - " + Date() + ")"
}

func orBuildSetting(value, key string) string {
	if value != undefined {
		return value
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return value
	}

	setting, found := lo.Find(info.Settings, func(s debug.BuildSetting) bool {
		return s.Key == key && s.Value != ""
	})
	if !found {
		return value
	}

	return setting.Value
}
