// Package buildinfo reports the binary version. Release builds set the vars
// with -ldflags "-X"; other builds fall back to the module and VCS metadata
// embedded by the Go toolchain.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type info struct {
	version, commit, date string
	dirty                 bool
}

var resolved = sync.OnceValue(func() info {
	bi, ok := debug.ReadBuildInfo()
	return resolve(Version, Commit, Date, bi, ok)
})

func resolve(version, commit, date string, bi *debug.BuildInfo, ok bool) info {
	out := info{version: version, commit: commit, date: date}
	if !ok || bi == nil {
		return out
	}
	if out.version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		out.version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if out.commit == "none" {
				out.commit = s.Value
			}
		case "vcs.time":
			if out.date == "unknown" {
				out.date = s.Value
			}
		case "vcs.modified":
			out.dirty = s.Value == "true"
		}
	}
	return out
}

// String is the long form printed by `backtest version`.
func String() string {
	i := resolved()
	commit := i.commit
	if i.dirty {
		commit += "+dirty"
	}
	return fmt.Sprintf("backtest %s (commit=%s, date=%s)", i.version, commit, i.date)
}

// Short is the bare version, used in the HTTP User-Agent.
func Short() string {
	return resolved().version
}
