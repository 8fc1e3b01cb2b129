package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Set with -ldflags -X.
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info describes one build.
type Info struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit,omitempty"`
	Dirty     bool      `json:"dirty,omitempty"`
	BuiltAt   time.Time `json:"built_at,omitempty"`
	GoVersion string    `json:"go_version"`
}

// Get returns the build info, filling gaps from the embedded VCS settings.
func Get() Info {
	info := Info{Version: Version, Commit: Commit}
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		info.BuiltAt = t
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.BuiltAt.IsZero() {
				info.BuiltAt, _ = time.Parse(time.RFC3339, s.Value)
			}
		}
	}
	return info
}

// Short renders the version with an abbreviated commit, e.g. 1.2.0-abc1234-dirty.
func (i Info) Short() string {
	s := i.Version
	if i.Commit != "" {
		commit := i.Commit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		s += "-" + commit
	}
	if i.Dirty {
		s += "-dirty"
	}
	return s
}

// String renders Short plus the build time and Go version.
func (i Info) String() string {
	s := i.Short()
	if !i.BuiltAt.IsZero() {
		s += fmt.Sprintf(" (built %s)", i.BuiltAt.UTC().Format(time.RFC3339))
	}
	if i.GoVersion != "" {
		s += " " + i.GoVersion
	}
	return s
}
