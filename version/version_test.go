package version

import (
	"testing"
	"time"
)

func TestInfo_Short(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"dev", Info{Version: "dev"}, "dev"},
		{"commit abbreviated", Info{Version: "1.2.0", Commit: "abc1234def"}, "1.2.0-abc1234"},
		{"dirty", Info{Version: "1.2.0", Commit: "abc", Dirty: true}, "1.2.0-abc-dirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Short(); got != tt.want {
				t.Errorf("Short() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInfo_String(t *testing.T) {
	info := Info{
		Version:   "1.2.0",
		BuiltAt:   time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
		GoVersion: "go1.26.0",
	}
	want := "1.2.0 (built 2026-02-03T04:05:06Z) go1.26.0"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestGet_UsesStampedValues(t *testing.T) {
	defer func(v, c, b string) { Version, Commit, BuildTime = v, c, b }(Version, Commit, BuildTime)
	Version, Commit, BuildTime = "3.0.0", "feedbeef", "2026-01-15T10:30:00Z"

	info := Get()
	if info.Version != "3.0.0" || info.Commit != "feedbeef" {
		t.Errorf("unexpected info %+v", info)
	}
	if !info.BuiltAt.Equal(time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected build time %v", info.BuiltAt)
	}
}
