// Package version reports the build of the ingest binary.
//
// Values are stamped at link time:
//
//	go build -ldflags "-X github.com/kbukum/ingestkit/version.Version=1.2.0" ./cmd/ingest
//
// Unstamped builds fall back to the VCS settings Go embeds.
package version
