// Package buildinfo holds version metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/matzehuels/melonchart/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/melonchart/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/melonchart/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the build information as "key: value" lines.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\ngo: %s", Version, Commit, Date, runtime.Version())
}

// Template returns a cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (%s, built %s, %s)\n", Version, Commit, Date, runtime.Version())
}

// UserAgent identifies this tool to servers it talks to, e.g. "melonchart/v0.3.0".
func UserAgent() string {
	return "melonchart/" + Version
}
