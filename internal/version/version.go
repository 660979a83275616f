// Package version reports the packsplit build.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Overridden at link time, e.g.
//
//	go build -ldflags "-X github.com/packsplit/packsplit/internal/version.Version=v1.2.0"
var (
	Version   = "v0.0.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// CUESDKVersion is the CUE release the config schema is checked with.
const CUESDKVersion = "v0.15.4"

// Info describes the running binary.
type Info struct {
	Version       string `json:"version"`
	GitCommit     string `json:"gitCommit"`
	BuildDate     string `json:"buildDate"`
	GoVersion     string `json:"goVersion"`
	CUESDKVersion string `json:"cueSDKVersion"`
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		Version:       Version,
		GitCommit:     GitCommit,
		BuildDate:     BuildDate,
		GoVersion:     runtime.Version(),
		CUESDKVersion: CUESDKVersion,
	}
}

// String renders the info for `packsplit version`.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "packsplit version %s", i.Version)
	for _, row := range [][2]string{
		{"Commit", i.GitCommit},
		{"Built", i.BuildDate},
		{"Go", i.GoVersion},
		{"CUE SDK", i.CUESDKVersion},
	} {
		fmt.Fprintf(&b, "\n  %-10s %s", row[0]+":", row[1])
	}
	return b.String()
}
