package app

import (
	"strings"
	"time"
)

// Set at link time, e.g.
// -ldflags "-X uctl/internal/app.Version=v1.2.0 -X uctl/internal/app.BuildDate=2026-08-30".
var (
	Version   = "dev"
	BuildDate = ""
)

// BuildVersion returns the release version, falling back to "dev" for
// local builds.
func BuildVersion() string {
	if v := strings.TrimSpace(Version); v != "" {
		return v
	}

	return "dev"
}

// BuildDateYMD normalizes the stamped build date to YYYY-MM-DD. Release
// pipelines provide either an RFC 3339 timestamp or a plain date; anything
// else passes through untouched.
func BuildDateYMD() string {
	stamp := strings.TrimSpace(BuildDate)
	if stamp == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, stamp); err == nil {
		return t.Format(time.DateOnly)
	}
	if len(stamp) >= len(time.DateOnly) {
		date := stamp[:len(time.DateOnly)]
		if _, err := time.Parse(time.DateOnly, date); err == nil {
			return date
		}
	}

	return stamp
}

// BuildVersionWithDate is the version line shown in the about box.
func BuildVersionWithDate() string {
	if date := BuildDateYMD(); date != "" {
		return BuildVersion() + " (" + date + ")"
	}

	return BuildVersion()
}
