package app

import "testing"

func withBuildInfo(t *testing.T, version, date string) {
	t.Helper()

	prevVersion, prevDate := Version, BuildDate
	t.Cleanup(func() {
		Version, BuildDate = prevVersion, prevDate
	})
	Version, BuildDate = version, date
}

func TestBuildVersionFallsBackToDev(t *testing.T) {
	withBuildInfo(t, "  ", "")
	if got := BuildVersion(); got != "dev" {
		t.Errorf("BuildVersion() = %q, want dev", got)
	}

	withBuildInfo(t, "v1.4.0", "")
	if got := BuildVersion(); got != "v1.4.0" {
		t.Errorf("BuildVersion() = %q, want v1.4.0", got)
	}
}

func TestBuildDateYMD(t *testing.T) {
	cases := []struct {
		stamp string
		want  string
	}{
		{"", ""},
		{"2026-08-30T12:34:56Z", "2026-08-30"},
		{"2026-08-30", "2026-08-30"},
		{"2026-08-30 some trailer", "2026-08-30"},
		{"yesterday", "yesterday"},
	}
	for _, tc := range cases {
		withBuildInfo(t, "v1.0.0", tc.stamp)
		if got := BuildDateYMD(); got != tc.want {
			t.Errorf("BuildDateYMD() with %q = %q, want %q", tc.stamp, got, tc.want)
		}
	}
}

func TestBuildVersionWithDate(t *testing.T) {
	withBuildInfo(t, "v1.4.0", "2026-08-30T00:00:00Z")
	if got := BuildVersionWithDate(); got != "v1.4.0 (2026-08-30)" {
		t.Errorf("BuildVersionWithDate() = %q", got)
	}

	withBuildInfo(t, "v1.4.0", "")
	if got := BuildVersionWithDate(); got != "v1.4.0" {
		t.Errorf("BuildVersionWithDate() without date = %q", got)
	}
}
