package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsReleaseNewer(t *testing.T) {
	cases := []struct {
		current string
		latest  string
		want    bool
	}{
		{"1.2.0", "1.3.0", true},
		{"v1.3.0", "1.3.0", false},
		{"2.0.0", "1.9.9", false},
		{"dev", "1.0.0", true},
		{"1.0.0", "not-a-version", false},
		{"", "0.1.0", true},
	}

	for _, tc := range cases {
		if got := isReleaseNewer(tc.current, tc.latest); got != tc.want {
			t.Errorf("isReleaseNewer(%q, %q) = %v, want %v", tc.current, tc.latest, got, tc.want)
		}
	}
}

func TestUpdateCheckerFetchSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"tag_name": "v1.4.0", "body": "fixes", "html_url": "https://example.test/r/1.4.0", "published_at": "2026-05-01T10:00:00Z"},
			{"tag_name": "v1.5.0-rc1", "prerelease": true},
			{"tag_name": "v1.3.0", "body": "older"}
		]`))
	}))
	defer server.Close()

	checker := NewUpdateChecker(UpdateCheckerConfig{
		CurrentVersion: "1.3.0",
		Endpoint:       server.URL,
	})

	snapshot, err := checker.fetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("fetch snapshot: %v", err)
	}

	if !snapshot.UpdateAvailable {
		t.Error("expected an available update")
	}
	if snapshot.Latest.Version != "v1.4.0" {
		t.Errorf("latest = %q, want v1.4.0", snapshot.Latest.Version)
	}
	if len(snapshot.Releases) != 2 {
		t.Errorf("expected prerelease filtered out, got %d releases", len(snapshot.Releases))
	}
}

func TestUpdateCheckerFetchSnapshotErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer server.Close()

	checker := NewUpdateChecker(UpdateCheckerConfig{Endpoint: server.URL})

	if _, err := checker.fetchSnapshot(context.Background()); err == nil {
		t.Fatal("expected an error on non-200 response")
	}
}

func TestUpdateCheckerPublishKeepsNewest(t *testing.T) {
	checker := NewUpdateChecker(UpdateCheckerConfig{})

	checker.publish(UpdateSnapshot{CurrentVersion: "first"})
	checker.publish(UpdateSnapshot{CurrentVersion: "second"})

	select {
	case snapshot := <-checker.Snapshots():
		if snapshot.CurrentVersion != "second" {
			t.Errorf("expected newest snapshot, got %q", snapshot.CurrentVersion)
		}
	default:
		t.Fatal("expected a buffered snapshot")
	}
}
