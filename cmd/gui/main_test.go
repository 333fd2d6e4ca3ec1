package main

import "testing"

func TestResolvePanelArg(t *testing.T) {
	tests := []struct {
		name       string
		flagValue  string
		positional string
		want       string
	}{
		{name: "empty", want: ""},
		{name: "flag wins over positional", flagValue: "power", positional: "wifi", want: "power"},
		{name: "positional", positional: "bluetooth", want: "bluetooth"},
		{name: "wifi alias", positional: "w", want: "wifi"},
		{name: "bluetooth alias", positional: "b", want: "bluetooth"},
		{name: "audio alias", positional: "a", want: "audio"},
		{name: "legacy volume", positional: "volume", want: "audio"},
		{name: "display alias", positional: "d", want: "display"},
		{name: "power alias", positional: "p", want: "power"},
		{name: "unknown passes through", positional: "settings", want: "settings"},
	}

	for _, tc := range tests {
		if got := resolvePanelArg(tc.flagValue, tc.positional); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
