package ui

import (
	"testing"

	"uctl/internal/dispatch"

	uapp "uctl/internal/app"
)

func TestBuildRuntimeDependenciesRoutesUIWorkThroughDispatch(t *testing.T) {
	queue := dispatch.NewQueue(func(fn func()) { fn() }, nil)
	rt := &uapp.Runtime{Dispatch: queue}

	dep := BuildRuntimeDependencies(rt, LaunchOptions{}, nil)
	if dep.RunOnUI == nil {
		t.Fatal("RunOnUI not wired to the dispatch queue")
	}

	ran := 0
	dep.RunOnUI(func() { ran++ })
	if ran != 0 {
		t.Fatal("posted work ran before the queue drained")
	}
	queue.DrainPending()
	if ran != 1 {
		t.Fatalf("posted work ran %d times after drain, want 1", ran)
	}
}
