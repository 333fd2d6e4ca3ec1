package command

import (
	"testing"
	"time"

	"uctl/internal/dispatch"
)

func newDirectQueue() *dispatch.Queue {
	return dispatch.NewQueue(func(fn func()) { fn() }, nil)
}

func waitForResult(t *testing.T, queue *dispatch.Queue, delivered *bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !*delivered {
		if time.Now().After(deadline) {
			t.Fatalf("result was not delivered")
		}
		queue.DrainPending()
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSpecID(t *testing.T) {
	spec := Spec{Domain: "wifi", Verb: "connect", Target: "homenet"}
	if got := spec.ID(); got != "wifi.connect.homenet" {
		t.Fatalf("unexpected id: %q", got)
	}
	spec.Target = ""
	if got := spec.ID(); got != "wifi.connect" {
		t.Fatalf("unexpected id without target: %q", got)
	}
}

func TestRunDeliversStepOutputsInOrder(t *testing.T) {
	queue := newDirectQueue()
	runner := NewExecRunner(queue, nil)

	var (
		delivered bool
		result    Result
	)
	runner.Run(Spec{
		Domain: "wifi",
		Verb:   "status",
		Steps:  [][]string{{"echo", "first"}, {"echo", "second"}},
	}, func(res Result) {
		delivered = true
		result = res
	})
	waitForResult(t, queue, &delivered)

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(result.Outputs))
	}
	if result.Outputs[0] != "first\n" || result.Outputs[1] != "second\n" {
		t.Fatalf("unexpected outputs: %q", result.Outputs)
	}
}

func TestRunFailedStepDiscardsPartialOutput(t *testing.T) {
	queue := newDirectQueue()
	runner := NewExecRunner(queue, nil)

	var (
		delivered bool
		result    Result
	)
	runner.Run(Spec{
		Domain: "power",
		Verb:   "status",
		Steps:  [][]string{{"echo", "kept?"}, {"sh", "-c", "echo diag >&2; exit 3"}},
	}, func(res Result) {
		delivered = true
		result = res
	})
	waitForResult(t, queue, &delivered)

	if result.Err == nil {
		t.Fatalf("expected failure for non-zero exit")
	}
	if result.Outputs != nil {
		t.Fatalf("expected partial outputs discarded, got %q", result.Outputs)
	}
}

func TestRunIgnoresCleanupFailures(t *testing.T) {
	queue := newDirectQueue()
	runner := NewExecRunner(queue, nil)

	var (
		delivered bool
		result    Result
	)
	runner.Run(Spec{
		Domain:  "wifi",
		Verb:    "connect",
		Target:  "homenet",
		Cleanup: [][]string{{"sh", "-c", "exit 10"}},
		Steps:   [][]string{{"echo", "connected"}},
	}, func(res Result) {
		delivered = true
		result = res
	})
	waitForResult(t, queue, &delivered)

	if result.Err != nil {
		t.Fatalf("cleanup failure must not fail the invocation: %v", result.Err)
	}
	if len(result.Outputs) != 1 || result.Outputs[0] != "connected\n" {
		t.Fatalf("unexpected outputs: %q", result.Outputs)
	}
}

func TestRunMissingBinaryIsFailureWithDiagnostic(t *testing.T) {
	queue := newDirectQueue()
	runner := NewExecRunner(queue, nil)

	var (
		delivered bool
		result    Result
	)
	runner.Run(Spec{
		Domain: "bluetooth",
		Verb:   "status",
		Steps:  [][]string{{"uctl-no-such-binary"}},
	}, func(res Result) {
		delivered = true
		result = res
	})
	waitForResult(t, queue, &delivered)

	if result.Err == nil {
		t.Fatalf("expected failure for missing binary")
	}
}

func TestRunDeliversExactlyOnce(t *testing.T) {
	queue := newDirectQueue()
	runner := NewExecRunner(queue, nil)

	deliveries := 0
	done := false
	runner.Run(Spec{Domain: "audio", Verb: "status", Steps: [][]string{{"true"}}}, func(Result) {
		deliveries++
		done = true
	})
	waitForResult(t, queue, &done)
	// A second drain must not re-deliver.
	queue.DrainPending()

	if deliveries != 1 {
		t.Fatalf("expected exactly one delivery, got %d", deliveries)
	}
}
