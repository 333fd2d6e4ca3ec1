// Package command executes external device probes and actions. Every
// invocation runs on its own short-lived worker goroutine and delivers its
// result exactly once through the dispatch queue, so consumers only ever see
// completions on the UI thread.
package command

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"uctl/internal/dispatch"
)

// Spec describes one external invocation: its identity (domain, verb,
// optional target) and the argv steps to run in order. A step with a
// non-zero exit fails the whole invocation. Cleanup steps run first and
// their failures are ignored; they exist for commands like deleting a
// stale connection profile, which fails when no profile exists.
type Spec struct {
	Domain  string
	Verb    string
	Target  string
	Cleanup [][]string
	Steps   [][]string
}

// ID returns the invocation identity, e.g. "wifi.connect.homenet".
func (s Spec) ID() string {
	if s.Target == "" {
		return s.Domain + "." + s.Verb
	}

	return s.Domain + "." + s.Verb + "." + s.Target
}

// Result carries either the per-step outputs or a diagnostic error. Partial
// output from a failed step sequence is discarded, never half-parsed.
type Result struct {
	Spec    Spec
	Outputs []string
	Err     error
}

// Runner runs a spec off the UI thread and calls deliver with the result on
// the UI thread. Delivery is unconditional; stale results are filtered by
// the consumer's sequence-number check, not suppressed here.
type Runner interface {
	Run(spec Spec, deliver func(Result))
}

// ExecRunner shells out with os/exec. No retries and no timeouts at this
// layer: a hung tool is superseded by the next successful probe.
type ExecRunner struct {
	queue  *dispatch.Queue
	logger *slog.Logger
}

func NewExecRunner(queue *dispatch.Queue, logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default().With("component", "command")
	}

	return &ExecRunner{queue: queue, logger: logger}
}

func (r *ExecRunner) Run(spec Spec, deliver func(Result)) {
	if deliver == nil {
		return
	}
	go func() {
		result := r.execute(spec)
		r.queue.Post(func() {
			deliver(result)
		})
	}()
}

func (r *ExecRunner) execute(spec Spec) Result {
	for _, step := range spec.Cleanup {
		if len(step) == 0 {
			continue
		}
		// #nosec G204 -- argv comes from the platform command tables, not free-form user input.
		if out, err := exec.Command(step[0], step[1:]...).CombinedOutput(); err != nil {
			r.logger.Debug("cleanup step failed", "id", spec.ID(), "cmd", step[0],
				"error", err, "output", strings.TrimSpace(string(out)))
		}
	}
	outputs := make([]string, 0, len(spec.Steps))
	for _, step := range spec.Steps {
		if len(step) == 0 {
			return Result{Spec: spec, Err: fmt.Errorf("%s: empty command step", spec.ID())}
		}
		// #nosec G204 -- argv comes from the platform command tables, not free-form user input.
		out, err := exec.Command(step[0], step[1:]...).CombinedOutput()
		if err != nil {
			diag := strings.TrimSpace(string(out))
			r.logger.Warn("command failed", "id", spec.ID(), "cmd", step[0], "error", err, "output", diag)
			if diag != "" {
				return Result{Spec: spec, Err: fmt.Errorf("%s: %s: %w (%s)", spec.ID(), step[0], err, diag)}
			}

			return Result{Spec: spec, Err: fmt.Errorf("%s: %s: %w", spec.ID(), step[0], err)}
		}
		outputs = append(outputs, string(out))
	}
	r.logger.Debug("command completed", "id", spec.ID(), "steps", len(spec.Steps))

	return Result{Spec: spec, Outputs: outputs}
}
