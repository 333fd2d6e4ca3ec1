// Package platform maps device domains to the OS tools that implement their
// probes and actions. The rest of the app treats these argv tables as opaque.
package platform

import (
	"fmt"
	"runtime"
)

// ActionRequest names a mutating device command: verb, optional target
// (ssid, device address, sink name), optional parameters (password, level).
type ActionRequest struct {
	Verb   string
	Target string
	Params map[string]string
}

func (r ActionRequest) param(key string) string {
	if r.Params == nil {
		return ""
	}

	return r.Params[key]
}

// ProbeSteps returns the ordered argv steps of the read-only status probe
// for a domain.
func ProbeSteps(domain string) ([][]string, error) {
	steps, err := probeStepsForOS(domain)
	if err != nil {
		return nil, err
	}

	return cloneSteps(steps), nil
}

// ActionPlan holds the argv steps implementing a mutating action. Cleanup
// steps run first and are allowed to fail; most actions have none.
type ActionPlan struct {
	Cleanup [][]string
	Steps   [][]string
}

// ActionSteps returns the plan implementing a mutating action.
func ActionSteps(domain string, req ActionRequest) (ActionPlan, error) {
	plan, err := actionPlanForOS(domain, req)
	if err != nil {
		return ActionPlan{}, err
	}

	return ActionPlan{
		Cleanup: cloneSteps(plan.Cleanup),
		Steps:   cloneSteps(plan.Steps),
	}, nil
}

func unsupportedDomainError(domain string) error {
	return fmt.Errorf("no device commands for domain %q on %s", domain, runtime.GOOS)
}

func unsupportedActionError(domain, verb string) error {
	return fmt.Errorf("domain %q does not support action %q", domain, verb)
}

func cloneSteps(steps [][]string) [][]string {
	out := make([][]string, 0, len(steps))
	for _, step := range steps {
		out = append(out, append([]string(nil), step...))
	}

	return out
}
