package device

import (
	"fmt"

	"uctl/internal/command"
	"uctl/internal/platform"
)

// CommandSet binds one domain to its probe invocation, its action builder
// and the parser that turns probe output into snapshots. Managers stay
// domain-agnostic; everything domain-specific lives here.
type CommandSet struct {
	Domain Domain
	Probe  func() (command.Spec, error)
	Action func(req platform.ActionRequest) (command.Spec, error)
	Parse  Parser
}

// NewCommandSet builds the command set for domain from the per-OS command
// tables. It fails on domains the current platform has no commands for.
func NewCommandSet(domain Domain) (CommandSet, error) {
	parse, err := parserFor(domain)
	if err != nil {
		return CommandSet{}, err
	}

	if _, err := platform.ProbeSteps(string(domain)); err != nil {
		return CommandSet{}, fmt.Errorf("command set for %s: %w", domain, err)
	}

	return CommandSet{
		Domain: domain,
		Probe: func() (command.Spec, error) {
			steps, err := platform.ProbeSteps(string(domain))
			if err != nil {
				return command.Spec{}, err
			}

			return command.Spec{
				Domain: string(domain),
				Verb:   "status",
				Steps:  steps,
			}, nil
		},
		Action: func(req platform.ActionRequest) (command.Spec, error) {
			plan, err := platform.ActionSteps(string(domain), req)
			if err != nil {
				return command.Spec{}, err
			}

			return command.Spec{
				Domain:  string(domain),
				Verb:    req.Verb,
				Target:  req.Target,
				Cleanup: plan.Cleanup,
				Steps:   plan.Steps,
			}, nil
		},
		Parse: parse,
	}, nil
}
