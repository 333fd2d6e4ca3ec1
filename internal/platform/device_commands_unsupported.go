//go:build !linux

package platform

func probeStepsForOS(domain string) ([][]string, error) {
	return nil, unsupportedDomainError(domain)
}

func actionPlanForOS(domain string, _ ActionRequest) (ActionPlan, error) {
	return ActionPlan{}, unsupportedDomainError(domain)
}
