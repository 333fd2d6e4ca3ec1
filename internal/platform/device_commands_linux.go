//go:build linux

package platform

import (
	"fmt"
	"strconv"
	"strings"
)

// Probe steps per domain. Field layouts here must stay in sync with the
// parsers in internal/device.
var linuxProbeSteps = map[string][][]string{
	"wifi": {
		{"nmcli", "radio", "wifi"},
		{"nmcli", "-t", "-f", "IN-USE,SSID,SIGNAL,SECURITY", "device", "wifi", "list"},
		{"nmcli", "-t", "-f", "TYPE,STATE", "device"},
	},
	"bluetooth": {
		{"bluetoothctl", "show"},
		{"bluetoothctl", "devices"},
		{"bluetoothctl", "devices", "Connected"},
	},
	"audio": {
		{"pactl", "get-default-sink"},
		{"pactl", "list", "short", "sinks"},
		{"pactl", "get-sink-volume", "@DEFAULT_SINK@"},
		{"pactl", "get-sink-mute", "@DEFAULT_SINK@"},
	},
	"display": {
		{"brightnessctl", "-m"},
	},
	"power": {
		{"powerprofilesctl", "get"},
		{"powerprofilesctl", "list"},
	},
}

func probeStepsForOS(domain string) ([][]string, error) {
	steps, ok := linuxProbeSteps[domain]
	if !ok {
		return nil, unsupportedDomainError(domain)
	}

	return steps, nil
}

func actionPlanForOS(domain string, req ActionRequest) (ActionPlan, error) {
	if domain == "wifi" {
		return wifiActionPlan(req)
	}

	var (
		steps [][]string
		err   error
	)
	switch domain {
	case "bluetooth":
		steps, err = bluetoothActionSteps(req)
	case "audio":
		steps, err = audioActionSteps(req)
	case "display":
		steps, err = displayActionSteps(req)
	case "power":
		steps, err = powerActionSteps(req)
	default:
		return ActionPlan{}, unsupportedDomainError(domain)
	}
	if err != nil {
		return ActionPlan{}, err
	}

	return ActionPlan{Steps: steps}, nil
}

func wifiActionPlan(req ActionRequest) (ActionPlan, error) {
	switch req.Verb {
	case "enable":
		return ActionPlan{Steps: [][]string{{"nmcli", "radio", "wifi", "on"}}}, nil
	case "disable":
		return ActionPlan{Steps: [][]string{{"nmcli", "radio", "wifi", "off"}}}, nil
	case "connect":
		ssid := strings.TrimSpace(req.Target)
		if ssid == "" {
			return ActionPlan{}, fmt.Errorf("wifi connect requires a network name")
		}
		password := req.param("password")
		if password == "" {
			return ActionPlan{Steps: [][]string{{"nmcli", "device", "wifi", "connect", ssid}}}, nil
		}

		// Secured networks get a fresh profile with explicit security
		// settings. The stale-profile delete fails when no profile with
		// that name exists, so it runs as a cleanup step.
		return ActionPlan{
			Cleanup: [][]string{{"nmcli", "connection", "delete", "id", ssid}},
			Steps: [][]string{
				{"nmcli", "connection", "add", "type", "wifi", "con-name", ssid, "ifname", "*", "ssid", ssid},
				{"nmcli", "connection", "modify", ssid, "wifi-sec.key-mgmt", "wpa-psk"},
				{"nmcli", "connection", "modify", ssid, "wifi-sec.psk", password},
				{"nmcli", "connection", "up", ssid},
			},
		}, nil
	case "disconnect":
		if strings.TrimSpace(req.Target) == "" {
			return ActionPlan{}, fmt.Errorf("wifi disconnect requires a network name")
		}

		return ActionPlan{Steps: [][]string{{"nmcli", "connection", "down", "id", req.Target}}}, nil
	case "forget":
		if strings.TrimSpace(req.Target) == "" {
			return ActionPlan{}, fmt.Errorf("wifi forget requires a network name")
		}

		return ActionPlan{Steps: [][]string{{"nmcli", "connection", "delete", "id", req.Target}}}, nil
	default:
		return ActionPlan{}, unsupportedActionError("wifi", req.Verb)
	}
}

func bluetoothActionSteps(req ActionRequest) ([][]string, error) {
	switch req.Verb {
	case "enable":
		return [][]string{{"bluetoothctl", "power", "on"}}, nil
	case "disable":
		return [][]string{{"bluetoothctl", "power", "off"}}, nil
	case "connect", "disconnect", "forget":
		address := strings.TrimSpace(req.Target)
		if address == "" {
			return nil, fmt.Errorf("bluetooth %s requires a device address", req.Verb)
		}
		verb := req.Verb
		if verb == "forget" {
			verb = "remove"
		}

		return [][]string{{"bluetoothctl", verb, address}}, nil
	default:
		return nil, unsupportedActionError("bluetooth", req.Verb)
	}
}

func audioActionSteps(req ActionRequest) ([][]string, error) {
	sink := strings.TrimSpace(req.Target)
	if sink == "" {
		sink = "@DEFAULT_SINK@"
	}
	switch req.Verb {
	case "set-level":
		level, err := levelParam(req)
		if err != nil {
			return nil, err
		}

		return [][]string{{"pactl", "set-sink-volume", sink, strconv.Itoa(level) + "%"}}, nil
	case "toggle-mute":
		return [][]string{{"pactl", "set-sink-mute", sink, "toggle"}}, nil
	case "set-default":
		if strings.TrimSpace(req.Target) == "" {
			return nil, fmt.Errorf("audio set-default requires a sink name")
		}

		return [][]string{{"pactl", "set-default-sink", req.Target}}, nil
	default:
		return nil, unsupportedActionError("audio", req.Verb)
	}
}

func displayActionSteps(req ActionRequest) ([][]string, error) {
	switch req.Verb {
	case "set-level":
		level, err := levelParam(req)
		if err != nil {
			return nil, err
		}
		if device := strings.TrimSpace(req.Target); device != "" {
			return [][]string{{"brightnessctl", "-d", device, "set", strconv.Itoa(level) + "%"}}, nil
		}

		return [][]string{{"brightnessctl", "set", strconv.Itoa(level) + "%"}}, nil
	default:
		return nil, unsupportedActionError("display", req.Verb)
	}
}

func powerActionSteps(req ActionRequest) ([][]string, error) {
	switch req.Verb {
	case "set-profile":
		profile := strings.TrimSpace(req.Target)
		if profile == "" {
			return nil, fmt.Errorf("power set-profile requires a profile name")
		}

		return [][]string{{"powerprofilesctl", "set", profile}}, nil
	default:
		return nil, unsupportedActionError("power", req.Verb)
	}
}

func levelParam(req ActionRequest) (int, error) {
	raw := strings.TrimSpace(req.param("level"))
	if raw == "" {
		return 0, fmt.Errorf("%s requires a level parameter", req.Verb)
	}
	level, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid level %q: %w", raw, err)
	}
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}

	return level, nil
}
