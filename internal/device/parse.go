package device

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parser turns the ordered step outputs of one probe run into a snapshot.
// Step order is fixed by the per-domain probe tables, so each parser indexes
// outputs positionally.
type Parser func(outputs []string) (Snapshot, error)

func parserFor(domain Domain) (Parser, error) {
	switch domain {
	case DomainWifi:
		return parseWifi, nil
	case DomainBluetooth:
		return parseBluetooth, nil
	case DomainAudio:
		return parseAudio, nil
	case DomainDisplay:
		return parseDisplay, nil
	case DomainPower:
		return parsePower, nil
	default:
		return nil, fmt.Errorf("no parser for domain %q", domain)
	}
}

func requireOutputs(domain Domain, outputs []string, want int) error {
	if len(outputs) < want {
		return fmt.Errorf("%s probe produced %d outputs, want %d", domain, len(outputs), want)
	}

	return nil
}

// parseWifi reads nmcli output: radio state, terse network list
// (IN-USE:SSID:SIGNAL:SECURITY) and terse device list (TYPE:STATE).
func parseWifi(outputs []string) (Snapshot, error) {
	if err := requireOutputs(DomainWifi, outputs, 3); err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		Domain:    DomainWifi,
		Enabled:   strings.TrimSpace(outputs[0]) == "enabled",
		UpdatedAt: time.Now(),
	}

	for _, line := range nonEmptyLines(outputs[1]) {
		fields := splitTerse(line)
		if len(fields) < 4 {
			continue
		}

		ssid := fields[1]
		if ssid == "" {
			continue
		}

		signal, err := strconv.Atoi(fields[2])
		if err != nil {
			return Snapshot{}, fmt.Errorf("wifi signal %q: %w", fields[2], err)
		}

		security := fields[3]
		item := Item{
			ID:      ssid,
			Name:    ssid,
			Signal:  signal,
			Active:  fields[0] == "*",
			Secured: security != "" && security != "--",
			Detail:  security,
		}
		if item.Active && snapshot.ActiveID == "" {
			snapshot.ActiveID = item.ID
		}

		snapshot.Items = append(snapshot.Items, item)
	}

	for _, line := range nonEmptyLines(outputs[2]) {
		fields := splitTerse(line)
		if len(fields) < 2 {
			continue
		}
		if fields[0] == "ethernet" && fields[1] == "connected" {
			snapshot.WiredConnected = true
		}
	}

	return snapshot, nil
}

// parseBluetooth reads bluetoothctl output: controller info, the paired
// device list and the connected device list.
func parseBluetooth(outputs []string) (Snapshot, error) {
	if err := requireOutputs(DomainBluetooth, outputs, 3); err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		Domain:    DomainBluetooth,
		UpdatedAt: time.Now(),
	}

	for _, line := range nonEmptyLines(outputs[0]) {
		trimmed := strings.TrimSpace(line)
		if value, ok := strings.CutPrefix(trimmed, "Powered:"); ok {
			snapshot.Enabled = strings.TrimSpace(value) == "yes"
		}
	}

	connected := make(map[string]bool)
	for _, address := range bluetoothDeviceLines(outputs[2]) {
		connected[address.id] = true
	}

	for _, entry := range bluetoothDeviceLines(outputs[1]) {
		item := Item{
			ID:     entry.id,
			Name:   entry.name,
			Active: connected[entry.id],
		}
		if item.Active && snapshot.ActiveID == "" {
			snapshot.ActiveID = item.ID
		}

		snapshot.Items = append(snapshot.Items, item)
	}

	return snapshot, nil
}

type bluetoothEntry struct {
	id   string
	name string
}

// bluetoothDeviceLines parses "Device AA:BB:CC:DD:EE:FF Name..." lines.
func bluetoothDeviceLines(output string) []bluetoothEntry {
	var entries []bluetoothEntry

	for _, line := range nonEmptyLines(output) {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "Device ")
		if !ok {
			continue
		}

		address, name, found := strings.Cut(rest, " ")
		if !found {
			name = address
		}

		entries = append(entries, bluetoothEntry{id: address, name: name})
	}

	return entries
}

// parseAudio reads pactl output: default sink name, short sink list, default
// sink volume and default sink mute state.
func parseAudio(outputs []string) (Snapshot, error) {
	if err := requireOutputs(DomainAudio, outputs, 4); err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		Domain:    DomainAudio,
		UpdatedAt: time.Now(),
	}

	defaultSink := strings.TrimSpace(outputs[0])

	for _, line := range nonEmptyLines(outputs[1]) {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}

		name := strings.TrimSpace(fields[1])
		item := Item{
			ID:     name,
			Name:   name,
			Active: name == defaultSink,
		}
		if len(fields) >= 5 {
			item.Detail = strings.TrimSpace(fields[4])
		}
		if item.Active {
			snapshot.ActiveID = item.ID
		}

		snapshot.Items = append(snapshot.Items, item)
	}

	level, err := firstPercent(outputs[2])
	if err != nil {
		return Snapshot{}, fmt.Errorf("audio volume: %w", err)
	}
	snapshot.Level = level

	_, muteValue, found := strings.Cut(outputs[3], "Mute:")
	if !found {
		return Snapshot{}, fmt.Errorf("audio mute state missing in %q", strings.TrimSpace(outputs[3]))
	}
	snapshot.Muted = strings.TrimSpace(muteValue) == "yes"
	snapshot.Enabled = !snapshot.Muted

	return snapshot, nil
}

// parseDisplay reads brightnessctl machine-readable output:
// device,class,current,percent,max per line.
func parseDisplay(outputs []string) (Snapshot, error) {
	if err := requireOutputs(DomainDisplay, outputs, 1); err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		Domain:    DomainDisplay,
		Enabled:   true,
		UpdatedAt: time.Now(),
	}

	for _, line := range nonEmptyLines(outputs[0]) {
		fields := strings.Split(line, ",")
		if len(fields) < 5 {
			continue
		}

		percent, err := strconv.Atoi(strings.TrimSuffix(fields[3], "%"))
		if err != nil {
			return Snapshot{}, fmt.Errorf("display brightness %q: %w", fields[3], err)
		}

		item := Item{
			ID:     fields[0],
			Name:   fields[0],
			Signal: percent,
			Detail: fields[1],
		}

		if fields[1] == "backlight" && snapshot.ActiveID == "" {
			item.Active = true
			snapshot.ActiveID = item.ID
			snapshot.Level = percent
		}

		snapshot.Items = append(snapshot.Items, item)
	}

	return snapshot, nil
}

// parsePower reads powerprofilesctl output: the active profile name and the
// profile listing where the active entry is starred.
func parsePower(outputs []string) (Snapshot, error) {
	if err := requireOutputs(DomainPower, outputs, 2); err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		Domain:    DomainPower,
		Enabled:   true,
		Profile:   strings.TrimSpace(outputs[0]),
		UpdatedAt: time.Now(),
	}
	snapshot.ActiveID = snapshot.Profile

	for _, line := range nonEmptyLines(outputs[1]) {
		if indent := len(line) - len(strings.TrimLeft(line, " ")); indent > 2 {
			continue
		}

		trimmed := strings.TrimSpace(line)
		starred := strings.HasPrefix(trimmed, "*")
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "*"))
		if !strings.HasSuffix(trimmed, ":") {
			continue
		}

		name := strings.TrimSuffix(trimmed, ":")
		if name == "" || strings.ContainsAny(name, " \t") {
			continue
		}

		snapshot.Items = append(snapshot.Items, Item{
			ID:     name,
			Name:   name,
			Active: starred || name == snapshot.Profile,
		})
	}

	return snapshot, nil
}

func nonEmptyLines(output string) []string {
	var lines []string

	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		lines = append(lines, line)
	}

	return lines
}

// splitTerse splits nmcli terse output on unescaped colons. Values such as
// SSIDs may contain "\:" sequences.
func splitTerse(line string) []string {
	var fields []string
	var current strings.Builder

	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':':
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())

	return fields
}

// firstPercent extracts the first "NN%" token from output.
func firstPercent(output string) (int, error) {
	for _, field := range strings.Fields(output) {
		if !strings.HasSuffix(field, "%") {
			continue
		}

		value, err := strconv.Atoi(strings.TrimSuffix(field, "%"))
		if err != nil {
			continue
		}

		return value, nil
	}

	return 0, fmt.Errorf("no percentage in %q", strings.TrimSpace(output))
}
