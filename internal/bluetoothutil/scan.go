package bluetoothutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

const defaultScanDuration = 10 * time.Second

// a2dpSinkUUID marks devices advertising an audio sink service. The scan
// dialog highlights these since headphones and speakers are what people
// usually pair from a control panel.
var a2dpSinkUUID = bluetooth.New16BitUUID(0x110B)

// DiscoveredDevice is one nearby advertiser seen during a scan.
type DiscoveredDevice struct {
	Name         string
	Address      string
	RSSI         int
	AudioCapable bool
}

// Scanner discovers nearby BLE advertisers. One scan runs at a time per
// scanner; concurrent calls serialize.
type Scanner struct {
	scanDuration time.Duration
	mu           sync.Mutex
}

func NewScanner(scanDuration time.Duration) *Scanner {
	if scanDuration <= 0 {
		scanDuration = defaultScanDuration
	}

	return &Scanner{scanDuration: scanDuration}
}

// Scan collects advertisers until the context or the scan duration expires
// and returns them strongest-signal first, audio devices on top.
func (s *Scanner) Scan(ctx context.Context, adapterID string) ([]DiscoveredDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	adapter := ResolveAdapter(adapterID)
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable bluetooth adapter: %w", err)
	}
	if err := StopScan(adapter); err != nil {
		return nil, fmt.Errorf("reset bluetooth scan state: %w", err)
	}

	scanCtx := ctx
	if _, hasDeadline := scanCtx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(scanCtx, s.scanDuration)
		defer cancel()
	}

	var (
		mu      sync.Mutex
		devices = make(map[string]DiscoveredDevice)
	)
	scanErrCh := make(chan error, 1)

	go func() {
		scanErrCh <- runScan(adapter, func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			entry := deviceFromResult(result)
			if entry.Address == "" {
				return
			}

			mu.Lock()
			defer mu.Unlock()

			if existing, ok := devices[entry.Address]; ok {
				devices[entry.Address] = mergeDiscoveredDevice(existing, entry)

				return
			}
			devices[entry.Address] = entry
		})
	}()

	if err := awaitScanCompletion(scanCtx, adapter, scanErrCh); err != nil {
		return nil, err
	}

	mu.Lock()
	result := make([]DiscoveredDevice, 0, len(devices))
	for _, entry := range devices {
		result = append(result, entry)
	}
	mu.Unlock()

	sortDiscoveredDevices(result)

	return result, nil
}

func StopScan(adapter *bluetooth.Adapter) error {
	err := adapter.StopScan()
	if err != nil && !IsBenignStopScanError(err) {
		return err
	}

	return nil
}

func NormalizeScanError(err error) error {
	if err == nil || IsBenignStopScanError(err) {
		return nil
	}

	return err
}

// runScan retries once after clearing a stale bluez discovery session.
func runScan(adapter *bluetooth.Adapter, callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error {
	var lastErr error

	for attempt := 0; attempt < 2; attempt++ {
		err := adapter.Scan(callback)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsScanAlreadyInProgressError(err) {
			return err
		}
		if stopErr := StopScan(adapter); stopErr != nil {
			return errors.Join(err, fmt.Errorf("stop stale bluetooth scan: %w", stopErr))
		}
	}

	return lastErr
}

func awaitScanCompletion(ctx context.Context, adapter *bluetooth.Adapter, scanErrCh <-chan error) error {
	select {
	case err := <-scanErrCh:
		if err = NormalizeScanError(err); err != nil {
			return fmt.Errorf("scan bluetooth devices: %w", err)
		}

		return nil
	case <-ctx.Done():
		if err := StopScan(adapter); err != nil {
			return fmt.Errorf("stop bluetooth scan: %w", err)
		}
		err := <-scanErrCh
		if err = NormalizeScanError(err); err != nil {
			return fmt.Errorf("scan bluetooth devices: %w", err)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil
		}

		return ctx.Err()
	}
}

func deviceFromResult(result bluetooth.ScanResult) DiscoveredDevice {
	return DiscoveredDevice{
		Name:         strings.TrimSpace(result.LocalName()),
		Address:      NormalizeAddress(result.Address.String()),
		RSSI:         int(result.RSSI),
		AudioCapable: result.HasServiceUUID(a2dpSinkUUID),
	}
}

func mergeDiscoveredDevice(existing, next DiscoveredDevice) DiscoveredDevice {
	merged := existing

	if len(strings.TrimSpace(next.Name)) > len(strings.TrimSpace(merged.Name)) {
		merged.Name = next.Name
	}
	if next.RSSI > merged.RSSI {
		merged.RSSI = next.RSSI
	}
	merged.AudioCapable = merged.AudioCapable || next.AudioCapable

	return merged
}

func sortDiscoveredDevices(devices []DiscoveredDevice) {
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].AudioCapable != devices[j].AudioCapable {
			return devices[i].AudioCapable
		}
		if devices[i].RSSI != devices[j].RSSI {
			return devices[i].RSSI > devices[j].RSSI
		}

		leftName := strings.ToLower(strings.TrimSpace(devices[i].Name))
		rightName := strings.ToLower(strings.TrimSpace(devices[j].Name))
		if leftName != rightName {
			return leftName < rightName
		}

		return devices[i].Address < devices[j].Address
	})
}

func NormalizeAddress(address string) string {
	return strings.ToUpper(strings.TrimSpace(address))
}
