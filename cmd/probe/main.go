package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uctl/internal/app"
	"uctl/internal/device"
)

const defaultProbeTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("run probe tool", "error", err)
		os.Exit(1)
	}
}

func run() error {
	timeout := flag.Duration("timeout", defaultProbeTimeout, "per-domain probe timeout, e.g. 10s")
	flag.Parse()

	domains, err := resolveDomains(flag.Args())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Headless: dispatch delivers on its own goroutine instead of a UI thread.
	rt, err := app.Initialize(ctx, func(fn func()) { fn() })
	if err != nil {
		return fmt.Errorf("initialize app runtime: %w", err)
	}
	defer func() {
		_ = rt.Close()
	}()

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	failed := false
	for _, domain := range domains {
		manager, ok := rt.Manager(domain)
		if !ok {
			slog.Warn("domain unsupported on this host", "domain", domain)
			failed = true

			continue
		}

		snapshot, probeErr := probeOnce(ctx, manager, *timeout)
		if probeErr != nil {
			slog.Error("probe failed", "domain", domain, "error", probeErr)
			failed = true

			continue
		}
		if err := encoder.Encode(snapshot); err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
	}

	if failed {
		return fmt.Errorf("one or more probes failed")
	}

	return nil
}

type probeObserver struct {
	snapshots chan device.Snapshot
	failures  chan device.Failure
}

func (o *probeObserver) SnapshotChanged(snapshot device.Snapshot) {
	select {
	case o.snapshots <- snapshot:
	default:
	}
}

func (o *probeObserver) DeviceFailed(failure device.Failure) {
	select {
	case o.failures <- failure:
	default:
	}
}

// probeOnce requests a fresh snapshot and waits for that probe to settle.
func probeOnce(ctx context.Context, manager *device.Manager, timeout time.Duration) (device.Snapshot, error) {
	observer := &probeObserver{
		snapshots: make(chan device.Snapshot, 1),
		failures:  make(chan device.Failure, 1),
	}
	manager.Subscribe(observer)
	defer manager.Unsubscribe(observer)

	manager.RefreshAsync()

	select {
	case snapshot := <-observer.snapshots:
		return snapshot, nil
	case failure := <-observer.failures:
		return device.Snapshot{}, failure.Err
	case <-time.After(timeout):
		return device.Snapshot{}, fmt.Errorf("timed out after %s", timeout)
	case <-ctx.Done():
		return device.Snapshot{}, ctx.Err()
	}
}

func resolveDomains(args []string) ([]device.Domain, error) {
	if len(args) == 0 {
		return device.Domains(), nil
	}

	domains := make([]device.Domain, 0, len(args))
	for _, arg := range args {
		domain := device.Domain(arg)
		found := false
		for _, known := range device.Domains() {
			if domain == known {
				found = true

				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown domain %q", arg)
		}
		domains = append(domains, domain)
	}

	return domains, nil
}
