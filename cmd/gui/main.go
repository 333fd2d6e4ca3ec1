package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"fyne.io/fyne/v2"

	"uctl/internal/app"
	"uctl/internal/config"
	"uctl/internal/ui"
)

func main() {
	panelFlag := flag.String("panel", "", "panel to open at startup (wifi, bluetooth, audio, display, power)")
	minimal := flag.Bool("minimal", false, "show only the selected panel without the sidebar")
	flag.Parse()

	panel := resolvePanelArg(*panelFlag, flag.Arg(0))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Initialize(ctx, fyne.Do)
	if err != nil {
		slog.Error("initialize app runtime", "error", err)
		os.Exit(1)
	}

	var closeOnce sync.Once
	closeRuntime := func() {
		closeOnce.Do(func() {
			_ = rt.Close()
		})
	}
	defer closeRuntime()

	dep := ui.BuildRuntimeDependencies(rt, ui.LaunchOptions{
		InitialPanel: panel,
		MinimalMode:  *minimal,
	}, func() {
		stop()
		closeRuntime()
	})

	if err := ui.Run(dep); err != nil {
		slog.Error("run ui", "error", err)
		os.Exit(1)
	}
}

// resolvePanelArg accepts a panel id from either the -panel flag or the
// first positional argument, including the historical one-letter aliases.
func resolvePanelArg(flagValue, positional string) string {
	raw := flagValue
	if raw == "" {
		raw = positional
	}

	switch raw {
	case "":
		return ""
	case "w":
		return config.PanelWifi
	case "b":
		return config.PanelBluetooth
	case "a", "volume":
		return config.PanelAudio
	case "d":
		return config.PanelDisplay
	case "p":
		return config.PanelPower
	default:
		return raw
	}
}
