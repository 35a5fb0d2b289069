/*
Framebin drives the testbed game through the frame bin ring and prints a
summary of the frame pacing once the run ends.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spaghettifunk/framebin/engine"
	"github.com/spaghettifunk/framebin/engine/config"
	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer"
	"github.com/spaghettifunk/framebin/testbed"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	backend := flag.String("backend", "", "override the configured backend (null or vulkan)")
	frames := flag.Uint64("frames", 0, "override the number of frames to render, 0 keeps the configured value")
	flag.Parse()

	if err := run(*configPath, *backend, *frames); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "framebin: %s\n", err)
		os.Exit(1)
	}
}

func run(configPath, backend string, frames uint64) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if backend != "" {
		cfg.Driver.Backend = backend
	}
	if frames != 0 {
		cfg.Driver.Frames = frames
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	core.SetLogLevel(cfg.LogLevel())

	device, err := renderer.OpenDevice(cfg)
	if err != nil {
		return err
	}

	tb := testbed.NewTestGame(cfg)
	e, err := engine.New(tb.Game, cfg, device)
	if err != nil {
		device.Destroy()
		return err
	}
	if err := e.Initialize(); err != nil {
		return errors.Join(err, e.Shutdown())
	}

	if configPath != "" {
		w, err := config.NewWatcher(configPath, e.OnConfigChange)
		if err != nil {
			core.LogWarn("config reload disabled: %s", err)
		} else {
			defer w.Close()
		}
	}

	// signal context to capture system calls
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	runErr := e.Run(ctx)
	shutdownErr := e.Shutdown()
	printSummary(cfg, e, tb.Stats())
	return errors.Join(runErr, shutdownErr)
}

func printSummary(cfg *config.Config, e *engine.Engine, st testbed.Stats) {
	m := e.Metrics()
	title := color.New(color.FgCyan, color.Bold).SprintfFunc()
	value := color.New(color.FgGreen).SprintfFunc()
	warn := color.New(color.FgYellow).SprintfFunc()

	fmt.Println(title("framebin summary (%s backend, %d bins)", cfg.Driver.Backend, cfg.Frame.Bins))
	fmt.Printf("  frames rendered    %s\n", value("%d", e.FramesRendered()))
	fmt.Printf("  frames presented   %s\n", value("%d", m.FramesPresented))
	fmt.Printf("  command buffers    %s\n", value("%d", st.CommandBuffers))
	fmt.Printf("  submit batches     %s\n", value("%d (%d submissions)", m.SubmitBatches, m.Submissions))
	fmt.Printf("  fence waits        %s\n", value("%d (%s total)", m.FenceWaits, m.FenceWaitTime))
	fmt.Printf("  present latency    %s\n", value("%s avg", m.AvgPresentLatency))
	fmt.Printf("  fps                %s\n", value("%.1f", m.FPS))
	if st.OutOfOrder > 0 || st.FailedJobs > 0 {
		fmt.Println(warn("  %d frames out of order, %d failed jobs", st.OutOfOrder, st.FailedJobs))
	}
}
