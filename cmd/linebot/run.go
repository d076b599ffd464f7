package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	fcolor "github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/linebot/internal/config"
	"github.com/san-kum/linebot/internal/loop"
	"github.com/san-kum/linebot/internal/metrics"
	"github.com/san-kum/linebot/internal/storage"
	"github.com/san-kum/linebot/internal/track"
	"github.com/san-kum/linebot/internal/viz"
)

func newLoop(cfg *config.Config, log logrus.FieldLogger) (*loop.Loop, loop.Config, *storage.Trace, error) {
	lcfg, err := cfg.Build()
	if err != nil {
		return nil, loop.Config{}, nil, err
	}
	lp, err := loop.New(lcfg)
	if err != nil {
		return nil, loop.Config{}, nil, err
	}
	lp.SetLogger(log)
	for _, m := range metrics.Default() {
		lp.AddMetric(m)
	}
	trace := storage.NewTrace()
	lp.AddObserver(trace)
	return lp, lcfg, trace, nil
}

func runRobot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	lp, lcfg, trace, err := newLoop(cfg, log)
	if err != nil {
		return err
	}

	dev, err := openDevice(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.close(); err != nil {
			log.WithError(err).Warn("failed to close device")
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := loop.NewWatcher(loop.DefaultStopTimeout, log, dev.drive.Stoppers()...)
	watcher.Start(ctx)

	result, runErr := lp.RunWithFailsafe(ctx, dev.sensor, dev.drive)
	interrupted := ctx.Err() != nil
	stop()
	<-watcher.Done()

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.RunInfo{Device: cfg.Device.Kind, Preset: preset, Seed: cfg.Sim.Seed}, lcfg, result, trace)
		if err != nil {
			return err
		}
		fmt.Printf("run saved: %s\n", runID)
	}

	printSummary(os.Stdout, result)

	if interrupted && errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Device.Kind = config.DeviceSim
	cfg.Sim.PaceMs = int(pace.Milliseconds())

	// The TUI owns the terminal, so loop logs are dropped.
	log := newLogger(cfg)
	log.SetOutput(io.Discard)

	lp, lcfg, trace, err := newLoop(cfg, log)
	if err != nil {
		return err
	}
	sim, err := track.New(cfg.TrackParams())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	title := "linebot sim"
	if preset != "" {
		title += " / " + preset
	}
	model := viz.NewModel(sim.Course(), lcfg.MaxIterations, title, cancelRun)
	p := tea.NewProgram(model, tea.WithAltScreen())
	lp.AddObserver(viz.Feed{Send: p.Send, Pos: sim})

	type outcome struct {
		result *loop.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := lp.RunWithFailsafe(ctx, sim, sim.Drive())
		p.Send(viz.DoneMsg{Result: res, Err: err})
		done <- outcome{res, err}
	}()

	if _, err := p.Run(); err != nil {
		cancelRun()
		<-done
		return err
	}
	cancelRun()
	out := <-done

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.RunInfo{Device: config.DeviceSim, Preset: preset, Seed: cfg.Sim.Seed}, lcfg, out.result, trace)
		if err != nil {
			return err
		}
		fmt.Printf("run saved: %s\n", runID)
	}
	printSummary(os.Stdout, out.result)
	if errors.Is(out.err, context.Canceled) {
		return nil
	}
	return out.err
}

func printSummary(w io.Writer, result *loop.Result) {
	if result == nil || !result.Outcome.Terminal() {
		return
	}

	var outcome *fcolor.Color
	switch result.Outcome {
	case loop.StoppedMarker:
		outcome = fcolor.New(fcolor.FgGreen, fcolor.Bold)
	case loop.StoppedTimeout:
		outcome = fcolor.New(fcolor.FgYellow, fcolor.Bold)
	default:
		outcome = fcolor.New(fcolor.FgRed, fcolor.Bold)
	}

	fmt.Fprintf(w, "\n%s %s\n", outcome.Sprint(result.Outcome.String()), result.String())
	fmt.Fprintf(w, "%s %d iterations in %s\n", fcolor.CyanString("elapsed"), result.Iterations, result.Elapsed.Round(time.Millisecond))

	names := make([]string, 0, len(result.Metrics))
	for k := range result.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %.4f\n", name, result.Metrics[name])
	}
}
