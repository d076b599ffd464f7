package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/linebot/internal/config"
	"github.com/san-kum/linebot/internal/tune"
)

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Gain flags here are grids, not overrides.
	cfg.Device.Kind = config.DeviceSim
	cfg.Sim.PaceMs = 0
	if !cmd.Flags().Changed("noise") && cfg.Sim.Noise == 0 {
		cfg.Sim.Noise = noise
	}
	log := newLogger(cfg)

	base, err := cfg.Build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grid := tune.Grid{Kp: kpGrid, Ki: kiGrid, Kd: kdGrid}
	log.WithField("candidates", len(grid.Expand(base.Gains))).WithField("seeds", seeds).Info("starting gain search")

	tuner := tune.Tuner{Base: base, Params: cfg.TrackParams(), Seeds: seeds, Workers: workers}
	cands, err := tuner.Search(ctx, grid)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tKP\tKI\tKD\tSCORE\tRMS\tREACHED\tITER")
	for i, c := range cands {
		if top > 0 && i >= top {
			break
		}
		fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%.3f\t%.4f\t%.4f\t%d/%d\t%.0f\n",
			i+1, c.Gains.Kp, c.Gains.Ki, c.Gains.Kd, c.Score, c.MeanRMS, c.Reached, c.Runs, c.MeanIterations)
	}
	return w.Flush()
}
