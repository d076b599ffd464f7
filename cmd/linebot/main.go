package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/linebot/internal/config"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	// Tuning overrides, applied only when set on the command line.
	preset     string
	deviceKind string
	serialPort string
	sysfsRoot  string
	kp         float64
	ki         float64
	kd         float64
	baseSpeed  int
	iterations int
	seed       int64
	noise      float64
	noSave     bool
	pace       time.Duration
	// Calibration
	samples   int
	margin    int
	interval  time.Duration
	labels    []string
	writePath string
	// Plot and export
	column     string
	svgColumns []string
	outPath    string
	chartPath  string
	// Tune
	kpGrid  []float64
	kiGrid  []float64
	kdGrid  []float64
	seeds   int
	workers int
	top     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "linebot",
		Short:         "line-following robot controller",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".linebot", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "follow the line until a marker or the iteration budget",
		Args:  cobra.NoArgs,
		RunE:  runRobot,
	}
	addTuningFlags(runCmd)
	runCmd.Flags().StringVar(&deviceKind, "device", "", "device kind: sim, ev3 or serial")
	runCmd.Flags().StringVar(&serialPort, "port", "", "serial port for the serial device")
	runCmd.Flags().StringVar(&sysfsRoot, "sysfs", "", "sysfs class root for the ev3 device")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulator with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addTuningFlags(liveCmd)
	liveCmd.Flags().DurationVar(&pace, "pace", 20*time.Millisecond, "wall-clock delay per iteration")
	liveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the run")

	calibrateCmd := &cobra.Command{
		Use:   "calibrate",
		Short: "measure white, black and marker references",
		Args:  cobra.NoArgs,
		RunE:  runCalibrate,
	}
	calibrateCmd.Flags().StringVar(&deviceKind, "device", "", "device kind: sim, ev3 or serial")
	calibrateCmd.Flags().StringVar(&serialPort, "port", "", "serial port for the serial device")
	calibrateCmd.Flags().StringVar(&sysfsRoot, "sysfs", "", "sysfs class root for the ev3 device")
	calibrateCmd.Flags().IntVar(&samples, "samples", 50, "readings per surface")
	calibrateCmd.Flags().IntVar(&margin, "margin", 10, "tolerance added to the observed spread")
	calibrateCmd.Flags().DurationVar(&interval, "interval", 10*time.Millisecond, "delay between readings")
	calibrateCmd.Flags().StringSliceVar(&labels, "markers", nil, "marker labels to measure (default: configured markers)")
	calibrateCmd.Flags().StringVar(&writePath, "write", "", "write the calibrated config to this file")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search PID gains on the simulator",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVar(&preset, "preset", "", "tuning preset used as the base")
	tuneCmd.Flags().IntVar(&baseSpeed, "speed", config.DefaultBaseSpeed, "base speed percent")
	tuneCmd.Flags().IntVar(&iterations, "iterations", config.DefaultMaxIterations, "iteration budget")
	tuneCmd.Flags().Int64Var(&seed, "seed", 0, "first simulator noise seed")
	tuneCmd.Flags().Float64Var(&noise, "noise", 2, "simulator reading noise")
	tuneCmd.Flags().Float64SliceVar(&kpGrid, "kp", []float64{0.5, 0.7, 0.9, 1.2, 1.5}, "proportional gains to try")
	tuneCmd.Flags().Float64SliceVar(&kiGrid, "ki", nil, "integral gains to try")
	tuneCmd.Flags().Float64SliceVar(&kdGrid, "kd", []float64{0, 0.2, 0.4}, "derivative gains to try")
	tuneCmd.Flags().IntVar(&seeds, "seeds", 3, "runs per candidate")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (default: number of CPUs)")
	tuneCmd.Flags().IntVar(&top, "top", 10, "candidates to print")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list tuning presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded trace",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "error", "column to plot, or all")

	statsCmd := &cobra.Command{
		Use:   "stats [run_id]",
		Short: "summary statistics of a recorded trace",
		Args:  cobra.ExactArgs(1),
		RunE:  statsRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write the trace as csv to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "write trace columns as an svg chart",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringSliceVar(&svgColumns, "columns", []string{"error", "bias"}, "columns to chart")
	exportSVGCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	chartCmd := &cobra.Command{
		Use:   "chart [run_id]",
		Short: "render trace columns to an image (png, svg or pdf)",
		Args:  cobra.ExactArgs(1),
		RunE:  chartRun,
	}
	chartCmd.Flags().StringSliceVar(&svgColumns, "columns", []string{"error", "bias"}, "columns to chart")
	chartCmd.Flags().StringVarP(&chartPath, "output", "o", "trace.png", "output file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "write run metadata and trace as json to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	rootCmd.AddCommand(runCmd, liveCmd, calibrateCmd, tuneCmd, presetsCmd, listCmd, plotCmd, statsCmd, exportCSVCmd, exportSVGCmd, chartCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addTuningFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "tuning preset")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	cmd.Flags().Float64Var(&ki, "ki", 0, "integral gain")
	cmd.Flags().Float64Var(&kd, "kd", 0, "derivative gain")
	cmd.Flags().IntVar(&baseSpeed, "speed", config.DefaultBaseSpeed, "base speed percent")
	cmd.Flags().IntVar(&iterations, "iterations", config.DefaultMaxIterations, "iteration budget")
	cmd.Flags().Int64Var(&seed, "seed", 0, "simulator noise seed")
	cmd.Flags().Float64Var(&noise, "noise", 0, "simulator reading noise")
}

// loadConfig merges defaults, the config file, the preset and any flags the
// user set explicitly, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", preset, config.ListPresets())
		}
		p.Apply(cfg)
	}

	flags := cmd.Flags()
	if flags.Changed("kp") {
		cfg.Gains.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.Gains.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.Gains.Kd = kd
	}
	if flags.Changed("speed") {
		cfg.BaseSpeed = baseSpeed
	}
	if flags.Changed("iterations") {
		cfg.MaxIterations = iterations
	}
	if flags.Changed("seed") {
		cfg.Sim.Seed = seed
	}
	if flags.Changed("noise") {
		cfg.Sim.Noise = noise
	}
	if flags.Changed("device") {
		cfg.Device.Kind = deviceKind
	}
	if flags.Changed("port") {
		cfg.Device.SerialPort = serialPort
	}
	if flags.Changed("sysfs") {
		cfg.Device.SysfsRoot = sysfsRoot
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := cfg.LogLevel()
	if err == nil {
		log.SetLevel(lvl)
	}
	return log
}
