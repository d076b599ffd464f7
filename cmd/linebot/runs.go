package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/linebot/internal/config"
	"github.com/san-kum/linebot/internal/export"
	"github.com/san-kum/linebot/internal/metrics"
	"github.com/san-kum/linebot/internal/storage"
)

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKP\tKI\tKD\tSPEED\tITER\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%.2f\t%.3f\t%.2f\t%d\t%d\t%s\n",
			name, p.Gains.Kp, p.Gains.Ki, p.Gains.Kd, p.BaseSpeed, p.MaxIterations, p.Description)
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDEVICE\tPRESET\tOUTCOME\tMARKER\tITER\tRMS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%.3f\n",
			shortID(run.ID),
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Device,
			dash(run.Preset),
			run.Outcome,
			dash(run.Marker),
			run.Iterations,
			run.Metrics["line_error_rms"],
		)
	}

	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var captions = map[string]string{
	"brightness": "brightness",
	"error":      "line error",
	"bias":       "steering bias",
	"left":       "left motor %",
	"right":      "right motor %",
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rows, err := st.LoadTrace(meta.ID)
	if err != nil {
		return err
	}

	cols := []string{column}
	if column == "all" {
		cols = storage.Columns
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("outcome: %s\n", meta.Outcome)
	fmt.Printf("samples: %d\n\n", len(rows))

	for _, name := range cols {
		data, err := storage.Column(rows, name)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return fmt.Errorf("no data to plot")
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(captions[name]),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func statsRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rows, err := st.LoadTrace(meta.ID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%s, %d iterations)\n\n", meta.ID, meta.Outcome, meta.Iterations)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tN\tMEAN\tSTDDEV\tMIN\tMAX")
	for _, name := range storage.Columns {
		data, err := storage.Column(rows, name)
		if err != nil {
			return err
		}
		s := metrics.Summarize(data)
		fmt.Fprintf(w, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\n", name, s.Samples, s.Mean, s.StdDev, s.Min, s.Max)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(meta.Metrics) > 0 {
		fmt.Println()
		for _, name := range []string{"line_error_rms", "control_effort", "saturation"} {
			if v, ok := meta.Metrics[name]; ok {
				fmt.Printf("%-16s %.4f\n", name, v)
			}
		}
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	path, err := st.TracePath(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(os.Stdout, f)
	return err
}

func exportRun(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).Export(os.Stdout, args[0])
}

func loadSeries(runID string, columns []string) ([]export.Series, error) {
	rows, err := storage.New(dataDir).LoadTrace(runID)
	if err != nil {
		return nil, err
	}
	series := make([]export.Series, 0, len(columns))
	for _, name := range columns {
		data, err := storage.Column(rows, name)
		if err != nil {
			return nil, err
		}
		series = append(series, export.Series{Name: captions[name], Values: data})
	}
	return series, nil
}

func chartRun(cmd *cobra.Command, args []string) error {
	series, err := loadSeries(args[0], svgColumns)
	if err != nil {
		return err
	}
	if err := export.SaveChart(chartPath, "run "+shortID(args[0]), series); err != nil {
		return err
	}
	fmt.Printf("chart written to %s\n", chartPath)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	series, err := loadSeries(args[0], svgColumns)
	if err != nil {
		return err
	}

	svg := export.SeriesToSVG(series, 960, 360)
	if svg == "" {
		return fmt.Errorf("no data to export")
	}
	if outPath == "" {
		_, err = fmt.Fprintln(os.Stdout, svg)
		return err
	}
	return os.WriteFile(outPath, []byte(svg), 0644)
}
