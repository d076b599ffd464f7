// Package tune searches PID gains on the simulated course.
package tune

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/linebot/internal/control"
	"github.com/san-kum/linebot/internal/loop"
	"github.com/san-kum/linebot/internal/metrics"
	"github.com/san-kum/linebot/internal/track"
)

// Grid lists the values tried for each gain. An empty axis keeps the base
// configuration's gain.
type Grid struct {
	Kp []float64
	Ki []float64
	Kd []float64
}

// Candidate is one gain setting and how it did across seeds.
type Candidate struct {
	Gains          control.Gains
	Score          float64
	MeanRMS        float64
	MeanIterations float64
	Reached        int
	Runs           int
}

type Tuner struct {
	Base    loop.Config
	Params  track.Params
	Seeds   int
	Workers int
	// Log receives the per-run loop logs. Nil discards them.
	Log logrus.FieldLogger
}

// Expand returns every gain combination in the grid.
func (g Grid) Expand(base control.Gains) []control.Gains {
	axes := [][]float64{g.Kp, g.Ki, g.Kd}
	defaults := []float64{base.Kp, base.Ki, base.Kd}
	for i := range axes {
		if len(axes[i]) == 0 {
			axes[i] = []float64{defaults[i]}
		}
	}

	var out []control.Gains
	var expand func(depth int, current [3]float64)
	expand = func(depth int, current [3]float64) {
		if depth == len(axes) {
			out = append(out, control.Gains{Kp: current[0], Ki: current[1], Kd: current[2]})
			return
		}
		for _, v := range axes[depth] {
			current[depth] = v
			expand(depth+1, current)
		}
	}
	expand(0, [3]float64{})
	return out
}

type job struct {
	candidate int
	seed      int64
}

type outcome struct {
	candidate  int
	rms        float64
	iterations int
	reached    bool
	err        error
}

// Search runs every candidate once per seed and returns them best first.
// Score is the mean line error RMS plus the fraction of runs that never
// reached a marker.
func (t Tuner) Search(ctx context.Context, grid Grid) ([]Candidate, error) {
	gains := grid.Expand(t.Base.Gains)
	seeds := t.Seeds
	if seeds <= 0 {
		seeds = 1
	}
	workers := t.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	log := t.Log
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}

	jobs := make(chan job)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- t.evaluate(ctx, log, gains[j.candidate], j)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for c := range gains {
			for s := 0; s < seeds; s++ {
				select {
				case jobs <- job{candidate: c, seed: t.Params.Seed + int64(s)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	cands := make([]Candidate, len(gains))
	for i, g := range gains {
		cands[i].Gains = g
	}
	var errs []error
	for r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		c := &cands[r.candidate]
		c.Runs++
		c.MeanRMS += r.rms
		c.MeanIterations += float64(r.iterations)
		if r.reached {
			c.Reached++
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for i := range cands {
		c := &cands[i]
		if c.Runs == 0 {
			continue
		}
		n := float64(c.Runs)
		c.MeanRMS /= n
		c.MeanIterations /= n
		c.Score = c.MeanRMS + float64(c.Runs-c.Reached)/n
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score < cands[j].Score })
	return cands, nil
}

func (t Tuner) evaluate(ctx context.Context, log logrus.FieldLogger, g control.Gains, j job) outcome {
	out := outcome{candidate: j.candidate}

	cfg := t.Base
	cfg.Gains = g
	lp, err := loop.New(cfg)
	if err != nil {
		out.err = err
		return out
	}
	lp.SetLogger(log.WithField("seed", j.seed))
	rms := metrics.NewLineError()
	lp.AddMetric(rms)

	p := t.Params
	p.Seed = j.seed
	p.Pace = 0
	sim, err := track.New(p)
	if err != nil {
		out.err = err
		return out
	}

	res, err := lp.Run(ctx, sim, sim.Drive())
	if err != nil {
		if ctx.Err() == nil {
			out.err = fmt.Errorf("tune: gains %+v seed %d: %w", g, j.seed, err)
		}
		return out
	}
	out.rms = rms.Value()
	out.iterations = res.Iterations
	out.reached = res.Outcome == loop.StoppedMarker
	return out
}
