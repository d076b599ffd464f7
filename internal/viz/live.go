package viz

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/linebot/internal/loop"
	"github.com/san-kum/linebot/internal/track"
)

const (
	width           = 72
	height          = 20
	historyCapacity = 400
	graphWidth      = 36
	followSpan      = 0.4
)

// StepMsg carries one loop iteration and where the sensor was at the time.
type StepMsg struct {
	Step    loop.Step
	X, Y    float64
	HasPose bool
}

// DoneMsg is sent once the loop returns.
type DoneMsg struct {
	Result *loop.Result
	Err    error
}

// Positioner reports the sensor position on the course.
type Positioner interface {
	SensorPosition() (x, y float64)
}

// Feed is a loop observer that forwards steps to a running program.
// Send is usually (*tea.Program).Send.
type Feed struct {
	Send func(tea.Msg)
	Pos  Positioner
}

func (f Feed) OnStep(s loop.Step) {
	msg := StepMsg{Step: s}
	if f.Pos != nil {
		msg.X, msg.Y = f.Pos.SensorPosition()
		msg.HasPose = true
	}
	f.Send(msg)
}

type point struct{ x, y float64 }

type Model struct {
	course   track.Course
	cancel   context.CancelFunc
	maxIter  int
	title    string
	canvas   *Canvas
	trail    []point
	errors   []float64
	last     loop.Step
	steps    int
	result   *loop.Result
	err      error
	done     bool
	follow   bool
	quitting bool
}

// NewModel builds a view of a run over course. cancel is called when the
// user quits before the loop finishes.
func NewModel(course track.Course, maxIterations int, title string, cancel context.CancelFunc) Model {
	return Model{
		course:  course,
		cancel:  cancel,
		maxIter: maxIterations,
		title:   title,
		canvas:  NewCanvas(width, height),
		trail:   make([]point, 0, historyCapacity),
		errors:  make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			m.quitting = true
			return m, tea.Quit
		case "f":
			m.follow = !m.follow
		}
	case StepMsg:
		m.observe(msg)
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
	}
	return m, nil
}

func (m *Model) observe(msg StepMsg) {
	m.last = msg.Step
	m.steps++
	if msg.HasPose {
		m.trail = appendBounded(m.trail, point{msg.X, msg.Y})
	}
	if msg.Step.Marker == "" {
		m.errors = appendBounded(m.errors, msg.Step.Error)
	}
}

func appendBounded[T any](s []T, v T) []T {
	if len(s) == historyCapacity {
		copy(s, s[1:])
		s = s[:len(s)-1]
	}
	return append(s, v)
}

// Done reports whether the loop has returned.
func (m Model) Done() bool { return m.done }

// Steps returns how many steps the view has received.
func (m Model) Steps() int { return m.steps }

// viewport returns the course window shown on the canvas.
func (m Model) viewport() (x0, x1, y0, y1 float64) {
	x0, x1 = 0, m.course.FinishX*1.1
	if x1 <= 0 {
		x1 = 1
	}
	if m.follow && len(m.trail) > 0 {
		cur := m.trail[len(m.trail)-1]
		x0, x1 = cur.x-followSpan/2, cur.x+followSpan/2
	} else {
		for _, p := range m.trail {
			x1 = math.Max(x1, p.x)
			x0 = math.Min(x0, p.x)
		}
	}
	h := math.Max(3*math.Abs(m.course.Amplitude), 0.05)
	return x0, x1, -h, h
}

// project maps course coordinates to canvas dots, +y up.
func (m Model) project(x, y, x0, x1, y0, y1 float64) (int, int) {
	w, h := m.canvas.Dots()
	px := (x - x0) / (x1 - x0) * float64(w-1)
	py := (y1 - y) / (y1 - y0) * float64(h-1)
	return int(math.Round(px)), int(math.Round(py))
}

func (m *Model) draw() {
	m.canvas.Clear()
	x0, x1, y0, y1 := m.viewport()
	w, _ := m.canvas.Dots()

	prevX, prevY := -1, -1
	for i := 0; i < w; i++ {
		x := x0 + (x1-x0)*float64(i)/float64(w-1)
		px, py := m.project(x, m.course.EdgeY(x), x0, x1, y0, y1)
		if prevX >= 0 {
			m.canvas.DrawLine(prevX, prevY, px, py)
		}
		prevX, prevY = px, py
	}

	if m.course.FinishX > 0 {
		fx, top := m.project(m.course.FinishX, y1, x0, x1, y0, y1)
		_, bottom := m.project(m.course.FinishX, y0, x0, x1, y0, y1)
		for y := top; y <= bottom; y += 2 {
			m.canvas.Set(fx, y)
		}
	}

	for i := 1; i < len(m.trail); i++ {
		ax, ay := m.project(m.trail[i-1].x, m.trail[i-1].y, x0, x1, y0, y1)
		bx, by := m.project(m.trail[i].x, m.trail[i].y, x0, x1, y0, y1)
		m.canvas.DrawLine(ax, ay, bx, by)
	}
	if n := len(m.trail); n > 0 {
		px, py := m.project(m.trail[n-1].x, m.trail[n-1].y, x0, x1, y0, y1)
		m.canvas.Cross(px, py)
	}
}

func (m Model) status() string {
	if !m.done {
		return statusRunning.Render("RUNNING")
	}
	if m.result == nil {
		return statusAborted.Render("FAILED")
	}
	switch m.result.Outcome {
	case loop.StoppedMarker:
		return statusStopped.Render("STOPPED ON ") + markerHighlight.Render(strings.ToUpper(m.result.Marker))
	case loop.StoppedTimeout:
		return statusStopped.Render("TIMED OUT")
	default:
		return statusAborted.Render("ABORTED")
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.errors) > 1 {
		chart := asciigraph.Plot(m.errors,
			asciigraph.Height(6),
			asciigraph.Width(graphWidth),
			asciigraph.LowerBound(-1),
			asciigraph.UpperBound(1),
			asciigraph.Caption("line error"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	iter := m.last.Iteration + 1
	if m.steps == 0 {
		iter = 0
	}
	s.WriteString(labelStyle.Render("Iteration") + valueStyle.Render(fmt.Sprintf("%d / %d", iter, m.maxIter)) + "\n")
	if m.maxIter > 0 {
		s.WriteString(labelStyle.Render("") + ProgressBar(float64(iter)/float64(m.maxIter), 20) + "\n")
	}
	s.WriteString(labelStyle.Render("Raw") + valueStyle.Render(m.last.Raw.String()) + "\n")
	s.WriteString(labelStyle.Render("Brightness") + valueStyle.Render(fmt.Sprintf("%.3f", m.last.Brightness)) + "\n")
	s.WriteString(labelStyle.Render("Error") + valueStyle.Render(fmt.Sprintf("%+.3f", m.last.Error)) + "\n")
	s.WriteString(labelStyle.Render("Bias") + valueStyle.Render(fmt.Sprintf("%+.3f", m.last.Bias)) + "\n")
	s.WriteString(labelStyle.Render("Left") + SpeedBar(m.last.Command.Left, 20) + valueStyle.Render(fmt.Sprintf(" %4d%%", m.last.Command.Left)) + "\n")
	s.WriteString(labelStyle.Render("Right") + SpeedBar(m.last.Command.Right, 20) + valueStyle.Render(fmt.Sprintf(" %4d%%", m.last.Command.Right)) + "\n")

	if m.done && m.result != nil {
		s.WriteString("\n" + valueStyle.Render(m.result.String()) + "\n")
		for _, name := range sortedKeys(m.result.Metrics) {
			s.WriteString(valueStyle.Render(fmt.Sprintf("%-16s %.4f", name, m.result.Metrics[name])) + "\n")
		}
	} else if m.done && m.err != nil {
		s.WriteString("\n" + statusAborted.Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("Q:Quit  F:Follow"))
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
