package control

import (
	"math"
	"testing"
)

func TestStepProportionalOnly(t *testing.T) {
	bias, next := Step(0.5, State{}, Gains{Kp: 1})

	if bias != 0.5 {
		t.Errorf("expected bias 0.5, got %f", bias)
	}
	if next.LastError != 0.5 {
		t.Errorf("expected last error 0.5, got %f", next.LastError)
	}
	if next.Integral != 0.5 {
		t.Errorf("expected integral 0.5, got %f", next.Integral)
	}
}

func TestStepTerms(t *testing.T) {
	tests := []struct {
		name  string
		err   float64
		state State
		gains Gains
		bias  float64
		next  State
	}{
		{"integral only", 0.25, State{Integral: 1.0}, Gains{Ki: 2}, 2.5, State{LastError: 0.25, Integral: 1.25}},
		{"derivative only", 0.2, State{LastError: 0.5}, Gains{Kd: 10}, -3.0, State{LastError: 0.2, Integral: 0.2}},
		{"all terms", -0.4, State{LastError: 0.1, Integral: 0.3}, Gains{Kp: 1, Ki: 0.5, Kd: 2}, -0.4 + 0.5*(-0.1) + 2*(-0.5), State{LastError: -0.4, Integral: -0.1}},
		{"zero gains", 0.9, State{}, Gains{}, 0, State{LastError: 0.9, Integral: 0.9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bias, next := Step(tt.err, tt.state, tt.gains)
			if math.Abs(bias-tt.bias) > 1e-9 {
				t.Errorf("expected bias %f, got %f", tt.bias, bias)
			}
			if math.Abs(next.LastError-tt.next.LastError) > 1e-9 || math.Abs(next.Integral-tt.next.Integral) > 1e-9 {
				t.Errorf("expected state %+v, got %+v", tt.next, next)
			}
		})
	}
}

func TestStepIntegralIsUnbounded(t *testing.T) {
	s := State{}
	for i := 0; i < 10000; i++ {
		_, s = Step(1.0, s, Gains{Ki: 1})
	}
	if s.Integral != 10000 {
		t.Errorf("expected integral 10000, got %f", s.Integral)
	}
}

func TestPIDUpdateAccumulates(t *testing.T) {
	pid := NewPID(Gains{Kp: 1, Ki: 1})

	if bias := pid.Update(0.5); bias != 1.0 {
		t.Errorf("expected first bias 1.0, got %f", bias)
	}
	if bias := pid.Update(0.5); bias != 1.5 {
		t.Errorf("expected second bias 1.5, got %f", bias)
	}
}

func TestGainsFinite(t *testing.T) {
	tests := []struct {
		name  string
		gains Gains
		want  bool
	}{
		{"defaults", Gains{Kp: 0.9}, true},
		{"zero", Gains{}, true},
		{"nan kp", Gains{Kp: math.NaN()}, false},
		{"inf ki", Gains{Ki: math.Inf(1)}, false},
		{"negative inf kd", Gains{Kd: math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.gains.Finite(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMix(t *testing.T) {
	tests := []struct {
		name string
		base int
		bias float64
		want Command
	}{
		{"centered", 20, 0, Command{20, 20}},
		{"turn right", 50, 0.2, Command{60, 40}},
		{"turn left", 50, -0.2, Command{40, 60}},
		{"saturate left", 80, 0.9, Command{100, 8}},
		{"saturate both", 80, 3.0, Command{100, -100}},
		{"rounding", 20, 0.03, Command{21, 19}},
		{"reverse base", -30, 0.5, Command{-45, -15}},
		{"huge bias", 20, 1e300, Command{100, -100}},
		{"positive infinity", 20, math.Inf(1), Command{100, -100}},
		{"negative infinity", 20, math.Inf(-1), Command{-100, 100}},
		{"nan bias", 20, math.NaN(), Command{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mix(tt.base, tt.bias); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestMixAlwaysWithinLimits(t *testing.T) {
	for base := -100; base <= 100; base += 7 {
		for bias := -50.0; bias <= 50; bias += 0.37 {
			c := Mix(base, bias)
			if c.Left < MinSpeed || c.Left > MaxSpeed || c.Right < MinSpeed || c.Right > MaxSpeed {
				t.Fatalf("mix(%d, %f) = %+v outside limits", base, bias, c)
			}
		}
	}
}

func TestCommandSaturated(t *testing.T) {
	if (Command{60, 40}).Saturated() {
		t.Error("60/40 should not be saturated")
	}
	if !(Command{100, 8}).Saturated() {
		t.Error("100/8 should be saturated")
	}
	if !(Command{0, -100}).Saturated() {
		t.Error("0/-100 should be saturated")
	}
}
