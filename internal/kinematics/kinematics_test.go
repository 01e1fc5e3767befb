package kinematics

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r2"

	"github.com/san-kum/drivekit/internal/geometry"
)

const tol = 1e-6

func speedClose(a, b geometry.ChassisSpeed) bool {
	return math.Abs(a.Vx-b.Vx) < tol && math.Abs(a.Vy-b.Vy) < tol && math.Abs(a.Omega-b.Omega) < tol
}

func TestDifferentialForward(t *testing.T) {
	d, err := NewDifferential(0.6)
	if err != nil {
		t.Fatal(err)
	}
	got := d.Forward(DifferentialState{LeftVelocity: 1, RightVelocity: -1})
	if math.Abs(got.Vx) > tol {
		t.Errorf("vx = %v, want 0", got.Vx)
	}
	if math.Abs(got.Omega-(-2/0.6)) > tol {
		t.Errorf("omega = %v, want %v", got.Omega, -2/0.6)
	}
}

func TestRoundTrip(t *testing.T) {
	diff, _ := NewDifferential(0.6)
	sw, err := NewSwerveRectangular(0.5, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	tri, err := NewSwerve(r2.Point{X: 0.3, Y: 0}, r2.Point{X: -0.2, Y: 0.25}, r2.Point{X: -0.2, Y: -0.25})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		model Model
		speed geometry.ChassisSpeed
	}{
		{"diff forward", diff, geometry.ChassisSpeed{Vx: 1.2}},
		{"diff spin", diff, geometry.ChassisSpeed{Omega: 2}},
		{"diff arc", diff, geometry.ChassisSpeed{Vx: -0.8, Omega: 1.1}},
		{"swerve strafe", sw, geometry.ChassisSpeed{Vy: 1}},
		{"swerve mixed", sw, geometry.ChassisSpeed{Vx: 0.7, Vy: -0.4, Omega: 1.5}},
		{"swerve spin", sw, geometry.ChassisSpeed{Omega: -2}},
		{"three module", tri, geometry.ChassisSpeed{Vx: 0.2, Vy: 0.9, Omega: 0.3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.model.Forward(tt.model.Inverse(tt.speed))
			if !speedClose(got, tt.speed) {
				t.Errorf("forward(inverse(%v)) = %v", tt.speed, got)
			}
		})
	}
}

func TestDegenerateGeometry(t *testing.T) {
	if _, err := NewDifferential(0); !errors.Is(err, ErrSingularity) {
		t.Errorf("zero track width: got %v", err)
	}
	if _, err := NewDifferential(math.NaN()); !errors.Is(err, ErrSingularity) {
		t.Errorf("NaN track width: got %v", err)
	}
	if _, err := NewSwerve(r2.Point{X: 1}); !errors.Is(err, ErrSingularity) {
		t.Errorf("single module: got %v", err)
	}
	if _, err := NewSwerve(r2.Point{X: 1, Y: 1}, r2.Point{X: 1, Y: 1}, r2.Point{X: -1}); !errors.Is(err, ErrSingularity) {
		t.Errorf("coincident modules: got %v", err)
	}
	if _, err := NewSwerveRectangular(0, 0); !errors.Is(err, ErrSingularity) {
		t.Errorf("zero rectangle: got %v", err)
	}
}

func TestOptimizeNeverExceedsQuarterTurn(t *testing.T) {
	for cur := -math.Pi; cur <= math.Pi; cur += 0.1 {
		for target := -math.Pi; target <= math.Pi; target += 0.1 {
			got := Optimize(ModuleState{Velocity: 1, Angle: target}, cur)
			if d := math.Abs(geometry.AngleDelta(cur, got.Angle)); d > math.Pi/2+1e-9 {
				t.Fatalf("cur=%.2f target=%.2f rotates %.3f rad", cur, target, d)
			}
		}
	}
}

func TestOptimizeFlips(t *testing.T) {
	got := Optimize(ModuleState{Velocity: 2, Angle: math.Pi}, 0)
	if got.Velocity != -2 || math.Abs(got.Angle) > tol {
		t.Errorf("got %v", got)
	}
}

func TestInverseFromHoldsAngleWhenStopped(t *testing.T) {
	sw, _ := NewSwerveRectangular(0.5, 0.5)
	cur := SwerveState{Modules: []ModuleState{{Angle: 0.4}, {Angle: -0.4}, {Angle: 1}, {Angle: 2}}}
	got := sw.InverseFrom(geometry.ChassisSpeed{}, cur)
	for i, m := range got.Modules {
		if m.Velocity != 0 || math.Abs(m.Angle-cur.Modules[i].Angle) > tol {
			t.Errorf("module %d: %v", i, m)
		}
	}
}

func TestInverseFromConsecutiveCommands(t *testing.T) {
	sw, _ := NewSwerveRectangular(0.5, 0.5)
	state := sw.Zero().(SwerveState)
	speeds := []geometry.ChassisSpeed{
		{Vx: 1}, {Vx: -1}, {Vy: 1}, {Vx: -1, Vy: -1}, {Omega: 2}, {Omega: -2},
	}
	for _, s := range speeds {
		next := sw.InverseFrom(s, state)
		for i := range next.Modules {
			if d := math.Abs(geometry.AngleDelta(state.Modules[i].Angle, next.Modules[i].Angle)); d > math.Pi/2+1e-9 {
				t.Errorf("speed %v module %d rotates %.3f", s, i, d)
			}
		}
		if got := sw.Forward(next); !speedClose(got, s) {
			t.Errorf("optimized states give %v, want %v", got, s)
		}
		state = next
	}
}

func TestDesaturate(t *testing.T) {
	sw, _ := NewSwerveRectangular(0.5, 0.5)
	st := SwerveState{Modules: []ModuleState{{Velocity: 4}, {Velocity: -2}, {Velocity: 1}, {Velocity: 0}}}
	got := sw.Desaturate(st, 2).(SwerveState)
	want := []float64{2, -1, 0.5, 0}
	for i, m := range got.Modules {
		if math.Abs(m.Velocity-want[i]) > tol {
			t.Errorf("module %d = %v, want %v", i, m.Velocity, want[i])
		}
	}
	if st.Modules[0].Velocity != 4 {
		t.Error("input mutated")
	}

	d, _ := NewDifferential(0.5)
	ds := d.Desaturate(DifferentialState{LeftVelocity: 3, RightVelocity: -1.5}, 1.5).(DifferentialState)
	if math.Abs(ds.LeftVelocity-1.5) > tol || math.Abs(ds.RightVelocity+0.75) > tol {
		t.Errorf("got %v", ds)
	}
}

func TestSwerveDisplacement(t *testing.T) {
	sw, _ := NewSwerveRectangular(0.5, 0.5)
	prev := sw.Zero().(SwerveState)
	cur := prev.Clone()
	for i := range cur.Modules {
		cur.Modules[i] = ModuleState{Distance: 0.5, Angle: math.Pi / 2}
	}
	tw := sw.Displacement(prev, cur)
	if math.Abs(tw.Dx) > tol || math.Abs(tw.Dy-0.5) > tol || math.Abs(tw.Dtheta) > tol {
		t.Errorf("got %+v", tw)
	}
}

func TestMismatchedVariant(t *testing.T) {
	d, _ := NewDifferential(0.5)
	if got := d.Forward(SwerveState{}); !got.IsZero() {
		t.Errorf("got %v", got)
	}
}
