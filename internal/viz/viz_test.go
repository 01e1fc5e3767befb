package viz

import (
	"context"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"

	"github.com/san-kum/drivekit/internal/control"
	"github.com/san-kum/drivekit/internal/follow"
	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/integrators"
	"github.com/san-kum/drivekit/internal/kinematics"
	"github.com/san-kum/drivekit/internal/metrics"
	"github.com/san-kum/drivekit/internal/sim"
	"github.com/san-kum/drivekit/internal/trajectory"
)

func testTrajectory(t *testing.T) *trajectory.Trajectory {
	t.Helper()
	traj, err := trajectory.Generate([]trajectory.Waypoint{
		trajectory.NewWaypoint(0, 0, 0),
		trajectory.NewWaypoint(1.5, 0.5, math.Pi/6),
	}, trajectory.NewConfig(1, 1))
	if err != nil {
		t.Fatal(err)
	}
	return traj
}

func TestCanvasSetAndLine(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(0, 0)
	if c.Grid[0][0] != 0x2801 {
		t.Errorf("expected dot 1, got %U", c.Grid[0][0])
	}
	c.Set(-1, 3)
	c.Set(100, 100)

	c.DrawLine(0, 7, 7, 7)
	for col := 0; col < 4; col++ {
		if !c.Lit(col, 1) {
			t.Errorf("cell %d of bottom row not lit", col)
		}
	}

	c.Clear()
	if c.Lit(0, 0) {
		t.Error("clear left pixels set")
	}
	if lines := strings.Count(c.String(), "\n"); lines != 2 {
		t.Errorf("expected 2 rows, got %d", lines)
	}
}

func TestViewportKeepsAspect(t *testing.T) {
	c := NewCanvas(10, 5)
	v := FitViewport(c, 0, r2.Point{X: 0, Y: 0}, r2.Point{X: 2, Y: 1})

	x0, y0 := v.Project(r2.Point{X: 0, Y: 0})
	x1, y1 := v.Project(r2.Point{X: 2, Y: 1})
	if x0 != 0 || y1 != 0 {
		t.Errorf("corners not at the edge: (%d,%d) (%d,%d)", x0, y0, x1, y1)
	}
	if y0 <= y1 {
		t.Error("+y should point up")
	}
	if dx, dy := x1-x0, y0-y1; math.Abs(float64(dx)-2*float64(dy)) > 1 {
		t.Errorf("aspect not preserved: dx=%d dy=%d", dx, dy)
	}
}

func TestPlots(t *testing.T) {
	traj := testTrajectory(t)
	if out := VelocityProfile(traj, 40, 6); !strings.Contains(out, "velocity") {
		t.Errorf("velocity plot missing caption:\n%s", out)
	}
	if out := CurvatureProfile(traj, 40, 6); !strings.Contains(out, "curvature") {
		t.Errorf("curvature plot missing caption:\n%s", out)
	}
	if out := ErrorPlot(nil, 40, 6); out != "" {
		t.Error("error plot of nothing should be empty")
	}
	if out := FieldMap(traj, nil, 20, 8); strings.Count(out, "\n") != 8 {
		t.Errorf("field map has wrong height:\n%s", out)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8); got != "▁▂▃▄▅▆▇█" {
		t.Errorf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{1, 2, 3}, 2); len([]rune(got)) != 2 {
		t.Errorf("sparkline not truncated: %q", got)
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("empty sparkline %q", got)
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != "field" {
		t.Error("unknown theme should fall back to field")
	}
	seen := map[string]bool{}
	th := ThemeField
	for range Themes {
		seen[th.Name] = true
		th = th.Next()
	}
	if len(seen) != len(ThemeNames()) || th.Name != ThemeField.Name {
		t.Errorf("Next does not cycle all themes: %v", seen)
	}
}

func TestLiveRunsToCompletion(t *testing.T) {
	diff, err := kinematics.NewDifferential(0.6)
	if err != nil {
		t.Fatal(err)
	}
	logger := golog.NewTestLogger(t)
	s := sim.New(diff, integrators.NewRK4(), follow.New(diff, control.NewRamsete(2, 0.7), logger), logger)
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}
	traj := testTrajectory(t)

	var model tea.Model = NewLive(context.Background(), s, traj, sim.DefaultConfig(), "differential")
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")})

	msg := model.Init()()
	for i := 0; i < 10000; i++ {
		var cmd tea.Cmd
		model, cmd = model.Update(msg)
		if _, ok := msg.(samplesMsg); ok {
			msg = TickMsg{}
			continue
		}
		if cmd == nil {
			break
		}
		msg = cmd()
	}

	live := model.(Live)
	if !live.Finished() {
		t.Fatal("live run did not finish")
	}
	result, err := live.Result()
	if err != nil || result == nil || !result.Finished {
		t.Fatalf("unexpected result %v %v", result, err)
	}
	if len(live.history) != len(result.Samples) {
		t.Errorf("saw %d samples, run recorded %d", len(live.history), len(result.Samples))
	}
	view := live.View()
	for _, want := range []string{"DIFFERENTIAL", "FINISHED", "cross_track_rms"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestLiveQuitCancels(t *testing.T) {
	diff, err := kinematics.NewDifferential(0.6)
	if err != nil {
		t.Fatal(err)
	}
	logger := golog.NewTestLogger(t)
	s := sim.New(diff, integrators.NewRK4(), follow.New(diff, control.NewRamsete(2, 0.7), logger), logger)

	live := NewLive(context.Background(), s, testTrajectory(t), sim.DefaultConfig(), "quit")
	_, cmd := live.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	msg := live.next()()
	for {
		if _, ok := msg.(doneMsg); ok {
			break
		}
		msg = live.next()()
	}
}

func TestRunMap(t *testing.T) {
	samples := []sim.Sample{
		{Time: 0},
		{Time: 1, Pose: geometry.NewPose(1, 0.1, 0), Target: trajectory.State{Pose: geometry.NewPose(1, 0, 0)}},
	}
	out := RunMap(samples, 16, 6)
	if strings.Count(out, "\n") != 6 {
		t.Errorf("run map has wrong height:\n%s", out)
	}
	if strings.Trim(out, "\u2800\n") == "" {
		t.Error("run map is blank")
	}
}
