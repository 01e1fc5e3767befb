package viz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/sim"
	"github.com/san-kum/drivekit/internal/trajectory"
)

const (
	canvasCols      = 60
	canvasRows      = 20
	historyCapacity = 600
	maxSpeed        = 32
)

type TickMsg time.Time

type samplesMsg []sim.Sample

type doneMsg struct {
	result *sim.Result
	err    error
}

// Live steps a simulation in the background and draws it as samples arrive.
// The run only advances when the model asks for the next batch, so pausing
// the UI pauses the simulation.
type Live struct {
	title   string
	traj    *trajectory.Trajectory
	frame   time.Duration
	samples <-chan sim.Sample
	done    <-chan doneMsg
	cancel  context.CancelFunc

	history  []sim.Sample
	errors   []float64
	result   *sim.Result
	err      error
	finished bool
	running  bool
	waiting  bool
	speed    int
	theme    Theme
	styles   Styles
	showHelp bool
}

// NewLive starts s on traj. Cancelling ctx or quitting stops the run.
func NewLive(ctx context.Context, s *sim.Simulator, traj *trajectory.Trajectory, cfg sim.Config, title string) Live {
	ctx, cancel := context.WithCancel(ctx)
	samples := make(chan sim.Sample)
	done := make(chan doneMsg, 1)

	go func() {
		defer close(samples)
		result, err := s.RunWithCallback(ctx, traj, cfg, func(smp sim.Sample) bool {
			select {
			case samples <- smp:
				return true
			case <-ctx.Done():
				return false
			}
		})
		done <- doneMsg{result: result, err: err}
	}()

	frame := time.Duration(cfg.Dt * float64(time.Second))
	return Live{
		title:   title,
		traj:    traj,
		frame:   frame,
		samples: samples,
		done:    done,
		cancel:  cancel,
		history: make([]sim.Sample, 0, historyCapacity),
		errors:  make([]float64, 0, historyCapacity),
		running: true,
		waiting: true,
		speed:   1,
		theme:   ThemeField,
		styles:  NewStyles(ThemeField),
	}
}

func (m Live) Init() tea.Cmd {
	return m.next()
}

// request asks for the next batch unless one is already outstanding.
func (m *Live) request() tea.Cmd {
	if m.waiting || m.finished {
		return nil
	}
	m.waiting = true
	return m.next()
}

// next receives up to speed samples, waiting only for the first.
func (m Live) next() tea.Cmd {
	samples, done, n := m.samples, m.done, m.speed
	return func() tea.Msg {
		first, ok := <-samples
		if !ok {
			return <-done
		}
		batch := samplesMsg{first}
		for len(batch) < n {
			select {
			case smp, ok := <-samples:
				if !ok {
					return batch
				}
				batch = append(batch, smp)
			default:
				return batch
			}
		}
		return batch
	}
}

func (m Live) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case " ":
			if m.finished {
				return m, nil
			}
			m.running = !m.running
			if m.running {
				cmd := m.request()
				return m, cmd
			}
		case "+", "=":
			m.speed = min(m.speed*2, maxSpeed)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "t":
			m.theme = m.theme.Next()
			m.styles = NewStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case samplesMsg:
		m.waiting = false
		for _, smp := range msg {
			m.record(smp)
		}
		return m, m.tick()
	case TickMsg:
		if m.running {
			cmd := m.request()
			return m, cmd
		}
	case doneMsg:
		m.waiting = false
		m.finished = true
		m.result = msg.result
		m.err = msg.err
	}
	return m, nil
}

func (m *Live) record(smp sim.Sample) {
	m.history = append(m.history, smp)
	m.errors = append(m.errors, smp.PositionError())
	if len(m.errors) > historyCapacity {
		m.errors = m.errors[1:]
	}
}

// Finished reports whether the background run has ended.
func (m Live) Finished() bool { return m.finished }

// Result is the completed run, nil until Finished.
func (m Live) Result() (*sim.Result, error) { return m.result, m.err }

func (m Live) status() string {
	switch {
	case m.finished && m.err != nil:
		return m.styles.Low.Render("ERROR " + m.err.Error())
	case m.finished:
		return m.styles.Done.Render("FINISHED")
	case !m.running:
		return m.styles.Paused.Render("PAUSED")
	}
	return m.styles.Running.Render(fmt.Sprintf("RUNNING x%d", m.speed))
}

func (m Live) View() string {
	st := m.styles
	canvasView := st.Canvas.Render(FieldMap(m.traj, m.history, canvasCols, canvasRows))

	var s strings.Builder
	s.WriteString(st.Header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	total := m.traj.TotalTime()
	var last sim.Sample
	if len(m.history) > 0 {
		last = m.history[len(m.history)-1]
	}
	progress := 0.0
	if total > 0 {
		progress = last.Time / total
	}
	s.WriteString(st.Label.Render("Time") + st.Value.Render(fmt.Sprintf("%.2f / %.2fs", last.Time, total)) + "\n")
	s.WriteString(st.ProgressBar(progress, 30) + "\n\n")

	s.WriteString(st.Label.Render("Pose") + st.Value.Render(last.Pose.String()) + "\n")
	s.WriteString(st.Label.Render("Estimate") + st.Value.Render(last.Estimate.String()) + "\n")
	s.WriteString(st.Label.Render("Target") + st.Value.Render(last.Target.Pose.String()) + "\n")
	perr := last.PositionError()
	s.WriteString(st.Label.Render("Error") + st.ErrorBadge(fmt.Sprintf("%.3fm  %.1f°", perr, geometry.Degrees(last.HeadingError())), perr, 0.02) + "\n")
	s.WriteString(st.Label.Render("Command") + st.Value.Render(fmt.Sprintf("vx=%.2f vy=%.2f ω=%.2f", last.Command.Vx, last.Command.Vy, last.Command.Omega)) + "\n")
	wheels := make([]string, len(last.Wheels))
	for i, w := range last.Wheels {
		wheels[i] = fmt.Sprintf("%.2f", w)
	}
	s.WriteString(st.Label.Render("Wheels") + st.Value.Render(strings.Join(wheels, " ")) + "\n")

	if len(m.errors) > 1 {
		chart := asciigraph.Plot(m.errors, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("position error"))
		s.WriteString(st.Graph.Render(chart) + "\n")
	}

	if m.finished && m.result != nil {
		s.WriteString("\nMETRICS\n")
		names := make([]string, 0, len(m.result.Metrics))
		for name := range m.result.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s.WriteString(st.Value.Render(fmt.Sprintf("%-22s %.4f", name, m.result.Metrics[name])) + "\n")
		}
	}

	s.WriteString(st.Help.Render("SP:Pause +/-:Speed T:Theme ?:Help Q:Quit"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.Panel.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  + / -    - Ticks per frame          ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}
