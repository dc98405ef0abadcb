package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbsim/internal/analysis"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/physics"
	"github.com/san-kum/orbsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 600
	trailLength     = 400
	frameRate       = 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a simulation on every tick and draws the orbits in the
// xy plane next to the MEGNO and energy error history.
type Model struct {
	name      string
	simulator *sim.Simulator
	cfg       sim.Config
	initial   *dynamo.Simulation
	state     *dynamo.Simulation

	canvas *Canvas
	theme  Theme
	styles styles

	trails        [][]r3.Vec
	megnoHistory  []float64
	energyHistory []float64
	e0            float64

	running       bool
	stepsPerFrame int
	steps         int
	err           error
	showHelp      bool
}

// NewModel prepares s for stepping with cfg and returns the view. s is
// cloned, so reset always returns to the state passed in.
func NewModel(name string, simulator *sim.Simulator, s *dynamo.Simulation, cfg sim.Config) (Model, error) {
	m := Model{
		name:          name,
		simulator:     simulator,
		cfg:           cfg,
		initial:       s.Clone(),
		theme:         ThemeNight,
		styles:        newStyles(ThemeNight),
		running:       true,
		stepsPerFrame: 1,
	}
	m.canvas = NewCanvas(width, height, viewScale(s))
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// viewScale fits the widest body into the window with some margin.
func viewScale(s *dynamo.Simulation) float64 {
	widest := 0.0
	for _, b := range s.Bodies {
		widest = math.Max(widest, math.Hypot(b.Pos.X, b.Pos.Y))
	}
	if widest == 0 {
		return 1
	}
	return 1.2 * widest
}

func (m *Model) reset() error {
	m.state = m.initial.Clone()
	if err := m.simulator.Prepare(m.state, m.cfg); err != nil {
		return err
	}
	m.e0 = physics.Energy(m.state)
	m.trails = make([][]r3.Vec, m.state.N())
	m.megnoHistory = m.megnoHistory[:0]
	m.energyHistory = m.energyHistory[:0]
	m.steps = 0
	m.err = nil
	return nil
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
				m.running = false
			}
		case "t":
			m.theme = nextTheme(m.theme.Name)
			m.styles = newStyles(m.theme)
		case "+", "=":
			m.canvas.Scale /= 1.25
		case "-", "_":
			m.canvas.Scale *= 1.25
		case ">", ".":
			m.stepsPerFrame *= 2
		case "<", ",":
			if m.stepsPerFrame > 1 {
				m.stepsPerFrame /= 2
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

// advance takes stepsPerFrame steps and records one history point.
func (m *Model) advance() {
	end := m.cfg.Duration
	for i := 0; i < m.stepsPerFrame; i++ {
		if end > 0 && m.state.T >= end {
			m.running = false
			break
		}
		if err := m.simulator.Step(m.state); err != nil {
			m.err = &dynamo.SimulationError{Step: m.steps, Time: m.state.T, Wrapped: err}
			m.running = false
			return
		}
		m.steps++
	}

	if m.cfg.ValidateState && !m.state.PhaseState().IsValid() {
		m.err = &dynamo.SimulationError{Step: m.steps, Time: m.state.T, Wrapped: dynamo.ErrInvalidState}
		m.running = false
		return
	}

	for i, b := range m.state.Bodies {
		m.trails[i] = appendCapped(m.trails[i], b.Pos, trailLength)
	}
	if m.cfg.Megno {
		m.megnoHistory = appendCapped(m.megnoHistory, m.simulator.Tracker().Megno(m.state.T), historyCapacity)
	}
	if m.e0 != 0 {
		rel := math.Abs((physics.Energy(m.state) - m.e0) / m.e0)
		m.energyHistory = appendCapped(m.energyHistory, rel, historyCapacity)
	}
}

func appendCapped[T any](buf []T, v T, limit int) []T {
	buf = append(buf, v)
	if len(buf) > limit {
		buf = buf[1:]
	}
	return buf
}

func (m *Model) draw() {
	m.canvas.Clear()
	for _, trail := range m.trails {
		for _, p := range trail {
			m.canvas.Plot(p.X, p.Y)
		}
	}
	for _, b := range m.state.Bodies {
		r := 1
		if b.Mass > 0.1 {
			r = 2
		}
		m.canvas.Disc(b.Pos.X, b.Pos.Y, r)
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	st := m.styles
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")

	status := "RUNNING"
	switch {
	case m.err != nil:
		status = "FAILED: " + m.err.Error()
	case !m.running && m.cfg.Duration > 0 && m.state.T >= m.cfg.Duration:
		status = "DONE"
	case !m.running:
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	if len(m.megnoHistory) > 1 {
		chart := asciigraph.Plot(m.megnoHistory, asciigraph.Height(5), asciigraph.Width(32), asciigraph.Caption("MEGNO <Y>"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(32), asciigraph.Caption("|dE/E0|"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.3f", m.state.T))
	row("Steps", fmt.Sprintf("%d (x%d)", m.steps, m.stepsPerFrame))
	row("Integrator", m.simulator.Integrator().Name())
	if m.cfg.Megno {
		y := m.simulator.Tracker().Megno(m.state.T)
		row("MEGNO", fmt.Sprintf("%.4f", y))
		row("Lyapunov", fmt.Sprintf("%.3e", m.simulator.Tracker().Lyapunov()))
		regime := analysis.Classify(y)
		style := st.value
		switch regime {
		case analysis.Regular:
			style = st.regular
		case analysis.Chaotic:
			style = st.chaotic
		}
		s.WriteString(st.label.Render("Regime") + style.Render(string(regime)) + "\n")
	}
	if n := len(m.energyHistory); n > 0 {
		row("dE/E0", fmt.Sprintf("%.3e", m.energyHistory[n-1]))
	}
	row("Theme", m.theme.Name)

	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit\nT:Theme +/-:Zoom </>:Speed ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))

	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset simulation         ║
║  Q        - Quit                     ║
║  T        - Cycle themes             ║
║  + / -    - Zoom in / out            ║
║  > / <    - Double / halve speed     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Run opens the live view in the alternate screen.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
