package viz

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/swaysim/internal/dynamo"
	"github.com/san-kum/swaysim/internal/export"
	"github.com/san-kum/swaysim/internal/mesh"
	"github.com/san-kum/swaysim/internal/metrics"
	"github.com/san-kum/swaysim/internal/sim"
)

const (
	canvasWidth  = 22
	canvasHeight = 18
	graphWidth   = 46
	graphHeight  = 6
	floorLines   = 12

	maxFrameDt = 0.1 // seconds; longer frame gaps are clamped
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 1)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(52)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	graphStyle  = lipgloss.NewStyle().Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// Sliders is the order in which tab cycles through the inputs.
var Sliders = []string{
	"height",
	"width",
	"damper_length",
	"damper_mass",
	"wind_speed",
	"resonance_ratio",
	"damping_ratio",
	"cutoff",
	"segments",
}

type TickMsg time.Time

// Model is the live view of one Simulation: both buildings side by side,
// the damper pendulum, readouts and the displacement history.
type Model struct {
	sim       *sim.Simulation
	history   *sim.History
	initial   sim.Params
	dt        float64
	threshold float64
	lastTick  time.Time

	left, right *Canvas
	selected    int
	running     bool
	showHelp    bool
	theme       int
	status      string
	title       string
}

// NewModel wraps a configured simulation. The history is registered as an
// observer of s.
func NewModel(s *sim.Simulation, history *sim.History, dt, driftThreshold float64) Model {
	if history == nil {
		history = sim.NewHistory(sim.DefaultHistoryCapacity, sim.DefaultSampleInterval)
	}
	s.AddObserver(history)
	if driftThreshold <= 0 {
		driftThreshold = metrics.DefaultDriftThreshold
	}
	return Model{
		sim:       s,
		history:   history,
		initial:   s.Params(),
		dt:        dt,
		threshold: driftThreshold,
		left:      NewCanvas(canvasWidth, canvasHeight),
		right:     NewCanvas(canvasWidth, canvasHeight),
		running:   true,
		title:     "TUNED MASS DAMPER",
	}
}

// WithTitle sets the header line.
func (m Model) WithTitle(title string) Model {
	m.title = title
	return m
}

// WithTheme selects a theme by name.
func (m Model) WithTheme(name string) Model {
	m.theme = themeIndex(name)
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		case "r":
			m.reset()
		case "tab":
			m.cycleParam(1)
		case "shift+tab":
			m.cycleParam(-1)
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "t":
			m.tune()
		case "c":
			m.theme = (m.theme + 1) % len(Themes)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		dt := m.elapsed(time.Time(msg))
		if m.running {
			m.advance(dt)
		}
		return m, tick()
	}
	return m, nil
}

// elapsed is the wall time since the previous tick message, clamped to
// [0, maxFrameDt]. The first tick advances by the nominal dt.
func (m *Model) elapsed(now time.Time) float64 {
	last := m.lastTick
	m.lastTick = now
	if last.IsZero() {
		return m.dt
	}
	return dynamo.Clamp(now.Sub(last).Seconds(), 0, maxFrameDt)
}

func (m *Model) step() { m.advance(m.dt) }

func (m *Model) advance(dt float64) {
	if _, err := m.sim.Tick(dt); err != nil {
		m.status = describe(err)
		return
	}
	m.status = ""
}

func (m *Model) cycleParam(dir int) {
	n := len(Sliders)
	m.selected = ((m.selected+dir)%n + n) % n
}

func (m *Model) adjustParam(factor float64) {
	name := Sliders[m.selected]
	val := m.sim.GetParams()[name]
	next := val * factor
	if name == "segments" {
		next = math.Round(next)
		if next == val {
			next = val + math.Copysign(1, factor-1)
		}
		next = dynamo.Clamp(next, 1, mesh.MaxSegments)
	}
	if err := m.sim.SetParam(name, next); err != nil {
		m.status = describe(err)
		return
	}
	m.status = ""
}

func (m *Model) tune() {
	l, err := m.sim.TuneDamper()
	if err != nil {
		m.status = describe(err)
		return
	}
	m.status = fmt.Sprintf("damper tuned: l = %.3fm", l)
}

// reset restores the initial inputs and rewinds the clock.
func (m *Model) reset() {
	if err := m.sim.Configure(m.initial); err != nil {
		m.status = describe(err)
	}
	m.sim.Reset()
	m.history.Reset()
	m.status = ""
}

func describe(err error) string {
	var de *dynamo.DomainError
	if errors.As(err, &de) {
		return fmt.Sprintf("rejected %s = %g: %s", de.Param, de.Value, de.Reason)
	}
	return err.Error()
}

// draw renders both buildings onto their canvases with a shared viewport.
func (m *Model) draw(f sim.Frame) {
	m.left.Clear()
	m.right.Clear()
	if f.Primary == nil || f.Reference == nil {
		return
	}

	primary, reference := export.Outline(f.Primary), export.Outline(f.Reference)
	bob := export.PendulumBob(f.Anchor, f.PendulumLength, f.DamperAngle)
	pts := append(append([]dynamo.Vec3{}, primary...), reference...)
	pts = append(pts, bob, dynamo.Vec3{})
	box := dynamo.BoundsOf(pts)
	// keep the view from zooming on a near-rigid building
	if w := box.Size().X; w < f.Primary.Rest.Bounds.Size().Y/2 {
		c := box.Center().X
		half := f.Primary.Rest.Bounds.Size().Y / 4
		box.Min.X, box.Max.X = c-half, c+half
	}
	vp := m.left.Fit(box, 0.05)

	drawBuilding(m.left, vp, f.Reference, reference)
	drawBuilding(m.right, vp, f.Primary, primary)

	ax, ay := vp.Project(f.Anchor)
	bx, by := vp.Project(bob)
	m.right.DrawLine(ax, ay, bx, by)
	r := int(math.Max(1, f.Primary.Rest.Bounds.Size().X*vp.Scale()*0.08))
	m.right.DrawDisc(bx, by, r)
}

func drawBuilding(c *Canvas, vp Viewport, b *mesh.Bent, outline []dynamo.Vec3) {
	c.DrawPolygon(vp, outline)
	rows := len(b.Vertices) / 2
	stride := rows / floorLines
	if stride < 1 {
		stride = 1
	}
	for i := stride; i < rows-1; i += stride {
		l, r := mesh.Row(i)
		x0, y0 := vp.Project(b.Vertices[l])
		x1, y1 := vp.Project(b.Vertices[r])
		c.DrawLine(x0, y0, x1, y1)
	}
	gx0, gy := vp.Project(dynamo.Vec3{X: b.Rest.Bounds.Min.X - b.Rest.Bounds.Size().Y})
	gx1, _ := vp.Project(dynamo.Vec3{X: b.Rest.Bounds.Max.X + b.Rest.Bounds.Size().Y})
	c.DrawLine(gx0, gy, gx1, gy)
}

func (m Model) View() string {
	theme := Themes[m.theme]
	pal := paletteFor(theme)
	f := m.sim.CurrentFrame()
	m.draw(f)

	refStyle, priStyle := pal.calm, pal.calm
	if metrics.Overstressed(f.ReferenceDisplacement, f.Height, m.threshold) {
		refStyle = pal.stressed
	}
	if metrics.Overstressed(f.Displacement, f.Height, m.threshold) {
		priStyle = pal.stressed
	}
	buildings := lipgloss.JoinHorizontal(lipgloss.Bottom,
		canvasStyle.Render(pal.label.Render("no damper")+"\n"+refStyle.Render(m.left.String())),
		canvasStyle.Render(pal.label.Render("with damper")+"\n"+priStyle.Render(m.right.String())),
	)

	var s strings.Builder
	s.WriteString(pal.header.Render(m.title) + "  " + m.statusBadge() + "\n\n")
	s.WriteString(m.readouts(f, pal))
	if m.status != "" {
		s.WriteString("\n" + pal.errText.Render(m.status) + "\n")
	}
	s.WriteString("\n" + pal.header.Render("PARAMETERS") + "\n")
	s.WriteString(m.sliders(pal))
	s.WriteString(helpStyle.Render(Separator(30) + "\nSP:Pause R:Reset T:Tune Q:Quit\nTab:Param ↑↓:±5% C:Theme ?:Help"))
	stats := statsStyle.Render(s.String())

	view := lipgloss.JoinHorizontal(lipgloss.Top, buildings, stats)
	if graph := m.graph(); graph != "" {
		view = lipgloss.JoinVertical(lipgloss.Left, view, graphStyle.Render(graph))
	}
	if m.showHelp {
		return helpOverlay + "\n\n" + view
	}
	return view
}

func (m Model) statusBadge() string {
	if !m.running {
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render("RUNNING")
}

func (m Model) readouts(f sim.Frame, pal palette) string {
	row := func(label, value string) string {
		return labelStyle.Render(label) + pal.value.Render(value) + "\n"
	}
	var s strings.Builder
	s.WriteString(row("Time", fmt.Sprintf("%.2fs", m.sim.Time())))
	s.WriteString(row("Mass", FormatMass(f.BuildingMass)))
	s.WriteString(row("Amplitude", FormatAmplitude(f.DampedAmplitude)))
	s.WriteString(row("No damper", FormatAmplitude(f.ReferenceAmplitude)))
	s.WriteString(row("wn", FormatFrequency(f.NaturalFreq)))
	s.WriteString(row("wd", FormatFrequency(f.DamperFreq)))
	s.WriteString(row("Sway", FormatDisplacement(f.Displacement)))
	s.WriteString(row("Damper angle", fmt.Sprintf("%.2f°", f.DamperAngle)))
	drift := metrics.DriftRatio(f.Displacement, f.Height)
	s.WriteString(row("Drift", fmt.Sprintf("%.4f / %.2f", drift, m.threshold)))
	return s.String()
}

// sliderMax is the right end of each slider's bar.
var sliderMax = map[string]float64{
	"height":          500,
	"width":           50,
	"damper_length":   30,
	"damper_mass":     500000,
	"wind_speed":      100,
	"resonance_ratio": 200,
	"damping_ratio":   1,
	"cutoff":          2000,
	"segments":        mesh.MaxSegments,
}

func (m Model) sliders(pal palette) string {
	params := m.sim.GetParams()
	var s strings.Builder
	for i, name := range Sliders {
		val := params[name]
		ratio := 0.0
		if hi := sliderMax[name]; hi > 0 {
			ratio = dynamo.Clamp(val/hi, 0, 1)
		}
		line := fmt.Sprintf("%-15s %s %s", name, ProgressBar(ratio, 10), Grouped(val, 3))
		if i == m.selected {
			s.WriteString(pal.active.Render("> ") + line + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}
	return s.String()
}

// graph plots both displacement series on a symmetric axis.
func (m Model) graph() string {
	if m.history.Len() < 2 {
		return ""
	}
	bound := m.history.MaxAbs()
	return asciigraph.PlotMany(
		[][]float64{m.history.NoTMD(), m.history.WithTMD()},
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
		asciigraph.LowerBound(-bound),
		asciigraph.UpperBound(bound),
		asciigraph.Precision(3),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green),
		asciigraph.Caption("sway (m): red without damper, green with"),
	)
}

const helpOverlay = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  N        - Single step when paused  ║
║  R        - Reset inputs and clock   ║
║  T        - Tune damper to wn        ║
║  Tab      - Next parameter           ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  C        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// Run opens the live view full screen until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
