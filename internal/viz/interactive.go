package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/san-kum/swaysim/internal/config"
	"github.com/san-kum/swaysim/internal/sim"
)

var presetInfo = map[string]string{
	"default":       "50m block, untuned damper",
	"tuned":         "damper swing matched to wn",
	"light_damper":  "tenth of the damper mass",
	"off_resonance": "wind well below wn",
	"storm":         "strong gusts near resonance",
	"skyscraper":    "300m tower, heavy damper",
	"low_rise":      "20m block, short pendulum",
}

const (
	stateMenu = iota
	stateSim
)

// picker lists the presets and opens the live view on the chosen one.
type picker struct {
	state   int
	cursor  int
	presets []string
	logger  *log.Logger
	theme   string
	live    Model
	err     error
}

func NewPicker(logger *log.Logger, theme string) tea.Model {
	return picker{
		presets: config.ListPresets(),
		logger:  logger,
		theme:   theme,
	}
}

// FromConfig builds a configured simulation for cfg and wraps it in a live
// view.
func FromConfig(cfg *config.Config, logger *log.Logger) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return Model{}, err
	}
	s := sim.New(sim.WithLogger(logger))
	if err := s.Configure(cfg.Params()); err != nil {
		return Model{}, fmt.Errorf("configure: %w", err)
	}
	history := sim.NewHistory(cfg.Sim.History, cfg.Sim.SampleInterval)
	return NewModel(s, history, cfg.Sim.Dt, cfg.Sim.DriftThreshold), nil
}

func (p picker) Init() tea.Cmd { return nil }

func (p picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.state == stateSim {
		next, cmd := p.live.Update(msg)
		p.live = next.(Model)
		return p, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.presets)-1 {
			p.cursor++
		}
	case "enter", " ":
		name := p.presets[p.cursor]
		m, err := FromConfig(config.GetPreset(name), p.logger)
		if err != nil {
			p.err = err
			return p, nil
		}
		p.live = m.WithTitle(strings.ToUpper(name)).WithTheme(p.theme)
		p.state = stateSim
		return p, p.live.Init()
	}
	return p, nil
}

func (p picker) View() string {
	if p.state == stateSim {
		return p.live.View()
	}
	h := lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	sub := lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cur := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	desc := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	key := lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)

	var b strings.Builder
	b.WriteString("\n\n    " + h.Render("SWAYSIM") + "\n    " + sub.Render("tuned mass damper") + "\n    " + sub.Render("─────────────────────────") + "\n\n")
	for i, name := range p.presets {
		if i == p.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", h.Render("▸"), cur.Render(fmt.Sprintf("%-16s", name)), desc.Render(presetInfo[name])))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", sub.Render(fmt.Sprintf("  %-16s", name)), sub.Render(presetInfo[name])))
		}
	}
	if p.err != nil {
		b.WriteString("\n    " + SparkLow.Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n    " + key.Render("j/k") + sub.Render(" navigate  ") + key.Render("enter") + sub.Render(" select  ") + key.Render("q") + sub.Render(" quit") + "\n")
	return b.String()
}

// RunPicker opens the preset menu full screen.
func RunPicker(logger *log.Logger, theme string) error {
	_, err := tea.NewProgram(NewPicker(logger, theme), tea.WithAltScreen()).Run()
	return err
}
