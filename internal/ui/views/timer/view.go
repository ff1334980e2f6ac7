package timer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	fastingdto "fastflow/internal/modules/fasting/dto"
	"fastflow/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type TimerPort interface {
	Status(ctx context.Context) (fastingdto.StatusOutput, error)
	Phases(ctx context.Context) (fastingdto.PhasesOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type StatusLoadedMsg struct {
	Status fastingdto.StatusOutput
	Phases fastingdto.PhasesOutput
	Err    error
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    TimerPort
	status  fastingdto.StatusOutput
	phases  fastingdto.PhasesOutput
	bar     progress.Model
	spinner spinner.Model
	loading bool
	err     error
	width   int
	height  int
}

func New(port TimerPort) Model {
	bar := progress.New(
		progress.WithGradient(string(theme.Sapphire), string(theme.Green)),
		progress.WithoutPercentage(),
	)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		bar:     bar,
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Refresh(), m.spinner.Tick)
}

// Refresh reloads status and phases from the port.
func (m Model) Refresh() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		if port == nil {
			return StatusLoadedMsg{Err: fmt.Errorf("timer adapter not configured")}
		}
		ctx := context.Background()
		status, err := port.Status(ctx)
		if err != nil {
			return StatusLoadedMsg{Err: err}
		}
		phases, err := port.Phases(ctx)
		return StatusLoadedMsg{Status: status, Phases: phases, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = clamp(msg.Width-8, 10, 60)

	case StatusLoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.status = msg.Status
			m.phases = msg.Phases
		}

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading timer…")
	}
	if m.err != nil {
		return theme.Bad.Render("timer: " + m.err.Error())
	}

	var body string
	switch {
	case m.status.Active != nil:
		body = m.renderActive(*m.status.Active)
	case m.status.Eating != nil:
		body = m.renderEating(*m.status.Eating)
	default:
		body = theme.Title.Render("No active fast") + "\n\n" +
			theme.Muted.Render("1: 16/8  2: 18/6  3: 20/4  4: OMAD  or :start <plan>")
	}

	var sb strings.Builder
	sb.WriteString(body)
	sb.WriteString("\n\n")
	sb.WriteString(m.renderFooter())

	return lipgloss.NewStyle().Width(m.width).Height(m.height).Padding(1, 2).Render(sb.String())
}

// Status returns the most recently loaded snapshot.
func (m Model) Status() fastingdto.StatusOutput { return m.status }

// Loaded reports whether at least one snapshot has arrived.
func (m Model) Loaded() bool { return !m.loading }

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) renderActive(a fastingdto.ActiveFastOutput) string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(fmt.Sprintf("Fasting · %s", a.Plan)) + "\n\n")
	sb.WriteString(theme.Big.Render(a.ElapsedText))
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("  of %gh", a.TargetHours)) + "\n\n")
	sb.WriteString(m.bar.ViewAs(a.Progress))
	sb.WriteString(fmt.Sprintf("  %3.0f%%\n", a.Progress*100))
	sb.WriteString(theme.Muted.Render("started ") + m.clock(a.StartAt))
	sb.WriteString(theme.Muted.Render("   goal ") + m.clock(a.TargetAt) + "\n")
	if a.Progress >= 1 {
		sb.WriteString(theme.Good.Render("goal reached, press e to end") + "\n")
	}
	sb.WriteString("\n")
	if a.Phase != nil {
		sb.WriteString(theme.Hot.Render(a.Phase.Icon+" "+a.Phase.Label) + "\n")
	}
	if a.NextPhase != nil {
		remaining := time.Duration(a.NextPhase.Hours*float64(time.Hour)) - a.Elapsed
		sb.WriteString(theme.Muted.Render(fmt.Sprintf("next: %s %s in %s",
			a.NextPhase.Icon, a.NextPhase.Label, shortDuration(remaining))) + "\n")
	}
	sb.WriteString("\n" + m.renderPhases())
	return sb.String()
}

func (m Model) renderEating(e fastingdto.EatingWindowOutput) string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Eating window") + "\n\n")
	sb.WriteString(theme.Big.Render(e.ElapsedText))
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("  of %gh", e.TargetHours)) + "\n\n")
	sb.WriteString(m.bar.ViewAs(e.Progress) + "\n")
	sb.WriteString(theme.Muted.Render("opened ") + m.clock(e.StartAt) + "\n")
	if e.Progress >= 1 {
		sb.WriteString(theme.Warn.Render("window is over, time to start the next fast") + "\n")
	}
	return sb.String()
}

func (m Model) renderPhases() string {
	var sb strings.Builder
	for _, p := range m.phases.Phases {
		mark := theme.Muted.Render("○")
		label := theme.Muted.Render(fmt.Sprintf("%2gh %s %s", p.Hours, p.Icon, p.Label))
		switch {
		case p.Current:
			mark = theme.Hot.Render("●")
			label = theme.Hot.Render(fmt.Sprintf("%2gh %s %s", p.Hours, p.Icon, p.Label))
		case p.Reached:
			mark = theme.Good.Render("✓")
			label = fmt.Sprintf("%2gh %s %s", p.Hours, p.Icon, p.Label)
		}
		sb.WriteString(mark + " " + label + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) renderFooter() string {
	s := m.status
	parts := []string{
		fmt.Sprintf("streak %d", s.Streak),
		fmt.Sprintf("best %d", s.BestStreak),
		fmt.Sprintf("fasts %d", s.TotalFasts),
	}
	footer := theme.Muted.Render(strings.Join(parts, "  ·  "))
	if s.PersistFailures > 0 {
		footer += "  " + theme.Bad.Render(fmt.Sprintf("%d save failures", s.PersistFailures))
	}
	return footer
}

func (m Model) clock(t time.Time) string {
	if m.status.Settings.Use24h {
		return t.Format("Mon 15:04")
	}
	return t.Format("Mon 3:04 PM")
}

func shortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", h, mins)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
