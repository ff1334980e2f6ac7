package stats

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	fastingdto "fastflow/internal/modules/fasting/dto"
	"fastflow/internal/ui/theme"
)

const barWidth = 28

// ─── port ────────────────────────────────────────────────────────────────────

type StatsPort interface {
	Stats(ctx context.Context, minHours float64) (fastingdto.StatsOutput, error)
	Calendar(ctx context.Context, month time.Time, minHours float64) (fastingdto.CalendarOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type StatsLoadedMsg struct {
	Stats    fastingdto.StatsOutput
	Calendar fastingdto.CalendarOutput
	Err      error
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port     StatsPort
	stats    fastingdto.StatsOutput
	calendar fastingdto.CalendarOutput
	month    time.Time
	spinner  spinner.Model
	loading  bool
	err      error
	width    int
	height   int
}

func New(port StatsPort) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)
	return Model{port: port, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Refresh(), m.spinner.Tick)
}

// Refresh reloads the weekly summary and the displayed month. A zero month
// means the current one.
func (m Model) Refresh() tea.Cmd {
	return m.loadCmd(m.month)
}

// ShowMonth switches the calendar to the month containing t.
func (m *Model) ShowMonth(t time.Time) tea.Cmd {
	m.month = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return m.loadCmd(m.month)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case StatsLoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.stats = msg.Stats
			m.calendar = msg.Calendar
			m.month = msg.Calendar.Month
		}

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.loading || m.month.IsZero() {
			return m, nil
		}
		switch msg.String() {
		case "left", "h":
			return m, m.ShowMonth(m.month.AddDate(0, -1, 0))
		case "right", "l":
			return m, m.ShowMonth(m.month.AddDate(0, 1, 0))
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading stats…")
	}
	if m.err != nil {
		return theme.Bad.Render("stats: " + m.err.Error())
	}

	left := theme.Pane.Render(m.renderWeek() + "\n\n" + m.renderTotals())
	right := theme.Pane.Render(m.renderCalendar())
	if m.width > 0 && m.width < lipgloss.Width(left)+lipgloss.Width(right) {
		return lipgloss.JoinVertical(lipgloss.Left, left, right)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

// Month is the first day of the month currently shown.
func (m Model) Month() time.Time { return m.month }

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) renderWeek() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Last 7 days") + "\n\n")
	scale := m.stats.MinHours
	for _, d := range m.stats.Days {
		scale = math.Max(scale, d.Hours)
	}
	if scale <= 0 {
		scale = 24
	}
	for _, d := range m.stats.Days {
		n := int(math.Round(d.Hours / scale * barWidth))
		bar := strings.Repeat("█", n) + strings.Repeat("░", barWidth-n)
		style := theme.Muted
		switch {
		case d.Hours >= m.stats.MinHours:
			style = theme.Good
		case d.Hours > 0:
			style = theme.Warn
		}
		sb.WriteString(fmt.Sprintf("%-3s %s %5.1fh\n", d.Label, style.Render(bar), d.Hours))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) renderTotals() string {
	s := m.stats
	rows := [][2]string{
		{"streak", fmt.Sprintf("%d days", s.Streak)},
		{"best", fmt.Sprintf("%d days", s.BestStreak)},
		{"fasts", fmt.Sprintf("%d", s.TotalFasts)},
		{"total", fmt.Sprintf("%.1fh", s.TotalHours)},
		{"average", fmt.Sprintf("%.1fh", s.AverageHours)},
		{"longest", fmt.Sprintf("%.1fh", s.LongestHours)},
	}
	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(theme.Muted.Render(fmt.Sprintf("%-8s", r[0])) + " " + r[1] + "\n")
	}
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("streak days need %gh", s.MinHours)))
	return sb.String()
}

func (m Model) renderCalendar() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(m.calendar.Month.Format("January 2006")) + "\n\n")
	sb.WriteString(theme.Muted.Render("Su Mo Tu We Th Fr Sa") + "\n")
	if len(m.calendar.Days) > 0 {
		sb.WriteString(strings.Repeat("   ", int(m.calendar.Days[0].Date.Weekday())))
	}
	for _, d := range m.calendar.Days {
		cell := fmt.Sprintf("%2d", d.Date.Day())
		switch d.Status {
		case "success":
			cell = theme.Good.Render(cell)
		case "partial":
			cell = theme.Warn.Render(cell)
		default:
			cell = theme.Muted.Render(cell)
		}
		sb.WriteString(cell)
		if d.Date.Weekday() == time.Saturday {
			sb.WriteString("\n")
		} else {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("\n\n" + theme.Good.Render("■") + theme.Muted.Render(" goal  ") +
		theme.Warn.Render("■") + theme.Muted.Render(" partial   ←/→ month"))
	return sb.String()
}

func (m Model) loadCmd(month time.Time) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		if port == nil {
			return StatsLoadedMsg{Err: fmt.Errorf("stats adapter not configured")}
		}
		ctx := context.Background()
		st, err := port.Stats(ctx, 0)
		if err != nil {
			return StatsLoadedMsg{Err: err}
		}
		cal, err := port.Calendar(ctx, month, 0)
		return StatsLoadedMsg{Stats: st, Calendar: cal, Err: err}
	}
}
