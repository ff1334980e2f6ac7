package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	fastingdto "fastflow/internal/modules/fasting/dto"
	"fastflow/internal/ui/theme"
)

const historyLimit = 100

// ─── port ────────────────────────────────────────────────────────────────────

type HistoryPort interface {
	History(ctx context.Context, limit int) (fastingdto.HistoryOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type HistoryLoadedMsg struct {
	Fasts []fastingdto.FastOutput
	Err   error
}

// ─── list item ───────────────────────────────────────────────────────────────

type fastItem struct {
	fast fastingdto.FastOutput
}

func (i fastItem) Title() string {
	return i.fast.StartAt.Format("Mon Jan 2") + "  " + i.fast.DurationText
}

func (i fastItem) Description() string {
	mark := "✗"
	if i.fast.ReachedGoal {
		mark = "✓"
	}
	return fmt.Sprintf("%s %s  goal %gh", mark, i.fast.Plan, i.fast.TargetHours)
}

func (i fastItem) FilterValue() string {
	return i.fast.Plan + " " + i.fast.StartAt.Format("2006-01-02")
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    HistoryPort
	list    list.Model
	detail  viewport.Model
	spinner spinner.Model
	loading bool
	width   int
	height  int
}

func New(port HistoryPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "History"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		list:    l,
		detail:  vp,
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Refresh(), m.spinner.Tick)
}

// Refresh reloads the completed fasts, newest first.
func (m Model) Refresh() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		if port == nil {
			return HistoryLoadedMsg{Err: fmt.Errorf("history adapter not configured")}
		}
		out, err := port.History(context.Background(), historyLimit)
		return HistoryLoadedMsg{Fasts: out.Fasts, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case HistoryLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "History: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "History"
		items := make([]list.Item, len(msg.Fasts))
		for i, f := range msg.Fasts {
			items[i] = fastItem{fast: f}
		}
		cmds = append(cmds, m.list.SetItems(items))
		m.detail.SetContent(m.renderDetail())

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		prevIdx := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			m.detail.SetContent(m.renderDetail())
		}

		var vCmd tea.Cmd
		m.detail, vCmd = m.detail.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading history…")
	}

	listW := m.width * 5 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.detail.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// SelectedFast returns the highlighted fast, if any.
func (m Model) SelectedFast() (fastingdto.FastOutput, bool) {
	if item, ok := m.list.SelectedItem().(fastItem); ok {
		return item.fast, true
	}
	return fastingdto.FastOutput{}, false
}

// Len is the number of fasts currently listed.
func (m Model) Len() int { return len(m.list.Items()) }

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 5 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.detail.Width = detailW - 4
	m.detail.Height = m.height - 4
}

func (m Model) renderDetail() string {
	f, ok := m.SelectedFast()
	if !ok {
		return theme.Muted.Render("No completed fasts yet")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(f.Plan+" fast") + "\n\n")
	sb.WriteString(theme.Muted.Render("start:    ") + f.StartAt.Format("Mon Jan 2 15:04") + "\n")
	sb.WriteString(theme.Muted.Render("end:      ") + f.EndAt.Format("Mon Jan 2 15:04") + "\n")
	sb.WriteString(theme.Muted.Render("duration: ") + f.DurationText + "\n")
	sb.WriteString(fmt.Sprintf("%s%gh\n", theme.Muted.Render("goal:     "), f.TargetHours))
	if f.ReachedGoal {
		sb.WriteString(theme.Good.Render("goal reached") + "\n")
	} else {
		sb.WriteString(theme.Warn.Render(fmt.Sprintf("ended %.1fh short", f.TargetHours-f.Hours)) + "\n")
	}
	if f.Notes != "" {
		sb.WriteString("\n" + f.Notes + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("id: "+f.ID))
	return sb.String()
}
