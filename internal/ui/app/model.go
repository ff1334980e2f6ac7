package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	fastingdto "fastflow/internal/modules/fasting/dto"
	apperrors "fastflow/internal/platform/errors"
	"fastflow/internal/platform/timeparse"
	"fastflow/internal/ui/components"
	"fastflow/internal/ui/theme"
	historyview "fastflow/internal/ui/views/history"
	statsview "fastflow/internal/ui/views/stats"
	timerview "fastflow/internal/ui/views/timer"
)

// ─── port ────────────────────────────────────────────────────────────────────
// fastingPort is the slice of the fasting CLI handler the TUI drives. Each
// sub-view narrows it further in its own package.

type fastingPort interface {
	Start(ctx context.Context, plan string, targetHours float64) (fastingdto.ActiveFastOutput, error)
	End(ctx context.Context) (fastingdto.EndOutput, error)
	AdjustStart(ctx context.Context, startAt time.Time) (fastingdto.AdjustStartOutput, error)
	UpdateSettings(ctx context.Context, plan *string, targetHours *float64, use24h *bool) (fastingdto.SettingsOutput, error)
	Status(ctx context.Context) (fastingdto.StatusOutput, error)
	Phases(ctx context.Context) (fastingdto.PhasesOutput, error)
	History(ctx context.Context, limit int) (fastingdto.HistoryOutput, error)
	Stats(ctx context.Context, minHours float64) (fastingdto.StatsOutput, error)
	Calendar(ctx context.Context, month time.Time, minHours float64) (fastingdto.CalendarOutput, error)
	Export(ctx context.Context, format string) (fastingdto.ExportOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabTimer tabID = iota
	tabHistory
	tabStats
	tabCount
)

var tabLabels = [tabCount]string{"Timer", "History", "Stats"}

// quickPlans maps the number keys to plans started with their own hours.
var quickPlans = map[string]string{
	"1": "16/8",
	"2": "18/6",
	"3": "20/4",
	"4": "OMAD",
}

// ─── async messages ──────────────────────────────────────────────────────────

type tickMsg time.Time

type fastStartedMsg struct {
	active fastingdto.ActiveFastOutput
	err    error
}

type fastEndedMsg struct {
	out fastingdto.EndOutput
	err error
}

type startAdjustedMsg struct {
	out fastingdto.AdjustStartOutput
	err error
}

type settingsSavedMsg struct {
	out fastingdto.SettingsOutput
	err error
}

type exportedMsg struct {
	path string
	err  error
}

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Plans   key.Binding
	End     key.Binding
	Month   key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Plans:   key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "start 16/8 18/6 20/4 OMAD")),
		End:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "end fast")),
		Month:   key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "calendar month")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Plans, k.End},
		{k.Tab, k.Month},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the refresh tick,
// the help overlay and the command palette. Fasting logic stays behind the
// port and rendering stays in the sub-views.
type Model struct {
	port    fastingPort
	refresh time.Duration

	timerView   timerview.Model
	historyView historyview.Model
	statsView   statsview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

// ─── constructor ─────────────────────────────────────────────────────────────

func NewModel(port fastingPort, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = time.Second
	}
	return Model{
		port:        port,
		refresh:     refresh,
		timerView:   timerview.New(port),
		historyView: historyview.New(port),
		statsView:   statsview.New(port),
		activeTab:   tabTimer,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.timerView.Init(),
		m.historyView.Init(),
		m.statsView.Init(),
		m.tickCmd(),
	)
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Loaded data must reach its view even while the palette is open.
	switch msg := msg.(type) {
	case timerview.StatusLoadedMsg:
		m.timerView, _ = m.timerView.Update(msg)
		return m, nil
	case historyview.HistoryLoadedMsg:
		var cmd tea.Cmd
		m.historyView, cmd = m.historyView.Update(msg)
		return m, cmd
	case statsview.StatsLoadedMsg:
		m.statsView, _ = m.statsView.Update(msg)
		return m, nil
	case spinner.TickMsg:
		var tc, hc, sc tea.Cmd
		m.timerView, tc = m.timerView.Update(msg)
		m.historyView, hc = m.historyView.Update(msg)
		m.statsView, sc = m.statsView.Update(msg)
		return m, tea.Batch(tc, hc, sc)
	case tickMsg:
		return m, tea.Batch(m.timerView.Refresh(), m.tickCmd())
	}

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case fastStartedMsg:
		if msg.err != nil {
			m.status = "start failed: " + describe(msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("started %s fast (%gh)", msg.active.Plan, msg.active.TargetHours)
		m.activeTab = tabTimer
		return m, m.reloadAll()

	case fastEndedMsg:
		if msg.err != nil {
			m.status = "end failed: " + describe(msg.err)
			return m, nil
		}
		if !msg.out.Ended {
			m.status = "no active fast"
			return m, nil
		}
		m.status = fmt.Sprintf("fast ended after %s, eating window %gh", msg.out.Fast.DurationText, msg.out.EatingTargetHours)
		return m, m.reloadAll()

	case startAdjustedMsg:
		if msg.err != nil {
			m.status = "adjust failed: " + describe(msg.err)
			return m, nil
		}
		if !msg.out.Adjusted {
			m.status = "no active fast"
			return m, nil
		}
		m.status = "start moved to " + msg.out.StartAt.Format("Mon 15:04")
		return m, m.timerView.Refresh()

	case settingsSavedMsg:
		if msg.err != nil {
			m.status = "settings: " + describe(msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("settings saved: %s, %gh, 24h=%t", msg.out.DefaultPlan, msg.out.DefaultTargetHours, msg.out.Use24h)
		return m, m.timerView.Refresh()

	case exportedMsg:
		if msg.err != nil {
			m.status = "export failed: " + msg.err.Error()
		} else {
			m.status = "exported to " + msg.path
		}
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// Yield to the history filter while it is open.
		if m.activeTab == tabHistory && m.historyView.Filtering() {
			break
		}

		switch s := msg.String(); s {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "1", "2", "3", "4":
			return m, m.startCmd(quickPlans[s], 0)
		case "e":
			return m, m.endCmd()
		}
	}

	// Propagate the message to the active tab's sub-view.
	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabTimer:
		m.timerView, tabCmd = m.timerView.Update(msg)
	case tabHistory:
		m.historyView, tabCmd = m.historyView.Update(msg)
	case tabStats:
		m.statsView, tabCmd = m.statsView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	tabBarH := lipgloss.Height(tabBar)
	statusBarH := lipgloss.Height(statusBar)

	contentH := m.height - tabBarH - statusBarH
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabTimer:
		return m.timerView.View()
	case tabHistory:
		return m.historyView.View()
	case tabStats:
		return m.statsView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "fastflow  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if st := m.timerView.Status(); st.Active != nil {
		left = theme.Hot.Render("● "+st.Active.ElapsedText) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ───────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)

	switch parts[0] {
	case "start":
		plan := ""
		if len(parts) >= 2 {
			plan = parts[1]
		}
		hours := 0.0
		if len(parts) >= 3 {
			h, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				m.status = "invalid hours: " + parts[2]
				return m, nil
			}
			hours = h
		}
		return m, m.startCmd(plan, hours)

	case "end":
		return m, m.endCmd()

	case "adjust":
		if len(parts) < 2 {
			m.status = "usage: adjust <time>"
			return m, nil
		}
		raw := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))
		startAt, err := timeparse.Parse(raw, m.now())
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m, m.adjustCmd(startAt)

	case "calendar":
		month, err := timeparse.ParseMonth(strings.Join(parts[1:], " "), m.now())
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.activeTab = tabStats
		return m, m.statsView.ShowMonth(month)

	case "settings":
		if len(parts) < 3 {
			m.status = "usage: settings <plan|hours|24h> <value>"
			return m, nil
		}
		return m.settingsCommand(parts[1], parts[2])

	case "export":
		if len(parts) < 2 {
			m.status = "usage: export <path> [json|yaml]"
			return m, nil
		}
		format := formatFor(parts[1])
		if len(parts) >= 3 {
			format = parts[2]
		}
		return m, m.exportCmd(parts[1], format)

	case "refresh":
		m.status = "refreshed"
		return m, m.reloadAll()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

func (m Model) settingsCommand(field, value string) (tea.Model, tea.Cmd) {
	var (
		plan   *string
		hours  *float64
		use24h *bool
	)
	switch field {
	case "plan":
		plan = &value
	case "hours":
		h, err := strconv.ParseFloat(value, 64)
		if err != nil {
			m.status = "invalid hours: " + value
			return m, nil
		}
		hours = &h
	case "24h":
		on, err := parseSwitch(value)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		use24h = &on
	default:
		m.status = "unknown setting: " + field
		return m, nil
	}
	return m, m.settingsCmd(plan, hours, use24h)
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.timerView, _ = m.timerView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
	m.statsView, _ = m.statsView.Update(sz)
}

func (m Model) reloadAll() tea.Cmd {
	return tea.Batch(m.timerView.Refresh(), m.historyView.Refresh(), m.statsView.Refresh())
}

// now follows the zone of the last loaded snapshot so typed clock times
// resolve in the configured timezone.
func (m Model) now() time.Time {
	if st := m.timerView.Status(); !st.Now.IsZero() {
		return time.Now().In(st.Now.Location())
	}
	return time.Now()
}

func formatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

func parseSwitch(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", value)
}

func describe(err error) string {
	if errors.Is(err, apperrors.ErrActiveFastExists) {
		return "a fast is already running"
	}
	return err.Error()
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) startCmd(plan string, hours float64) tea.Cmd {
	return func() tea.Msg {
		active, err := m.port.Start(context.Background(), plan, hours)
		return fastStartedMsg{active: active, err: err}
	}
}

func (m Model) endCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.End(context.Background())
		return fastEndedMsg{out: out, err: err}
	}
}

func (m Model) adjustCmd(startAt time.Time) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.AdjustStart(context.Background(), startAt)
		return startAdjustedMsg{out: out, err: err}
	}
}

func (m Model) settingsCmd(plan *string, hours *float64, use24h *bool) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.UpdateSettings(context.Background(), plan, hours, use24h)
		return settingsSavedMsg{out: out, err: err}
	}
}

func (m Model) exportCmd(path, format string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.Export(context.Background(), format)
		if err != nil {
			return exportedMsg{path: path, err: err}
		}
		if err := os.WriteFile(path, out.Data, 0o644); err != nil {
			return exportedMsg{path: path, err: err}
		}
		return exportedMsg{path: path}
	}
}
