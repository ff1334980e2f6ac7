package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fastflow/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

const (
	maxHints   = 5
	maxHistory = 20
)

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

// hints must stay in sync with the switch in app/model.go executePalette.
var paletteHints = []string{
	"start [plan] [hours]",
	"end",
	"adjust <15:04|90m ago|2006-01-02 15:04>",
	"calendar <2006-01>",
	"settings plan <16/8|18/6|20/4|OMAD|Custom>",
	"settings hours <n>",
	"settings 24h <on|off>",
	"export <path> [json|yaml]",
	"refresh",
}

// Palette is a one-line command prompt with hint completion and a short
// history of submitted commands.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int
	history []string
	recall  int
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "start 16/8, end, adjust 07:30…"
	ti.CharLimit = 256
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

// Open shows an empty prompt and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.recall = len(p.history)
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.remember(val)
			p.close()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		case "tab":
			if hints := matchingHints(p.input.Value()); len(hints) > 0 {
				p.input.SetValue(completion(hints[0]))
				p.input.CursorEnd()
			}
			return p, nil
		case "up":
			if p.recall > 0 {
				p.recall--
				p.input.SetValue(p.history[p.recall])
				p.input.CursorEnd()
			}
			return p, nil
		case "down":
			if p.recall < len(p.history) {
				p.recall++
				value := ""
				if p.recall < len(p.history) {
					value = p.history[p.recall]
				}
				p.input.SetValue(value)
				p.input.CursorEnd()
			}
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if hints := matchingHints(p.input.Value()); len(hints) > 0 {
		sb.WriteString("\n")
		for _, h := range hints {
			sb.WriteString(hintStyle.Render("  "+h) + "\n")
		}
		sb.WriteString(theme.Muted.Render("tab complete  ↑/↓ history  esc close"))
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

func (p *Palette) remember(value string) {
	if value == "" {
		return
	}
	if n := len(p.history); n > 0 && p.history[n-1] == value {
		return
	}
	p.history = append(p.history, value)
	if len(p.history) > maxHistory {
		p.history = p.history[len(p.history)-maxHistory:]
	}
}

// matchingHints returns hints that extend the typed text, or whose command
// word the typed text already starts with.
func matchingHints(typed string) []string {
	prefix := strings.ToLower(strings.TrimLeft(typed, " "))
	var out []string
	for _, h := range paletteHints {
		word := strings.Fields(h)[0]
		if prefix == "" || strings.HasPrefix(h, prefix) || strings.HasPrefix(prefix, word+" ") {
			out = append(out, h)
			if len(out) == maxHints {
				break
			}
		}
	}
	return out
}

// completion is the literal part of a hint, up to its first placeholder.
func completion(hint string) string {
	if i := strings.IndexAny(hint, "<["); i >= 0 {
		return hint[:i]
	}
	return hint
}
