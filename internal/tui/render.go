package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/studiowebux/clicker/internal/connection"
	"github.com/studiowebux/clicker/internal/keybinds"
	"github.com/studiowebux/clicker/internal/toggle"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSelected = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#d3d3d3", Dark: "#3a3a3a"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"})

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)
)

func (m Model) renderWelcome() string {
	body := strings.Join([]string{
		styleTitle.Render("Clicker"),
		"",
		"A one-button remote for a host on your network.",
		"Each press flips the button and sends key_down or key_up to the host.",
		"",
		styleSubtle.Render("The last host you reach is remembered and reconnected automatically."),
		"",
		fmt.Sprintf("Press %s to continue", m.deps.Keys.GetBindingString(keybinds.ContextWelcome, keybinds.ActionContinue)),
	}, "\n")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCyan).
		Padding(1, 3).
		Render(body)

	return m.frame(box)
}

func (m Model) renderConnect() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Connect to host"))
	b.WriteString("\n\n")
	b.WriteString("Address: ")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if len(m.recent) == 0 {
		b.WriteString(styleSubtle.Render("No recent hosts"))
	} else {
		b.WriteString(styleSubtle.Render("Recent"))
		b.WriteString("\n")
		if len(m.matches) == 0 {
			b.WriteString(styleSubtle.Render("  no match"))
		}
		for i, entry := range m.matches {
			line := fmt.Sprintf("%-16s %s", entry.Name, styleSubtle.Render(entry.LastConnectedAt().Format("Jan 2 15:04")))
			if i == m.recentIndex {
				b.WriteString(styleSelected.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}

	if m.connectingTo != "" && m.connState == connection.Connecting {
		b.WriteString("\n")
		b.WriteString(styleWarning.Render("Connecting to " + m.connectingTo + "..."))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCyan).
		Padding(1, 2).
		Width(min(m.width-2, 72)).
		Render(b.String())

	return m.frame(box)
}

func (m Model) renderMain() string {
	button := m.renderButton()

	address := m.lastAddress
	if address == "" {
		address = m.deps.Connection.SessionAddress()
	}

	lines := []string{
		button,
		"",
		m.renderConnectionState() + "  " + styleSubtle.Render(address),
	}
	if m.lastMessage != "" {
		lines = append(lines, styleSubtle.Render("host: "+m.lastMessage))
	}

	return m.frame(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (m Model) renderButton() string {
	label := "OFF"
	color := colorGray
	if m.button == toggle.On {
		label = "ON"
		color = colorGreen
	}

	return lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(color).
		Foreground(color).
		Bold(true).
		Width(ButtonWidth).
		Height(ButtonHeight).
		Align(lipgloss.Center, lipgloss.Center).
		Render(label)
}

func (m Model) renderConnectionState() string {
	switch m.connState {
	case connection.Open:
		return styleSuccess.Render("● connected")
	case connection.Connecting:
		return styleWarning.Render("● connecting")
	case connection.Closed:
		if m.deps.Connection.ReconnectPending() {
			return styleWarning.Render("● reconnecting")
		}
		return styleError.Render("● disconnected")
	default:
		return styleError.Render("● disconnected")
	}
}

// frame centers content and appends the status bar
func (m Model) frame(content string) string {
	footer := m.renderStatusBar()
	height := m.height - lipgloss.Height(footer)
	if height < 1 {
		height = 1
	}

	body := lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, content)
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

func (m Model) renderStatusBar() string {
	left := styleSubtle.Render("clicker · " + m.view.String())

	var right string
	switch {
	case m.errorMsg != "":
		right = styleError.Render(m.errorMsg)
	case m.statusMsg != "":
		right = styleSuccess.Render(m.statusMsg)
	case m.showHelp:
		right = styleSubtle.Render(m.helpLine())
	default:
		right = styleSubtle.Render(fmt.Sprintf("%s for help", m.deps.Keys.GetBindingString(keybinds.ContextGlobal, keybinds.ActionShowHelp)))
	}

	spacing := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacing < 1 {
		spacing = 1
	}

	return left + strings.Repeat(" ", spacing) + right
}

// helpLine lists the bindings of the current view
func (m Model) helpLine() string {
	var parts []string
	for _, binding := range m.deps.Keys.ListBindings(m.context()) {
		if binding.Action == keybinds.ActionNoOp {
			continue
		}
		info := keybinds.GetActionInfo(binding.Action)
		parts = append(parts, fmt.Sprintf("%s %s", displayKey(binding.Key), strings.ToLower(info.Description)))
	}
	return strings.Join(parts, " | ")
}

func displayKey(key string) string {
	if key == " " {
		return "space"
	}
	return key
}
