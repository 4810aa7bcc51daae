package tui

import "github.com/charmbracelet/lipgloss"

// palette holds the ANSI-256 colours the screens are drawn with.
type palette struct {
	accent lipgloss.Color
	muted  lipgloss.Color
	good   lipgloss.Color
	bad    lipgloss.Color
}

var defaultPalette = palette{
	accent: lipgloss.Color("39"),
	muted:  lipgloss.Color("245"),
	good:   lipgloss.Color("42"),
	bad:    lipgloss.Color("203"),
}

type Theme struct {
	Frame    lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Help     lipgloss.Style
	Card     lipgloss.Style
	Notice   lipgloss.Style
	Alert    lipgloss.Style
}

func DefaultTheme() Theme {
	return themeFrom(defaultPalette)
}

func themeFrom(p palette) Theme {
	return Theme{
		Frame:    lipgloss.NewStyle().Padding(1, 2),
		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		Subtitle: lipgloss.NewStyle().Italic(true).Foreground(p.muted),
		Help:     lipgloss.NewStyle().Foreground(p.muted),
		Card: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.accent),
		Notice: lipgloss.NewStyle().Foreground(p.good),
		Alert:  lipgloss.NewStyle().Bold(true).Foreground(p.bad),
	}
}

// toastStyle picks Alert for failures and Notice otherwise.
func (t Theme) toastStyle(failed bool) lipgloss.Style {
	if failed {
		return t.Alert
	}
	return t.Notice
}
