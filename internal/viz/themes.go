package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme of the live view.
type Theme struct {
	Name    string
	Orbit   lipgloss.Color
	Header  lipgloss.Color
	Label   lipgloss.Color
	Value   lipgloss.Color
	Graph   lipgloss.Color
	Muted   lipgloss.Color
	Regular lipgloss.Color
	Chaotic lipgloss.Color
}

var (
	ThemeNight = Theme{
		Name:    "night",
		Orbit:   lipgloss.Color("252"),
		Header:  lipgloss.Color("86"),
		Label:   lipgloss.Color("245"),
		Value:   lipgloss.Color("252"),
		Graph:   lipgloss.Color("49"),
		Muted:   lipgloss.Color("240"),
		Regular: lipgloss.Color("#00ff88"),
		Chaotic: lipgloss.Color("#ff4444"),
	}

	ThemeRetro = Theme{
		Name:    "retro",
		Orbit:   lipgloss.Color("#00ff00"),
		Header:  lipgloss.Color("#88ff88"),
		Label:   lipgloss.Color("#00aa00"),
		Value:   lipgloss.Color("#00ff00"),
		Graph:   lipgloss.Color("#00cc00"),
		Muted:   lipgloss.Color("#005500"),
		Regular: lipgloss.Color("#88ff88"),
		Chaotic: lipgloss.Color("#ffff00"),
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Orbit:   lipgloss.Color("#e0f0ff"),
		Header:  lipgloss.Color("#00a8cc"),
		Label:   lipgloss.Color("#4488aa"),
		Value:   lipgloss.Color("#e0f0ff"),
		Graph:   lipgloss.Color("#0077be"),
		Muted:   lipgloss.Color("#335577"),
		Regular: lipgloss.Color("#00ff88"),
		Chaotic: lipgloss.Color("#ff4444"),
	}

	Themes = []Theme{ThemeNight, ThemeRetro, ThemeOcean}
)

// GetTheme returns the named theme, falling back to night.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeNight
}

// nextTheme cycles through Themes.
func nextTheme(current string) Theme {
	for i, t := range Themes {
		if t.Name == current {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

type styles struct {
	canvas, stats, header, label, value, graph, help lipgloss.Style
	regular, chaotic                                 lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		canvas:  lipgloss.NewStyle().Foreground(t.Orbit).Padding(1, 2),
		stats:   lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(t.Muted).Padding(1, 2).Width(46),
		header:  lipgloss.NewStyle().Foreground(t.Header).Bold(true).MarginBottom(1),
		label:   lipgloss.NewStyle().Foreground(t.Label).Width(12),
		value:   lipgloss.NewStyle().Foreground(t.Value),
		graph:   lipgloss.NewStyle().Foreground(t.Graph).Padding(1, 0),
		help:    lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		regular: lipgloss.NewStyle().Foreground(t.Regular).Bold(true),
		chaotic: lipgloss.NewStyle().Foreground(t.Chaotic).Bold(true),
	}
}
