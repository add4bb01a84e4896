// Package styles provides the lipgloss styles for the light and dark themes.
package styles

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Background lipgloss.Color
	Surface    lipgloss.Color // log pane background
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// Theme names.
const (
	Light = "light"
	Dark  = "dark"
)

// DefaultTheme is the name of the default theme.
const DefaultTheme = Light

// themes holds the built-in named palettes.
var themes = map[string]Palette{
	Light: {
		Primary:    lipgloss.Color("#1565c0"),
		Foreground: lipgloss.Color("#000000"),
		Muted:      lipgloss.Color("#6b6b6b"),
		Background: lipgloss.Color("#f4f4f4"),
		Surface:    lipgloss.Color("#ffffff"),
		Success:    lipgloss.Color("#2e7d32"),
		Warning:    lipgloss.Color("#b26a00"),
		Error:      lipgloss.Color("#c62828"),
	},
	Dark: {
		Primary:    lipgloss.Color("#7aa2f7"),
		Foreground: lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#8a8a8a"),
		Background: lipgloss.Color("#1e1e1e"),
		Surface:    lipgloss.Color("#2b2b2b"),
		Success:    lipgloss.Color("#9ece6a"),
		Warning:    lipgloss.Color("#e0af68"),
		Error:      lipgloss.Color("#f7768e"),
	},
}

// ThemeNames returns sorted names of all built-in themes.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPalette returns the palette for the given theme name.
func GetPalette(name string) (Palette, bool) {
	p, ok := themes[name]
	return p, ok
}

// Next returns the theme after name, cycling through ThemeNames.
func Next(name string) string {
	names := ThemeNames()
	for i, n := range names {
		if n == name {
			return names[(i+1)%len(names)]
		}
	}
	return DefaultTheme
}

// Styles is the full set of styles for one theme.
type Styles struct {
	Name    string
	Palette Palette

	Title      lipgloss.Style
	Status     lipgloss.Style
	StatusWarn lipgloss.Style

	Button         lipgloss.Style
	ButtonSelected lipgloss.Style

	InputLabel lipgloss.Style
	Input      lipgloss.Style

	LogPane    lipgloss.Style
	LogCommand lipgloss.Style
	LogError   lipgloss.Style

	PagerTitle lipgloss.Style
	PagerPane  lipgloss.Style

	ModalStyle               lipgloss.Style
	ModalTitleStyle          lipgloss.Style
	ModalHelpStyle           lipgloss.Style
	ModalSuccessTitle        lipgloss.Style
	ModalErrorTitle          lipgloss.Style
	ModalWarningTitle        lipgloss.Style
	ModalButtonSelectedStyle lipgloss.Style

	Help lipgloss.Style
}

// New builds the styles for the named theme, falling back to DefaultTheme.
func New(name string) Styles {
	p, ok := themes[name]
	if !ok {
		name = DefaultTheme
		p = themes[name]
	}

	return Styles{
		Name:    name,
		Palette: p,

		Title: lipgloss.NewStyle().
			Foreground(p.Primary).
			Bold(true),
		Status: lipgloss.NewStyle().
			Foreground(p.Foreground),
		StatusWarn: lipgloss.NewStyle().
			Foreground(p.Warning),

		Button: lipgloss.NewStyle().
			Foreground(p.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Muted).
			Padding(0, 1),
		ButtonSelected: lipgloss.NewStyle().
			Foreground(p.Primary).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Padding(0, 1),

		InputLabel: lipgloss.NewStyle().
			Foreground(p.Muted),
		Input: lipgloss.NewStyle().
			Foreground(p.Foreground).
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.Muted).
			Padding(0, 1),

		LogPane: lipgloss.NewStyle().
			Foreground(p.Foreground).
			Background(p.Surface).
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.Muted),
		LogCommand: lipgloss.NewStyle().
			Foreground(p.Primary).
			Bold(true),
		LogError: lipgloss.NewStyle().
			Foreground(p.Error),

		PagerTitle: lipgloss.NewStyle().
			Foreground(p.Primary).
			Bold(true),
		PagerPane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary),

		ModalStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Padding(1, 2),
		ModalTitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Foreground),
		ModalHelpStyle: lipgloss.NewStyle().
			Foreground(p.Muted).
			MarginTop(1),
		ModalSuccessTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Success),
		ModalErrorTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Error),
		ModalWarningTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Warning),
		ModalButtonSelectedStyle: lipgloss.NewStyle().
			Padding(0, 1).
			Background(p.Primary).
			Foreground(p.Background).
			Bold(true),

		Help: lipgloss.NewStyle().
			Foreground(p.Muted),
	}
}
