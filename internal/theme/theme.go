package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme for the application
type Theme struct {
	Name string
	Dark bool

	// Text colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color

	// UI element colors
	Border       lipgloss.Color
	BorderActive lipgloss.Color
	Highlight    lipgloss.Color
}

var (
	Dark = Theme{
		Name:         "Emerald Night",
		Dark:         true,
		Primary:      lipgloss.Color("#f3f4f6"),
		Secondary:    lipgloss.Color("#9ca3af"),
		Accent:       lipgloss.Color("#34d399"),
		Muted:        lipgloss.Color("#6b7280"),
		Error:        lipgloss.Color("#f87171"),
		Success:      lipgloss.Color("#10b981"),
		Warning:      lipgloss.Color("#fbbf24"),
		Border:       lipgloss.Color("#1f2937"),
		BorderActive: lipgloss.Color("#10b981"),
		Highlight:    lipgloss.Color("#111827"),
	}

	Light = Theme{
		Name:         "Emerald Day",
		Primary:      lipgloss.Color("#111827"),
		Secondary:    lipgloss.Color("#4b5563"),
		Accent:       lipgloss.Color("#059669"),
		Muted:        lipgloss.Color("#6b7280"),
		Error:        lipgloss.Color("#dc2626"),
		Success:      lipgloss.Color("#16a34a"),
		Warning:      lipgloss.Color("#d97706"),
		Border:       lipgloss.Color("#e5e7eb"),
		BorderActive: lipgloss.Color("#059669"),
		Highlight:    lipgloss.Color("#e5e7eb"),
	}
)

// For returns the dark or light theme.
func For(dark bool) Theme {
	if dark {
		return Dark
	}
	return Light
}

// GlamourStyle names the glamour standard style matching the theme.
func (t Theme) GlamourStyle() string {
	if t.Dark {
		return "dark"
	}
	return "light"
}

// Styles are the lipgloss styles the views render with.
type Styles struct {
	Header      lipgloss.Style
	Title       lipgloss.Style
	Help        lipgloss.Style
	Error       lipgloss.Style
	Warning     lipgloss.Style
	Number      lipgloss.Style
	Arabic      lipgloss.Style
	Latin       lipgloss.Style
	Translation lipgloss.Style
	Selected    lipgloss.Style
	Playing     lipgloss.Style
	Muted       lipgloss.Style
	Modal       lipgloss.Style
}

func (t Theme) Styles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Accent).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		Title:       lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Help:        lipgloss.NewStyle().Foreground(t.Muted),
		Error:       lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Warning:     lipgloss.NewStyle().Foreground(t.Warning),
		Number:      lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Arabic:      lipgloss.NewStyle().Foreground(t.Primary),
		Latin:       lipgloss.NewStyle().Italic(true).Foreground(t.Secondary),
		Translation: lipgloss.NewStyle().Foreground(t.Primary),
		Selected:    lipgloss.NewStyle().Bold(true).Foreground(t.Accent).Background(t.Highlight),
		Playing:     lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Muted:       lipgloss.NewStyle().Foreground(t.Muted),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderActive).
			Padding(0, 1),
	}
}
