package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskflow/internal/models"
)

// Palette is the set of colors every style is derived from
type Palette struct {
	Name string

	Base    lipgloss.Color
	Surface lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color

	Brand  lipgloss.Color
	Accent lipgloss.Color

	Good lipgloss.Color
	Warn lipgloss.Color
	Bad  lipgloss.Color

	Line      lipgloss.Color
	LineFocus lipgloss.Color
	Highlight lipgloss.Color
}

// Midnight is the default palette
var Midnight = Palette{
	Name: "Midnight",

	Base:    lipgloss.Color("#11131c"),
	Surface: lipgloss.Color("#1b1e2b"),
	Text:    lipgloss.Color("#d8dcf0"),
	Muted:   lipgloss.Color("#6b7194"),

	Brand:  lipgloss.Color("#8b7cf6"),
	Accent: lipgloss.Color("#5cc8e6"),

	Good: lipgloss.Color("#7fd18b"),
	Warn: lipgloss.Color("#f0b45e"),
	Bad:  lipgloss.Color("#f26d7d"),

	Line:      lipgloss.Color("#2f3450"),
	LineFocus: lipgloss.Color("#8b7cf6"),
	Highlight: lipgloss.Color("#2b2f4a"),
}

// Active is the palette NewStyles reads
var Active = Midnight

// MaxWidth caps the main column so wide terminals stay readable
const MaxWidth = 100

// SidebarWidth is the width of the dashboard navigation column
const SidebarWidth = 22

// ContentWidth returns min(terminalWidth, MaxWidth)
func ContentWidth(terminalWidth int) int {
	return min(terminalWidth, MaxWidth)
}

// Center places content in the middle of a w×h box
func Center(content string, w, h int) string {
	if w <= 0 || h <= 0 {
		return content
	}
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, content)
}

// Styles holds the pre-computed styles for the UI
type Styles struct {
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Muted      lipgloss.Style
	Error      lipgloss.Style
	FieldError lipgloss.Style

	Row         lipgloss.Style
	RowSelected lipgloss.Style
	RowPending  lipgloss.Style

	Card      lipgloss.Style
	CardValue lipgloss.Style
	CardLabel lipgloss.Style

	Input        lipgloss.Style
	InputFocused lipgloss.Style

	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style

	Panel lipgloss.Style

	Sidebar       lipgloss.Style
	SidebarItem   lipgloss.Style
	SidebarActive lipgloss.Style
	Footer        lipgloss.Style

	ToastInfo    lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastError   lipgloss.Style

	Help    lipgloss.Style
	HelpKey lipgloss.Style
}

// NewStyles derives styles from the active palette
func NewStyles() *Styles {
	p := Active

	toast := lipgloss.NewStyle().Padding(0, 1).Bold(true)

	return &Styles{
		Title:      lipgloss.NewStyle().Foreground(p.Brand).Bold(true),
		Subtitle:   lipgloss.NewStyle().Foreground(p.Accent),
		Muted:      lipgloss.NewStyle().Foreground(p.Muted),
		Error:      lipgloss.NewStyle().Foreground(p.Bad).Bold(true),
		FieldError: lipgloss.NewStyle().Foreground(p.Bad).PaddingLeft(1),

		Row:         lipgloss.NewStyle().Foreground(p.Text).Padding(0, 1),
		RowSelected: lipgloss.NewStyle().Foreground(p.Brand).Background(p.Highlight).Padding(0, 1).Bold(true),
		RowPending:  lipgloss.NewStyle().Foreground(p.Muted).Italic(true).Padding(0, 1),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Line).
			Padding(0, 2).
			MarginRight(1),
		CardValue: lipgloss.NewStyle().Foreground(p.Text).Bold(true),
		CardLabel: lipgloss.NewStyle().Foreground(p.Muted),

		Input: lipgloss.NewStyle().
			Foreground(p.Text).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Line).
			Padding(0, 1),
		InputFocused: lipgloss.NewStyle().
			Foreground(p.Text).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.LineFocus).
			Padding(0, 1),

		Button: lipgloss.NewStyle().
			Foreground(p.Text).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Line).
			Padding(0, 2),
		ButtonFocused: lipgloss.NewStyle().
			Foreground(p.Brand).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.LineFocus).
			Padding(0, 2).
			Bold(true),
		ButtonPrimary: lipgloss.NewStyle().
			Foreground(p.Base).
			Background(p.Brand).
			Padding(0, 2).
			Bold(true),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Line).
			Padding(0, 1),

		Sidebar: lipgloss.NewStyle().
			Width(SidebarWidth).
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(p.Line).
			Padding(1, 1),
		SidebarItem:   lipgloss.NewStyle().Foreground(p.Muted),
		SidebarActive: lipgloss.NewStyle().Foreground(p.Brand).Bold(true),
		Footer:        lipgloss.NewStyle().Foreground(p.Muted).Padding(1, 2),

		ToastInfo:    toast.Foreground(p.Base).Background(p.Accent),
		ToastSuccess: toast.Foreground(p.Base).Background(p.Good),
		ToastError:   toast.Foreground(p.Base).Background(p.Bad),

		Help:    lipgloss.NewStyle().Foreground(p.Muted).Padding(1, 1),
		HelpKey: lipgloss.NewStyle().Foreground(p.Brand).Bold(true),
	}
}

// StatusStyle colors a task status label
func StatusStyle(s models.Status) lipgloss.Style {
	switch s {
	case models.StatusCompleted:
		return lipgloss.NewStyle().Foreground(Active.Good)
	case models.StatusInProgress:
		return lipgloss.NewStyle().Foreground(Active.Accent)
	}
	return lipgloss.NewStyle().Foreground(Active.Muted)
}

// PriorityStyle colors a priority badge
func PriorityStyle(p models.Priority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch p {
	case models.PriorityHigh:
		return base.Foreground(Active.Bad)
	case models.PriorityMedium:
		return base.Foreground(Active.Warn)
	}
	return base.Foreground(Active.Good)
}

// OverdueStyle marks a past-due date
func OverdueStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Active.Bad).Bold(true)
}
