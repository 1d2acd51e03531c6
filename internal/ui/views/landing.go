package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskflow/internal/route"
	"github.com/tgienger/taskflow/internal/ui/keys"
	"github.com/tgienger/taskflow/internal/ui/styles"
)

type landingCopy struct {
	title string
	body  []string
}

// account flows that run through the command line
var landingPages = map[string]landingCopy{
	route.Home: {"TaskFlow", []string{
		"Plan projects, track tasks and work with your team.",
	}},
	route.Register: {"Create an account", []string{
		"Run `taskflow register --name NAME --email EMAIL`,",
		"then `taskflow verify-otp` with the code we email you.",
	}},
	route.VerifyOTP: {"Verify your email", []string{
		"Run `taskflow verify-otp --code 123456`.",
		"Lost the code? `taskflow resend-otp` sends a new one.",
	}},
	route.ForgotPassword: {"Forgot password", []string{
		"Run `taskflow forgot-password --email EMAIL` to get a reset link.",
	}},
	route.ResetPassword: {"Reset password", []string{
		"Run `taskflow reset-password --token TOKEN` with the token from the reset email.",
	}},
	route.About: {"About", []string{
		"TaskFlow is a task and project manager for small teams.",
	}},
	route.Contact: {"Contact", []string{
		"Reach us at hello@taskflow.example.",
	}},
	route.Support: {"Support", []string{
		"Check the docs or write to support@taskflow.example.",
	}},
}

// LandingView renders the public pages
type LandingView struct {
	path   string
	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int
}

func NewLandingView(path string) *LandingView {
	return &LandingView{path: path, styles: styles.NewStyles(), keys: keys.DefaultKeyMap()}
}

func (v *LandingView) Route() string { return v.path }

func (v *LandingView) Init() tea.Cmd { return nil }

func (v *LandingView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Login), key.Matches(msg, v.keys.Enter):
			return v, navigate(route.Login)
		case key.Matches(msg, v.keys.Back):
			if route.Path(v.path) != route.Home {
				return v, navigate(route.Home)
			}
		}
	}
	return v, nil
}

func (v *LandingView) View() string {
	s := v.styles
	p := route.Path(v.path)
	page, ok := landingPages[p]
	switch {
	case ok:
	case strings.HasPrefix(p, "/features/"):
		page = landingCopy{"Features: " + strings.TrimPrefix(p, "/features/"), []string{"Everything you need to ship on time."}}
	default:
		page = landingCopy{"Page not found", []string{"Nothing lives at " + p + "."}}
	}

	rows := []string{s.Title.Render(page.title), ""}
	for _, line := range page.body {
		rows = append(rows, s.Muted.Render(line))
	}
	rows = append(rows, "", s.ButtonPrimary.Render(" Log in "), "", helpLine(s, "L/↵", "log in", "q", "quit"))
	content := lipgloss.JoinVertical(lipgloss.Center, rows...)
	return styles.Center(content, styles.ContentWidth(v.width), max(v.height-2, 1))
}
