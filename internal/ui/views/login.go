package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskflow/internal/api"
	"github.com/tgienger/taskflow/internal/route"
	"github.com/tgienger/taskflow/internal/ui/keys"
	"github.com/tgienger/taskflow/internal/ui/styles"
	"github.com/tgienger/taskflow/internal/validate"
)

type loginResult struct {
	err error
}

// LoginView signs the user in and continues to the redirect target
type LoginView struct {
	deps     Deps
	loginURL string
	styles   *styles.Styles
	keys     keys.KeyMap
	spinner  spinner.Model

	email    textinput.Model
	password textinput.Model
	focusIdx int // 0=email, 1=password, 2=submit

	submitting bool
	errors     validate.Errors
	message    string

	width  int
	height int
}

// NewLoginView creates the login page. loginURL is the full /login URL,
// including any redirect parameter.
func NewLoginView(d Deps, loginURL string) *LoginView {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &LoginView{
		deps:     d.withDefaults(),
		loginURL: loginURL,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		spinner:  sp,
		email:    email,
		password: password,
	}
}

func (v *LoginView) Route() string { return v.loginURL }

func (v *LoginView) Capturing() bool { return v.focusIdx < 2 }

// Submitting reports whether a login request is in flight
func (v *LoginView) Submitting() bool { return v.submitting }

// Message is the server's rejection message, if any
func (v *LoginView) Message() string { return v.message }

func (v *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case spinner.TickMsg:
		if !v.submitting {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case loginResult:
		v.submitting = false
		if msg.err != nil {
			v.errors = serverErrors(msg.err)
			v.message = api.ErrorMessage(msg.err)
			v.password.Reset()
			v.focusIdx = 1
			v.updateFocus()
			return v, nil
		}
		return v, tea.Batch(
			toast(ToastSuccess, "Welcome back, %s", v.deps.userName()),
			navigate(route.RedirectTarget(v.loginURL)),
		)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Back):
			if v.focusIdx > 0 {
				v.focusIdx = 0
				v.updateFocus()
				return v, nil
			}
			return v, navigate(route.Home)
		case msg.String() == "shift+tab", msg.String() == "up":
			v.focusIdx = (v.focusIdx + 2) % 3
			v.updateFocus()
			return v, nil
		case key.Matches(msg, v.keys.Tab), msg.String() == "down":
			v.focusIdx = (v.focusIdx + 1) % 3
			v.updateFocus()
			return v, nil
		case key.Matches(msg, v.keys.Save):
			return v, v.submit()
		case key.Matches(msg, v.keys.Enter):
			if v.focusIdx < 2 {
				v.focusIdx++
				v.updateFocus()
				if v.focusIdx < 2 {
					return v, nil
				}
			}
			return v, v.submit()
		case v.focusIdx == 2 && key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.email, cmd = v.email.Update(msg)
	case 1:
		v.password, cmd = v.password.Update(msg)
	}
	return v, cmd
}

func (v *LoginView) submit() tea.Cmd {
	if v.submitting {
		return nil
	}
	email := strings.TrimSpace(v.email.Value())
	password := v.password.Value()
	errs := validate.Login(email, password)
	if !errs.OK() {
		v.errors = errs
		v.message = ""
		return nil
	}
	v.errors = nil
	v.message = ""
	v.submitting = true
	return tea.Batch(v.spinner.Tick, v.deps.call(func(ctx context.Context) tea.Msg {
		_, err := v.deps.Session.Login(ctx, email, password)
		return loginResult{err: err}
	}))
}

func (v *LoginView) updateFocus() {
	v.email.Blur()
	v.password.Blur()
	switch v.focusIdx {
	case 0:
		v.email.Focus()
	case 1:
		v.password.Focus()
	}
}

// View renders the view
func (v *LoginView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 40)

	emailStyle, passStyle, btnStyle := s.Input, s.Input, s.Button
	switch v.focusIdx {
	case 0:
		emailStyle = s.InputFocused
	case 1:
		passStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}

	fieldErr := func(name string) string {
		if msg, ok := v.errors[name]; ok {
			return s.FieldError.Render(msg)
		}
		return ""
	}

	button := btnStyle.Render(" Log in ")
	if v.submitting {
		button = v.spinner.View() + " " + s.Muted.Render("Signing in...")
	}

	rows := []string{
		s.Title.Render("Log in to TaskFlow"),
		"",
		"Email:",
		emailStyle.Width(inputWidth).Render(v.email.View()),
		fieldErr("email"),
		"Password:",
		passStyle.Width(inputWidth).Render(v.password.View()),
		fieldErr("password"),
		"",
		button,
	}
	if v.message != "" {
		rows = append(rows, "", s.Error.Render(v.message))
	}
	rows = append(rows, "",
		s.Muted.Render("No account? Run `taskflow register`."),
		helpLine(s, "tab", "next", "↵", "log in", "esc", "back"),
	)
	form := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return styles.Center(form, contentWidth, max(v.height-2, 1))
}
