package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskflow/internal/models"
	"github.com/tgienger/taskflow/internal/route"
	"github.com/tgienger/taskflow/internal/ui/keys"
	"github.com/tgienger/taskflow/internal/ui/styles"
	"github.com/tgienger/taskflow/internal/validate"
)

// SettingsSection is one tab of the settings page
type SettingsSection int

const (
	SectionName SettingsSection = iota
	SectionEmail
	SectionOther
	sectionCount
)

var sectionTitles = [...]string{"Name", "Email", "Profile"}

// SectionFor maps a settings route to its tab
func SectionFor(p string) SettingsSection {
	switch route.Path(p) {
	case route.ProfileEmail:
		return SectionEmail
	case route.ProfileOther:
		return SectionOther
	}
	return SectionName
}

type profileLoaded struct {
	profile *models.Profile
	err     error
}

type nameSaved struct {
	user *models.User
	err  error
}

type emailRequested struct {
	email string
	err   error
}

type emailVerified struct {
	user *models.User
	err  error
}

type profileSaved struct {
	profile *models.Profile
	err     error
}

// SettingsView edits the user's name, email and other profile fields
type SettingsView struct {
	deps    Deps
	path    string
	styles  *styles.Styles
	keys    keys.KeyMap
	spinner spinner.Model

	section    SettingsSection
	editing    bool
	submitting bool
	focus      int
	errors     validate.Errors

	name textinput.Model

	newEmail     textinput.Model
	otp          textinput.Model
	pendingEmail string // set once a code was sent

	// bio, phone, location, company
	other          [4]textinput.Model
	profile        models.Profile
	profileReady   bool // fields hold the server's values
	profileLoading bool

	width  int
	height int
}

var otherLabels = [4]string{"Bio", "Phone", "Location", "Company"}

func NewSettingsView(d Deps, path string) *SettingsView {
	d = d.withDefaults()

	name := textinput.New()
	name.Placeholder = "Your name"
	name.CharLimit = 50

	newEmail := textinput.New()
	newEmail.Placeholder = "new@example.com"
	newEmail.CharLimit = 254

	otp := textinput.New()
	otp.Placeholder = "6 digit code"
	otp.CharLimit = 6

	var other [4]textinput.Model
	for i, label := range otherLabels {
		other[i] = textinput.New()
		other[i].Placeholder = label
		other[i].CharLimit = 200
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	v := &SettingsView{
		deps:     d,
		path:     path,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		spinner:  sp,
		section:  SectionFor(path),
		name:     name,
		newEmail: newEmail,
		otp:      otp,
		other:    other,
	}
	if u := d.user(); u != nil {
		v.name.SetValue(u.Name)
	}
	return v
}

func (v *SettingsView) Route() string { return v.path }

func (v *SettingsView) Capturing() bool { return v.editing }

// Section is the tab being shown
func (v *SettingsView) Section() SettingsSection { return v.section }

func (v *SettingsView) Init() tea.Cmd {
	return v.loadProfile()
}

func (v *SettingsView) loadProfile() tea.Cmd {
	v.profileLoading = true
	return v.deps.call(func(ctx context.Context) tea.Msg {
		p, err := v.deps.API.GetProfile(ctx)
		return profileLoaded{profile: p, err: err}
	})
}

func (v *SettingsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height

	case spinner.TickMsg:
		if !v.submitting {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case profileLoaded:
		v.profileLoading = false
		if msg.err != nil {
			v.deps.Log.Warn("profile load failed", "err", msg.err)
			return v, errorToast(msg.err)
		}
		if msg.profile != nil {
			v.setProfile(*msg.profile)
		}
		v.profileReady = true

	case nameSaved:
		v.submitting = false
		if msg.err != nil {
			v.errors = serverErrors(msg.err)
			return v, errorToast(msg.err)
		}
		v.editing = false
		v.refreshUser(msg.user)
		return v, toast(ToastSuccess, "Name updated")

	case emailRequested:
		v.submitting = false
		if msg.err != nil {
			v.errors = serverErrors(msg.err)
			return v, errorToast(msg.err)
		}
		v.pendingEmail = msg.email
		v.focus = 1
		v.updateFocus()
		return v, toast(ToastInfo, "We sent a code to %s", msg.email)

	case emailVerified:
		v.submitting = false
		if msg.err != nil {
			v.errors = serverErrors(msg.err)
			return v, errorToast(msg.err)
		}
		v.editing = false
		v.pendingEmail = ""
		v.newEmail.Reset()
		v.otp.Reset()
		v.refreshUser(msg.user)
		return v, toast(ToastSuccess, "Email updated")

	case profileSaved:
		v.submitting = false
		if msg.err != nil {
			v.errors = serverErrors(msg.err)
			return v, errorToast(msg.err)
		}
		v.editing = false
		if msg.profile != nil {
			v.setProfile(*msg.profile)
		}
		return v, toast(ToastSuccess, "Profile updated")

	case tea.KeyMsg:
		if v.editing {
			return v, v.updateEditing(msg)
		}
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Left):
			v.section = (v.section + sectionCount - 1) % sectionCount
			v.errors = nil
		case key.Matches(msg, v.keys.Right), key.Matches(msg, v.keys.Tab):
			v.section = (v.section + 1) % sectionCount
			v.errors = nil
		case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Edit):
			if v.section == SectionOther && !v.profileReady {
				if v.profileLoading {
					return v, toast(ToastInfo, "Your profile is still loading")
				}
				return v, v.loadProfile()
			}
			v.editing = true
			v.focus = 0
			if v.section == SectionEmail && v.pendingEmail != "" {
				v.focus = 1
			}
			v.updateFocus()
			return v, textinput.Blink
		}
	}
	return v, nil
}

func (v *SettingsView) refreshUser(u *models.User) {
	if u == nil || v.deps.Session == nil {
		return
	}
	v.deps.Session.UpdateUser(*u)
	v.name.SetValue(u.Name)
}

func (v *SettingsView) setProfile(p models.Profile) {
	v.profile = p
	for i, val := range []string{p.Bio, p.Phone, p.Location, p.Company} {
		v.other[i].SetValue(val)
	}
}

func (v *SettingsView) fieldCount() int {
	switch v.section {
	case SectionEmail:
		return 2
	case SectionOther:
		return len(v.other)
	}
	return 1
}

func (v *SettingsView) updateFocus() {
	v.name.Blur()
	v.newEmail.Blur()
	v.otp.Blur()
	for i := range v.other {
		v.other[i].Blur()
	}
	if !v.editing {
		return
	}
	switch v.section {
	case SectionName:
		v.name.Focus()
	case SectionEmail:
		if v.focus == 0 {
			v.newEmail.Focus()
		} else {
			v.otp.Focus()
		}
	case SectionOther:
		v.other[v.focus].Focus()
	}
}

func (v *SettingsView) updateEditing(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		v.errors = nil
		v.updateFocus()
		return nil
	case key.Matches(msg, v.keys.Tab):
		v.focus = (v.focus + 1) % v.fieldCount()
		v.updateFocus()
		return nil
	case msg.String() == "shift+tab":
		v.focus = (v.focus + v.fieldCount() - 1) % v.fieldCount()
		v.updateFocus()
		return nil
	case key.Matches(msg, v.keys.Save), key.Matches(msg, v.keys.Enter):
		if v.submitting {
			return nil
		}
		return v.submit()
	}

	var cmd tea.Cmd
	switch v.section {
	case SectionName:
		v.name, cmd = v.name.Update(msg)
	case SectionEmail:
		if v.focus == 0 {
			v.newEmail, cmd = v.newEmail.Update(msg)
		} else {
			v.otp, cmd = v.otp.Update(msg)
		}
	case SectionOther:
		v.other[v.focus], cmd = v.other[v.focus].Update(msg)
	}
	return cmd
}

// submit validates the visible section and sends it
func (v *SettingsView) submit() tea.Cmd {
	errs := validate.Errors{}
	var run func(ctx context.Context) tea.Msg

	switch v.section {
	case SectionName:
		name := strings.TrimSpace(v.name.Value())
		errs.Name("name", name)
		run = func(ctx context.Context) tea.Msg {
			u, err := v.deps.API.UpdateUser(ctx, name)
			return nameSaved{user: u, err: err}
		}

	case SectionEmail:
		addr := strings.TrimSpace(v.newEmail.Value())
		if v.pendingEmail == "" || addr != v.pendingEmail {
			errs.Email("email", addr)
			run = func(ctx context.Context) tea.Msg {
				return emailRequested{email: addr, err: v.deps.API.RequestEmailChange(ctx, addr)}
			}
			break
		}
		code := strings.TrimSpace(v.otp.Value())
		errs.OTP("otp", code)
		run = func(ctx context.Context) tea.Msg {
			u, err := v.deps.API.VerifyEmailChange(ctx, addr, code)
			return emailVerified{user: u, err: err}
		}

	case SectionOther:
		// never overwrite the server's profile with fields it did not fill
		if !v.profileReady {
			return nil
		}
		p := models.Profile{
			Bio:      strings.TrimSpace(v.other[0].Value()),
			Phone:    strings.TrimSpace(v.other[1].Value()),
			Location: strings.TrimSpace(v.other[2].Value()),
			Company:  strings.TrimSpace(v.other[3].Value()),
		}
		run = func(ctx context.Context) tea.Msg {
			saved, err := v.deps.API.UpdateProfile(ctx, p)
			return profileSaved{profile: saved, err: err}
		}
	}

	if !errs.OK() {
		v.errors = errs
		return nil
	}
	v.errors = nil
	v.submitting = true
	return tea.Batch(v.spinner.Tick, v.deps.call(run))
}

// View renders the view
func (v *SettingsView) View() string {
	s := v.styles
	width := clamp(styles.ContentWidth(v.width)-6, 20, 50)

	tabs := make([]string, 0, sectionCount)
	for i, t := range sectionTitles {
		if SettingsSection(i) == v.section {
			tabs = append(tabs, s.ButtonFocused.Render(t))
		} else {
			tabs = append(tabs, s.Button.Render(t))
		}
	}

	input := func(m textinput.Model, focused bool) string {
		st := s.Input
		if focused {
			st = s.InputFocused
		}
		return st.Width(width).Render(m.View())
	}
	fieldErr := func(name string) string {
		if msg, ok := v.errors[name]; ok {
			return s.FieldError.Render(msg)
		}
		return ""
	}

	rows := []string{s.Title.Render("Settings"), lipgloss.JoinHorizontal(lipgloss.Top, tabs...), ""}

	switch v.section {
	case SectionName:
		rows = append(rows, "Display name:", input(v.name, v.editing), fieldErr("name"))

	case SectionEmail:
		current := ""
		if u := v.deps.user(); u != nil {
			current = u.Email
		}
		rows = append(rows,
			s.Muted.Render("Current: "+current),
			"New email:",
			input(v.newEmail, v.editing && v.focus == 0),
			fieldErr("email"),
		)
		if v.pendingEmail != "" {
			rows = append(rows,
				"Verification code:",
				input(v.otp, v.editing && v.focus == 1),
				fieldErr("otp"),
			)
		}

	case SectionOther:
		if !v.profileReady {
			msg := "Could not load your profile. Press enter to retry."
			if v.profileLoading {
				msg = "Loading profile..."
			}
			rows = append(rows, s.Muted.Render(msg))
			break
		}
		for i, label := range otherLabels {
			rows = append(rows, label+":", input(v.other[i], v.editing && v.focus == i))
		}
		for _, field := range []string{"bio", "phone", "location", "company"} {
			if msg := fieldErr(field); msg != "" {
				rows = append(rows, msg)
			}
		}
	}

	if v.submitting {
		rows = append(rows, v.spinner.View()+" "+s.Muted.Render("Saving..."))
	}
	if v.editing {
		rows = append(rows, helpLine(s, "tab", "next", "↵", "save", "esc", "done"))
	} else {
		rows = append(rows, helpLine(s, "←/→", "section", "↵", "edit", "ctrl+x", "log out", "q", "quit"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
