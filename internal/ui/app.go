package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskflow/internal/api"
	"github.com/tgienger/taskflow/internal/db"
	"github.com/tgienger/taskflow/internal/route"
	"github.com/tgienger/taskflow/internal/session"
	"github.com/tgienger/taskflow/internal/ui/keys"
	"github.com/tgienger/taskflow/internal/ui/styles"
	"github.com/tgienger/taskflow/internal/ui/views"
)

// ToastDuration is how long a notification stays on screen
const ToastDuration = 4 * time.Second

// SessionExpiredMessage is shown when an authenticated call answers 401
const SessionExpiredMessage = "Your session has expired. Please log in again."

// SettingsStore persists small UI settings such as the last route
type SettingsStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// sidebarRoutes are reachable with the digit keys, in order
var sidebarRoutes = []struct {
	path  string
	label string
}{
	{route.Dashboard, "Dashboard"},
	{route.MyTasks, "My Tasks"},
	{route.AssignedTasks, "Assigned"},
	{route.Kanban, "Kanban"},
	{route.Calendar, "Calendar"},
	{route.Projects, "Projects"},
	{route.Team, "Team"},
	{route.Analytics, "Analytics"},
	{route.Settings, "Settings"},
}

// scopedMsg is a page message tagged with the page instance that asked
// for it
type scopedMsg struct {
	view int
	msg  tea.Msg
}

// eventMsg carries something pushed from outside the update loop
type eventMsg struct{ msg tea.Msg }

// sessionChanged triggers the guard; the state is read fresh from the
// manager so out-of-order deliveries are harmless
type sessionChanged struct{}

type notice struct {
	kind views.ToastKind
	text string
}

type toastExpired struct{ id int }

type logoutDone struct{ err error }

// App is the root model: it owns routing, the session gate, toasts and
// the layout around the current page
type App struct {
	deps   views.Deps
	sess   *session.Manager
	store  SettingsStore
	events chan tea.Msg

	path    string
	page    views.Page
	pageID  int
	session session.State

	toast   *views.Toast
	toastID int

	styles  *styles.Styles
	keys    keys.KeyMap
	spinner spinner.Model
	width   int
	height  int
}

// Option configures an App
type Option func(*App)

// WithStore persists and restores the last route
func WithStore(s SettingsStore) Option {
	return func(a *App) { a.store = s }
}

// WithStartRoute opens path instead of the last or default route
func WithStartRoute(path string) Option {
	return func(a *App) {
		if path != "" {
			a.path = path
		}
	}
}

// NewApp creates the application. deps.Session must be set.
func NewApp(deps views.Deps, opts ...Option) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	a := &App{
		deps:    deps,
		sess:    deps.Session,
		events:  make(chan tea.Msg, 64),
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		spinner: sp,
		session: session.State{Loading: true},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.path == "" {
		a.path = a.lastRoute()
	}
	if a.deps.Log == nil {
		a.deps.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a.sess.SetRoute(route.Path(a.path))
	a.sess.Subscribe(func(session.State) { a.send(sessionChanged{}) })
	return a
}

// Notify shows text as an info toast. It is safe to call from any goroutine.
func (a *App) Notify(text string) {
	if a == nil {
		return
	}
	a.send(notice{kind: views.ToastInfo, text: text})
}

// SessionExpired drops the session after a 401; wire it to the API
// client's unauthorized hook
func (a *App) SessionExpired() {
	if a == nil {
		return
	}
	a.sess.Invalidate()
	a.send(notice{kind: views.ToastError, text: SessionExpiredMessage})
}

func (a *App) send(msg tea.Msg) {
	select {
	case a.events <- msg:
	default:
		a.deps.Log.Warn("event queue full, dropping", "msg", fmt.Sprintf("%T", msg))
	}
}

func (a *App) listen() tea.Msg {
	return eventMsg{msg: <-a.events}
}

// Path is the route being shown
func (a *App) Path() string { return a.path }

// Page is the mounted page, nil while the gate is still deciding
func (a *App) Page() views.Page { return a.page }

func (a *App) lastRoute() string {
	if a.store != nil {
		if p, err := a.store.GetSetting(db.SettingLastRoute); err == nil && route.IsProtected(p) {
			return p
		}
	}
	return route.Dashboard
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.listen, a.verify(), a.spinner.Tick)
}

func (a *App) verify() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.sess.Verify(ctx)
		return sessionChanged{}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, a.resizePage()

	case eventMsg:
		_, cmd := a.Update(msg.msg)
		return a, tea.Batch(cmd, a.listen)

	case scopedMsg:
		if a.page == nil || msg.view != a.pageID {
			a.deps.Log.Debug("dropping message for unmounted view", "view", msg.view, "msg", fmt.Sprintf("%T", msg.msg))
			return a, nil
		}
		return a, a.forward(msg.msg)

	case spinner.TickMsg:
		if a.page != nil {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case sessionChanged:
		return a, a.enforce()

	case notice:
		return a, a.showToast(views.Toast{Kind: msg.kind, Text: msg.text})

	case views.Toast:
		return a, a.showToast(msg)

	case toastExpired:
		if msg.id == a.toastID {
			a.toast = nil
		}
		return a, nil

	case views.Navigate:
		return a, a.navigate(msg.Path)

	case views.LogoutRequested:
		return a, a.logout()

	case logoutDone:
		cmds := []tea.Cmd{a.navigate(route.Login)}
		if msg.err != nil {
			a.deps.Log.Warn("remote logout failed", "err", msg.err)
			cmds = append(cmds, a.showToast(views.Toast{
				Kind: views.ToastError,
				Text: "Logged out on this device, but the server said: " + api.ErrorMessage(msg.err),
			}))
		} else {
			cmds = append(cmds, a.showToast(views.Toast{Kind: views.ToastSuccess, Text: "Logged out"}))
		}
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}

	if a.page != nil {
		return a, a.forward(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if a.page == nil {
		if key.Matches(msg, a.keys.Quit) {
			return tea.Quit
		}
		return nil
	}
	if c, ok := a.page.(interface{ Capturing() bool }); ok && c.Capturing() {
		return a.forward(msg)
	}

	if a.session.Authenticated {
		if key.Matches(msg, a.keys.Logout) {
			return a.logout()
		}
		if a.chrome().Sidebar {
			if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
				if i := int(s[0] - '1'); i < len(sidebarRoutes) {
					return a.navigate(sidebarRoutes[i].path)
				}
			}
		}
	}
	return a.forward(msg)
}

func (a *App) forward(msg tea.Msg) tea.Cmd {
	_, cmd := a.page.Update(msg)
	return a.scope(cmd)
}

// scope tags every message cmd produces with the current page id, so a
// response that arrives after the page was replaced is dropped
func (a *App) scope(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	id := a.pageID
	return func() tea.Msg { return wrap(id, cmd()) }
}

func wrap(id int, msg tea.Msg) tea.Msg {
	switch m := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		out := make(tea.BatchMsg, 0, len(m))
		for _, c := range m {
			c := c
			if c == nil {
				continue
			}
			out = append(out, func() tea.Msg { return wrap(id, c()) })
		}
		return out
	case tea.QuitMsg, views.Navigate, views.Toast, views.LogoutRequested:
		// app-level messages outlive the page that sent them
		return m
	}
	return scopedMsg{view: id, msg: msg}
}

// enforce applies the route guard to the current path
func (a *App) enforce() tea.Cmd {
	a.session = a.sess.State()
	decision, target := route.Guard(a.path, a.session.Route())
	switch decision {
	case route.Wait:
		a.page = nil
		return a.spinner.Tick
	case route.Redirect:
		a.deps.Log.Debug("redirect", "from", a.path, "to", target)
		if route.Path(a.path) == route.Login {
			// signed in from the login page; the page's own result may
			// arrive after it is unmounted
			name := "there"
			if u := a.session.User; u != nil {
				name = u.Name
			}
			return tea.Batch(
				a.navigate(route.RedirectTarget(a.path)),
				a.showToast(views.Toast{Kind: views.ToastSuccess, Text: "Welcome back, " + name}),
			)
		}
		return a.navigate(target)
	}
	if a.page != nil && a.page.Route() == a.path {
		return nil
	}
	return a.mount()
}

func (a *App) navigate(path string) tea.Cmd {
	a.path = path
	a.page = nil
	return a.enforce()
}

func (a *App) mount() tea.Cmd {
	a.pageID++
	a.page = views.PageFor(a.path, a.deps)
	a.sess.SetRoute(route.Path(a.path))
	a.deps.Log.Debug("mount", "path", a.path, "view", a.pageID)

	if a.store != nil && route.IsProtected(a.path) {
		if err := a.store.SetSetting(db.SettingLastRoute, a.path); err != nil {
			a.deps.Log.Warn("failed to save last route", "err", err)
		}
	}
	return tea.Batch(a.scope(a.page.Init()), a.resizePage())
}

func (a *App) resizePage() tea.Cmd {
	if a.page == nil || a.width == 0 {
		return nil
	}
	w, h := a.pageSize()
	return a.forward(tea.WindowSizeMsg{Width: w, Height: h})
}

func (a *App) chrome() route.Chrome {
	return route.ChromeFor(a.path, a.session.Route())
}

// pageSize is the area left for the page after the chrome
func (a *App) pageSize() (int, int) {
	c := a.chrome()
	w, h := a.width, a.height-1 // toast line
	if c.Sidebar {
		w -= styles.SidebarWidth + 1
	}
	if c.Footer {
		h -= 3
	}
	return max(w, 20), max(h, 5)
}

func (a *App) showToast(t views.Toast) tea.Cmd {
	a.toast = &t
	a.toastID++
	id := a.toastID
	return tea.Tick(ToastDuration, func(time.Time) tea.Msg { return toastExpired{id: id} })
}

func (a *App) logout() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return logoutDone{err: a.sess.Logout(ctx)}
	}
}

func (a *App) View() string {
	s := a.styles

	if a.page == nil {
		text := "Redirecting..."
		if a.session.Loading {
			text = "Checking your session..."
			if u := a.sess.CachedUser(); u != nil {
				text = "Welcome back, " + u.Name + ". Checking your session..."
			}
		}
		return styles.Center(a.spinner.View()+" "+s.Muted.Render(text), a.width, a.height)
	}

	c := a.chrome()
	body := a.page.View()
	if c.Sidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, a.renderSidebar(), body)
	}

	parts := []string{a.renderToast(), body}
	if c.Footer {
		parts = append(parts, s.Footer.Render("TaskFlow • about • contact • support"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderToast() string {
	if a.toast == nil {
		return ""
	}
	st := a.styles.ToastInfo
	switch a.toast.Kind {
	case views.ToastSuccess:
		st = a.styles.ToastSuccess
	case views.ToastError:
		st = a.styles.ToastError
	}
	return st.Render(a.toast.Text)
}

func (a *App) renderSidebar() string {
	s := a.styles
	current := route.Path(a.path)
	lines := []string{s.Title.Render("TaskFlow"), ""}
	for i, r := range sidebarRoutes {
		label := fmt.Sprintf("%d %s", i+1, r.label)
		active := current == r.path ||
			(r.path == route.Settings && strings.HasPrefix(current, "/profile/"))
		if active {
			lines = append(lines, s.SidebarActive.Render("› "+label))
		} else {
			lines = append(lines, s.SidebarItem.Render("  "+label))
		}
	}
	if u := a.session.User; u != nil {
		lines = append(lines, "", s.Muted.Render(truncate(u.Name, styles.SidebarWidth-2)))
	}
	lines = append(lines, s.Muted.Render("ctrl+x log out"))
	return s.Sidebar.Height(max(a.height-1, 1)).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:max(n-1, 0)]) + "…"
}
