package views

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/taskflow/internal/api"
	"github.com/tgienger/taskflow/internal/metrics"
	"github.com/tgienger/taskflow/internal/models"
	"github.com/tgienger/taskflow/internal/query"
	"github.com/tgienger/taskflow/internal/route"
	"github.com/tgienger/taskflow/internal/session"
	"github.com/tgienger/taskflow/internal/stats"
	"github.com/tgienger/taskflow/internal/ui/keys"
	"github.com/tgienger/taskflow/internal/ui/styles"
	"github.com/tgienger/taskflow/internal/validate"
)

// TaskAPI is the task half of the gateway
type TaskAPI interface {
	ListTasks(ctx context.Context, q url.Values) (api.TaskPage, error)
	CreateTask(ctx context.Context, in api.TaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, in api.TaskInput) (*models.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, s models.Status) error
	DeleteTask(ctx context.Context, id string) error
	BulkDeleteTasks(ctx context.Context, ids []string) error
	BulkUpdateStatus(ctx context.Context, ids []string, s models.Status) error
	ListComments(ctx context.Context, taskID string) ([]models.Comment, error)
	AddComment(ctx context.Context, taskID, text string) (*models.Comment, error)
}

// ProjectAPI is the project half of the gateway
type ProjectAPI interface {
	ListProjects(ctx context.Context, q url.Values) ([]models.Project, int, error)
	CreateProject(ctx context.Context, in api.ProjectInput) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) error
	ProjectStatistics(ctx context.Context) (stats.ProjectStats, error)
}

// TeamAPI covers invitations
type TeamAPI interface {
	MyInvitations(ctx context.Context) ([]models.Invitation, error)
	SendInvite(ctx context.Context, email string) error
	AcceptInvite(ctx context.Context, invitationID string) error
}

// ProfileAPI covers the settings pages
type ProfileAPI interface {
	GetProfile(ctx context.Context) (*models.Profile, error)
	UpdateUser(ctx context.Context, name string) (*models.User, error)
	RequestEmailChange(ctx context.Context, newEmail string) error
	VerifyEmailChange(ctx context.Context, newEmail, otp string) (*models.User, error)
	UpdateProfile(ctx context.Context, p models.Profile) (*models.Profile, error)
}

// Backend is everything the dashboard views call. *api.Client satisfies it.
type Backend interface {
	TaskAPI
	ProjectAPI
	TeamAPI
	ProfileAPI
}

// Deps is what every view is built from
type Deps struct {
	API      Backend
	Session  *session.Manager
	Metrics  *metrics.Metrics
	Log      *slog.Logger
	Now      func() time.Time
	PageSize int
	Debounce time.Duration
	Timeout  time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.PageSize <= 0 {
		d.PageSize = 10
	}
	if d.Timeout <= 0 {
		d.Timeout = 15 * time.Second
	}
	if d.Debounce <= 0 {
		d.Debounce = query.DefaultDebounce
	}
	return d
}

// call runs fn off the update loop with the request timeout applied
func (d Deps) call(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
		defer cancel()
		return fn(ctx)
	}
}

func (d Deps) user() *models.User {
	if d.Session == nil {
		return nil
	}
	return d.Session.State().User
}

func (d Deps) userName() string {
	if u := d.user(); u != nil {
		return u.Name
	}
	return ""
}

// Page is a routed view
type Page interface {
	tea.Model
	Route() string
}

// PageFor builds the view shown at path
func PageFor(path string, d Deps) Page {
	switch route.Path(path) {
	case route.Login:
		return NewLoginView(d, path)
	case route.Dashboard:
		return NewDashboardView(d, false)
	case route.Analytics:
		return NewDashboardView(d, true)
	case route.Projects:
		return NewProjectListView(d)
	case route.MyTasks, route.AssignedTasks, route.Kanban, route.Calendar:
		return NewTaskListView(d, path)
	case route.Team:
		return NewTeamView(d)
	case route.Settings, route.ProfileName, route.ProfileEmail, route.ProfileOther:
		return NewSettingsView(d, path)
	}
	return NewLandingView(path)
}

// Navigate asks the App to show another route
type Navigate struct {
	Path string
}

func navigate(path string) tea.Cmd {
	return func() tea.Msg { return Navigate{Path: path} }
}

// ToastKind picks the toast color
type ToastKind int

const (
	ToastInfo ToastKind = iota
	ToastSuccess
	ToastError
)

// Toast is a transient notification shown by the App
type Toast struct {
	Kind ToastKind
	Text string
}

func toast(kind ToastKind, format string, args ...any) tea.Cmd {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	return func() tea.Msg { return Toast{Kind: kind, Text: text} }
}

func errorToast(err error) tea.Cmd {
	return toast(ToastError, "%s", api.ErrorMessage(err))
}

// serverErrors converts the field messages of a rejected request
func serverErrors(err error) validate.Errors {
	errs := validate.Errors{}
	for field, msg := range api.FieldErrors(err) {
		errs.Add(field, msg)
	}
	return errs
}

// LogoutRequested asks the App to end the session
type LogoutRequested struct{}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func truncate(s string, n int) string {
	if n <= 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// helpLine renders "key desc • key desc"
func helpLine(s *styles.Styles, pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, s.HelpKey.Render(pairs[i])+" "+pairs[i+1])
	}
	return s.Help.Render(strings.Join(parts, " • "))
}

var defaultKeys = keys.DefaultKeyMap()
