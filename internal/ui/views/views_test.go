package views

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskflow/internal/api"
	"github.com/tgienger/taskflow/internal/models"
	"github.com/tgienger/taskflow/internal/session"
	"github.com/tgienger/taskflow/internal/stats"
)

var june1 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeBackend is an in-memory gateway. Hooks override the default
// behavior of a call; nil hooks succeed.
type fakeBackend struct {
	mu sync.Mutex

	tasks    []models.Task
	total    int
	listFn   func(q url.Values) (api.TaskPage, error)
	listed   []url.Values
	createFn func(in api.TaskInput) (*models.Task, error)
	editErr  error
	statuses map[string]models.Status
	delErr   error
	bulkErr  error
	bulkIDs  []string

	comments   map[string][]models.Comment
	commentErr error

	projects   []models.Project
	projectErr error
	projStats  stats.ProjectStats

	invitations []models.Invitation
	acceptErr   error
	inviteErr   error
	invited     []string

	profile       models.Profile
	profileErr    error
	updateUserErr error
	emailRequests []string
}

func newFakeBackend(tasks ...models.Task) *fakeBackend {
	return &fakeBackend{
		tasks:    tasks,
		statuses: map[string]models.Status{},
		comments: map[string][]models.Comment{},
	}
}

func (f *fakeBackend) ListTasks(_ context.Context, q url.Values) (api.TaskPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, q)
	if f.listFn != nil {
		return f.listFn(q)
	}
	total := f.total
	if total == 0 {
		total = len(f.tasks)
	}
	return api.TaskPage{Tasks: append([]models.Task(nil), f.tasks...), Total: total}, nil
}

func (f *fakeBackend) lastQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.listed) == 0 {
		return nil
	}
	return f.listed[len(f.listed)-1]
}

func (f *fakeBackend) CreateTask(_ context.Context, in api.TaskInput) (*models.Task, error) {
	if f.createFn != nil {
		return f.createFn(in)
	}
	return &models.Task{ID: "srv-1", Title: in.Title, Priority: in.Priority, Status: in.Status, DueDate: in.DueDate}, nil
}

func (f *fakeBackend) UpdateTask(_ context.Context, id string, in api.TaskInput) (*models.Task, error) {
	if f.editErr != nil {
		return nil, f.editErr
	}
	return &models.Task{ID: id, Title: in.Title, Priority: in.Priority, Status: in.Status, DueDate: in.DueDate}, nil
}

func (f *fakeBackend) UpdateTaskStatus(_ context.Context, id string, s models.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.statuses[id] = s
	return nil
}

func (f *fakeBackend) DeleteTask(context.Context, string) error { return f.delErr }

func (f *fakeBackend) BulkDeleteTasks(_ context.Context, ids []string) error {
	f.bulkIDs = ids
	return f.bulkErr
}

func (f *fakeBackend) BulkUpdateStatus(_ context.Context, ids []string, _ models.Status) error {
	f.bulkIDs = ids
	return f.bulkErr
}

func (f *fakeBackend) ListComments(_ context.Context, taskID string) ([]models.Comment, error) {
	return f.comments[taskID], nil
}

func (f *fakeBackend) AddComment(_ context.Context, taskID, text string) (*models.Comment, error) {
	if f.commentErr != nil {
		return nil, f.commentErr
	}
	return &models.Comment{ID: "c-srv", TaskID: taskID, Text: text, CreatedBy: "Ada", CreatedAt: june1}, nil
}

func (f *fakeBackend) ListProjects(context.Context, url.Values) ([]models.Project, int, error) {
	return f.projects, len(f.projects), nil
}

func (f *fakeBackend) CreateProject(_ context.Context, in api.ProjectInput) (*models.Project, error) {
	if f.projectErr != nil {
		return nil, f.projectErr
	}
	return &models.Project{ID: "p-srv", Name: in.Name, Status: in.Status}, nil
}

func (f *fakeBackend) DeleteProject(context.Context, string) error { return f.projectErr }

func (f *fakeBackend) ProjectStatistics(context.Context) (stats.ProjectStats, error) {
	return f.projStats, nil
}

func (f *fakeBackend) MyInvitations(context.Context) ([]models.Invitation, error) {
	return f.invitations, nil
}

func (f *fakeBackend) SendInvite(_ context.Context, email string) error {
	if f.inviteErr != nil {
		return f.inviteErr
	}
	f.invited = append(f.invited, email)
	return nil
}

func (f *fakeBackend) AcceptInvite(context.Context, string) error { return f.acceptErr }

func (f *fakeBackend) GetProfile(context.Context) (*models.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	p := f.profile
	return &p, nil
}

func (f *fakeBackend) UpdateUser(_ context.Context, name string) (*models.User, error) {
	if f.updateUserErr != nil {
		return nil, f.updateUserErr
	}
	return &models.User{ID: "u1", Name: name, Email: "ada@example.com"}, nil
}

func (f *fakeBackend) RequestEmailChange(_ context.Context, email string) error {
	f.emailRequests = append(f.emailRequests, email)
	return nil
}

func (f *fakeBackend) VerifyEmailChange(_ context.Context, email, otp string) (*models.User, error) {
	if otp != "123456" {
		return nil, &api.Error{Status: 400, Message: "Invalid or expired code"}
	}
	return &models.User{ID: "u1", Name: "Ada", Email: email}, nil
}

func (f *fakeBackend) UpdateProfile(_ context.Context, p models.Profile) (*models.Profile, error) {
	f.profile = p
	return &p, nil
}

// fakeGateway authenticates a fixed user
type fakeGateway struct {
	user     *models.User
	loginErr error
}

func (g *fakeGateway) Protected(context.Context) (*models.User, error) {
	if g.user == nil {
		return nil, api.ErrUnauthorized
	}
	return g.user, nil
}

func (g *fakeGateway) Login(_ context.Context, email, _ string) (*models.User, error) {
	if g.loginErr != nil {
		return nil, g.loginErr
	}
	g.user = &models.User{ID: "u1", Name: "Ada", Email: email}
	return g.user, nil
}

func (g *fakeGateway) Logout(context.Context) error { return nil }
func (g *fakeGateway) ClearSession() error { return nil }
func (g *fakeGateway) SessionExpired(time.Time) bool { return false }

func testDeps(t *testing.T, b *fakeBackend) Deps {
	t.Helper()
	gw := &fakeGateway{user: &models.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}}
	sess := session.New(gw, nil)
	st := sess.Verify(context.Background())
	require.True(t, st.Authenticated)
	return Deps{
		API:      b,
		Session:  sess,
		Now:      func() time.Time { return june1 },
		PageSize: 10,
		Debounce: time.Millisecond,
	}
}

// drain runs cmd and feeds every message it yields back into m until no
// work is left. Messages meant for the App are returned instead. Spinner
// and cursor blink ticks are dropped so the loop ends.
func drain(m tea.Model, cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case spinner.TickMsg:
		case Navigate, Toast, LogoutRequested, tea.QuitMsg:
			out = append(out, msg)
		default:
			if strings.HasPrefix(fmt.Sprintf("%T", msg), "cursor.") {
				continue
			}
			_, next := m.Update(msg)
			queue = append(queue, next)
		}
	}
	return out
}

// press sends one key and drains the result
func press(m tea.Model, k string) []tea.Msg {
	_, cmd := m.Update(keyMsg(k))
	return drain(m, cmd)
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func typeText(m tea.Model, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func toasts(msgs []tea.Msg) []Toast {
	var out []Toast
	for _, m := range msgs {
		if t, ok := m.(Toast); ok {
			out = append(out, t)
		}
	}
	return out
}

func navigations(msgs []tea.Msg) []string {
	var out []string
	for _, m := range msgs {
		if n, ok := m.(Navigate); ok {
			out = append(out, n.Path)
		}
	}
	return out
}

var errBoom = errors.New("boom")
