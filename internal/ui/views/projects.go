package views

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskflow/internal/api"
	"github.com/tgienger/taskflow/internal/metrics"
	"github.com/tgienger/taskflow/internal/models"
	"github.com/tgienger/taskflow/internal/optimistic"
	"github.com/tgienger/taskflow/internal/route"
	"github.com/tgienger/taskflow/internal/stats"
	"github.com/tgienger/taskflow/internal/ui/keys"
	"github.com/tgienger/taskflow/internal/ui/styles"
	"github.com/tgienger/taskflow/internal/validate"
)

// projectListLimit is how many projects the page asks for
const projectListLimit = 100

type projectItem struct {
	project models.Project
}

func (i projectItem) Title() string { return i.project.Name }
func (i projectItem) Description() string {
	if optimistic.IsTempID(i.project.ID) {
		return "saving…"
	}
	desc := string(i.project.Status)
	if d := i.project.DueDate.String(); d != "" {
		desc += " • due " + d
	}
	if i.project.Description != "" {
		desc += " • " + i.project.Description
	}
	return desc
}
func (i projectItem) FilterValue() string { return i.project.Name }

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 2 }
func (d projectDelegate) Spacing() int                              { return 1 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	width := max(d.width-4, 20)

	titleStyle := d.styles.Row.Width(width)
	descStyle := d.styles.Row.Foreground(styles.Active.Muted).Width(width)
	switch {
	case optimistic.IsTempID(p.project.ID):
		titleStyle = d.styles.RowPending.Width(width)
		descStyle = d.styles.RowPending.Width(width)
	case index == m.Index():
		titleStyle = d.styles.RowSelected.Width(width)
		descStyle = d.styles.RowSelected.Foreground(styles.Active.Muted).Width(width)
	}

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(p.Title()), descStyle.Render(truncate(p.Description(), width)))
}

type projectsLoaded struct {
	projects []models.Project
	err      error
}

type projectSaved struct {
	pending *optimistic.Pending[models.Project]
	project *models.Project
	err     error
}

type projectDeleted struct {
	pending *optimistic.Pending[models.Project]
	err     error
}

// ProjectListView lists projects with optimistic create and delete
type ProjectListView struct {
	deps     Deps
	projects *optimistic.Collection[models.Project]
	stats    stats.ProjectStats

	list     list.Model
	delegate *projectDelegate
	spinner  spinner.Model
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool

	creating         bool
	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string
	newName          textinput.Model
	newDesc          textinput.Model
	newDue           textinput.Model
	focusIdx         int // 0=name, 1=desc, 2=due, 3=create
	errors           validate.Errors
}

func NewProjectListView(d Deps) *ProjectListView {
	d = d.withDefaults()
	s := styles.NewStyles()

	newName := textinput.New()
	newName.Placeholder = "Project name"
	newName.CharLimit = 100

	newDesc := textinput.New()
	newDesc.Placeholder = "Description (optional)"
	newDesc.CharLimit = 500

	newDue := textinput.New()
	newDue.Placeholder = "Due date YYYY-MM-DD (optional)"
	newDue.CharLimit = 10

	delegate := &projectDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	v := &ProjectListView{
		deps:     d,
		projects: optimistic.New(func(p models.Project) string { return p.ID }),
		list:     l,
		delegate: delegate,
		spinner:  sp,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		newName:  newName,
		newDesc:  newDesc,
		newDue:   newDue,
	}
	v.projects.OnChange(func(items []models.Project) {
		v.stats = stats.Projects(items)
	})
	return v
}

func (v *ProjectListView) Route() string { return route.Projects }

// Stats summarizes the projects currently listed
func (v *ProjectListView) Stats() stats.ProjectStats { return v.stats }

// Projects returns the current collection
func (v *ProjectListView) Projects() []models.Project { return v.projects.Items() }

func (v *ProjectListView) Capturing() bool {
	return v.creating || v.list.FilterState() == list.Filtering
}

func (v *ProjectListView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.loadProjects())
}

func (v *ProjectListView) loadProjects() tea.Cmd {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(projectListLimit))
	return v.deps.call(func(ctx context.Context) tea.Msg {
		ps, _, err := v.deps.API.ListProjects(ctx, q)
		return projectsLoaded{projects: ps, err: err}
	})
}

// syncList copies the collection into the list widget
func (v *ProjectListView) syncList() tea.Cmd {
	projects := v.projects.Items()
	items := make([]list.Item, len(projects))
	for i, p := range projects {
		items[i] = projectItem{project: p}
	}
	return v.list.SetItems(items)
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, max(msg.Height-8, 4))
		return v, nil

	case spinner.TickMsg:
		if v.loaded {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case projectsLoaded:
		v.loaded = true
		if msg.err != nil {
			return v, errorToast(msg.err)
		}
		v.projects.Reset(msg.projects)
		return v, v.syncList()

	case projectSaved:
		if msg.err != nil {
			v.projects.Rollback(msg.pending)
			v.deps.Metrics.ObserveMutation("project", metrics.RolledBack)
			return v, tea.Batch(v.syncList(), errorToast(msg.err))
		}
		v.deps.Metrics.ObserveMutation("project", metrics.Confirmed)
		if msg.project == nil {
			return v, v.loadProjects()
		}
		v.projects.Confirm(msg.pending, msg.project)
		return v, tea.Batch(v.syncList(), toast(ToastSuccess, "Project %q created", msg.project.Name))

	case projectDeleted:
		if msg.err != nil {
			v.projects.Rollback(msg.pending)
			v.deps.Metrics.ObserveMutation("project", metrics.RolledBack)
			return v, tea.Batch(v.syncList(), errorToast(msg.err))
		}
		v.deps.Metrics.ObserveMutation("project", metrics.Confirmed)
		return v, toast(ToastSuccess, "Project deleted")

	case tea.KeyMsg:
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.creating {
			return v.updateCreating(msg)
		}

		if v.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.New):
			v.creating = true
			v.focusIdx = 0
			v.errors = nil
			v.newName.Reset()
			v.newDesc.Reset()
			v.newDue.Reset()
			v.updateFocus()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Refresh):
			return v, v.loadProjects()
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				if optimistic.IsTempID(item.project.ID) {
					return v, toast(ToastInfo, "Still saving %q", item.project.Name)
				}
				return v, navigate(route.MyTasks + "?project=" + url.QueryEscape(item.project.ID))
			}
		case key.Matches(msg, v.keys.Delete):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				if optimistic.IsTempID(item.project.ID) {
					return v, toast(ToastInfo, "Still saving %q", item.project.Name)
				}
				v.confirmingDelete = true
				v.deleteTargetID = item.project.ID
				v.deleteTargetName = item.project.Name
				return v, nil
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		p, ok := v.projects.Remove(v.deleteTargetID)
		if !ok {
			return v, nil
		}
		id := v.deleteTargetID
		return v, tea.Batch(v.syncList(), v.deps.call(func(ctx context.Context) tea.Msg {
			return projectDeleted{pending: p, err: v.deps.API.DeleteProject(ctx, id)}
		}))
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *ProjectListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.create()

	case msg.String() == "shift+tab":
		v.focusIdx = (v.focusIdx + 3) % 4
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.focusIdx = (v.focusIdx + 1) % 4
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx < 3 {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		return v, v.create()
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.newName, cmd = v.newName.Update(msg)
	case 1:
		v.newDesc, cmd = v.newDesc.Update(msg)
	case 2:
		v.newDue, cmd = v.newDue.Update(msg)
	}
	return v, cmd
}

// create validates the form and inserts a temp project
func (v *ProjectListView) create() tea.Cmd {
	errs := validate.Errors{}
	name := strings.TrimSpace(v.newName.Value())
	errs.Required("name", "Project name", name)
	due, err := models.ParseDate(v.newDue.Value())
	if err != nil {
		errs.Add("dueDate", "Due date must be YYYY-MM-DD")
	}
	if !errs.OK() {
		v.errors = errs
		return nil
	}
	v.creating = false

	in := api.ProjectInput{
		Name:        name,
		Description: strings.TrimSpace(v.newDesc.Value()),
		Status:      models.ProjectActive,
		DueDate:     due,
	}
	p := v.projects.AddTemp(func(id string) models.Project {
		return models.Project{
			ID:          id,
			Name:        in.Name,
			Description: in.Description,
			Status:      in.Status,
			DueDate:     in.DueDate,
			CreatedAt:   v.deps.Now(),
		}
	}, true)
	v.list.Select(0)
	return tea.Batch(v.syncList(), v.deps.call(func(ctx context.Context) tea.Msg {
		created, err := v.deps.API.CreateProject(ctx, in)
		return projectSaved{pending: p, project: created, err: err}
	}))
}

func (v *ProjectListView) updateFocus() {
	v.newName.Blur()
	v.newDesc.Blur()
	v.newDue.Blur()
	switch v.focusIdx {
	case 0:
		v.newName.Focus()
	case 1:
		v.newDesc.Focus()
	case 2:
		v.newDue.Focus()
	}
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.creating {
		return v.renderCreateForm()
	}

	if !v.loaded {
		return v.spinner.View() + " " + v.styles.Muted.Render("Loading projects...")
	}

	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	return lipgloss.JoinVertical(lipgloss.Left, v.renderStats(), v.list.View(), v.renderHelp())
}

func (v *ProjectListView) renderStats() string {
	s := v.styles
	card := func(label string, n int) string {
		return s.Card.Render(s.CardValue.Render(fmt.Sprint(n)) + " " + s.CardLabel.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("projects", v.stats.Total),
		card("active", v.stats.Active),
		card("completed", v.stats.Completed),
		card("on hold", v.stats.OnHold),
	)
}

func (v *ProjectListView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Projects"),
		"",
		s.Muted.Render("Press 'n' to create your first project"),
		"",
		s.ButtonPrimary.Render(" New Project "),
	)
	return styles.Center(content, contentWidth, max(v.height-2, 1))
}

func (v *ProjectListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	nameStyle := s.Input
	descStyle := s.Input
	dueStyle := s.Input
	btnStyle := s.Button

	switch v.focusIdx {
	case 0:
		nameStyle = s.InputFocused
	case 1:
		descStyle = s.InputFocused
	case 2:
		dueStyle = s.InputFocused
	case 3:
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)
	fieldErr := func(name string) string {
		if msg, ok := v.errors[name]; ok {
			return s.FieldError.Render(msg)
		}
		return ""
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("New Project"),
		"",
		"Name:",
		nameStyle.Width(inputWidth).Render(v.newName.View()),
		fieldErr("name"),
		"Description:",
		descStyle.Width(inputWidth).Render(v.newDesc.View()),
		"",
		"Due date:",
		dueStyle.Width(inputWidth).Render(v.newDue.View()),
		fieldErr("dueDate"),
		"",
		btnStyle.Render(" Create "),
		"",
		s.Muted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)
	return styles.Center(form, contentWidth, max(v.height-2, 1))
}

func (v *ProjectListView) renderHelp() string {
	return helpLine(v.styles, "↵", "tasks", "n", "new", "d", "del", "/", "filter", "ctrl+r", "reload", "q", "quit")
}

func (v *ProjectListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Error.Render("Delete Project?"),
		"",
		s.Muted.Render(fmt.Sprintf("Are you sure you want to delete %q?", v.deleteTargetName)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	return styles.Center(content, contentWidth, max(v.height-2, 1))
}
