package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskflow/internal/models"
	"github.com/tgienger/taskflow/internal/ui/styles"
	"github.com/tgienger/taskflow/internal/validate"
)

const (
	fieldTitle = iota
	fieldDesc
	fieldPriority
	fieldStatus
	fieldDue
	fieldAssignee
	fieldProject
	fieldCount
)

// taskForm edits the writable fields of a task
type taskForm struct {
	editingID string // empty when creating

	title    textinput.Model
	desc     textarea.Model
	due      textinput.Model
	assignee textinput.Model
	project  textinput.Model
	priority models.Priority
	status   models.Status

	focus  int
	errors validate.Errors
}

func newTaskForm() *taskForm {
	title := textinput.New()
	title.Placeholder = "Task title"
	title.CharLimit = 200

	desc := textarea.New()
	desc.Placeholder = "Description"
	desc.CharLimit = 1000
	desc.SetWidth(50)
	desc.SetHeight(3)
	desc.ShowLineNumbers = false

	due := textinput.New()
	due.Placeholder = "YYYY-MM-DD"
	due.CharLimit = 10

	assignee := textinput.New()
	assignee.Placeholder = "Assignee (optional)"
	assignee.CharLimit = 100

	project := textinput.New()
	project.Placeholder = "Project id (optional)"
	project.CharLimit = 64

	return &taskForm{
		title:    title,
		desc:     desc,
		due:      due,
		assignee: assignee,
		project:  project,
		priority: models.PriorityMedium,
		status:   models.StatusPending,
	}
}

// load fills the form from t. A zero task starts a new one.
func (f *taskForm) load(t models.Task) {
	f.editingID = t.ID
	f.title.SetValue(t.Title)
	f.desc.SetValue(t.Description)
	f.due.SetValue(t.DueDate.String())
	f.assignee.SetValue(t.Assignee)
	f.project.SetValue(t.ProjectID)
	f.priority = t.Priority
	if f.priority == "" {
		f.priority = models.PriorityMedium
	}
	f.status = t.Status
	if f.status == "" {
		f.status = models.StatusPending
	}
	f.errors = nil
	f.focus = fieldTitle
	f.updateFocus()
}

func (f *taskForm) creating() bool { return f.editingID == "" }

// task returns the edited values applied over base, or the field errors
func (f *taskForm) task(base models.Task) (models.Task, validate.Errors) {
	errs := validate.Errors{}
	title := strings.TrimSpace(f.title.Value())
	errs.Required("title", "Title", title)

	due, err := models.ParseDate(f.due.Value())
	if err != nil {
		errs.Add("dueDate", "Due date must be YYYY-MM-DD")
	}

	base.Title = title
	base.Description = strings.TrimSpace(f.desc.Value())
	base.Priority = f.priority
	base.Status = f.status
	base.DueDate = due
	base.Assignee = strings.TrimSpace(f.assignee.Value())
	base.ProjectID = strings.TrimSpace(f.project.Value())
	return base, errs
}

func (f *taskForm) cycleFocus(dir int) {
	f.focus = (f.focus + dir + fieldCount) % fieldCount
	f.updateFocus()
}

func (f *taskForm) updateFocus() {
	f.title.Blur()
	f.desc.Blur()
	f.due.Blur()
	f.assignee.Blur()
	f.project.Blur()
	switch f.focus {
	case fieldTitle:
		f.title.Focus()
	case fieldDesc:
		f.desc.Focus()
	case fieldDue:
		f.due.Focus()
	case fieldAssignee:
		f.assignee.Focus()
	case fieldProject:
		f.project.Focus()
	}
}

// update handles a key for the focused field. Save and cancel are
// handled by the owner.
func (f *taskForm) update(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.String() == "shift+tab":
		f.cycleFocus(-1)
		return nil
	case key.Matches(msg, defaultKeys.Tab):
		f.cycleFocus(1)
		return nil
	}

	switch f.focus {
	case fieldPriority:
		switch msg.String() {
		case "left", "h":
			f.priority = cycle(models.Priorities, f.priority, -1)
		case "right", "l", " ":
			f.priority = cycle(models.Priorities, f.priority, 1)
		}
		return nil
	case fieldStatus:
		switch msg.String() {
		case "left", "h":
			f.status = cycle(models.Statuses, f.status, -1)
		case "right", "l", " ":
			f.status = cycle(models.Statuses, f.status, 1)
		}
		return nil
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldDesc:
		f.desc, cmd = f.desc.Update(msg)
	case fieldDue:
		f.due, cmd = f.due.Update(msg)
	case fieldAssignee:
		f.assignee, cmd = f.assignee.Update(msg)
	case fieldProject:
		f.project, cmd = f.project.Update(msg)
	}
	return cmd
}

func (f *taskForm) view(s *styles.Styles, width int) string {
	inputWidth := clamp(width-6, 20, 60)
	f.desc.SetWidth(inputWidth)

	box := func(idx int, content string) string {
		st := s.Input
		if f.focus == idx {
			st = s.InputFocused
		}
		return st.Width(inputWidth).Render(content)
	}
	fieldErr := func(name string) string {
		if msg, ok := f.errors[name]; ok {
			return s.FieldError.Render(msg)
		}
		return ""
	}

	heading := "Edit Task"
	if f.creating() {
		heading = "New Task"
	}

	rows := []string{
		s.Title.Render(heading),
		"",
		"Title:",
		box(fieldTitle, f.title.View()),
		fieldErr("title"),
		"Description:",
		box(fieldDesc, f.desc.View()),
		"Priority:",
		box(fieldPriority, styles.PriorityStyle(f.priority).Render("‹ "+string(f.priority)+" ›")),
		"Status:",
		box(fieldStatus, styles.StatusStyle(f.status).Render("‹ "+string(f.status)+" ›")),
		"Due date:",
		box(fieldDue, f.due.View()),
		fieldErr("dueDate"),
		"Assignee:",
		box(fieldAssignee, f.assignee.View()),
		"Project:",
		box(fieldProject, f.project.View()),
		"",
		helpLine(s, "tab", "next", "←/→", "change", "ctrl+s", "save", "esc", "cancel"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// cycle steps through vals from cur, wrapping around
func cycle[T comparable](vals []T, cur T, dir int) T {
	for i, v := range vals {
		if v == cur {
			return vals[(i+dir+len(vals))%len(vals)]
		}
	}
	return vals[0]
}
