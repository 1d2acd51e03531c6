package views

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskflow/internal/api"
	"github.com/tgienger/taskflow/internal/metrics"
	"github.com/tgienger/taskflow/internal/models"
	"github.com/tgienger/taskflow/internal/optimistic"
	"github.com/tgienger/taskflow/internal/query"
	"github.com/tgienger/taskflow/internal/route"
	"github.com/tgienger/taskflow/internal/stats"
	"github.com/tgienger/taskflow/internal/ui/keys"
	"github.com/tgienger/taskflow/internal/ui/styles"
)

// TaskMode is the layout a task page uses
type TaskMode int

const (
	ModeList TaskMode = iota
	ModeAssigned
	ModeKanban
	ModeCalendar
)

// TaskModeFor maps a task route to its mode
func TaskModeFor(p string) TaskMode {
	switch route.Path(p) {
	case route.AssignedTasks:
		return ModeAssigned
	case route.Kanban:
		return ModeKanban
	case route.Calendar:
		return ModeCalendar
	}
	return ModeList
}

func (m TaskMode) title() string {
	switch m {
	case ModeAssigned:
		return "Assigned to Me"
	case ModeKanban:
		return "Kanban Board"
	case ModeCalendar:
		return "Calendar"
	}
	return "My Tasks"
}

func (m TaskMode) scope() string {
	if m == ModeAssigned {
		return "assigned"
	}
	return "mine"
}

// boardLimit is the page size of the board layouts, which do not page
const boardLimit = 100

type taskScreen int

const (
	screenList taskScreen = iota
	screenForm
	screenDetail
	screenConfirm
)

type sortOption struct {
	by, order, label string
}

var sortOptions = []sortOption{
	{"dueDate", "asc", "due date ↑"},
	{"dueDate", "desc", "due date ↓"},
	{"priority", "desc", "priority"},
	{"createdAt", "desc", "newest"},
}

var (
	priorityFilters = []string{"", string(models.PriorityLow), string(models.PriorityMedium), string(models.PriorityHigh)}
	statusFilters   = []string{"", string(models.StatusPending), string(models.StatusInProgress), string(models.StatusCompleted)}
)

type taskTick struct{ gen uint64 }

type tasksFetched struct {
	gen  uint64
	page api.TaskPage
	err  error
}

// taskSaved settles a create or a full edit
type taskSaved struct {
	pending *optimistic.Pending[models.Task]
	task    *models.Task
	err     error
}

// taskMutated settles status changes and deletes, single or bulk
type taskMutated struct {
	pendings []*optimistic.Pending[models.Task]
	verb     string
	err      error
}

type commentsLoaded struct {
	taskID   string
	comments []models.Comment
	err      error
}

type commentAdded struct {
	thread  *CommentThread
	tempID  string
	comment *models.Comment
	err     error
}

// TaskListView is every task page: the list, the assigned list, the
// kanban board and the calendar. They share one optimistic collection.
type TaskListView struct {
	deps   Deps
	path   string
	mode   TaskMode
	styles *styles.Styles
	keys   keys.KeyMap

	tasks  *optimistic.Collection[models.Task]
	stats  stats.TaskStats
	query  *query.Machine[models.Task]
	loaded bool

	width    int
	height   int
	cursor   int
	offset   int
	selected map[string]bool

	screen    taskScreen
	searching bool
	search    textinput.Model
	form      *taskForm
	spinner   spinner.Model
	sortIdx   int

	confirmIDs   []string
	confirmLabel string

	detailID        string
	thread          *CommentThread
	commentInput    textarea.Model
	commentFocused  bool
	commentsLoading bool
}

// NewTaskListView creates the task page for path. A "project" query
// parameter narrows the page to one project.
func NewTaskListView(d Deps, path string) *TaskListView {
	d = d.withDefaults()
	mode := TaskModeFor(path)

	defaults := query.DefaultParams(d.PageSize)
	defaults.Scope = mode.scope()
	if mode == ModeKanban || mode == ModeCalendar {
		defaults.Limit = boardLimit
	}
	if u, err := url.Parse(path); err == nil {
		defaults.Project = u.Query().Get("project")
	}

	search := textinput.New()
	search.Placeholder = "Search tasks..."
	search.CharLimit = 100

	commentInput := textarea.New()
	commentInput.Placeholder = "Add a comment..."
	commentInput.CharLimit = 2000
	commentInput.SetWidth(50)
	commentInput.SetHeight(3)
	commentInput.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	v := &TaskListView{
		deps:         d,
		path:         path,
		mode:         mode,
		styles:       styles.NewStyles(),
		keys:         keys.DefaultKeyMap(),
		tasks:        optimistic.New(func(t models.Task) string { return t.ID }),
		selected:     map[string]bool{},
		search:       search,
		form:         newTaskForm(),
		spinner:      sp,
		commentInput: commentInput,
	}
	v.query = query.New(defaults,
		query.ResetOn[models.Task](api.IsValidation),
		query.OnStale[models.Task](d.Metrics.ObserveStale),
	)
	v.tasks.OnChange(func(items []models.Task) {
		v.stats = stats.Tasks(items, v.deps.Now())
	})
	return v
}

func (v *TaskListView) Route() string { return v.path }

// Stats is the summary of the tasks currently shown
func (v *TaskListView) Stats() stats.TaskStats { return v.stats }

// Tasks returns the current collection
func (v *TaskListView) Tasks() []models.Task { return v.tasks.Items() }

// Capturing reports whether keystrokes go to a text field
func (v *TaskListView) Capturing() bool {
	return v.searching || v.screen == screenForm || (v.screen == screenDetail && v.commentFocused)
}

func (v *TaskListView) Init() tea.Cmd {
	return v.fetchNow(v.query.Start())
}

func (v *TaskListView) busy() bool {
	st := v.query.State()
	return st == query.Fetching || st == query.Filtering || v.commentsLoading ||
		(v.thread != nil && v.thread.Submitting())
}

func (v *TaskListView) debounce(gen uint64, changed bool) tea.Cmd {
	if !changed {
		return nil
	}
	return tea.Batch(v.spinner.Tick, tea.Tick(v.deps.Debounce, func(time.Time) tea.Msg {
		return taskTick{gen: gen}
	}))
}

func (v *TaskListView) fetchNow(gen uint64) tea.Cmd {
	params, ok := v.query.Fire(gen)
	if !ok {
		return nil
	}
	q := params.Values()
	return tea.Batch(v.spinner.Tick, v.deps.call(func(ctx context.Context) tea.Msg {
		page, err := v.deps.API.ListTasks(ctx, q)
		return tasksFetched{gen: gen, page: page, err: err}
	}))
}

func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.commentInput.SetWidth(clamp(styles.ContentWidth(msg.Width)-6, 20, 70))
		return v, nil

	case spinner.TickMsg:
		if !v.busy() {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case taskTick:
		return v, v.fetchNow(msg.gen)

	case tasksFetched:
		return v, v.handleFetched(msg)

	case taskSaved:
		return v, v.handleSaved(msg)

	case taskMutated:
		return v, v.handleMutated(msg)

	case commentsLoaded:
		if v.thread == nil || msg.taskID != v.thread.TaskID {
			return v, nil
		}
		v.commentsLoading = false
		if msg.err != nil {
			return v, errorToast(msg.err)
		}
		v.thread.Load(msg.comments)
		return v, nil

	case commentAdded:
		// a reply for a thread that was closed, or reopened since, is stale
		if v.thread == nil || msg.thread != v.thread || msg.tempID != v.thread.PendingID() {
			v.deps.Metrics.ObserveStale()
			return v, nil
		}
		if msg.err != nil {
			if draft := v.thread.Failed(); draft != "" && v.commentInput.Value() == "" {
				v.commentInput.SetValue(draft)
			}
			v.deps.Metrics.ObserveMutation("comment", metrics.RolledBack)
			return v, errorToast(msg.err)
		}
		v.thread.Succeeded(msg.comment)
		v.deps.Metrics.ObserveMutation("comment", metrics.Confirmed)
		return v, nil

	case tea.KeyMsg:
		switch v.screen {
		case screenForm:
			return v, v.updateForm(msg)
		case screenDetail:
			return v, v.updateDetail(msg)
		case screenConfirm:
			return v, v.updateConfirm(msg)
		}
		if v.searching {
			return v, v.updateSearch(msg)
		}
		return v, v.updateList(msg)
	}
	return v, nil
}

func (v *TaskListView) handleFetched(msg tasksFetched) tea.Cmd {
	if msg.err != nil {
		accepted, refetch := v.query.Fail(msg.gen, msg.err)
		if !accepted {
			return nil
		}
		v.loaded = true
		v.deps.Log.Debug("task list fetch failed", "err", msg.err)
		cmds := []tea.Cmd{errorToast(msg.err)}
		if refetch != 0 {
			v.search.SetValue("")
			v.sortIdx = 0
			cmds = append(cmds, v.fetchNow(refetch))
		}
		return tea.Batch(cmds...)
	}
	if !v.query.Resolve(msg.gen, msg.page.Tasks, msg.page.Total) {
		return nil
	}
	v.loaded = true
	v.tasks.Reset(msg.page.Tasks)
	for id := range v.selected {
		if _, ok := v.tasks.Get(id); !ok {
			delete(v.selected, id)
		}
	}
	v.clampCursor()
	return nil
}

func (v *TaskListView) handleSaved(msg taskSaved) tea.Cmd {
	if msg.err != nil {
		v.tasks.Rollback(msg.pending)
		v.deps.Metrics.ObserveMutation("task", metrics.RolledBack)
		v.clampCursor()
		return errorToast(msg.err)
	}
	v.deps.Metrics.ObserveMutation("task", metrics.Confirmed)
	if msg.task == nil {
		// nothing to reconcile with, reload instead
		return v.fetchNow(v.query.Refresh())
	}
	v.tasks.Confirm(msg.pending, msg.task)
	if msg.pending.Op == optimistic.OpAdd {
		return toast(ToastSuccess, "Task created")
	}
	return toast(ToastSuccess, "Task updated")
}

func (v *TaskListView) handleMutated(msg taskMutated) tea.Cmd {
	if msg.err != nil {
		// reverse order puts removed rows back at their original positions
		for i := len(msg.pendings) - 1; i >= 0; i-- {
			v.tasks.Rollback(msg.pendings[i])
		}
		v.deps.Metrics.ObserveMutation("task", metrics.RolledBack)
		v.clampCursor()
		return errorToast(msg.err)
	}
	for _, p := range msg.pendings {
		v.tasks.Confirm(p, nil)
	}
	v.deps.Metrics.ObserveMutation("task", metrics.Confirmed)
	if msg.verb == "" {
		return nil
	}
	return toast(ToastSuccess, "%s", msg.verb)
}

func (v *TaskListView) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter", "esc":
		v.searching = false
		v.search.Blur()
		return nil
	}
	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	gen, changed := v.query.SetSearch(strings.TrimSpace(v.search.Value()))
	return tea.Batch(cmd, v.debounce(gen, changed))
}

func (v *TaskListView) updateList(msg tea.KeyMsg) tea.Cmd {
	visible := v.visible()

	switch {
	case key.Matches(msg, v.keys.Quit):
		return tea.Quit

	case key.Matches(msg, v.keys.Up):
		v.cursor = max(v.cursor-1, 0)
		return nil

	case key.Matches(msg, v.keys.Down):
		v.cursor = min(v.cursor+1, max(len(visible)-1, 0))
		return nil

	case key.Matches(msg, v.keys.Left):
		if v.mode == ModeKanban {
			return v.shiftStatus(visible, -1)
		}
		gen, changed := v.query.SetPage(v.query.Params().Page - 1)
		if changed {
			return v.fetchNow(gen)
		}
		return nil

	case key.Matches(msg, v.keys.Right):
		if v.mode == ModeKanban {
			return v.shiftStatus(visible, 1)
		}
		gen, changed := v.query.SetPage(v.query.Params().Page + 1)
		if changed {
			return v.fetchNow(gen)
		}
		return nil

	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.search.Focus()
		return textinput.Blink

	case key.Matches(msg, v.keys.Priority):
		next := cycle(priorityFilters, v.query.Params().Priority, 1)
		return v.debounce(v.query.SetPriority(next))

	case key.Matches(msg, v.keys.Status):
		next := cycle(statusFilters, v.query.Params().Status, 1)
		return v.debounce(v.query.SetStatus(next))

	case key.Matches(msg, v.keys.Sort):
		v.sortIdx = (v.sortIdx + 1) % len(sortOptions)
		o := sortOptions[v.sortIdx]
		return v.debounce(v.query.SetSort(o.by, o.order))

	case key.Matches(msg, v.keys.Project):
		next := cycle(v.projectFilters(), v.query.Params().Project, 1)
		return v.debounce(v.query.SetProject(next))

	case key.Matches(msg, v.keys.Clear):
		v.search.SetValue("")
		v.sortIdx = 0
		return v.debounce(v.query.Clear())

	case key.Matches(msg, v.keys.Refresh):
		return v.fetchNow(v.query.Refresh())

	case key.Matches(msg, v.keys.New):
		v.form.load(models.Task{ProjectID: v.query.Params().Project})
		v.screen = screenForm
		return textinput.Blink
	}

	if key.Matches(msg, v.keys.BulkDelete) || key.Matches(msg, v.keys.BulkDone) {
		ids := v.selectedIDs()
		if len(ids) == 0 {
			return toast(ToastInfo, "Select tasks with space first")
		}
		if key.Matches(msg, v.keys.BulkDone) {
			return v.setStatus(ids, models.StatusCompleted)
		}
		v.confirmIDs = ids
		v.confirmLabel = fmt.Sprintf("%d selected tasks", len(ids))
		v.screen = screenConfirm
		return nil
	}

	if len(visible) == 0 {
		return nil
	}
	cur := visible[clamp(v.cursor, 0, len(visible)-1)]

	// the remaining keys act on the row under the cursor, which must be
	// known to the server
	if optimistic.IsTempID(cur.ID) {
		return toast(ToastInfo, "Still saving %q", cur.Title)
	}

	switch {
	case key.Matches(msg, v.keys.Select):
		if v.selected[cur.ID] {
			delete(v.selected, cur.ID)
		} else {
			v.selected[cur.ID] = true
		}
		return nil

	case key.Matches(msg, v.keys.Enter):
		return v.openDetail(cur)

	case key.Matches(msg, v.keys.Edit):
		v.form.load(cur)
		v.screen = screenForm
		return textinput.Blink

	case key.Matches(msg, v.keys.CycleStatus):
		return v.setStatus([]string{cur.ID}, cur.Status.Next())

	case key.Matches(msg, v.keys.Complete):
		if cur.Status == models.StatusCompleted {
			return nil
		}
		return v.setStatus([]string{cur.ID}, models.StatusCompleted)

	case key.Matches(msg, v.keys.Delete):
		v.confirmIDs = []string{cur.ID}
		v.confirmLabel = fmt.Sprintf("%q", cur.Title)
		v.screen = screenConfirm
		return nil
	}
	return nil
}

// shiftStatus moves the card under the cursor to the neighbouring column
func (v *TaskListView) shiftStatus(visible []models.Task, dir int) tea.Cmd {
	if len(visible) == 0 {
		return nil
	}
	cur := visible[clamp(v.cursor, 0, len(visible)-1)]
	if optimistic.IsTempID(cur.ID) {
		return toast(ToastInfo, "Still saving %q", cur.Title)
	}
	i := statusIndex(cur.Status) + dir
	if i < 0 || i >= len(models.Statuses) {
		return nil
	}
	return v.setStatus([]string{cur.ID}, models.Statuses[i])
}

// setStatus applies s locally to ids and sends one request for all of them
func (v *TaskListView) setStatus(ids []string, s models.Status) tea.Cmd {
	var pendings []*optimistic.Pending[models.Task]
	for _, id := range ids {
		if p, ok := v.tasks.Update(id, func(t *models.Task) { t.Status = s }); ok {
			pendings = append(pendings, p)
		}
	}
	if len(pendings) == 0 {
		return nil
	}
	verb := ""
	if len(ids) > 1 {
		verb = fmt.Sprintf("%d tasks marked %s", len(pendings), s)
		clear(v.selected)
	}
	return v.deps.call(func(ctx context.Context) tea.Msg {
		var err error
		if len(ids) == 1 {
			err = v.deps.API.UpdateTaskStatus(ctx, ids[0], s)
		} else {
			err = v.deps.API.BulkUpdateStatus(ctx, ids, s)
		}
		return taskMutated{pendings: pendings, verb: verb, err: err}
	})
}

func (v *TaskListView) remove(ids []string) tea.Cmd {
	var pendings []*optimistic.Pending[models.Task]
	for _, id := range ids {
		if p, ok := v.tasks.Remove(id); ok {
			pendings = append(pendings, p)
		}
		delete(v.selected, id)
	}
	v.clampCursor()
	if len(pendings) == 0 {
		return nil
	}
	verb := "Task deleted"
	if len(ids) > 1 {
		verb = fmt.Sprintf("%d tasks deleted", len(pendings))
	}
	return v.deps.call(func(ctx context.Context) tea.Msg {
		var err error
		if len(ids) == 1 {
			err = v.deps.API.DeleteTask(ctx, ids[0])
		} else {
			err = v.deps.API.BulkDeleteTasks(ctx, ids)
		}
		return taskMutated{pendings: pendings, verb: verb, err: err}
	})
}

func (v *TaskListView) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		ids := v.confirmIDs
		v.confirmIDs = nil
		v.screen = screenList
		return v.remove(ids)
	case "n", "N", "esc":
		v.confirmIDs = nil
		v.screen = screenList
	}
	return nil
}

func (v *TaskListView) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.screen = screenList
		return nil
	case key.Matches(msg, v.keys.Save):
		return v.saveForm()
	}
	return v.form.update(msg)
}

func (v *TaskListView) saveForm() tea.Cmd {
	var base models.Task
	if !v.form.creating() {
		cur, ok := v.tasks.Get(v.form.editingID)
		if !ok {
			v.screen = screenList
			return toast(ToastError, "That task no longer exists")
		}
		base = cur
	}
	t, errs := v.form.task(base)
	if !errs.OK() {
		v.form.errors = errs
		return nil
	}
	v.screen = screenList
	in := api.InputOf(t)

	if v.form.creating() {
		p := v.tasks.AddTemp(func(id string) models.Task {
			t.ID = id
			t.CreatedAt = v.deps.Now()
			return t
		}, true)
		v.cursor, v.offset = 0, 0
		return v.deps.call(func(ctx context.Context) tea.Msg {
			created, err := v.deps.API.CreateTask(ctx, in)
			return taskSaved{pending: p, task: created, err: err}
		})
	}

	p, ok := v.tasks.Update(t.ID, func(cur *models.Task) { *cur = t })
	if !ok {
		return nil
	}
	id := t.ID
	return v.deps.call(func(ctx context.Context) tea.Msg {
		updated, err := v.deps.API.UpdateTask(ctx, id, in)
		return taskSaved{pending: p, task: updated, err: err}
	})
}

func (v *TaskListView) openDetail(t models.Task) tea.Cmd {
	v.screen = screenDetail
	v.detailID = t.ID
	v.thread = NewCommentThread(t.ID)
	v.commentsLoading = true
	v.commentFocused = false
	v.commentInput.Reset()
	v.commentInput.Blur()

	id := t.ID
	return tea.Batch(v.spinner.Tick, v.deps.call(func(ctx context.Context) tea.Msg {
		cs, err := v.deps.API.ListComments(ctx, id)
		return commentsLoaded{taskID: id, comments: cs, err: err}
	}))
}

func (v *TaskListView) updateDetail(msg tea.KeyMsg) tea.Cmd {
	if v.commentFocused {
		switch {
		case key.Matches(msg, v.keys.Back):
			v.commentFocused = false
			v.commentInput.Blur()
			return nil
		case key.Matches(msg, v.keys.Save):
			return v.submitComment()
		}
		var cmd tea.Cmd
		v.commentInput, cmd = v.commentInput.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.screen = screenList
		v.thread = nil
		v.commentsLoading = false
		return nil
	case key.Matches(msg, v.keys.Quit):
		return tea.Quit
	case key.Matches(msg, v.keys.Comment):
		v.commentFocused = true
		v.commentInput.Focus()
		return textarea.Blink
	case key.Matches(msg, v.keys.Edit):
		if t, ok := v.tasks.Get(v.detailID); ok {
			v.form.load(t)
			v.screen = screenForm
			return textinput.Blink
		}
	case key.Matches(msg, v.keys.CycleStatus):
		if t, ok := v.tasks.Get(v.detailID); ok {
			return v.setStatus([]string{t.ID}, t.Status.Next())
		}
	}
	return nil
}

func (v *TaskListView) submitComment() tea.Cmd {
	if v.thread == nil || v.thread.Submitting() {
		return nil
	}
	temp, ok := v.thread.Submit(v.commentInput.Value(), v.deps.userName(), v.deps.Now())
	if !ok {
		return nil
	}
	v.commentInput.Reset()
	thread, taskID, text := v.thread, v.thread.TaskID, temp.Text
	return tea.Batch(v.spinner.Tick, v.deps.call(func(ctx context.Context) tea.Msg {
		c, err := v.deps.API.AddComment(ctx, taskID, text)
		return commentAdded{thread: thread, tempID: temp.ID, comment: c, err: err}
	}))
}

// CommentDraft is the text in the compose box
func (v *TaskListView) CommentDraft() string { return v.commentInput.Value() }

// Comments returns the open task's thread, nil when no task is open
func (v *TaskListView) Comments() []models.Comment {
	if v.thread == nil {
		return nil
	}
	return v.thread.Comments()
}

func (v *TaskListView) selectedIDs() []string {
	var ids []string
	for _, t := range v.visible() {
		if v.selected[t.ID] {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// visible is the collection in display order for the mode
func (v *TaskListView) visible() []models.Task {
	items := v.tasks.Items()
	switch v.mode {
	case ModeKanban:
		sort.SliceStable(items, func(i, j int) bool {
			return statusIndex(items[i].Status) < statusIndex(items[j].Status)
		})
	case ModeCalendar:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i].DueDate, items[j].DueDate
			if a.IsZero() != b.IsZero() {
				return b.IsZero()
			}
			return a.Before(b.Time)
		})
	}
	return items
}

// projectFilters is "any" followed by every project seen in the listing
func (v *TaskListView) projectFilters() []string {
	seen := map[string]bool{"": true}
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	add(v.query.Params().Project)
	for _, t := range v.tasks.Items() {
		if !optimistic.IsTempID(t.ID) {
			add(t.ProjectID)
		}
	}
	sort.Strings(ids)
	return append([]string{""}, ids...)
}

func statusIndex(s models.Status) int {
	for i, st := range models.Statuses {
		if st == s {
			return i
		}
	}
	return 0
}

func (v *TaskListView) clampCursor() {
	v.cursor = clamp(v.cursor, 0, max(v.tasks.Len()-1, 0))
}

func (v *TaskListView) visibleRows() int {
	return max(v.height-12, 5)
}

func (v *TaskListView) ensureVisible() {
	rows := v.visibleRows()
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+rows {
		v.offset = v.cursor - rows + 1
	}
}

// View renders the view
func (v *TaskListView) View() string {
	switch v.screen {
	case screenForm:
		return v.form.view(v.styles, styles.ContentWidth(v.width))
	case screenDetail:
		return v.renderDetail()
	case screenConfirm:
		return v.renderConfirm()
	}

	if !v.loaded {
		return v.spinner.View() + " " + v.styles.Muted.Render("Loading tasks...")
	}

	var body string
	switch v.mode {
	case ModeKanban:
		body = v.renderKanban()
	case ModeCalendar:
		body = v.renderCalendar()
	default:
		body = v.renderRows()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render(v.mode.title()),
		v.renderStats(),
		v.renderFilters(),
		"",
		body,
		v.renderHelp(),
	)
}

func (v *TaskListView) renderStats() string {
	s := v.styles
	card := func(label string, n int) string {
		return s.Card.Render(s.CardValue.Render(fmt.Sprint(n)) + " " + s.CardLabel.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("total", v.stats.Total),
		card("done", v.stats.Completed),
		card("in progress", v.stats.InProgress),
		card("pending", v.stats.Pending),
		card("overdue", v.stats.Overdue),
	)
}

func (v *TaskListView) renderFilters() string {
	s := v.styles
	p := v.query.Params()

	searchStyle := s.Input
	if v.searching {
		searchStyle = s.InputFocused
	}
	parts := []string{searchStyle.Width(clamp(styles.ContentWidth(v.width)/3, 16, 36)).Render(v.search.View())}

	label := func(name, val string) string {
		if val == "" {
			val = "any"
		}
		return s.Muted.Render(name+": ") + val
	}
	parts = append(parts,
		label("priority", p.Priority),
		label("status", p.Status),
		label("sort", sortOptions[v.sortIdx].label),
	)
	if p.Project != "" {
		parts = append(parts, label("project", p.Project))
	}
	if v.mode == ModeList || v.mode == ModeAssigned {
		parts = append(parts, s.Muted.Render(fmt.Sprintf("page %d/%d", p.Page, v.query.Pages())))
	}
	if v.busy() {
		parts = append(parts, v.spinner.View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(parts, "  "))
}

func (v *TaskListView) renderRows() string {
	visible := v.visible()
	if len(visible) == 0 {
		return v.renderEmpty()
	}
	v.ensureVisible()
	width := styles.ContentWidth(v.width)
	end := min(v.offset+v.visibleRows(), len(visible))
	rows := make([]string, 0, end-v.offset)
	for i := v.offset; i < end; i++ {
		rows = append(rows, v.renderTask(visible[i], i == v.cursor, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *TaskListView) renderEmpty() string {
	msg := "No tasks yet. Press 'n' to create one."
	if v.query.Params().Filtered() {
		msg = "No tasks match the current filters. Press 'C' to clear them."
	}
	return v.styles.Muted.Render(msg)
}

func (v *TaskListView) renderTask(t models.Task, selected bool, width int) string {
	s := v.styles
	mark := "[ ]"
	if v.selected[t.ID] {
		mark = "[x]"
	}
	due := t.DueDate.String()
	if t.Overdue(v.deps.Now()) {
		due = styles.OverdueStyle().Render(due + " overdue")
	}
	line := fmt.Sprintf("%s %-6s %-12s %s  %s",
		mark,
		styles.PriorityStyle(t.Priority).Render(string(t.Priority)),
		styles.StatusStyle(t.Status).Render(string(t.Status)),
		truncate(t.Title, max(width-50, 10)),
		due,
	)
	if t.Assignee != "" && v.mode == ModeAssigned {
		line += s.Muted.Render("  @" + t.Assignee)
	}

	switch {
	case optimistic.IsTempID(t.ID):
		return s.RowPending.Width(width - 2).Render(line + "  saving…")
	case selected:
		return s.RowSelected.Width(width - 2).Render(line)
	}
	return s.Row.Width(width - 2).Render(line)
}

func (v *TaskListView) renderKanban() string {
	s := v.styles
	visible := v.visible()
	colWidth := max((styles.ContentWidth(v.width)-6)/len(models.Statuses), 16)

	cols := make([]string, 0, len(models.Statuses))
	for _, st := range models.Statuses {
		lines := []string{styles.StatusStyle(st).Bold(true).Render(strings.ToUpper(string(st)))}
		for i, t := range visible {
			if t.Status != st {
				continue
			}
			text := truncate(t.Title, colWidth-4)
			switch {
			case optimistic.IsTempID(t.ID):
				lines = append(lines, s.RowPending.Render(text))
			case i == v.cursor:
				lines = append(lines, s.RowSelected.Render(text))
			default:
				lines = append(lines, s.Row.Render(text))
			}
		}
		cols = append(cols, s.Panel.Width(colWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (v *TaskListView) renderCalendar() string {
	visible := v.visible()
	if len(visible) == 0 {
		return v.renderEmpty()
	}
	width := styles.ContentWidth(v.width)
	var rows []string
	last := "-"
	for i, t := range visible {
		day := t.DueDate.String()
		if day != last {
			heading := day
			if heading == "" {
				heading = "No due date"
			} else {
				heading = t.DueDate.Format("Mon Jan 2, 2006")
			}
			rows = append(rows, v.styles.Subtitle.Render(heading))
			last = day
		}
		rows = append(rows, v.renderTask(t, i == v.cursor, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *TaskListView) renderConfirm() string {
	s := v.styles
	return lipgloss.JoinVertical(lipgloss.Left,
		s.Error.Render("Delete "+v.confirmLabel+"?"),
		"",
		s.Muted.Render("This cannot be undone."),
		"",
		helpLine(s, "y", "delete", "n", "cancel"),
	)
}

func (v *TaskListView) renderDetail() string {
	s := v.styles
	t, ok := v.tasks.Get(v.detailID)
	if !ok {
		return s.Muted.Render("This task is no longer in the list. Press esc.")
	}
	width := styles.ContentWidth(v.width)

	due := t.DueDate.String()
	if due == "" {
		due = "none"
	} else if t.Overdue(v.deps.Now()) {
		due = styles.OverdueStyle().Render(due + " (overdue)")
	}

	info := []string{
		s.Title.Render(t.Title),
		"",
		s.Muted.Render("Status:   ") + styles.StatusStyle(t.Status).Render(string(t.Status)),
		s.Muted.Render("Priority: ") + styles.PriorityStyle(t.Priority).Render(string(t.Priority)),
		s.Muted.Render("Due:      ") + due,
	}
	if t.Assignee != "" {
		info = append(info, s.Muted.Render("Assignee: ")+t.Assignee)
	}
	if t.Description != "" {
		info = append(info, "", lipgloss.NewStyle().Width(width-4).Render(t.Description))
	}

	info = append(info, "", s.Subtitle.Render("Comments"))
	switch {
	case v.commentsLoading:
		info = append(info, v.spinner.View()+" "+s.Muted.Render("Loading comments..."))
	case len(v.thread.Comments()) == 0:
		info = append(info, s.Muted.Render("No comments yet."))
	default:
		for _, c := range v.thread.Comments() {
			head := s.HelpKey.Render(c.CreatedBy) + " " + s.Muted.Render(c.CreatedAt.Format("Jan 2 15:04"))
			body := lipgloss.NewStyle().Width(width - 6).Render(c.Text)
			if c.IsTemp {
				head += " " + s.Muted.Render("sending…")
				body = s.RowPending.Render(body)
			}
			info = append(info, head, body, "")
		}
	}

	inputStyle := s.Input
	if v.commentFocused {
		inputStyle = s.InputFocused
	}
	info = append(info, inputStyle.Render(v.commentInput.View()))
	if v.commentFocused {
		info = append(info, helpLine(s, "ctrl+s", "post", "esc", "done"))
	} else {
		info = append(info, helpLine(s, "c", "comment", "e", "edit", "s", "status", "esc", "back"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, info...)
}

func (v *TaskListView) renderHelp() string {
	s := v.styles
	if styles.ContentWidth(v.width) < 60 {
		return helpLine(s, "n", "new", "↵", "open", "q", "quit")
	}
	pairs := []string{"n", "new", "↵", "open", "e", "edit", "s", "status", "x", "done", "d", "del",
		"space", "select", "/", "search", "p/f/o/P", "filter", "C", "clear"}
	if v.mode == ModeKanban {
		pairs = append(pairs, "←/→", "move")
	} else if v.mode != ModeCalendar {
		pairs = append(pairs, "←/→", "page")
	}
	return helpLine(s, pairs...)
}
