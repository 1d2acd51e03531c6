package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/tgienger/taskflow/internal/models"
	"github.com/tgienger/taskflow/internal/query"
	"github.com/tgienger/taskflow/internal/route"
	"github.com/tgienger/taskflow/internal/stats"
	"github.com/tgienger/taskflow/internal/ui/keys"
	"github.com/tgienger/taskflow/internal/ui/styles"
)

// dashboardTaskLimit bounds the task sample the summary is computed from
const dashboardTaskLimit = 100

// dashboardData is everything the summary shows, fetched together
type dashboardData struct {
	tasks       []models.Task
	projects    stats.ProjectStats
	invitations int
}

type dashboardLoaded struct {
	data dashboardData
	err  error
}

// DashboardView is the landing page after login. With analytics set it
// becomes the analytics page with the per-priority breakdown.
type DashboardView struct {
	deps      Deps
	analytics bool
	styles    *styles.Styles
	keys      keys.KeyMap
	spinner   spinner.Model

	loaded bool
	err    error
	data   dashboardData
	stats  stats.TaskStats

	width  int
	height int
}

func NewDashboardView(d Deps, analytics bool) *DashboardView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &DashboardView{
		deps:      d.withDefaults(),
		analytics: analytics,
		styles:    styles.NewStyles(),
		keys:      keys.DefaultKeyMap(),
		spinner:   sp,
	}
}

func (v *DashboardView) Route() string {
	if v.analytics {
		return route.Analytics
	}
	return route.Dashboard
}

// Stats is the task summary shown on the page
func (v *DashboardView) Stats() stats.TaskStats { return v.stats }

func (v *DashboardView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.load())
}

// load fetches the three sources concurrently; the first failure wins
func (v *DashboardView) load() tea.Cmd {
	params := query.DefaultParams(dashboardTaskLimit)
	params.Scope = "mine"
	q := params.Values()

	return v.deps.call(func(ctx context.Context) tea.Msg {
		var data dashboardData
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			page, err := v.deps.API.ListTasks(ctx, q)
			if err != nil {
				return fmt.Errorf("tasks: %w", err)
			}
			data.tasks = page.Tasks
			return nil
		})
		g.Go(func() error {
			ps, err := v.deps.API.ProjectStatistics(ctx)
			if err != nil {
				return fmt.Errorf("project statistics: %w", err)
			}
			data.projects = ps
			return nil
		})
		g.Go(func() error {
			inv, err := v.deps.API.MyInvitations(ctx)
			if err != nil {
				return fmt.Errorf("invitations: %w", err)
			}
			data.invitations = len(inv)
			return nil
		})
		err := g.Wait()
		return dashboardLoaded{data: data, err: err}
	})
}

func (v *DashboardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height

	case spinner.TickMsg:
		if v.loaded {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case dashboardLoaded:
		v.loaded = true
		v.err = msg.err
		if msg.err != nil {
			v.deps.Log.Debug("dashboard load failed", "err", msg.err)
			return v, errorToast(msg.err)
		}
		v.data = msg.data
		v.stats = stats.Tasks(msg.data.tasks, v.deps.Now())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Refresh):
			v.loaded = false
			return v, tea.Batch(v.spinner.Tick, v.load())
		case key.Matches(msg, v.keys.New):
			return v, navigate(route.MyTasks)
		}
	}
	return v, nil
}

// View renders the view
func (v *DashboardView) View() string {
	s := v.styles
	if !v.loaded {
		return v.spinner.View() + " " + s.Muted.Render("Loading dashboard...")
	}

	title := "Dashboard"
	if v.analytics {
		title = "Analytics"
	}
	greeting := ""
	if u := v.deps.user(); u != nil {
		greeting = s.Subtitle.Render("Welcome back, " + u.Name)
	}

	if v.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			s.Title.Render(title),
			"",
			s.Error.Render("Could not load the dashboard."),
			helpLine(s, "ctrl+r", "retry", "q", "quit"),
		)
	}

	rows := []string{
		s.Title.Render(title),
		greeting,
		"",
		v.renderTaskCards(),
		v.renderCompletion(),
		"",
		s.Subtitle.Render("Projects"),
		v.renderProjectCards(),
	}
	if v.data.invitations > 0 {
		rows = append(rows, "", s.Muted.Render(fmt.Sprintf("You have %d pending team invitation(s).", v.data.invitations)))
	}
	if v.analytics {
		rows = append(rows, "", s.Subtitle.Render("Open tasks by priority"), v.renderPriorityBars())
	}
	rows = append(rows, helpLine(s, "n", "tasks", "ctrl+r", "refresh", "q", "quit"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *DashboardView) card(label string, n int) string {
	s := v.styles
	return s.Card.Render(lipgloss.JoinVertical(lipgloss.Center,
		s.CardValue.Render(fmt.Sprint(n)),
		s.CardLabel.Render(label),
	))
}

func (v *DashboardView) renderTaskCards() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		v.card("Total", v.stats.Total),
		v.card("Completed", v.stats.Completed),
		v.card("In progress", v.stats.InProgress),
		v.card("Pending", v.stats.Pending),
		v.card("Overdue", v.stats.Overdue),
	)
}

func (v *DashboardView) renderProjectCards() string {
	ps := v.data.projects
	return lipgloss.JoinHorizontal(lipgloss.Top,
		v.card("Total", ps.Total),
		v.card("Active", ps.Active),
		v.card("Completed", ps.Completed),
		v.card("On hold", ps.OnHold),
	)
}

func (v *DashboardView) renderCompletion() string {
	rate := stats.CompletionRate(v.stats)
	width := clamp(styles.ContentWidth(v.width)-30, 10, 50)
	return v.styles.Muted.Render("Completion ") + bar(rate/100, width) + fmt.Sprintf(" %.0f%%", rate)
}

func (v *DashboardView) renderPriorityBars() string {
	counts := stats.ByPriority(v.data.tasks)
	most := 0
	for _, n := range counts {
		most = max(most, n)
	}
	width := clamp(styles.ContentWidth(v.width)-30, 10, 50)
	lines := make([]string, 0, len(models.Priorities))
	for i := len(models.Priorities) - 1; i >= 0; i-- {
		p := models.Priorities[i]
		frac := 0.0
		if most > 0 {
			frac = float64(counts[p]) / float64(most)
		}
		label := styles.PriorityStyle(p).Width(8).Render(string(p))
		lines = append(lines, label+bar(frac, width)+fmt.Sprintf(" %d", counts[p]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// bar draws a horizontal gauge filled to frac of width
func bar(frac float64, width int) string {
	frac = min(max(frac, 0), 1)
	filled := int(frac*float64(width) + 0.5)
	return lipgloss.NewStyle().Foreground(styles.Active.Brand).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(styles.Active.Line).Render(strings.Repeat("░", width-filled))
}
