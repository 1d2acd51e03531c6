package cli

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tgienger/taskflow/internal/api"
	"github.com/tgienger/taskflow/internal/models"
	"github.com/tgienger/taskflow/internal/query"
	"github.com/tgienger/taskflow/internal/stats"
)

func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.String())
}

func printTaskStats(w io.Writer, s stats.TaskStats) {
	fmt.Fprintf(w, "%d tasks: %d completed, %d in progress, %d pending, %d overdue (%.0f%% done)\n",
		s.Total, s.Completed, s.InProgress, s.Pending, s.Overdue, stats.CompletionRate(s))
}

func newTasksCmd(o *rootOptions) *cobra.Command {
	var (
		assigned bool
		p        = query.DefaultParams(0)
		status   string
		priority string
	)
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List your tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			p.Scope = "mine"
			if assigned {
				p.Scope = "assigned"
			}
			if status != "" {
				s, err := models.ParseStatus(status)
				if err != nil {
					return err
				}
				p.Status = string(s)
			}
			if priority != "" {
				pr, err := models.ParsePriority(priority)
				if err != nil {
					return err
				}
				p.Priority = string(pr)
			}

			ctx, cancel := e.context(cmd.Context())
			defer cancel()
			if _, err := e.authenticated(ctx); err != nil {
				return err
			}
			page, err := e.client.ListTasks(ctx, p.Values())
			if err != nil {
				return fmt.Errorf("failed to list tasks: %s", api.ErrorMessage(err))
			}

			out := cmd.OutOrStdout()
			if len(page.Tasks) == 0 {
				fmt.Fprintln(out, "No tasks match.")
				return nil
			}
			now := time.Now()
			rows := make([][]string, len(page.Tasks))
			for i, t := range page.Tasks {
				due := t.DueDate.String()
				if t.Overdue(now) {
					due += " !"
				}
				rows[i] = []string{t.ID, t.Title, string(t.Priority), string(t.Status), due, t.Assignee}
			}
			renderTable(out, []string{"ID", "TITLE", "PRIORITY", "STATUS", "DUE", "ASSIGNEE"}, rows)

			pages := 1
			if p.Limit > 0 {
				pages = max((page.Total+p.Limit-1)/p.Limit, 1)
			}
			fmt.Fprintf(out, "Page %d of %d (%d total)\n", p.Page, pages, page.Total)
			printTaskStats(out, stats.Tasks(page.Tasks, now))
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&assigned, "assigned", false, "tasks assigned to you instead of created by you")
	f.StringVar(&status, "status", "", "pending, in-progress or completed")
	f.StringVar(&priority, "priority", "", "low, medium or high")
	f.StringVar(&p.Search, "search", "", "title search")
	f.StringVar(&p.Project, "project", "", "project id")
	f.StringVar(&p.SortBy, "sort", p.SortBy, "dueDate, priority or createdAt")
	f.StringVar(&p.Order, "order", p.Order, "asc or desc")
	f.IntVar(&p.Page, "page", 1, "page number")
	f.IntVar(&p.Limit, "limit", 10, "tasks per page")
	return cmd
}

func newStatsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize your tasks and projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := e.context(cmd.Context())
			defer cancel()
			if _, err := e.authenticated(ctx); err != nil {
				return err
			}

			params := query.DefaultParams(100)
			params.Scope = "mine"
			page, err := e.client.ListTasks(ctx, params.Values())
			if err != nil {
				return fmt.Errorf("failed to list tasks: %s", api.ErrorMessage(err))
			}
			ps, err := e.client.ProjectStatistics(ctx)
			if err != nil {
				return fmt.Errorf("failed to load project statistics: %s", api.ErrorMessage(err))
			}

			out := cmd.OutOrStdout()
			printTaskStats(out, stats.Tasks(page.Tasks, time.Now()))
			byPriority := stats.ByPriority(page.Tasks)
			parts := make([]string, 0, len(models.Priorities))
			for _, p := range models.Priorities {
				parts = append(parts, fmt.Sprintf("%s %d", p, byPriority[p]))
			}
			fmt.Fprintf(out, "Open by priority: %s\n", strings.Join(parts, ", "))
			fmt.Fprintf(out, "%d projects: %d active, %d completed, %d on hold\n",
				ps.Total, ps.Active, ps.Completed, ps.OnHold)
			return nil
		},
	}
}

func newProjectsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List your projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := e.context(cmd.Context())
			defer cancel()
			if _, err := e.authenticated(ctx); err != nil {
				return err
			}
			q := url.Values{}
			q.Set("limit", strconv.Itoa(100))
			projects, total, err := e.client.ListProjects(ctx, q)
			if err != nil {
				return fmt.Errorf("failed to list projects: %s", api.ErrorMessage(err))
			}

			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects yet.")
				return nil
			}
			rows := make([][]string, len(projects))
			for i, p := range projects {
				rows[i] = []string{p.ID, p.Name, string(p.Status), p.DueDate.String()}
			}
			renderTable(out, []string{"ID", "NAME", "STATUS", "DUE"}, rows)
			s := stats.Projects(projects)
			fmt.Fprintf(out, "%d of %d projects: %d active, %d completed, %d on hold\n",
				s.Total, total, s.Active, s.Completed, s.OnHold)
			return nil
		},
	}
}

func newInvitesCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invites",
		Short: "List your team invitations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := e.context(cmd.Context())
			defer cancel()
			if _, err := e.authenticated(ctx); err != nil {
				return err
			}
			inv, err := e.client.MyInvitations(ctx)
			if err != nil {
				return fmt.Errorf("failed to list invitations: %s", api.ErrorMessage(err))
			}
			out := cmd.OutOrStdout()
			if len(inv) == 0 {
				fmt.Fprintln(out, "No pending invitations.")
				return nil
			}
			rows := make([][]string, len(inv))
			for i, in := range inv {
				rows[i] = []string{in.ID, in.TeamName, in.InvitedBy, in.Status}
			}
			renderTable(out, []string{"ID", "TEAM", "INVITED BY", "STATUS"}, rows)
			return nil
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "accept ID",
			Short: "Accept an invitation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := o.open(cmd, false)
				if err != nil {
					return err
				}
				defer e.Close()
				ctx, cancel := e.context(cmd.Context())
				defer cancel()
				if err := e.client.AcceptInvite(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to accept: %s", api.ErrorMessage(err))
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Invitation accepted")
				return nil
			},
		},
		&cobra.Command{
			Use:   "send EMAIL",
			Short: "Invite someone to your team",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := o.open(cmd, false)
				if err != nil {
					return err
				}
				defer e.Close()
				ctx, cancel := e.context(cmd.Context())
				defer cancel()
				if err := e.client.SendInvite(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to invite: %s", api.ErrorMessage(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Invitation sent to %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}
