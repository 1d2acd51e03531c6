package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskflow/internal/metrics"
	"github.com/tgienger/taskflow/internal/models"
	"github.com/tgienger/taskflow/internal/optimistic"
	"github.com/tgienger/taskflow/internal/route"
	"github.com/tgienger/taskflow/internal/ui/keys"
	"github.com/tgienger/taskflow/internal/ui/styles"
	"github.com/tgienger/taskflow/internal/validate"
)

const invitationAccepted = "accepted"

type invitationsLoaded struct {
	invitations []models.Invitation
	err         error
}

type invitationAcceptedMsg struct {
	pending *optimistic.Pending[models.Invitation]
	team    string
	err     error
}

type inviteSent struct {
	email string
	err   error
}

// TeamView lists the user's invitations and sends new ones
type TeamView struct {
	deps        Deps
	invitations *optimistic.Collection[models.Invitation]
	styles      *styles.Styles
	keys        keys.KeyMap
	spinner     spinner.Model

	loaded bool
	cursor int
	width  int
	height int

	inviting   bool
	submitting bool
	email      textinput.Model
	errors     validate.Errors
}

func NewTeamView(d Deps) *TeamView {
	email := textinput.New()
	email.Placeholder = "teammate@example.com"
	email.CharLimit = 254

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &TeamView{
		deps:        d.withDefaults(),
		invitations: optimistic.New(func(i models.Invitation) string { return i.ID }),
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		spinner:     sp,
		email:       email,
	}
}

func (v *TeamView) Route() string { return route.Team }

func (v *TeamView) Capturing() bool { return v.inviting }

// Invitations returns the current list
func (v *TeamView) Invitations() []models.Invitation { return v.invitations.Items() }

func (v *TeamView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.load())
}

func (v *TeamView) load() tea.Cmd {
	return v.deps.call(func(ctx context.Context) tea.Msg {
		inv, err := v.deps.API.MyInvitations(ctx)
		return invitationsLoaded{invitations: inv, err: err}
	})
}

func (v *TeamView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height

	case spinner.TickMsg:
		if v.loaded && !v.submitting {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case invitationsLoaded:
		v.loaded = true
		if msg.err != nil {
			return v, errorToast(msg.err)
		}
		v.invitations.Reset(msg.invitations)
		v.cursor = clamp(v.cursor, 0, max(v.invitations.Len()-1, 0))

	case invitationAcceptedMsg:
		if msg.err != nil {
			v.invitations.Rollback(msg.pending)
			v.deps.Metrics.ObserveMutation("invitation", metrics.RolledBack)
			return v, errorToast(msg.err)
		}
		v.invitations.Confirm(msg.pending, nil)
		v.deps.Metrics.ObserveMutation("invitation", metrics.Confirmed)
		return v, toast(ToastSuccess, "You joined %s", msg.team)

	case inviteSent:
		v.submitting = false
		if msg.err != nil {
			v.errors = serverErrors(msg.err)
			return v, errorToast(msg.err)
		}
		v.inviting = false
		v.email.Reset()
		return v, toast(ToastSuccess, "Invitation sent to %s", msg.email)

	case tea.KeyMsg:
		if v.inviting {
			return v, v.updateInviting(msg)
		}
		items := v.invitations.Items()
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Up):
			v.cursor = max(v.cursor-1, 0)
		case key.Matches(msg, v.keys.Down):
			v.cursor = min(v.cursor+1, max(len(items)-1, 0))
		case key.Matches(msg, v.keys.Refresh):
			return v, v.load()
		case key.Matches(msg, v.keys.Invite):
			v.inviting = true
			v.errors = nil
			v.email.Focus()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Accept):
			if len(items) == 0 {
				return v, nil
			}
			return v, v.accept(items[clamp(v.cursor, 0, len(items)-1)])
		}
	}
	return v, nil
}

// accept marks the invitation accepted locally before the server answers
func (v *TeamView) accept(inv models.Invitation) tea.Cmd {
	if inv.Status == invitationAccepted {
		return nil
	}
	p, ok := v.invitations.Update(inv.ID, func(i *models.Invitation) { i.Status = invitationAccepted })
	if !ok {
		return nil
	}
	return v.deps.call(func(ctx context.Context) tea.Msg {
		err := v.deps.API.AcceptInvite(ctx, inv.ID)
		return invitationAcceptedMsg{pending: p, team: inv.TeamName, err: err}
	})
}

func (v *TeamView) updateInviting(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.inviting = false
		v.email.Blur()
		return nil
	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Save):
		if v.submitting {
			return nil
		}
		addr := strings.TrimSpace(v.email.Value())
		errs := validate.Errors{}
		errs.Email("email", addr)
		if !errs.OK() {
			v.errors = errs
			return nil
		}
		v.errors = nil
		v.submitting = true
		return tea.Batch(v.spinner.Tick, v.deps.call(func(ctx context.Context) tea.Msg {
			return inviteSent{email: addr, err: v.deps.API.SendInvite(ctx, addr)}
		}))
	}
	var cmd tea.Cmd
	v.email, cmd = v.email.Update(msg)
	return cmd
}

// View renders the view
func (v *TeamView) View() string {
	s := v.styles
	if !v.loaded {
		return v.spinner.View() + " " + s.Muted.Render("Loading invitations...")
	}

	rows := []string{s.Title.Render("Team"), ""}

	if v.inviting {
		inputWidth := clamp(styles.ContentWidth(v.width)-6, 20, 50)
		rows = append(rows,
			s.Subtitle.Render("Invite a teammate"),
			s.InputFocused.Width(inputWidth).Render(v.email.View()),
		)
		if msg, ok := v.errors["email"]; ok {
			rows = append(rows, s.FieldError.Render(msg))
		}
		if v.submitting {
			rows = append(rows, v.spinner.View()+" "+s.Muted.Render("Sending..."))
		}
		rows = append(rows, helpLine(s, "↵", "send", "esc", "cancel"))
		return lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	rows = append(rows, s.Subtitle.Render("Invitations"))
	items := v.invitations.Items()
	if len(items) == 0 {
		rows = append(rows, s.Muted.Render("No pending invitations."))
	}
	width := styles.ContentWidth(v.width)
	for i, inv := range items {
		line := fmt.Sprintf("%-24s invited by %-20s %s",
			truncate(inv.TeamName, 24), truncate(inv.InvitedBy, 20), inv.Status)
		st := s.Row
		if i == v.cursor {
			st = s.RowSelected
		}
		rows = append(rows, st.Width(width-2).Render(line))
	}
	rows = append(rows, helpLine(s, "a", "accept", "i", "invite", "ctrl+r", "reload", "q", "quit"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
