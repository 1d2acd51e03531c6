// Package route holds the client route table and the guard that decides,
// for a path and a session state, whether to wait, redirect or render.
package route

import (
	"net/url"
	"strings"
)

const (
	Home           = "/"
	Login          = "/login"
	Register       = "/register"
	ForgotPassword = "/forgot-password"
	ResetPassword  = "/reset-password"
	VerifyOTP      = "/verify-otp"
	About          = "/about"
	Contact        = "/contact"
	Support        = "/support"

	Dashboard     = "/dashboard"
	Projects      = "/projects"
	MyTasks       = "/tasks/my-tasks"
	Kanban        = "/tasks/kanban"
	Calendar      = "/tasks/calendar"
	AssignedTasks = "/tasks/assigned"
	Team          = "/team"
	Analytics     = "/analytics"
	Settings      = "/settings"
	ProfileName   = "/profile/name"
	ProfileEmail  = "/profile/email"
	ProfileOther  = "/profile/other"
)

// featurePrefix covers the marketing feature pages
const featurePrefix = "/features/"

var public = map[string]bool{
	Home:           true,
	Login:          true,
	Register:       true,
	ForgotPassword: true,
	ResetPassword:  true,
	VerifyOTP:      true,
	About:          true,
	Contact:        true,
	Support:        true,
}

// Protected lists the dashboard routes in sidebar order
var Protected = []string{
	Dashboard,
	MyTasks,
	AssignedTasks,
	Kanban,
	Calendar,
	Projects,
	Team,
	Analytics,
	Settings,
	ProfileName,
	ProfileEmail,
	ProfileOther,
}

// authPages never show the footer
var authPages = map[string]bool{
	Login:          true,
	Register:       true,
	ForgotPassword: true,
	ResetPassword:  true,
	VerifyOTP:      true,
}

// Path strips any query and trailing slash
func Path(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return Home
	}
	return p
}

// IsPublic reports whether p can be viewed without a session
func IsPublic(p string) bool {
	p = Path(p)
	return public[p] || strings.HasPrefix(p, featurePrefix)
}

// IsProtected reports whether p requires a session. Unknown paths are
// treated as protected.
func IsProtected(p string) bool {
	return !IsPublic(p)
}

// State is the part of a session the guard looks at
type State struct {
	Loading       bool
	Authenticated bool
}

// Decision is the guard outcome
type Decision int

const (
	Wait Decision = iota
	Redirect
	Render
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	}
	return "render"
}

// Guard decides what a page at p shows. While loading nothing is decided.
// The target is only set for Redirect.
func Guard(p string, s State) (Decision, string) {
	if s.Loading {
		return Wait, ""
	}
	if IsProtected(p) && !s.Authenticated {
		return Redirect, LoginURL(p)
	}
	if Path(p) == Login && s.Authenticated {
		return Redirect, Dashboard
	}
	return Render, ""
}

// LoginURL builds /login?redirect=<p>
func LoginURL(p string) string {
	v := url.Values{}
	v.Set("redirect", p)
	q := v.Encode()
	// keep slashes readable: /login?redirect=/dashboard
	q = strings.ReplaceAll(q, "%2F", "/")
	return Login + "?" + q
}

// RedirectTarget extracts the post-login destination from a login URL.
// Anything that is not a local absolute path falls back to the dashboard.
func RedirectTarget(loginURL string) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return Dashboard
	}
	target := u.Query().Get("redirect")
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return Dashboard
	}
	if Path(target) == Login {
		return Dashboard
	}
	return target
}

// Chrome is the layout furniture shown around a page
type Chrome struct {
	Sidebar bool
	Footer  bool
}

// ChromeFor decides layout visibility for p
func ChromeFor(p string, s State) Chrome {
	p = Path(p)
	inApp := IsProtected(p)
	return Chrome{
		Sidebar: inApp && s.Authenticated && !s.Loading,
		Footer:  !inApp && !authPages[p],
	}
}
