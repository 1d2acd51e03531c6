package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardLoadingDecidesNothing(t *testing.T) {
	for _, p := range append([]string{Login, Home}, Protected...) {
		for _, authed := range []bool{true, false} {
			d, target := Guard(p, State{Loading: true, Authenticated: authed})
			assert.Equal(t, Wait, d, p)
			assert.Empty(t, target)
		}
	}
}

func TestGuardRedirectsEveryProtectedRoute(t *testing.T) {
	for _, p := range Protected {
		d, target := Guard(p, State{})
		assert.Equal(t, Redirect, d, p)
		assert.Equal(t, "/login?redirect="+p, target)
	}
}

func TestGuardDashboardScenario(t *testing.T) {
	_, target := Guard("/dashboard", State{})
	assert.Equal(t, "/login?redirect=/dashboard", target)
}

func TestGuardRendersForSession(t *testing.T) {
	d, _ := Guard(Projects, State{Authenticated: true})
	assert.Equal(t, Render, d)

	d, _ = Guard("/features/kanban", State{})
	assert.Equal(t, Render, d)
}

func TestGuardLoginWithSessionGoesToDashboard(t *testing.T) {
	d, target := Guard(Login, State{Authenticated: true})
	assert.Equal(t, Redirect, d)
	assert.Equal(t, Dashboard, target)
}

func TestUnknownPathIsProtected(t *testing.T) {
	assert.True(t, IsProtected("/billing"))
	assert.False(t, IsProtected("/login?redirect=/x"))
	assert.False(t, IsProtected("/about/"))
}

func TestLoginURLEscapesQuery(t *testing.T) {
	assert.Equal(t, "/login?redirect=/tasks/my-tasks%3Fpage%3D2", LoginURL("/tasks/my-tasks?page=2"))
	assert.Equal(t, "/tasks/my-tasks?page=2", RedirectTarget(LoginURL("/tasks/my-tasks?page=2")))
}

func TestRedirectTarget(t *testing.T) {
	assert.Equal(t, "/team", RedirectTarget("/login?redirect=/team"))
	assert.Equal(t, Dashboard, RedirectTarget("/login"))
	assert.Equal(t, Dashboard, RedirectTarget("/login?redirect=https://evil.example"))
	assert.Equal(t, Dashboard, RedirectTarget("/login?redirect=//evil.example"))
	assert.Equal(t, Dashboard, RedirectTarget("/login?redirect=/login"))
}

func TestChrome(t *testing.T) {
	authed := State{Authenticated: true}
	assert.Equal(t, Chrome{Sidebar: true}, ChromeFor(Dashboard, authed))
	assert.Equal(t, Chrome{}, ChromeFor(Dashboard, State{Loading: true}))
	assert.Equal(t, Chrome{}, ChromeFor(Login, State{}))
	assert.Equal(t, Chrome{Footer: true}, ChromeFor(About, authed))
}
