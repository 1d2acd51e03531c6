package views

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskflow/internal/api"
	"github.com/tgienger/taskflow/internal/route"
	"github.com/tgienger/taskflow/internal/session"
)

func loginDeps(t *testing.T, gw *fakeGateway) Deps {
	t.Helper()
	sess := session.New(gw, nil)
	sess.Verify(context.Background())
	return Deps{API: newFakeBackend(), Session: sess, Now: func() time.Time { return june1 }}
}

func fillLogin(v *LoginView, email, password string) {
	typeText(v, email)
	press(v, "tab")
	typeText(v, password)
}

func TestLoginValidatesBeforeSubmitting(t *testing.T) {
	v := NewLoginView(loginDeps(t, &fakeGateway{}), route.Login)

	fillLogin(v, "not-an-email", "")
	_, cmd := v.Update(keyMsg("ctrl+s"))

	assert.Nil(t, cmd)
	assert.False(t, v.Submitting())
	assert.Contains(t, v.errors, "email")
	assert.Contains(t, v.errors, "password")
}

func TestLoginShowsServerMessage(t *testing.T) {
	gw := &fakeGateway{loginErr: &api.Error{Status: 401, Message: "Invalid email or password"}}
	v := NewLoginView(loginDeps(t, gw), route.Login)

	fillLogin(v, "ada@example.com", "wrong")
	_, cmd := v.Update(keyMsg("ctrl+s"))
	require.True(t, v.Submitting())
	msgs := drain(v, cmd)

	assert.False(t, v.Submitting())
	assert.Equal(t, "Invalid email or password", v.Message())
	assert.Empty(t, v.password.Value())
	assert.Empty(t, navigations(msgs))
}

func TestLoginContinuesToRedirect(t *testing.T) {
	d := loginDeps(t, &fakeGateway{})
	v := NewLoginView(d, route.LoginURL(route.Projects))

	fillLogin(v, "ada@example.com", "secret")
	msgs := press(v, "ctrl+s")

	assert.True(t, d.Session.State().Authenticated)
	assert.Equal(t, []string{route.Projects}, navigations(msgs))
	require.Len(t, toasts(msgs), 1)
	assert.Equal(t, "Welcome back, Ada", toasts(msgs)[0].Text)
}

func TestLoginEscGoesHome(t *testing.T) {
	v := NewLoginView(loginDeps(t, &fakeGateway{}), route.Login)
	assert.Equal(t, []string{route.Home}, navigations(press(v, "esc")))
}
