package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskflow/internal/api"
	"github.com/tgienger/taskflow/internal/models"
	"github.com/tgienger/taskflow/internal/route"
)

func TestSectionFor(t *testing.T) {
	assert.Equal(t, SectionName, SectionFor(route.Settings))
	assert.Equal(t, SectionName, SectionFor(route.ProfileName))
	assert.Equal(t, SectionEmail, SectionFor(route.ProfileEmail))
	assert.Equal(t, SectionOther, SectionFor(route.ProfileOther+"?tab=1"))
}

func TestSettingsNameValidationAndSave(t *testing.T) {
	b := newFakeBackend()
	d := testDeps(t, b)
	v := NewSettingsView(d, route.ProfileName)
	assert.Equal(t, "Ada", v.name.Value())

	press(v, "enter")
	require.True(t, v.Capturing())

	v.name.SetValue("A")
	press(v, "enter")
	assert.Equal(t, "Name must be between 2 and 50 characters", v.errors["name"])
	assert.Equal(t, "Ada", d.Session.State().User.Name)

	v.name.SetValue("Ada Lovelace")
	msgs := press(v, "enter")
	assert.False(t, v.Capturing())
	assert.Equal(t, "Ada Lovelace", d.Session.State().User.Name)
	require.Len(t, toasts(msgs), 1)
	assert.Equal(t, "Name updated", toasts(msgs)[0].Text)
}

func TestSettingsEmailChangeNeedsCode(t *testing.T) {
	b := newFakeBackend()
	d := testDeps(t, b)
	v := NewSettingsView(d, route.ProfileEmail)

	press(v, "enter")
	typeText(v, "ada@new.example")
	msgs := press(v, "enter")

	assert.Equal(t, []string{"ada@new.example"}, b.emailRequests)
	assert.Equal(t, "ada@new.example", v.pendingEmail)
	assert.Equal(t, "We sent a code to ada@new.example", toasts(msgs)[0].Text)

	// a malformed code never reaches the server
	typeText(v, "12")
	press(v, "enter")
	assert.Equal(t, "Code must be 6 digits", v.errors["otp"])

	v.otp.SetValue("000000")
	msgs = press(v, "enter")
	assert.Equal(t, "Invalid or expired code", toasts(msgs)[0].Text)
	assert.True(t, v.Capturing())
	assert.Equal(t, "ada@example.com", d.Session.State().User.Email)

	v.otp.SetValue("123456")
	msgs = press(v, "enter")
	assert.Equal(t, "Email updated", toasts(msgs)[0].Text)
	assert.Equal(t, "ada@new.example", d.Session.State().User.Email)
	assert.Empty(t, v.pendingEmail)
}

func TestSettingsOtherProfileFields(t *testing.T) {
	b := newFakeBackend()
	b.profile = models.Profile{Bio: "Mathematician", Company: "Analytical Engines"}
	v := NewSettingsView(testDeps(t, b), route.ProfileOther)
	drain(v, v.Init())
	assert.Equal(t, "Mathematician", v.other[0].Value())

	press(v, "enter")
	press(v, "tab")
	typeText(v, "555-0100")
	msgs := press(v, "ctrl+s")

	assert.Equal(t, "555-0100", b.profile.Phone)
	assert.Equal(t, "Analytical Engines", b.profile.Company)
	assert.Equal(t, "Profile updated", toasts(msgs)[0].Text)
}

func TestSettingsProfileLoadFailureBlocksSave(t *testing.T) {
	b := newFakeBackend()
	b.profile = models.Profile{Bio: "keep me", Company: "ACME"}
	b.profileErr = &api.Error{Status: 500, Message: "Database unavailable"}
	v := NewSettingsView(testDeps(t, b), route.ProfileOther)

	msgs := drain(v, v.Init())
	assert.Equal(t, []Toast{{Kind: ToastError, Text: "Database unavailable"}}, toasts(msgs))
	assert.Contains(t, v.View(), "Could not load your profile")

	// enter retries the load instead of opening blank fields
	press(v, "enter")
	assert.False(t, v.Capturing())
	press(v, "ctrl+s")
	assert.Equal(t, models.Profile{Bio: "keep me", Company: "ACME"}, b.profile)

	b.profileErr = nil
	press(v, "enter")
	assert.Equal(t, "keep me", v.other[0].Value())
	press(v, "enter")
	require.True(t, v.Capturing())
	msgs = press(v, "ctrl+s")
	assert.Equal(t, "Profile updated", toasts(msgs)[0].Text)
	assert.Equal(t, models.Profile{Bio: "keep me", Company: "ACME"}, b.profile)
}

func TestSettingsTabsCycle(t *testing.T) {
	v := NewSettingsView(testDeps(t, newFakeBackend()), route.Settings)
	press(v, "right")
	assert.Equal(t, SectionEmail, v.Section())
	press(v, "left")
	press(v, "left")
	assert.Equal(t, SectionOther, v.Section())
}
