package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	for _, ok := range []string{"a@b.co", "first.last@example.com"} {
		e := Errors{}
		e.Email("email", ok)
		assert.True(t, e.OK(), ok)
	}
	for _, bad := range []string{"", "nope", "a@b", "a @b.com"} {
		e := Errors{}
		e.Email("email", bad)
		assert.False(t, e.OK(), bad)
	}
}

func TestPassword(t *testing.T) {
	e := Errors{}
	e.Password("password", "Short1")
	assert.Equal(t, "Password must be at least 8 characters", e["password"])

	e = Errors{}
	e.Password("password", "alllowercase1")
	assert.Contains(t, e["password"], "uppercase")

	e = Errors{}
	e.Password("password", "Valid123")
	assert.True(t, e.OK())
}

func TestSignupCollectsEveryField(t *testing.T) {
	e := Signup("", "bad", "weak", "other")
	assert.ElementsMatch(t, []string{"name", "email", "password", "confirm"}, keys(e))
	assert.Error(t, e.Err())
}

func TestFirstMessageWins(t *testing.T) {
	e := Errors{}
	e.Add("f", "one")
	e.Add("f", "two")
	assert.Equal(t, "one", e["f"])
}

func TestLoginOK(t *testing.T) {
	assert.NoError(t, Login("me@example.com", "x").Err())
}

func TestOTP(t *testing.T) {
	e := Errors{}
	e.OTP("otp", "12345a")
	assert.False(t, e.OK())

	e = Errors{}
	e.OTP("otp", "123456")
	assert.True(t, e.OK())
}

func TestName(t *testing.T) {
	e := Errors{}
	e.Name("name", "A")
	assert.False(t, e.OK())
}

func keys(e Errors) []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	return out
}
