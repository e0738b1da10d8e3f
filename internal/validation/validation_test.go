package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordProblem(t *testing.T) {
	assert.Empty(t, PasswordProblem("Str0ng!pw"))

	cases := map[string]string{
		"short":      "S0!a",
		"no upper":   "str0ng!pw",
		"no lower":   "STR0NG!PW",
		"no digit":   "Strong!pw",
		"no special": "Str0ngpw1",
		"too long":   "Aa1!" + strings.Repeat("x", 70),
	}
	for name, pw := range cases {
		assert.NotEmpty(t, PasswordProblem(pw), name)
	}
}

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strongpassword"`
}

func TestFields(t *testing.T) {
	v := New()

	err := v.Struct(signup{Email: "nope", Password: "weakpass"})
	require.Error(t, err)

	fields := Fields(err)
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must contain an uppercase letter", fields["password"])

	assert.NoError(t, v.Struct(signup{Email: "a@x.com", Password: "Str0ng!pw"}))

	assert.Equal(t, map[string]string{"body": "malformed request body"}, Fields(errors.New("eof")))
}

func TestUsernameProblem(t *testing.T) {
	assert.Empty(t, UsernameProblem("alice"))
	assert.Empty(t, UsernameProblem("ålö"))

	assert.Equal(t, "must be at least 3 characters", UsernameProblem("al"))
	assert.Equal(t, "must be at most 50 characters", UsernameProblem(strings.Repeat("a", 51)))
	assert.Equal(t, "must not contain @", UsernameProblem("a@x.com"))
}

type profile struct {
	Username *string `json:"username" validate:"omitempty,username"`
}

func TestUsernameTag(t *testing.T) {
	v := New()

	taken := "a@x.com"
	err := v.Struct(profile{Username: &taken})
	require.Error(t, err)
	assert.Equal(t, "must not contain @", Fields(err)["username"])

	short := "ab"
	err = v.Struct(profile{Username: &short})
	require.Error(t, err)
	assert.Equal(t, "must be at least 3 characters", Fields(err)["username"])

	ok := "alice"
	assert.NoError(t, v.Struct(profile{Username: &ok}))
	assert.NoError(t, v.Struct(profile{}))
}
