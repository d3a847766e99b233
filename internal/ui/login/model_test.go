package login

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/postdesk/internal/auth"
)

type fakeAuth struct {
	login, signup []string
	result        auth.Result
}

func (f *fakeAuth) Login(_ context.Context, email, password string) auth.Result {
	f.login = append(f.login, email+":"+password)
	return f.result
}

func (f *fakeAuth) SignUp(_ context.Context, email, password string) auth.Result {
	f.signup = append(f.signup, email+":"+password)
	return f.result
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func fill(m Model, email, password string) Model {
	m = typeText(m, email)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	return typeText(m, password)
}

func TestSubmit_RequiresBothFields(t *testing.T) {
	m := New(&fakeAuth{})
	m = typeText(m, "a@b.com")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "Email and password required", m.Err())
}

func TestSubmit_Login(t *testing.T) {
	fa := &fakeAuth{result: auth.Result{Error: "Invalid credentials"}}
	m := fill(New(fa), "a@b.com", "pw")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, []string{"a@b.com:pw"}, fa.login)

	m, _ = m.Update(msg)
	assert.Equal(t, "Invalid credentials", m.Err())
}

func TestSubmit_RegisterSwitchesToLogin(t *testing.T) {
	fa := &fakeAuth{result: auth.Result{Success: true}}
	m := New(fa)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, ModeRegister, m.Mode())
	m = fill(m, "new@b.com", "pw")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, []string{"new@b.com:pw"}, fa.signup)
	assert.Empty(t, fa.login)

	m, _ = m.Update(msg)
	assert.Equal(t, ModeLogin, m.Mode())
	assert.Contains(t, m.View(), "Account created for new@b.com")
}

func TestSubmit_IgnoredWhileInFlight(t *testing.T) {
	m := fill(New(&fakeAuth{}), "a@b.com", "pw")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
