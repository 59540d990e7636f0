package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/barbot/internal/client/api"
	"github.com/dmitrijs2005/barbot/internal/termx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	registered []string
	password   string
	chats      [][]api.Message
	chatErr    error
	meErr      error
}

func (f *fakeAPI) Register(_ context.Context, username, email string, password []byte, fullName string) (*api.User, error) {
	f.registered = append(f.registered, username+"|"+email+"|"+fullName+"|"+string(password))
	return &api.User{Username: username, Email: email, FullName: fullName}, nil
}

func (f *fakeAPI) Login(_ context.Context, username string, password []byte) (*api.Token, error) {
	if string(password) != f.password {
		return nil, &api.APIError{StatusCode: 401, Detail: "Incorrect username or password"}
	}
	return &api.Token{AccessToken: "tok-" + username, TokenType: "bearer"}, nil
}

func (f *fakeAPI) Me(_ context.Context, token string) (*api.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return &api.User{Username: strings.TrimPrefix(token, "tok-"), Email: "a@example.com"}, nil
}

func (f *fakeAPI) Chat(_ context.Context, _ string, messages []api.Message) (map[string]any, error) {
	f.chats = append(f.chats, append([]api.Message(nil), messages...))
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return map[string]any{"response": "reply " + messages[len(messages)-1].Content}, nil
}

func (f *fakeAPI) Ping(context.Context) error { return nil }

// runScript feeds script to the REPL; every password prompt answers pw.
func runScript(t *testing.T, f *fakeAPI, pw, script string) (*App, string) {
	t.Helper()
	var out bytes.Buffer
	p := termx.NewPrompter(strings.NewReader(script), &out).WithPasswordReader(func(int) ([]byte, error) {
		return []byte(pw), nil
	})
	app := NewApp(f, p)
	app.Run(context.Background())
	return app, out.String()
}

func TestRun_RegisterLoginChat(t *testing.T) {
	f := &fakeAPI{password: "pw"}

	script := strings.Join([]string{
		"register", "alice", "alice@example.com", "Alice A",
		"login", "alice",
		"me",
		"chat", "negroni?", "and a twist?", "",
		"ask one more",
		"exit",
	}, "\n") + "\n"

	app, out := runScript(t, f, "pw", script)

	require.Equal(t, []string{"alice|alice@example.com|Alice A|pw"}, f.registered)
	assert.Contains(t, out, "Login successful")
	assert.Contains(t, out, "alice <a@example.com>")
	assert.Contains(t, out, "reply negroni?")
	assert.Contains(t, out, "reply and a twist?")
	assert.Contains(t, out, "reply one more")
	assert.Contains(t, out, "Bye!")

	require.Len(t, f.chats, 3)
	assert.Len(t, f.chats[0], 1)
	assert.Len(t, f.chats[1], 3)
	assert.Equal(t, "assistant", f.chats[1][1].Role)
	assert.Len(t, f.chats[2], 5)
	assert.Len(t, app.history, 6)
}

func TestRun_LoginFailure(t *testing.T) {
	f := &fakeAPI{password: "pw"}

	app, out := runScript(t, f, "wrong", "login\nalice\nme\n")
	assert.Contains(t, out, "Incorrect username or password")
	assert.Contains(t, out, errNotLoggedIn.Error())
	assert.False(t, app.isLoggedIn())
}

func TestRun_ExpiredSessionLogsOut(t *testing.T) {
	f := &fakeAPI{password: "pw", meErr: &api.APIError{StatusCode: 401, Detail: "Could not validate credentials"}}

	app, out := runScript(t, f, "pw", "login\nalice\nme\n")
	assert.Contains(t, out, "Session expired")
	assert.False(t, app.isLoggedIn())
}

func TestAsk_FailureKeepsHistory(t *testing.T) {
	f := &fakeAPI{password: "pw"}
	app, _ := runScript(t, f, "pw", "login\nalice\nask first\n")
	require.Len(t, app.history, 2)

	f.chatErr = errors.New("502: Chat backend unavailable")
	err := app.Ask(context.Background(), "second")
	require.Error(t, err)
	assert.Len(t, app.history, 2)
}

func TestRegister_ConfirmsPassword(t *testing.T) {
	f := &fakeAPI{}
	var out bytes.Buffer
	entries := []string{"first", "second"}
	p := termx.NewPrompter(strings.NewReader("register\nbob\nbob@example.com\n\n"), &out).WithPasswordReader(func(int) ([]byte, error) {
		pw := entries[0]
		entries = entries[1:]
		return []byte(pw), nil
	})

	NewApp(f, p).Run(context.Background())

	assert.Empty(t, f.registered)
	assert.Contains(t, out.String(), "Error: "+termx.ErrPasswordMismatch.Error())
}

func TestRun_UnknownAndHelp(t *testing.T) {
	_, out := runScript(t, &fakeAPI{}, "", "help\nfrobnicate\nquit\n")
	assert.Contains(t, out, "Available commands: register, login, exit")
	assert.Contains(t, out, "Unknown command: frobnicate")
}

func TestRenderReply(t *testing.T) {
	var out bytes.Buffer
	renderReply(&out, map[string]any{
		"name":         "Negroni",
		"description":  "Bitter and bold.",
		"ingredients":  []any{"30 ml gin", "30 ml Campari"},
		"instructions": []any{"Stir with ice", "Strain"},
	})
	text := out.String()
	assert.Contains(t, text, "Negroni\n=======")
	assert.Contains(t, text, "  - 30 ml gin")
	assert.Contains(t, text, "  2. Strain")

	out.Reset()
	renderReply(&out, map[string]any{"response": "Just water."})
	assert.Equal(t, "Just water.\n", out.String())

	out.Reset()
	renderReply(&out, map[string]any{"response": "x", "extra": 1.0})
	assert.Contains(t, out.String(), `"extra": 1`)
}
