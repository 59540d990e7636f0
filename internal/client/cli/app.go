package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dmitrijs2005/barbot/internal/client/api"
	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/dmitrijs2005/barbot/internal/termx"
)

// apiClient is the server surface the terminal client needs.
type apiClient interface {
	Register(ctx context.Context, username, email string, password []byte, fullName string) (*api.User, error)
	Login(ctx context.Context, username string, password []byte) (*api.Token, error)
	Me(ctx context.Context, token string) (*api.User, error)
	Chat(ctx context.Context, token string, messages []api.Message) (map[string]any, error)
	Ping(ctx context.Context) error
}

type App struct {
	api      apiClient
	prompt   *termx.Prompter
	out      io.Writer
	token    string
	userName string
	history  []api.Message
}

func NewApp(c apiClient, p *termx.Prompter) *App {
	return &App{api: c, prompt: p, out: p.Out()}
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

// Run starts the read-eval-print loop. It returns on EOF, "exit" or
// "quit".
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to the Barbot CLI (type 'help' for commands)")
	if err := a.api.Ping(ctx); err != nil {
		fmt.Fprintln(a.out, "Warning: server is not reachable:", err)
	}

	for {
		line, err := a.prompt.Line(fmt.Sprintf("barbot %s> ", a.getStatus()))
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(a.out, "Available commands: chat, ask <question>, reset, me, logout, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: register, login, exit")
			}
		case "register":
			a.report(a.Register(ctx))
		case "login":
			a.report(a.Login(ctx))
		case "me":
			a.report(a.Me(ctx))
		case "chat":
			a.report(a.Chat(ctx))
		case "ask":
			a.report(a.Ask(ctx, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "ask"))))
		case "reset":
			a.history = nil
			fmt.Fprintln(a.out, "Conversation cleared")
		case "logout":
			a.Logout()
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintln(a.out, "Unknown command:", parts[0])
		}
	}
}

func (a *App) report(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, api.ErrUnauthorized) && a.isLoggedIn() {
		fmt.Fprintln(a.out, "Session expired, please log in again")
		a.Logout()
		return
	}
	fmt.Fprintln(a.out, "Error:", err)
}

func (a *App) Register(ctx context.Context) error {
	username, err := a.prompt.Ask("Enter user name")
	if err != nil {
		return err
	}
	email, err := a.prompt.Ask("Enter email")
	if err != nil {
		return err
	}
	fullName, err := a.prompt.Ask("Enter full name (optional)")
	if err != nil {
		return err
	}
	password, err := a.prompt.NewPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.api.Register(ctx, username, email, password, fullName)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s, you can log in now\n", u.Username)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	username, err := a.prompt.Ask("Enter user name")
	if err != nil {
		return err
	}
	password, err := a.prompt.Password("Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	tok, err := a.api.Login(ctx, username, password)
	if err != nil {
		return err
	}

	a.token = tok.AccessToken
	a.userName = username
	a.history = nil
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout() {
	a.token = ""
	a.userName = ""
	a.history = nil
	fmt.Fprintln(a.out, "Logged out")
}

func (a *App) Me(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	u, err := a.api.Me(ctx, a.token)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s>", u.Username, u.Email)
	if u.FullName != "" {
		fmt.Fprintf(a.out, " %s", u.FullName)
	}
	fmt.Fprintln(a.out)
	return nil
}

var errNotLoggedIn = errors.New("please log in first")

// Ask sends one user turn within the current conversation.
func (a *App) Ask(ctx context.Context, question string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if question == "" {
		return errors.New("usage: ask <question>")
	}

	messages := append(slices.Clip(a.history), api.Message{Role: "user", Content: question})
	reply, err := a.api.Chat(ctx, a.token, messages)
	if err != nil {
		return err
	}

	content, err := json.MarshalIndent(reply, "", "  ")
	if err != nil {
		return err
	}
	a.history = append(messages, api.Message{Role: "assistant", Content: string(content)})

	renderReply(a.out, reply)
	return nil
}

// Chat reads questions line by line until an empty line or "/done".
func (a *App) Chat(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	fmt.Fprintln(a.out, "Ask the mixologist (empty line or /done to leave)")
	for {
		line, err := a.prompt.Line("you> ")
		if err != nil || line == "" || line == "/done" {
			return nil
		}
		if askErr := a.Ask(ctx, line); askErr != nil {
			if errors.Is(askErr, api.ErrUnauthorized) {
				return askErr
			}
			fmt.Fprintln(a.out, "Error:", askErr)
		}
	}
}
