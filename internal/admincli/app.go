package admincli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/barbot/internal/server/models"
	"github.com/dmitrijs2005/barbot/internal/server/services"
	"github.com/dmitrijs2005/barbot/internal/termx"
)

var ErrUsage = errors.New("usage error")

// UserAdmin is the slice of the user service barbotctl drives.
type UserAdmin interface {
	ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error)
	SetDisabled(ctx context.Context, username string, disabled bool) (*models.User, error)
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
}

type App struct {
	users  UserAdmin
	prompt *termx.Prompter
	out    io.Writer
}

// NewApp writes its output through p, which also collects passwords for
// create-user.
func NewApp(users UserAdmin, p *termx.Prompter) *App {
	return &App{users: users, prompt: p, out: p.Out()}
}

// Run dispatches args (command first) to a subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list":
		return a.list(ctx, rest)
	case "disable":
		return a.setDisabled(ctx, rest, true)
	case "enable":
		return a.setDisabled(ctx, rest, false)
	case "create-user":
		return a.createUser(ctx, rest)
	case "help", "-h", "-help", "--help":
		a.usage()
		return nil
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
		a.usage()
		return ErrUsage
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "Usage: barbotctl [-d DSN] [-c config.json] [-env .env] <command> [args]")
	fmt.Fprintln(a.out, "Commands:")
	fmt.Fprintln(a.out, "  list [-offset N] [-limit N]")
	fmt.Fprintln(a.out, "  disable <username>")
	fmt.Fprintln(a.out, "  enable <username>")
	fmt.Fprintln(a.out, "  create-user <username> <email> [-full-name NAME]")
}

func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// parseInterspersed lets flags appear before, between or after positional
// arguments.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUsage, err)
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// SplitGlobalArgs separates the configuration flags that precede the
// command from the command and its own arguments.
func SplitGlobalArgs(args []string) (global, command []string, err error) {
	fs := flag.NewFlagSet("barbotctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.String("d", "", "database DSN")
	fs.String("c", "", "JSON config file")
	fs.String("config", "", "JSON config file")
	fs.String("env", "", ".env file")
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	command = fs.Args()
	return args[:len(args)-len(command)], command, nil
}
