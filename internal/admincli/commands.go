package admincli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/dmitrijs2005/barbot/internal/server/repositories/users"
	"github.com/dmitrijs2005/barbot/internal/server/services"
)

func (a *App) list(ctx context.Context, args []string) error {
	fs := a.newFlagSet("list")
	offset := fs.Int("offset", 0, "number of users to skip")
	limit := fs.Int("limit", users.DefaultPageSize, "maximum number of users to show")
	if _, err := parseInterspersed(fs, args); err != nil {
		return err
	}

	list, err := a.users.ListUsers(ctx, *offset, *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tEMAIL\tFULL NAME\tSTATUS\tCREATED")
	for _, u := range list {
		status := "active"
		if u.Disabled {
			status = "disabled"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.Username, u.Email, u.FullName, status, u.CreatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func (a *App) setDisabled(ctx context.Context, args []string, disabled bool) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: expected exactly one username", ErrUsage)
	}

	u, err := a.users.SetDisabled(ctx, args[0], disabled)
	if err != nil {
		return err
	}

	state := "enabled"
	if u.Disabled {
		state = "disabled"
	}
	fmt.Fprintf(a.out, "User %s %s\n", u.Username, state)
	return nil
}

func (a *App) createUser(ctx context.Context, args []string) error {
	fs := a.newFlagSet("create-user")
	fullName := fs.String("full-name", "", "display name")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return fmt.Errorf("%w: expected <username> <email>", ErrUsage)
	}

	pw, err := a.prompt.NewPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	u, err := a.users.Register(ctx, services.RegisterInput{
		Username: positional[0],
		Email:    positional[1],
		Password: string(pw),
		FullName: *fullName,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "User %s created (id=%s)\n", u.Username, u.ID)
	return nil
}
