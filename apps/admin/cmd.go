package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/myfeedback/core"
	"github.com/trezcool/myfeedback/core/feedback"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf    *core.Config
	db      *sqlx.DB
	svc     feedback.Service
	mailSvc core.EmailService
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]       - run database migrations (up, down, status, version, redo, reset, up-to, down-to..)")
	fmt.Fprintln(cli.out, "  token -user ID               - print an API token for the user")
	fmt.Fprintln(cli.out, "  show -user ID [-page TYPE]   - print the user's block")
	fmt.Fprintln(cli.out, "  digest -user ID              - email the user's block to them")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parseUser parses args with fs, which must hold a positive `-user ID` flag.
func (cli *commandLine) parseUser(fs *flag.FlagSet, args []string) (int64, error) {
	userID := fs.Int64("user", 0, "The platform user id.")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, errHelp
		}
		return 0, err
	}
	if *userID <= 0 {
		fs.Usage()
		return 0, errHelp
	}
	return *userID, nil
}

// provisions reports whether the command may create the local database before running.
// Every other command only reads the platform database.
func provisions(args []string) bool {
	return len(args) > 1 && args[1] == "migrate"
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	case "token":
		userID, err := cli.parseUser(cli.newFlagSet("token"), args[2:])
		if err != nil {
			return err
		}
		return cli.token(ctx, userID)

	case "show":
		fs := cli.newFlagSet("show")
		page := fs.String("page", feedback.FormatMy, "The page type the block is shown on.")
		userID, err := cli.parseUser(fs, args[2:])
		if err != nil {
			return err
		}
		return cli.show(ctx, userID, *page)

	case "digest":
		userID, err := cli.parseUser(cli.newFlagSet("digest"), args[2:])
		if err != nil {
			return err
		}
		return cli.digest(ctx, userID)

	default:
		cli.printUsage()
		return errHelp
	}
}
