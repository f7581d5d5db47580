package main

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/myfeedback/core/feedback"
)

var isTerminalFunc = term.IsTerminal // mockable

// show prints the block as text on a terminal, as HTML otherwise (e.g. when piped to a file).
func (cli *commandLine) show(ctx context.Context, userID int64, page string) error {
	if !feedback.IsApplicable(page) {
		return feedback.ErrFormatNotApplicable
	}

	usr, err := cli.svc.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	c, err := cli.svc.NewBlock(usr).Content(ctx)
	if err != nil {
		return errors.Wrap(err, "building block content")
	}

	if isTerminalFunc(int(os.Stdout.Fd())) {
		_, err = io.WriteString(cli.out, c.Text())
		return err
	}
	return feedback.Render(cli.out, c)
}
