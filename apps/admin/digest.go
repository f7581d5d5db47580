package main

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/myfeedback/core"
)

const digestTemplate = "digest"

// digest emails the user's block content to them.
func (cli *commandLine) digest(ctx context.Context, userID int64) error {
	usr, err := cli.svc.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !usr.IsActive() {
		return errors.Errorf("user %d is not active", usr.ID)
	}

	c, err := cli.svc.NewBlock(usr).Content(ctx)
	if err != nil {
		return errors.Wrap(err, "building block content")
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      c.Title,
		TemplateName: digestTemplate,
		TemplateData: c,
		PlatformURL:  cli.conf.Platform.WWWRoot,
	}
	if err = cli.mailSvc.SendMessages(msg); err != nil {
		return errors.Wrap(err, "sending digest")
	}
	return nil
}
