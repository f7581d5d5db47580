package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/myfeedback/apps/api/echo"
)

func (cli *commandLine) token(ctx context.Context, userID int64) error {
	usr, err := cli.svc.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	token, err := echoapi.GenerateToken(echoapi.NewClaims(usr, cli.conf), cli.conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	_, err = fmt.Fprintln(cli.out, token)
	return err
}
