package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/zugate/teacherdash/core"
	"github.com/zugate/teacherdash/core/session"
)

// login exchanges the credentials for a token and persists it as the session token.
func (cli *commandLine) login(ctx context.Context, uname, pwd string) error {
	uname = core.CleanString(uname)
	token, err := cli.auth.Login(ctx, uname, pwd)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	if err = cli.sess.SetToken(ctx, token); err != nil {
		return errors.Wrap(err, "setting session token")
	}

	snap := cli.sess.Current()
	fmt.Fprintf(cli.out, "signed in as %s (%s)\n", snap.User.ID, snap.Role())
	if !session.Authorize(cli.sess, session.RoleTeacher).Allow {
		fmt.Fprintln(cli.out, "warning: the dashboard is only available to teachers")
	}
	return nil
}

func (cli *commandLine) logout(ctx context.Context) error {
	if err := cli.sess.Logout(ctx); err != nil {
		return errors.Wrap(err, "logging out")
	}
	fmt.Fprintln(cli.out, "signed out")
	return nil
}

func (cli *commandLine) whoami() error {
	snap := cli.sess.Current()
	if !snap.Authenticated() {
		fmt.Fprintln(cli.out, "anonymous")
		return nil
	}
	fmt.Fprintf(cli.out, "%s (%s)\n", snap.User.ID, snap.Role())
	return nil
}
