package main

import (
	"context"
	"fmt"

	"github.com/gcl-lms/web/core"
)

func (cli *commandLine) resetPassword(email string) error {
	email = core.CleanString(email, true /* lower */)
	if err := cli.backend.RequestPasswordReset(context.Background(), email); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "A reset link was requested for %s\n", email)
	return nil
}
