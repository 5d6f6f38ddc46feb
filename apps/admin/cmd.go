package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/gcl-lms/web/core/menu"
	"github.com/gcl-lms/web/core/session"
	"github.com/gcl-lms/web/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	nowFunc          = time.Now          // mockable

	errHelp = errors.New("help provided")
)

// backend is what the CLI needs from the LMS backend.
type backend interface {
	session.TokenIssuer
	user.RecoveryService
}

type commandLine struct {
	backend backend
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  token -username USERNAME         - sign in and print the session tokens (password prompted)")
	fmt.Fprintln(cli.out, "  decode -token TOKEN              - print the claims of an access token")
	fmt.Fprintln(cli.out, "  menu -role ROLE                  - print the navigation menu of a role")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL       - send a password reset link")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenUname := tokenCmd.String("username", "", "The user's username. The password will be prompted next.")

	decodeCmd := flag.NewFlagSet("decode", flag.ContinueOnError)
	decodeToken := decodeCmd.String("token", "", "The access token to decode.")

	menuCmd := flag.NewFlagSet("menu", flag.ContinueOnError)
	menuRole := menuCmd.String("role", "", "The role, in any of its spellings.")

	resetCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetEmail := resetCmd.String("email", "", "The email address of the account.")

	for _, fs := range []*flag.FlagSet{tokenCmd, decodeCmd, menuCmd, resetCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenUname == "" {
			tokenCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.obtainToken(*tokenUname, string(pwd))

	case "decode":
		if err := decodeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *decodeToken == "" {
			decodeCmd.Usage()
			return errHelp
		}
		return cli.decode(*decodeToken)

	case "menu":
		if err := menuCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *menuRole == "" {
			menuCmd.Usage()
			return errHelp
		}
		return cli.printMenu(*menuRole)

	case "resetpassword":
		if err := resetCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetEmail == "" {
			resetCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetEmail)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) obtainToken(uname, pwd string) error {
	pair, err := cli.backend.ObtainToken(context.Background(), session.Credentials{Username: uname, Password: pwd})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "access:  %s\nrefresh: %s\n", pair.Access, pair.Refresh)
	return cli.decode(pair.Access)
}

func (cli *commandLine) decode(token string) error {
	claims, err := session.DecodeToken(token)
	if err != nil {
		return err
	}
	role, ok := user.ParseRole(claims.Role)
	roleName := "unknown"
	if ok {
		roleName = role.String()
	}

	fmt.Fprintf(cli.out, "user id:  %s\n", claims.UserID)
	fmt.Fprintf(cli.out, "username: %s\n", claims.Username)
	fmt.Fprintf(cli.out, "role:     %s (%s)\n", claims.Role, roleName)
	if exp := claims.Expiry(); !exp.IsZero() {
		state := "valid"
		if nowFunc().After(exp) {
			state = "expired"
		}
		fmt.Fprintf(cli.out, "expires:  %s (%s)\n", exp.UTC().Format(time.RFC3339), state)
	}
	return nil
}

func (cli *commandLine) printMenu(role string) error {
	if _, ok := user.ParseRole(role); !ok {
		return fmt.Errorf("%q: unknown role", role)
	}
	var printItems func(items []menu.Item, depth int)
	printItems = func(items []menu.Item, depth int) {
		for _, it := range items {
			fmt.Fprintf(cli.out, "%s%s  %s\n", strings.Repeat("  ", depth), it.Label, it.URL)
			printItems(it.SubPages, depth+1)
		}
	}
	printItems(menu.ForRole(role), 0)
	return nil
}
