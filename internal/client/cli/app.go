package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// App drives one quizctl invocation: it parses the command, prompts for any
// credentials, and calls the server.
type App struct {
	client *Client
	in     *bufio.Reader
	out    io.Writer
}

func NewApp(serverAddr string, in io.Reader, out io.Writer) *App {
	return &App{
		client: NewClient(serverAddr),
		in:     bufio.NewReader(in),
		out:    out,
	}
}

const usage = `usage: quizctl [-s server] <command> [args]

commands:
  register <login>        create a new user (prompts for the password)
  list                    list all users
  reset-password <login>  set a new password for the user (admin)
  delete <login>          delete the user (admin)
`

// Run executes a single command. args must not include the program name.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("no command given")
	}

	switch args[0] {
	case "register":
		if len(args) != 2 {
			return fmt.Errorf("usage: quizctl register <login>")
		}
		return a.register(ctx, args[1])
	case "list":
		return a.list(ctx)
	case "reset-password":
		if len(args) != 2 {
			return fmt.Errorf("usage: quizctl reset-password <login>")
		}
		return a.resetPassword(ctx, args[1])
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: quizctl delete <login>")
		}
		return a.deleteUser(ctx, args[1])
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func (a *App) register(ctx context.Context, login string) error {
	password, err := getPassword(a.out, "Password for "+login)
	if err != nil {
		return err
	}
	if err := a.client.Register(ctx, login, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user %s registered\n", login)
	return nil
}

func (a *App) list(ctx context.Context) error {
	users, err := a.client.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		passed := 0
		for _, t := range u.TestInfo {
			if t.Passed {
				passed++
			}
		}
		role := ""
		if u.Admin {
			role = " (admin)"
		}
		fmt.Fprintf(a.out, "%s%s\ttests passed: %d/%d\n", u.Login, role, passed, len(u.TestInfo))
	}
	return nil
}

func (a *App) adminCredentials() (string, string, error) {
	login, err := getSimpleText(a.in, "Admin login", a.out)
	if err != nil {
		return "", "", err
	}
	password, err := getPassword(a.out, "Admin password")
	if err != nil {
		return "", "", err
	}
	return login, password, nil
}

func (a *App) resetPassword(ctx context.Context, target string) error {
	adminLogin, adminPassword, err := a.adminCredentials()
	if err != nil {
		return err
	}
	newPassword, err := getPassword(a.out, "New password for "+target)
	if err != nil {
		return err
	}
	if err := a.client.ResetPassword(ctx, adminLogin, adminPassword, target, newPassword); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "password for %s updated\n", target)
	return nil
}

func (a *App) deleteUser(ctx context.Context, target string) error {
	adminLogin, adminPassword, err := a.adminCredentials()
	if err != nil {
		return err
	}
	if err := a.client.DeleteUser(ctx, adminLogin, adminPassword, target); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user %s deleted\n", target)
	return nil
}
