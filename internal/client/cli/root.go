package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	if a.schema == "" {
		return fmt.Sprintf("(%s)", a.userName)
	}
	return fmt.Sprintf("(%s %s)", a.userName, a.schema)
}

// Root runs the read-eval loop until exit or end of input.
func (a *App) Root(ctx context.Context) {

	fmt.Fprintln(a.out, "Welcome to gqlauth CLI (type 'help' for commands)")

	for {
		fmt.Fprintf(a.out, "gqlauth %s> ", a.getStatus())

		line, err := a.reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		if !a.Exec(ctx, parts[0]) {
			return
		}
	}
}

// Exec runs one command and reports whether the loop should continue.
func (a *App) Exec(ctx context.Context, cmd string) bool {
	var err error

	switch cmd {
	case "help":
		if a.isLoggedIn() {
			fmt.Fprintln(a.out, "Available commands: whoami, refresh, logout, logout-all, status, exit")
		} else {
			fmt.Fprintln(a.out, "Available commands: login, register, status, exit")
		}
	case "login":
		err = a.Login(ctx)
	case "register":
		err = a.Register(ctx)
	case "whoami":
		err = a.WhoAmI(ctx)
	case "refresh":
		err = a.Refresh(ctx)
	case "logout":
		err = a.Logout(ctx)
	case "logout-all":
		err = a.LogoutAll(ctx)
	case "status":
		err = a.Status(ctx)
	case "exit", "quit":
		fmt.Fprintln(a.out, "Bye!")
		return false
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
	}

	if err != nil {
		fmt.Fprintln(a.out, "error:", err)
	}
	return true
}
