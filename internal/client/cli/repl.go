package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// errUnknownCommand reports a token that maps to no page or verb.
var errUnknownCommand = errors.New("unknown command")

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isAuthorized() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ShowProfile(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	ShowConfig() error
	RunPage(ctx context.Context, name string, args []string) error
	Dismiss()
	Notices() string
}

// runREPL starts a read–eval–print loop for the admin console.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not authorized:
//	  - help           — show available commands
//	  - login          — authenticate against the auth service
//	  - exit | quit    — leave the program
//
//	Authorized:
//	  - help
//	  - me             — show the owner profile (the default view)
//	  - passwd         — change the owner password
//	  - companies | users | admins | owners | notes
//	                   — list a collection; add "create", "update <id>" or
//	                     "delete <id>" for the edit dialogs;
//	                     "admins companies <id>" edits company membership
//	  - files          — list files; "upload <path> <user_id>",
//	                     "download <uuid> [dest]", "delete <uuid>"
//	  - config         — show the effective configuration
//	  - dismiss        — clear the pending error/message
//	  - logout
//	  - exit | quit
//
// Command handlers surface their own failures through the notification
// channel; the loop only prints the pending notices after each command.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("actl %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isAuthorized() {
				printlnFn("Available commands: me, passwd, companies, users, admins, owners, notes, files, config, dismiss, logout, exit")
				printlnFn("Collections: <name> [create | update <id> | delete <id>]; admins companies <id>; files [upload <path> <user_id> | download <uuid> [dest] | delete <uuid>]")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			if !a.isAuthorized() {
				printlnFn("Please login first.")
				continue
			}
			switch cmd {
			case "me":
				_ = a.ShowProfile(ctx)
			case "passwd":
				_ = a.ChangePassword(ctx)
			case "config":
				_ = a.ShowConfig()
			case "dismiss":
				a.Dismiss()
			case "logout":
				_ = a.Logout(ctx)
			default:
				if err := a.RunPage(ctx, cmd, args); errors.Is(err, errUnknownCommand) {
					printlnFn("Unknown command:", cmd)
					continue
				}
			}
		}

		if n := a.Notices(); n != "" {
			printlnFn(n)
		}
	}
}
