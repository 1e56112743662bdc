package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	Remove(ctx context.Context, args []string) error
	Bookmark(ctx context.Context, args []string) error
	Bookmarks(ctx context.Context) error
	Check(ctx context.Context) error
	Queue(ctx context.Context) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the HoaxBuster CLI.
//
// It reads a line from reader, parses the first token as the command and
// passes the remaining tokens to the handler. The same reader is used by the
// interactive prompts of the handlers. The loop exits on EOF, when ctx ends
// or when the user types "exit" or "quit".
//
// Commands
//
//	help                 show available commands
//	register | login     account access (guests may skip it)
//	logout               forget the local session
//	list | l             list stories, saved copies when offline
//	show <id>            show one story with its location
//	add                  post a story, queued when offline
//	remove <id>          drop a story from the local store
//	bookmark <id>        toggle a bookmark
//	bookmarks            list bookmarks
//	check                check a piece of news for hoaxes
//	queue                list writes waiting for sync
//	sync                 sync now
//	status               connectivity and local store counts
//	exit | quit          leave the program
//
// Handler errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func(ctx context.Context) string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn(fmt.Sprintf("hb> %s > ", statusFn(ctx)))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				printlnFn("Available commands: (l)ist, show, add, remove, bookmark, bookmarks, check, queue, sync, status, logout, exit")
			} else {
				printlnFn("Available commands: (l)ist, show, add, remove, bookmark, bookmarks, check, queue, sync, status, register, login, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "l", "list":
			cmdErr = a.List(ctx)

		case "show":
			cmdErr = a.Show(ctx, args)

		case "add":
			cmdErr = a.Add(ctx)

		case "remove":
			cmdErr = a.Remove(ctx, args)

		case "bookmark":
			cmdErr = a.Bookmark(ctx, args)

		case "bookmarks":
			cmdErr = a.Bookmarks(ctx)

		case "check":
			cmdErr = a.Check(ctx)

		case "queue":
			cmdErr = a.Queue(ctx)

		case "sync":
			cmdErr = a.Sync(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}

		if err != nil {
			return
		}
	}
}

// argID returns the single id argument of a command.
func argID(args []string, usage string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return args[0], nil
}
