package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The real App
// type satisfies it; tests provide a lightweight stub.
type execIface interface {
	Add(ctx context.Context, args []string) error
	AddDir(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Start(ctx context.Context) error
	History(ctx context.Context) error
	Clear(ctx context.Context) error
}

// runREPL reads lines from the scanner, parses the first token as the
// command and dispatches to a. Unknown commands are reported back. The
// loop exits on EOF or when the user types "exit" or "quit".
//
// Commands:
//
//	add <path> [album] [subject]  — queue one file
//	adddir <path>                 — queue a directory tree
//	remove <id>                   — drop a waiting task
//	list | l                      — show the queue
//	start                         — upload everything that is waiting
//	history                       — show past uploads
//	clear                         — empty the queue
//	exit | quit                   — leave the program
//
// Command handlers report their own errors; the loop only relays them so
// a failed command never ends the session.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		printlnFn("vault> ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn("Available commands: add, adddir, remove, (l)ist, start, history, clear, exit")

		case "add":
			if len(args) == 0 {
				printlnFn("Usage: add <path> [album] [subject]")
				continue
			}
			err = a.Add(ctx, args)

		case "adddir":
			if len(args) == 0 {
				printlnFn("Usage: adddir <path>")
				continue
			}
			err = a.AddDir(ctx, args)

		case "remove":
			if len(args) == 0 {
				printlnFn("Usage: remove <id>")
				continue
			}
			err = a.Remove(ctx, args)

		case "l", "list":
			err = a.List(ctx)

		case "start":
			err = a.Start(ctx)

		case "history":
			err = a.History(ctx)

		case "clear":
			err = a.Clear(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
