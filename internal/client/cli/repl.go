package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Add(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Update(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Logs(ctx context.Context, args []string) error
	Export(ctx context.Context) error
	Import(ctx context.Context, args []string) error
	AuditCSV(ctx context.Context) error
	Sync(ctx context.Context) error
	Attach(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: login, add, (l)ist [status], show <id>, update <id>, delete <id>, logs [clear], export, import <file>, auditcsv, exit"
	helpLoggedIn  = "Available commands: add, (l)ist [status], show <id>, update <id>, delete <id>, logs [clear], export, import <file>, auditcsv, sync, attach <id> <file>, whoami, logout, exit"
)

// runREPL reads commands from reader and dispatches them to a until EOF or
// "exit"/"quit". Command errors are printed and never end the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("sv %s> ", statusFn()))
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
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "whoami":
			cmdErr = a.WhoAmI(ctx)
		case "add":
			cmdErr = a.Add(ctx)
		case "l", "list":
			cmdErr = a.List(ctx, args)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "update":
			cmdErr = a.Update(ctx, args)
		case "delete":
			cmdErr = a.Delete(ctx, args)
		case "logs":
			cmdErr = a.Logs(ctx, args)
		case "export":
			cmdErr = a.Export(ctx)
		case "import":
			cmdErr = a.Import(ctx, args)
		case "auditcsv":
			cmdErr = a.AuditCSV(ctx)
		case "sync":
			cmdErr = a.Sync(ctx)
		case "attach":
			cmdErr = a.Attach(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", describe(cmdErr))
		}
		if err != nil {
			return
		}
	}
}
