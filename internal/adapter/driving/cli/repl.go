package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const helpText = `Commands:
  /register          create an account and sign in
  /login             sign in
  /logout            sign out (history is kept)
  /whoami            show the signed-in account
  /history           show the whole conversation
  /voice <file>      send a recorded voice note
  /export <n> <file> save the audio of voice note n
  /help              show this help
  /exit              leave
Anything else is sent to Chill as a message.`

// Run reads lines until EOF, /exit or ctx is done. Lines starting with "/"
// are commands; anything else is a message. Command errors are printed and
// the loop continues.
func (a *App) Run(ctx context.Context) error {
	if err := a.Resume(ctx); err != nil {
		a.render.Printf("%s\n", describe(err))
	}
	if !a.isLoggedIn() {
		a.render.Printf("Welcome to Chill. Type /register or /login to begin, /help for commands.\n")
	}

	for ctx.Err() == nil {
		line, err := readLine(a.in, a.out, a.prompt())
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if line == "" {
			continue
		}
		if quit := a.dispatch(ctx, line); quit {
			return nil
		}
	}
	return nil
}

func (a *App) prompt() string {
	if a.isLoggedIn() {
		return a.session.Account().Name() + "> "
	}
	return "chill> "
}

// dispatch runs one input line and reports whether the REPL should stop.
// A panic inside a command is logged and reported without ending the loop.
func (a *App) dispatch(ctx context.Context, line string) (quit bool) {
	cmd, args := parseLine(line)

	defer func() {
		if v := recover(); v != nil {
			slog.Error("panic recovered", "panic", v, "command", cmd)
			a.render.Printf("Internal error; the session is still usable.\n")
			quit = false
		}
	}()

	var err error
	switch cmd {
	case "":
		err = a.Send(ctx, line)
	case "register":
		err = a.Register(ctx)
	case "login":
		err = a.Login(ctx)
	case "logout":
		err = a.Logout(ctx)
	case "whoami":
		err = a.WhoAmI()
	case "history":
		err = a.History(ctx)
	case "voice":
		err = a.Voice(ctx, strings.Join(args, " "))
	case "export":
		err = a.Export(ctx, args)
	case "help":
		a.render.Printf("%s\n", helpText)
	case "exit", "quit":
		a.render.Printf("Take care. Bye!\n")
		return true
	default:
		a.render.Printf("Unknown command /%s. Type /help for commands.\n", cmd)
	}

	if err != nil {
		slog.Debug("command failed", "command", cmd, "error", err)
		a.render.Printf("%s\n", describe(err))
	}
	return false
}

// parseLine splits "/cmd arg..." into the lower-cased command and its
// arguments. Plain messages yield an empty command.
func parseLine(line string) (string, []string) {
	if !strings.HasPrefix(line, "/") {
		return "", nil
	}
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return "help", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}
