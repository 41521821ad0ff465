// Package cli is the terminal front end: a line-oriented REPL that drives the
// application services and renders transcripts.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ericfisherdev/chill/internal/application"
	"github.com/ericfisherdev/chill/internal/domain/port/driven"
)

// Deps groups the services the App drives.
type Deps struct {
	Accounts     *application.AccountService
	Sessions     *application.SessionManager
	History      *application.HistoryService
	Conversation *application.ConversationService
	Audio        driven.AudioStore
	Renderer     *Renderer
}

// App holds the REPL state: the services, the terminal streams and the
// session handle of the signed-in account.
type App struct {
	deps   Deps
	in     *bufio.Reader
	out    io.Writer
	fd     int
	render *Renderer

	session *application.Session
}

// NewApp creates an App reading commands from in and writing to out. When
// deps.Renderer is nil a renderer over out is created. Secrets are read
// without echo only when in is a terminal.
func NewApp(deps Deps, in io.Reader, out io.Writer) *App {
	r := deps.Renderer
	if r == nil {
		r = NewRenderer(out)
	}
	fd := -1
	if f, ok := in.(*os.File); ok {
		fd = int(f.Fd())
	}
	return &App{
		deps:   deps,
		in:     bufio.NewReader(in),
		out:    out,
		fd:     fd,
		render: r,
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.Active()
}

// Resume restores the session left by the previous run, if any.
func (a *App) Resume(ctx context.Context) error {
	sess, transcript, err := a.deps.Sessions.Resume(ctx)
	if errors.Is(err, application.ErrNotLoggedIn) {
		return nil
	}
	if err != nil {
		return err
	}
	a.session = sess
	a.render.Printf("Welcome back, %s.\n", sess.Account().Name())
	a.render.Transcript(transcript)
	return nil
}

// Register prompts for sign-up details, creates the account and signs in.
func (a *App) Register(ctx context.Context) error {
	identifier, err := readLine(a.in, a.out, "Email: ")
	if err != nil {
		return err
	}
	name, err := readLine(a.in, a.out, "Name: ")
	if err != nil {
		return err
	}
	secret, err := readSecret(a.in, a.out, a.fd, "Password: ")
	if err != nil {
		return err
	}

	account, err := a.deps.Accounts.Register(ctx, identifier, secret, name)
	if err != nil {
		return err
	}
	return a.startSession(ctx, account.Identifier, secret)
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	identifier, err := readLine(a.in, a.out, "Email: ")
	if err != nil {
		return err
	}
	secret, err := readSecret(a.in, a.out, a.fd, "Password: ")
	if err != nil {
		return err
	}
	return a.startSession(ctx, identifier, secret)
}

func (a *App) startSession(ctx context.Context, identifier, secret string) error {
	account, err := a.deps.Accounts.Verify(ctx, identifier, secret)
	if err != nil {
		return err
	}
	sess, transcript, err := a.deps.Sessions.Login(ctx, account)
	if err != nil {
		return err
	}
	a.session = sess
	a.render.Printf("Signed in as %s.\n", account.Name())
	a.render.Transcript(transcript)
	return nil
}

// Logout ends the session. History is kept for the next login.
func (a *App) Logout(ctx context.Context) error {
	if err := a.deps.Sessions.Logout(ctx); err != nil {
		return err
	}
	a.session = nil
	a.render.Reset()
	a.render.Printf("Signed out.\n")
	return nil
}

// WhoAmI prints the signed-in account.
func (a *App) WhoAmI() error {
	account, ok := a.deps.Sessions.CurrentAccount()
	if !ok {
		return application.ErrNotLoggedIn
	}
	a.render.Printf("%s <%s>\n", account.Name(), account.Identifier)
	return nil
}

// History reprints the full transcript.
func (a *App) History(ctx context.Context) error {
	if !a.isLoggedIn() {
		return application.ErrNotLoggedIn
	}
	transcript, err := a.deps.History.Load(ctx, a.session.Identifier())
	if err != nil {
		return err
	}
	a.render.Transcript(transcript)
	return nil
}

// Send submits a text message. Turns are printed by the renderer as the
// conversation service reports them.
func (a *App) Send(ctx context.Context, text string) error {
	if !a.isLoggedIn() {
		return application.ErrNotLoggedIn
	}
	_, err := a.deps.Conversation.Submit(ctx, a.session, text)
	return err
}

// Voice captures the clip at path, stores it and submits it as a voice note.
func (a *App) Voice(ctx context.Context, path string) error {
	if !a.isLoggedIn() {
		return application.ErrNotLoggedIn
	}
	if path == "" {
		return fmt.Errorf("usage: /voice <file>: %w", application.ErrInvalidInput)
	}

	clip, err := captureFn(path)
	if err != nil {
		return err
	}
	defer clip.Close()

	handle, err := a.deps.Audio.Save(ctx, clip)
	if err != nil {
		return fmt.Errorf("store voice note: %w", err)
	}
	_, err = a.deps.Conversation.SubmitVoice(ctx, a.session, handle)
	return err
}

// Export copies the audio of voice-note turn n (as numbered on screen) to dest.
func (a *App) Export(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return application.ErrNotLoggedIn
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: /export <turn> <file>: %w", application.ErrInvalidInput)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("turn number %q: %w", args[0], application.ErrInvalidInput)
	}

	transcript, err := a.deps.History.Load(ctx, a.session.Identifier())
	if err != nil {
		return err
	}
	if n < 1 || n > transcript.Len() || !transcript.Turns[n-1].HasAudio() {
		return fmt.Errorf("turn %d has no voice note: %w", n, application.ErrInvalidInput)
	}

	src, err := a.deps.Audio.Open(ctx, transcript.Turns[n-1].AudioRef)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(args[1])
	if err != nil {
		return fmt.Errorf("create %s: %w", args[1], err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("write %s: %w", args[1], err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close %s: %w", args[1], err)
	}
	a.render.Printf("Saved voice note to %s.\n", args[1])
	return nil
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, driven.ErrAccountNotFound):
		return "No account with that email. Use /register to sign up."
	case errors.Is(err, application.ErrInvalidSecret):
		return "Incorrect password."
	case errors.Is(err, driven.ErrDuplicateAccount):
		return "An account with that email already exists. Use /login."
	case errors.Is(err, application.ErrInvalidInput):
		return "Invalid input: " + strings.TrimSuffix(err.Error(), ": "+application.ErrInvalidInput.Error())
	case errors.Is(err, application.ErrEmptyMessage):
		return "Type a message first."
	case errors.Is(err, application.ErrBusy):
		return "Chill is still replying. Try again in a moment."
	case errors.Is(err, application.ErrNotLoggedIn):
		return "Please /login or /register first."
	case errors.Is(err, ErrMicrophoneUnavailable):
		return "Could not capture audio: " + err.Error()
	case errors.Is(err, driven.ErrStoreUnavailable):
		return "Storage is unavailable right now. Please try again."
	default:
		return "Error: " + err.Error()
	}
}
