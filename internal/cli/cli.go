// Package cli is the terminal front end of the client. Each command drives a
// page controller and renders its view as text, JSON or YAML.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"smilegift/internal/pages"
)

// ErrUsage is returned for unknown commands and bad arguments.
var ErrUsage = errors.New("usage error")

type command struct {
	summary string
	run     func(ctx context.Context, a *App, args []string) error
}

var commands = map[string]command{
	"login":       {"Sign in with email and password", runLogin},
	"register":    {"Create an account", runRegister},
	"logout":      {"Sign out and forget the stored token", runLogout},
	"whoami":      {"Show the signed-in user", runWhoami},
	"feed":        {"List posts (-sort latest|popular|trending, -pages N)", runFeed},
	"post":        {"Show a post with its comments", runPost},
	"like":        {"Like or unlike a post", runLike},
	"comment":     {"Comment on a post", runComment},
	"gift":        {"Send a gift to a post's author (-amount, -message, -dispatch on mobile)", runGift},
	"leaderboard": {"Show the leaderboards (-timeframe weekly|monthly|allTime, -trending)", runLeaderboard},
	"profile":     {"Show a profile by username or id", runProfile},
	"create-post": {"Share an image (-image, -caption, -location, -tags)", runCreatePost},
	"settings":    {"Update your profile", runSettings},
}

// PasswordReader prompts for a secret.
type PasswordReader func(prompt string) (string, error)

// App runs commands against one client session.
type App struct {
	deps     pages.Deps
	out      io.Writer
	errOut   io.Writer
	format   string
	password PasswordReader
}

// Option configures an App.
type Option func(*App)

// WithPasswordReader replaces the terminal password prompt.
func WithPasswordReader(r PasswordReader) Option {
	return func(a *App) { a.password = r }
}

// WithErrorOutput sets where usage and field errors are written.
func WithErrorOutput(w io.Writer) Option {
	return func(a *App) { a.errOut = w }
}

func New(d pages.Deps, out io.Writer, opts ...Option) *App {
	a := &App{
		deps:     d,
		out:      out,
		errOut:   os.Stderr,
		format:   FormatText,
		password: terminalPassword(os.Stdin, os.Stderr),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run parses the global flags, restores the session and runs one command.
func (a *App) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("smilegift", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	format := fs.String("output", FormatText, "Output format: text, json or yaml")
	fs.Usage = a.usage
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if !validFormat(*format) {
		return fmt.Errorf("%w: unknown output format %q", ErrUsage, *format)
	}
	a.format = *format

	rest := fs.Args()
	if len(rest) == 0 {
		a.usage()
		return ErrUsage
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		a.usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, rest[0])
	}

	a.deps.Session.Initialize(ctx)
	err := cmd.run(ctx, a, rest[1:])
	if fe, ok := pages.AsFieldErrors(err); ok {
		a.printFieldErrors(fe)
	}
	return err
}

func (a *App) usage() {
	fmt.Fprintln(a.errOut, "Usage: smilegift [-output text|json|yaml] <command> [options]")
	fmt.Fprintln(a.errOut)
	fmt.Fprintln(a.errOut, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(a.errOut, "  %-12s %s\n", name, commands[name].summary)
	}
}

func (a *App) printFieldErrors(fe pages.FieldErrors) {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(a.errOut, "  %s: %s\n", field, fe[field])
	}
}

// flags builds the flag set of a subcommand.
func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// secret returns value, or prompts for it when empty.
func (a *App) secret(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	return a.password(prompt)
}

// terminalPassword reads without echo from a terminal and falls back to a
// plain line read when in is not one.
func terminalPassword(in *os.File, prompt io.Writer) PasswordReader {
	reader := bufio.NewReader(in)
	return func(label string) (string, error) {
		fmt.Fprint(prompt, label)
		if term.IsTerminal(int(in.Fd())) {
			raw, err := term.ReadPassword(int(in.Fd()))
			fmt.Fprintln(prompt)
			return string(raw), err
		}
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}
