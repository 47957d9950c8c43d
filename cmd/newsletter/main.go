package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Sentinel errors for CLI operations.
var (
	ErrUsage   = errors.New("invalid usage")
	ErrAborted = errors.New("aborted")
)

// commands lists the subcommands runMain dispatches.
var commands = []string{"render", "send", "doctor", "completion", "version", "help"}

func main() {
	// .env supplies RESEND_API_KEY; variables already set win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches args to a command and returns the exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	warnUnknownEnvVars(env.Stderr)

	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, rest := args[1], args[2:]
	if !isCommand(cmd) {
		if !looksLikeMarkdown(cmd) {
			fmt.Fprintf(env.Stderr, "unknown command: %s\n", cmd)
			printUsage(env.Stderr)
			return ExitUsage
		}
		cmd, rest = "render", args[1:]
	}

	var err error
	switch cmd {
	case "render":
		err = runRenderCmd(ctx, rest, env)
	case "send":
		err = runSendCmd(ctx, rest, env)
	case "doctor":
		return runDoctorCmd(ctx, rest, env)
	case "completion":
		err = runCompletion(rest, env)
	case "version":
		fmt.Fprintf(env.Stdout, "go-newsletter %s\n", Version)
	case "help":
		return runHelp(rest, env)
	}

	return reportError(err, env)
}

// reportError prints err and maps it to an exit code.
func reportError(err error, env *Environment) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, flag.ErrHelp):
		return ExitSuccess
	case errors.Is(err, ErrAborted):
		fmt.Fprintf(env.Stdout, "\n%v\n", err)
		return ExitSuccess
	}

	fmt.Fprintf(env.Stderr, "error: %v\n", err)
	return exitCodeFor(err)
}

// abortError ends a command early at the user's request.
type abortError struct {
	msg string
}

func (e *abortError) Error() string        { return e.msg }
func (e *abortError) Is(target error) bool { return target == ErrAborted }

// abort returns an ErrAborted carrying the message shown to the user.
func abort(msg string) error {
	return &abortError{msg: msg}
}

// isCommand reports whether name is a known subcommand.
func isCommand(name string) bool {
	for _, c := range commands {
		if c == name {
			return true
		}
	}
	return false
}

// looksLikeMarkdown reports whether arg names a Markdown file, so
// "newsletter issue.md" works as "newsletter render issue.md".
func looksLikeMarkdown(arg string) bool {
	return strings.HasSuffix(arg, ".md") || strings.HasSuffix(arg, ".markdown")
}
