package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: newsletter <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render       Render Markdown newsletters to email HTML")
	fmt.Fprintln(w, "  send         Send the rendered newsletter to subscribers")
	fmt.Fprintln(w, "  doctor       Check mail, DNS and environment readiness")
	fmt.Fprintln(w, "  completion   Generate shell completion script")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w, "  help         Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'newsletter help <command>' for details on a specific command.")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: newsletter render [input...] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render Markdown newsletters to email-safe HTML.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file or directory (default: newest newsletter-*.md")
	fmt.Fprintln(w, "           in the input directory; bare names are also looked up there)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>       Output HTML file (single input only)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel renders (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Link preview fetch timeout (e.g., 10s)")
	fmt.Fprintln(w, "      --refresh             Ignore cached link previews")
	fmt.Fprintln(w, "      --template-dir <dir>  Directory overriding email.html")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logging")
}

// printSendUsage prints usage for the send command.
func printSendUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: newsletter send [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Send a rendered newsletter to every subscriber via Resend.")
	fmt.Fprintln(w, "Requires RESEND_API_KEY (environment or .env) unless --dry-run.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --newsletter <path>   Newsletter HTML file (default: latest in output dir)")
	fmt.Fprintln(w, "      --subscribers <path>  Subscribers CSV with an 'email' column")
	fmt.Fprintln(w, "      --dry-run             Show recipients without sending")
	fmt.Fprintln(w, "      --no-confirm          Skip DNS check, preview and prompts")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logging")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: newsletter doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the mail API key, sender DNS records, browser and paths.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Output JSON")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "send":
		printSendUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: newsletter version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: newsletter help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
