package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common      commonFlags
	output      string
	workers     int
	timeout     string
	refresh     bool
	templateDir string
}

// sendFlags holds all flags for the send command.
type sendFlags struct {
	common      commonFlags
	newsletter  string
	subscribers string
	dryRun      bool
	noConfirm   bool
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logging")
}

// registerRenderFlags adds the render flags to fs.
func registerRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVarP(&f.output, "output", "o", "", "output HTML file (single input)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel renders (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "metadata fetch timeout (e.g., 10s)")
	fs.BoolVar(&f.refresh, "refresh", false, "ignore cached link previews")
	fs.StringVar(&f.templateDir, "template-dir", "", "directory overriding the email template")
	addCommonFlags(fs, &f.common)
}

// registerSendFlags adds the send flags to fs.
func registerSendFlags(fs *flag.FlagSet, f *sendFlags) {
	fs.StringVar(&f.newsletter, "newsletter", "", "newsletter HTML file (default: latest)")
	fs.StringVar(&f.subscribers, "subscribers", "", "subscribers CSV file")
	fs.BoolVar(&f.dryRun, "dry-run", false, "show recipients without sending")
	fs.BoolVar(&f.noConfirm, "no-confirm", false, "skip checks and confirmation prompts")
	addCommonFlags(fs, &f.common)
}

// registerDoctorFlags adds the doctor flags to fs.
func registerDoctorFlags(fs *flag.FlagSet, f *doctorFlags) {
	fs.BoolVar(&f.json, "json", false, "output JSON")
	addCommonFlags(fs, &f.common)
}

// newFlagSet returns a FlagSet that reports errors instead of exiting.
func newFlagSet(name string, errOut io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	return fs
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string, errOut io.Writer) (*renderFlags, []string, error) {
	fs := newFlagSet("render", errOut)
	f := &renderFlags{}
	registerRenderFlags(fs, f)
	fs.Usage = func() { printRenderUsage(errOut) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseSendFlags parses send command flags.
func parseSendFlags(args []string, errOut io.Writer) (*sendFlags, []string, error) {
	fs := newFlagSet("send", errOut)
	f := &sendFlags{}
	registerSendFlags(fs, f)
	fs.Usage = func() { printSendUsage(errOut) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, errOut io.Writer) (*doctorFlags, error) {
	fs := newFlagSet("doctor", errOut)
	f := &doctorFlags{}
	registerDoctorFlags(fs, f)
	fs.Usage = func() { printDoctorUsage(errOut) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}
