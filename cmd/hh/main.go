// Command hh is a command-line client for the HomeHeaven real-estate marketplace.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/and161185/homeheaven/internal/config"
	"github.com/and161185/homeheaven/internal/logging"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// errUsage marks a malformed command line (exit status 2).
var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintf(w, `hh CLI
Usage:
  hh [--config file] [--api URL] [--storage file|sqlite|memory] [--log-level lvl] <cmd> [args]

Commands:
  version
  register     --email <e> --username <u> [--password <p>]
  login        --email <e> [--password <p>]          (saves token)
  demo-login
  logout
  whoami
  menu
  listings     [--json]
  show         <id>
  create       --title <t> --price <p> [fields] [--image file[=caption]]...
  edit         <id> [fields]
  rm           <id>
  wishlist
  wishlist-add <id>
  profile
  avatar       <file>
  chat         <listing-id> [message...]           (interactive without message)
`)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit status.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet("hh", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.SetInterspersed(false)
	fs.Usage = func() { usage(errOut) }
	cfgPath := fs.String("config", config.Path(), "config file (YAML)")
	apiBase := fs.String("api", "", "backend base URL (overrides config)")
	storage := fs.String("storage", "", "credential storage: file, sqlite or memory")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		usage(errOut)
		return 2
	}
	name, rest := fs.Arg(0), fs.Args()[1:]

	if name == "version" {
		fmt.Fprintf(out, "hh %s (%s)\n", version, buildDate)
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(errOut, "unknown command %q\n", name)
		usage(errOut)
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fail(errOut, err)
	}
	if *apiBase != "" {
		cfg.API.BaseURL = *apiBase
	}
	if *storage != "" {
		cfg.Storage.Backend = *storage
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fail(errOut, err)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fail(errOut, err)
	}
	defer func() { _ = log.Sync() }()

	a, err := newApp(ctx, cfg, log, in, out)
	if err != nil {
		return fail(errOut, err)
	}
	defer a.close()

	if err := cmd(ctx, a, rest); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(errOut, err)
			return 2
		}
		return fail(errOut, err)
	}
	return 0
}

func fail(w io.Writer, err error) int {
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
