// Command roundsim replays tower-defense rounds from a saved action frame.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "roundsim"
)

// errUsage marks errors caused by bad arguments.
var errUsage = errors.New("usage error")

const usage = `usage: roundsim <command> [flags]

commands:
  run     replay one test placement and print the result frame
  batch   replay an array of test placements on the worker pool
  path    print the path a mobile unit would take from a cell
  show    print stored rounds as JSON
  version print the build version

run "roundsim <command> --help" for the flags of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// execute runs the subcommand named by args[0].
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("%w: no command given", errUsage)
	}

	var err error
	cmd, rest := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "run":
		err = runCommand(ctx, rest, stdout, stderr)
	case "batch":
		err = batchCommand(ctx, rest, stdout, stderr)
	case "path":
		err = pathCommand(rest, stdout, stderr)
	case "show":
		err = showCommand(rest, stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "%s %s (built %s)\n", AppName, CurrentVersion, BuildDate)
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	return err
}
