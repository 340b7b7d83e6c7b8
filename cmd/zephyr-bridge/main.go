// zephyr-bridge publishes go test results to Zephyr Scale.
//
// Usage:
//
//	zephyr-bridge --project-key PROJ run -- go test -json ./...
//	go test -json ./... | zephyr-bridge --project-key PROJ ingest
//	zephyr-bridge ingest --input unit.json --input integration.json
//
// Tests whose name carries a case id, e.g. TestLogin/valid_[12], become
// executions of the case PROJ-12. At the end of the run the executions are
// written to a JSON report, zipped and uploaded as a new test cycle.
//
// Exit codes: run exits with the test command's code; any failure to set up,
// read the results or publish them exits 2.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"github.com/dkoosis/zephyr-bridge/internal/console"
	"github.com/dkoosis/zephyr-bridge/internal/version"
)

// exitFailure is returned for setup, input and publishing failures.
const exitFailure = 2

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the application and returns the exit code.
// This allows integration tests to invoke the logic without os.Exit() terminating the test runner.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := newApp(stdin, stdout, stderr)
	err := app.RunContext(ctx, append([]string{app.Name}, args...))
	if err == nil {
		return 0
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			console.New(stderr, false).Errorf("%s", msg)
		}
		return exitErr.ExitCode()
	}
	// Flag parsing and other errors raised by cli itself.
	console.New(stderr, false).Errorf("%v", err)
	return exitFailure
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	app := &cli.App{
		Name:      "zephyr-bridge",
		Usage:     "Publish go test results to Zephyr Scale",
		Version:   version.Version,
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     Flags,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Run a test command and publish its go test -json output",
				ArgsUsage: "-- <command> [args...]",
				Flags:     []cli.Flag{Passthrough},
				Action:    runCommand,
			},
			{
				Name:   "ingest",
				Usage:  "Publish go test -json output from files or stdin",
				Flags:  []cli.Flag{Inputs},
				Action: ingestCommand,
			},
			{
				Name:  "version",
				Usage: "Print build information",
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprintln(c.App.Writer, version.String())
					return err
				},
			},
		},
	}
	// Exit codes are mapped by run.
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app
}
