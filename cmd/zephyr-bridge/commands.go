package main

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/dkoosis/zephyr-bridge/internal/detect"
)

// runCommand spawns the test command, consumes its stdout and publishes the
// results. It exits with the command's exit code unless publishing fails.
func runCommand(c *cli.Context) error {
	args := c.Args().Slice()
	if len(args) == 0 {
		return cli.Exit("no command specified after --\nusage: zephyr-bridge [flags] run -- <command> [args...]", exitFailure)
	}

	b, err := newBridge(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = c.App.Reader
	cmd.Stderr = c.App.ErrWriter
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return cli.Exit(errors.Wrap(err, "connecting test command output").Error(), exitFailure)
	}
	var out io.Reader = pipe
	if c.Bool(Passthrough.Name) {
		out = io.TeeReader(pipe, c.App.Writer)
	}

	b.log.Debug().Strs("command", args).Msg("starting test command")
	if err := cmd.Start(); err != nil {
		return cli.Exit(errors.Wrapf(err, "starting %s", args[0]).Error(), exitFailure)
	}

	_, pubErr := b.publish(ctx, out)
	if pubErr != nil {
		// Unblock a child still writing to the pipe.
		cancel()
	}
	waitErr := cmd.Wait()

	code := exitCode(waitErr)
	b.log.Debug().Int("exit_code", code).Msg("test command finished")
	if pubErr != nil {
		return cli.Exit(pubErr.Error(), exitFailure)
	}
	if code < 0 {
		return cli.Exit(errors.Wrap(waitErr, "waiting for test command").Error(), exitFailure)
	}
	if code != 0 {
		return cli.Exit("", code)
	}
	return nil
}

// exitCode maps the result of cmd.Wait to a process exit code. It returns -1
// when the command did not run to an exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
		// Killed by a signal.
		return 1
	}
	return -1
}

// ingestCommand publishes go test -json output read from --input files or stdin.
// Files are consumed concurrently.
func ingestCommand(c *cli.Context) error {
	b, err := newBridge(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	var inputs []io.Reader
	paths := c.StringSlice(Inputs.Name)
	if len(paths) == 0 {
		r, err := sniffed(c.App.Reader, "stdin")
		if err != nil {
			return cli.Exit(err.Error(), exitFailure)
		}
		inputs = append(inputs, r)
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return cli.Exit(errors.Wrap(err, "opening input").Error(), exitFailure)
		}
		defer f.Close()
		r, err := sniffed(f, path)
		if err != nil {
			return cli.Exit(err.Error(), exitFailure)
		}
		inputs = append(inputs, r)
	}

	if _, err := b.publish(c.Context, inputs...); err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	return nil
}

// sniffed checks that r carries go test -json and returns a reader replaying it.
// Empty input is accepted: it is a run without tests.
func sniffed(r io.Reader, name string) (io.Reader, error) {
	format, replay, err := detect.Peek(r)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	switch format {
	case detect.GoTestJSON, detect.Empty:
		return replay, nil
	case detect.ZephyrReport:
		return nil, errors.Errorf("%s: already a Zephyr report; ingest expects go test -json output", name)
	default:
		return nil, errors.Errorf("%s: input is not go test -json output (run go test with -json)", name)
	}
}
