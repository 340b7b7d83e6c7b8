//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	modulePath = "github.com/dkoosis/zephyr-bridge"
	binPath    = "./bin/zephyr-bridge"
)

// Default target - build the binary
var Default = Build

// Build builds the zephyr-bridge binary with version metadata.
func Build() error {
	ldflags := fmt.Sprintf("-s -w -X '%[1]s/internal/version.Version=%[2]s' -X '%[1]s/internal/version.CommitHash=%[3]s' -X '%[1]s/internal/version.BuildDate=%[4]s'",
		modulePath, gitVersion(), gitCommit(), time.Now().UTC().Format(time.RFC3339))
	fmt.Println("Building zephyr-bridge...")
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", binPath, "./cmd/zephyr-bridge")
}

// Clean removes build artifacts
func Clean() error {
	if err := os.RemoveAll("./bin"); err != nil {
		return err
	}
	return sh.Rm("coverage.out")
}

// QA runs formatting, vet, lint and the race-enabled test suite.
func QA() {
	mg.SerialDeps(Lint.Format, Lint.Vet, Lint.Golangci, Test.Race)
}

// Lint namespace for linting commands
type Lint mg.Namespace

// Format fails if any file is not gofmt-clean.
func (Lint) Format() error {
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("files need gofmt:\n%s", out)
	}
	return nil
}

// Vet runs go vet
func (Lint) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Golangci runs golangci-lint when it is installed.
func (Lint) Golangci() error {
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		fmt.Println("golangci-lint not found (install: go install github.com/golangci/golangci-lint/cmd/golangci-lint@latest)")
		return nil
	}
	return sh.RunV("golangci-lint", "run", "--timeout=5m", "./...")
}

// Test namespace for testing commands
type Test mg.Namespace

// All runs all tests
func (Test) All() error {
	return sh.RunV("go", "test", "./...")
}

// Coverage runs tests with coverage
func (Test) Coverage() error {
	if err := sh.RunV("go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func=coverage.out")
}

// Race runs tests with race detector
func (Test) Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

func gitVersion() string {
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty", "--match=v*")
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(out)
}

func gitCommit() string {
	out, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(out)
}
