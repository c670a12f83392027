package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/isalabel/internal/cli"
	"github.com/matzehuels/isalabel/pkg/errors"
)

// Exit codes follow sysexits(3) where one fits.
const (
	exitFailure  = 1
	exitDataErr  = 65
	exitTempFail = 75
	exitConfig   = 78
	exitSIGINT   = 130
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		code := exitCode(err)
		if code != exitSIGINT {
			fmt.Fprintln(os.Stderr, "error:", err)
			if errors.IsLabelingFailure(err) {
				fmt.Fprintln(os.Stderr, "hint: the label space is exhausted, rerun with --scratch")
			}
		}
		os.Exit(code)
	}
}

func exitCode(err error) int {
	if stderrors.Is(err, context.Canceled) {
		return exitSIGINT
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidTriple, errors.ErrCodeInvalidURI:
		return exitDataErr
	case errors.ErrCodeInvalidConfig:
		return exitConfig
	case errors.ErrCodeLockTimeout:
		return exitTempFail
	}
	return exitFailure
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every placement decision")

	next := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if next != nil {
			return next(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
