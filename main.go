// Command runtime-tests generates recognizers for a target language, runs them over input
// text with that language's runtime and reports what the driver printed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

const (
	exitTestsFailed = 1
	exitError       = 2
)

var version = "dev"

func main() {
	var params commandParams

	rootCmd := &cobra.Command{
		Use:   "runtime-tests",
		Short: "Run generated recognizers out of process",
		Long: `runtime-tests feeds a grammar to the parser generator, writes a small driver program
for the chosen target language and runs it with that language's runtime.

Standard output of the driver is printed on standard output; whatever the driver
wrote to standard error (parse errors) is printed on standard error.`,
		Example: `  runtime-tests lexer T.g4 --input 'a b c'
  runtime-tests parser Expr.g4 --start-rule s --input '3+4'
  runtime-tests --target python3 locate
  runtime-tests suite testdata/dart.yaml --workers 4 --skip 'slow'`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return params.setUp(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	params.addFlags(rootCmd)
	rootCmd.AddCommand(
		newLexerCommand(&params),
		newParserCommand(&params),
		newLocateCommand(&params),
		newSuiteCommand(&params),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	params.tearDown()
	if err != nil {
		if err.Error() != "" {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		var cErr codedError
		if errors.As(err, &cErr) {
			os.Exit(cErr.code)
		}
		os.Exit(exitError)
	}
}

type codedError struct {
	err  error
	code int
}

func (e codedError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e codedError) Unwrap() error { return e.err }

func errWithCode(err error, code int) error {
	return codedError{err: err, code: code}
}
