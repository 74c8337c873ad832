package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/parsergen/runtime-tests/framework"
	"github.com/parsergen/runtime-tests/logging"
	"github.com/parsergen/runtime-tests/session"
	"github.com/parsergen/runtime-tests/suite"
	"github.com/parsergen/runtime-tests/toolchain"
	"github.com/parsergen/runtime-tests/workspace"
)

// caseOptions are the flags shared by the single-case commands.
type caseOptions struct {
	input     string
	inputFile string
	lexer     string
}

func (o *caseOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.input, "input", "", "text to feed to the driver")
	cmd.Flags().StringVar(&o.inputFile, "input-file", "", "file whose contents are fed to the driver")
	cmd.Flags().StringVar(&o.lexer, "lexer", "", "lexer class name")
	cmd.MarkFlagsMutuallyExclusive("input", "input-file")
}

// load reads the grammar and input. The grammar's file name is kept so that the
// generator names its output after it.
func (o *caseOptions) load(grammarPath string) (grammarFile, grammarSource, input string, err error) {
	data, err := os.ReadFile(grammarPath)
	if err != nil {
		return "", "", "", errWithCode(fmt.Errorf("read grammar: %w", err), exitError)
	}
	input = o.input
	if o.inputFile != "" {
		in, err := os.ReadFile(o.inputFile)
		if err != nil {
			return "", "", "", errWithCode(fmt.Errorf("read input: %w", err), exitError)
		}
		input = string(in)
	}
	return filepath.Base(grammarPath), string(data), input, nil
}

func grammarName(grammarFile string) string {
	return strings.TrimSuffix(grammarFile, filepath.Ext(grammarFile))
}

func (c *commandParams) singleSession() (*session.Session, error) {
	target, err := c.lookupTarget(c.target)
	if err != nil {
		return nil, err
	}
	s, err := c.newSession(target, workspace.Config{Dir: c.workDir})
	if err != nil {
		return nil, err
	}
	if err := s.TestSetUp(); err != nil {
		return nil, errWithCode(err, exitError)
	}
	return s, nil
}

// report prints the driver's output. Harness errors become exit code 2; whatever the
// driver printed, including parse errors, is not a failure.
func (c *commandParams) report(cmd *cobra.Command, s *session.Session, stdout ldvalue.OptionalString, err error) error {
	if tools, ok := s.ToolErrors().Get(); ok {
		fmt.Fprint(cmd.ErrOrStderr(), tools)
	}
	if err != nil {
		var genErr *session.GenerationError
		if errors.As(err, &genErr) {
			return errWithCode(fmt.Errorf("generation of %s failed", genErr.Grammar), exitError)
		}
		return errWithCode(err, exitError)
	}
	fmt.Fprint(cmd.OutOrStdout(), stdout.OrElse(""))
	if parseErrors, ok := s.ParseErrors().Get(); ok {
		fmt.Fprint(cmd.ErrOrStderr(), parseErrors)
	}
	var debug framework.Logger = logging.NewPrintfLogger(c.logger)
	debug.Printf("test case finished in workspace %s", s.WorkspaceDir())
	return nil
}

func newLexerCommand(c *commandParams) *cobra.Command {
	var (
		opts    caseOptions
		showDFA bool
	)
	cmd := &cobra.Command{
		Use:   "lexer <grammar-file>",
		Short: "Tokenize input with a generated lexer and print each token's text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grammarFile, grammarSource, input, err := opts.load(args[0])
			if err != nil {
				return err
			}
			lexer := opts.lexer
			if lexer == "" {
				lexer = grammarName(grammarFile)
			}
			s, err := c.singleSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.TestTearDown() }()
			out, err := s.ExecLexer(cmd.Context(), grammarFile, grammarSource, lexer, input, showDFA)
			return c.report(cmd, s, out, err)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&showDFA, "show-dfa", false, "print the lexer's DFA after the tokens")
	return cmd
}

func newParserCommand(c *commandParams) *cobra.Command {
	var (
		opts        caseOptions
		parser      string
		listener    string
		visitor     string
		startRule   string
		diagnostics bool
	)
	cmd := &cobra.Command{
		Use:   "parser <grammar-file>",
		Short: "Parse input with a generated parser and check the parse tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grammarFile, grammarSource, input, err := opts.load(args[0])
			if err != nil {
				return err
			}
			name := grammarName(grammarFile)
			lexer := firstNonEmpty(opts.lexer, name+"Lexer")
			s, err := c.singleSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.TestTearDown() }()
			out, err := s.ExecParser(cmd.Context(), grammarFile, grammarSource,
				firstNonEmpty(parser, name+"Parser"), lexer,
				firstNonEmpty(listener, name+"Listener"), firstNonEmpty(visitor, name+"Visitor"),
				startRule, input, diagnostics)
			return c.report(cmd, s, out, err)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVar(&parser, "parser", "", "parser class name (default <grammar>Parser)")
	cmd.Flags().StringVar(&listener, "listener", "", "listener class name (default <grammar>Listener)")
	cmd.Flags().StringVar(&visitor, "visitor", "", "visitor class name (default <grammar>Visitor)")
	cmd.Flags().StringVar(&startRule, "start-rule", "", "rule to start parsing at")
	cmd.Flags().BoolVar(&diagnostics, "diagnostics", false, "report ambiguities with exact prediction")
	_ = cmd.MarkFlagRequired("start-rule")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func newLocateCommand(c *commandParams) *cobra.Command {
	var showCommand bool
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Print the path of the target's runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := c.lookupTarget(c.target)
			if err != nil {
				return err
			}
			binary, err := c.locator.Locate(target.Toolchain)
			if err != nil {
				var nf *toolchain.NotFoundError
				if errors.As(err, &nf) {
					fmt.Fprintf(cmd.ErrOrStderr(), "searched:\n")
					for _, p := range nf.Searched {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", p)
					}
				}
				return errWithCode(err, exitError)
			}
			if !showCommand {
				fmt.Fprintln(cmd.OutOrStdout(), binary)
				return nil
			}
			flags, err := shlex.Split(c.runtimeFlags)
			if err != nil {
				return errWithCode(fmt.Errorf("parse --runtime-flags: %w", err), exitError)
			}
			var b commandBuilder
			b.add(binary)
			b.add(flags...)
			b.add(target.Driver.FileName(), workspace.InputFile)
			fmt.Fprintln(cmd.OutOrStdout(), b)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showCommand, "command", false, "print the full command a driver is run with")
	return cmd
}

func newSuiteCommand(c *commandParams) *cobra.Command {
	var (
		filters framework.RegexFilters
		workers int
	)
	cmd := &cobra.Command{
		Use:   "suite <file.yaml>",
		Short: "Run every case in a suite file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := suite.Load(args[0])
			if err != nil {
				return errWithCode(err, exitError)
			}
			targetName := c.target
			if batch.Target != "" && !cmd.Flags().Changed("target") {
				targetName = batch.Target
			}
			target, err := c.lookupTarget(targetName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			framework.PrintFilterDescription(out, filters)
			fmt.Fprintf(out, "Running %d cases from %s against %s\n", len(batch.Cases), args[0], target.Name)

			runID := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			n := min(max(workers, 1), len(batch.Cases))
			start := time.Now()
			results, err := suite.Run(cmd.Context(), batch.Cases, suite.Options{
				Group:   target.Name,
				Workers: workers,
				Filter:  filters.AsFilter,
				TestLogger: &ConsoleTestLogger{
					Out:                  out,
					DebugOutputOnFailure: c.debug || c.debugAll,
					DebugOutputOnSuccess: c.debugAll,
				},
				NewSession: func(worker int) (suite.Session, error) {
					s, err := c.newSession(target, c.workspaceFor(runID, worker, n))
					if err != nil {
						return nil, err
					}
					return s, nil
				},
			})
			if err != nil {
				return err
			}
			c.logger.Info("suite finished", zap.Int("tests", len(results.Tests)), zap.Duration("duration", time.Since(start)))

			fmt.Fprintln(out)
			framework.PrintResults(out, results)
			if !results.OK() {
				return errWithCode(nil, exitTestsFailed)
			}
			return nil
		},
	}
	cmd.Flags().Var(&filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	cmd.Flags().Var(&filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	cmd.Flags().IntVar(&workers, "workers", 1, "number of cases to run at once")
	return cmd
}
