package suite

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/parsergen/runtime-tests/framework"
)

// Session is the part of *session.Session a batch run uses.
type Session interface {
	framework.GroupFixture
	ExecLexer(ctx context.Context, grammarFile, grammarSource, lexerName, input string, showDFA bool) (ldvalue.OptionalString, error)
	ExecParser(ctx context.Context, grammarFile, grammarSource, parserName, lexerName, listenerName, visitorName, startRule, input string, diagnostics bool) (ldvalue.OptionalString, error)
	ParseErrors() ldvalue.OptionalString
	ToolErrors() ldvalue.OptionalString
	WorkspaceDir() string
}

// Options controls a batch run.
type Options struct {
	// Group names the top-level test that every case runs under, usually the target name.
	Group string
	// Workers is the number of sessions running cases at once. Values below 1 mean 1.
	Workers    int
	Filter     framework.Filter
	TestLogger framework.TestLogger
	// NewSession creates the session for a worker. Each worker must get its own
	// workspace.
	NewSession func(worker int) (Session, error)
}

// Run executes cases and returns their combined results. Cases are dealt round-robin to
// the workers; each worker runs its share in order with a single session. An error is
// returned only if a session could not be created, in which case the remaining workers
// stop starting new cases.
func Run(ctx context.Context, cases []Case, opts Options) (framework.Results, error) {
	if opts.NewSession == nil {
		return framework.Results{}, errors.New("a session factory is required")
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if len(cases) == 0 {
		return framework.Results{}, nil
	}
	if workers > len(cases) {
		workers = len(cases)
	}
	shards := make([][]Case, workers)
	for i, c := range cases {
		shards[i%workers] = append(shards[i%workers], c)
	}

	var (
		lock sync.Mutex
		all  framework.Results
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, shard := range shards {
		g.Go(func() error {
			s, err := opts.NewSession(i)
			if err != nil {
				return err
			}
			results := framework.Run(gctx, opts.Filter, opts.TestLogger, func(c *framework.Context) {
				c.RunGroup(opts.Group, s, func(c *framework.Context) {
					for _, tc := range shard {
						c.RunTest(tc.Name, s, func(c *framework.Context) {
							runCase(c, s, tc)
						})
					}
				})
			})
			lock.Lock()
			all.Merge(results)
			lock.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return all, err
}

func runCase(c *framework.Context, s Session, tc Case) {
	var (
		out ldvalue.OptionalString
		err error
	)
	switch tc.Kind {
	case KindParser:
		out, err = s.ExecParser(c.Context(), tc.GrammarFile, tc.Grammar, tc.Parser, tc.Lexer,
			tc.Listener, tc.Visitor, tc.StartRule, tc.Input, tc.Diagnostics)
	default:
		out, err = s.ExecLexer(c.Context(), tc.GrammarFile, tc.Grammar, tc.Lexer, tc.Input, tc.ShowDFA)
	}
	c.Debug("workspace: %s", s.WorkspaceDir())
	if tools, ok := s.ToolErrors().Get(); ok {
		c.Debug("generator diagnostics:\n%s", tools)
	}
	if err != nil {
		c.Errorf("%s", err)
		c.FailNow()
	}
	c.Debug("stdout:\n%s", out.OrElse("<none>"))
	if parseErrors, ok := s.ParseErrors().Get(); ok {
		c.Debug("stderr:\n%s", parseErrors)
	}
}
