package suite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/parsergen/runtime-tests/framework"
)

type fakeSession struct {
	worker int
	fail   map[string]error

	lock  *sync.Mutex
	calls *[]string
}

func (s *fakeSession) record(call string) {
	s.lock.Lock()
	*s.calls = append(*s.calls, fmt.Sprintf("w%d %s", s.worker, call))
	s.lock.Unlock()
}

func (s *fakeSession) GroupSetUp() error {
	s.record("group-setup")
	return nil
}

func (s *fakeSession) GroupTearDown() error {
	s.record("group-teardown")
	return nil
}

func (s *fakeSession) TestSetUp() error {
	s.record("setup")
	return nil
}

func (s *fakeSession) TestTearDown() error {
	s.record("teardown")
	return nil
}

func (s *fakeSession) ExecLexer(_ context.Context, grammarFile, _, lexerName, _ string, _ bool) (ldvalue.OptionalString, error) {
	s.record("lexer " + lexerName)
	if err := s.fail[lexerName]; err != nil {
		return ldvalue.OptionalString{}, err
	}
	return ldvalue.NewOptionalString("a\n"), nil
}

func (s *fakeSession) ExecParser(_ context.Context, _, _, parserName, _, _, _, startRule, _ string, _ bool) (ldvalue.OptionalString, error) {
	s.record("parser " + parserName + "." + startRule)
	return ldvalue.OptionalString{}, nil
}

func (s *fakeSession) ParseErrors() ldvalue.OptionalString {
	return ldvalue.OptionalString{}
}

func (s *fakeSession) ToolErrors() ldvalue.OptionalString {
	return ldvalue.OptionalString{}
}

func (s *fakeSession) WorkspaceDir() string {
	return fmt.Sprintf("/tmp/w%d", s.worker)
}

type fakeFactory struct {
	lock  sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeFactory) newSession(worker int) (Session, error) {
	return &fakeSession{worker: worker, fail: f.fail, lock: &f.lock, calls: &f.calls}, nil
}

func lexerCase(name string) Case {
	return Case{Name: name, Kind: KindLexer, GrammarFile: "T.g4", Grammar: "x", Lexer: name}
}

func TestRunSingleWorkerRunsCasesInOrder(t *testing.T) {
	f := &fakeFactory{}
	cases := []Case{
		lexerCase("L1"),
		{Name: "p", Kind: KindParser, GrammarFile: "T.g4", Grammar: "x", Lexer: "TLexer", Parser: "TParser", StartRule: "s"},
	}
	results, err := Run(context.Background(), cases, Options{Group: "Dart", NewSession: f.newSession})
	require.NoError(t, err)
	assert.True(t, results.OK())
	assert.Len(t, results.Tests, 3)
	assert.Equal(t, []string{
		"w0 group-setup",
		"w0 setup", "w0 lexer L1", "w0 teardown",
		"w0 setup", "w0 parser TParser.s", "w0 teardown",
		"w0 group-teardown",
	}, f.calls)
}

func TestRunHarnessErrorFailsOnlyThatCase(t *testing.T) {
	f := &fakeFactory{fail: map[string]error{"bad": errors.New("can't exec \"dart\"")}}
	results, err := Run(context.Background(), []Case{lexerCase("bad"), lexerCase("good")},
		Options{Group: "Dart", NewSession: f.newSession})
	require.NoError(t, err)
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "Dart/bad", results.Failures[0].TestID.String())
	assert.Contains(t, f.calls, "w0 lexer good")
}

func TestRunSpreadsCasesAcrossWorkers(t *testing.T) {
	f := &fakeFactory{}
	var cases []Case
	for i := 0; i < 6; i++ {
		cases = append(cases, lexerCase(fmt.Sprintf("L%d", i)))
	}
	results, err := Run(context.Background(), cases, Options{Group: "Dart", Workers: 3, NewSession: f.newSession})
	require.NoError(t, err)
	assert.True(t, results.OK())
	// the group every worker opens is counted once
	assert.Len(t, results.Tests, 7)

	var lexed []string
	for _, call := range f.calls {
		var worker int
		var name string
		if n, _ := fmt.Sscanf(call, "w%d lexer %s", &worker, &name); n == 2 {
			lexed = append(lexed, call)
			assert.Equal(t, worker, int(name[1]-'0')%3, call)
		}
	}
	assert.Len(t, lexed, 6)
}

func TestRunAppliesFilter(t *testing.T) {
	f := &fakeFactory{}
	var filters framework.RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("/L2$"))
	_, err := Run(context.Background(), []Case{lexerCase("L1"), lexerCase("L2")},
		Options{Group: "Dart", Filter: filters.AsFilter, NewSession: f.newSession})
	require.NoError(t, err)
	assert.Contains(t, f.calls, "w0 lexer L1")
	assert.NotContains(t, f.calls, "w0 lexer L2")
}

func TestRunSessionFactoryError(t *testing.T) {
	_, err := Run(context.Background(), []Case{lexerCase("L1")}, Options{
		NewSession: func(int) (Session, error) { return nil, errors.New("no generator") },
	})
	assert.EqualError(t, err, "no generator")
}

func TestRunWithoutCases(t *testing.T) {
	f := &fakeFactory{}
	results, err := Run(context.Background(), nil, Options{NewSession: f.newSession})
	require.NoError(t, err)
	assert.Empty(t, results.Tests)
	assert.Empty(t, f.calls)
}
