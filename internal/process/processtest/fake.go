// Package processtest provides a scripted process.Runner for unit tests.
package processtest

import (
	"context"
	"strings"
	"sync"

	"github.com/penwyp/gitsage/internal/process"
)

// FakeRunner answers commands by their argument vector. Commands without a
// scripted answer exit with code 128, the way git does for bad invocations.
// It is safe for concurrent use.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]process.Result
	errs      map[string]error
	calls     []Call
}

// Call records one invocation.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Key is the joined argument vector.
func (c Call) Key() string {
	return strings.Join(c.Args, " ")
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string]process.Result),
		errs:      make(map[string]error),
	}
}

// On scripts an arbitrary result for args.
func (f *FakeRunner) On(res process.Result, args ...string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[strings.Join(args, " ")] = res
	return f
}

// OK scripts a successful command printing stdout.
func (f *FakeRunner) OK(stdout string, args ...string) *FakeRunner {
	return f.On(process.Result{Stdout: stdout}, args...)
}

// Fail scripts a command exiting with code and stderr.
func (f *FakeRunner) Fail(code int, stderr string, args ...string) *FakeRunner {
	return f.On(process.Result{Stderr: stderr, ExitCode: code}, args...)
}

// Error scripts a command that cannot be started.
func (f *FakeRunner) Error(err error, args ...string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[strings.Join(args, " ")] = err
	return f
}

// Run implements process.Runner.
func (f *FakeRunner) Run(ctx context.Context, dir, name string, args ...string) (process.Result, error) {
	if err := ctx.Err(); err != nil {
		return process.Result{}, err
	}

	key := strings.Join(args, " ")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Dir: dir, Name: name, Args: append([]string(nil), args...)})

	if err, ok := f.errs[key]; ok {
		return process.Result{}, err
	}
	if res, ok := f.responses[key]; ok {
		return res, nil
	}
	return process.Result{Stderr: "unexpected call: " + name + " " + key, ExitCode: 128}, nil
}

// Calls returns a copy of the recorded invocations.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Called reports whether args were invoked at least once.
func (f *FakeRunner) Called(args ...string) bool {
	key := strings.Join(args, " ")
	for _, c := range f.Calls() {
		if c.Key() == key {
			return true
		}
	}
	return false
}
