package execx

import (
	"context"
	"strings"
	"sync"
)

// FakeResponse scripts the outcome of commands whose rendered line starts
// with Prefix.
type FakeResponse struct {
	Prefix string
	Result Result
	Err    error
}

// FakeRunner is a scripted Runner for tests. Commands are matched against the
// configured responses in order; unmatched commands succeed with empty
// output. Every invocation is recorded.
type FakeRunner struct {
	mu        sync.Mutex
	responses []FakeResponse
	calls     []Command
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// Stub registers a scripted result for command lines starting with prefix.
func (f *FakeRunner) Stub(prefix string, res Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, FakeResponse{Prefix: prefix, Result: res, Err: err})
}

func (f *FakeRunner) Run(_ context.Context, c Command) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	line := c.Line()
	for _, r := range f.responses {
		if strings.HasPrefix(line, r.Prefix) {
			return r.Result, r.Err
		}
	}
	return Result{}, nil
}

// Calls returns a copy of every command run so far.
func (f *FakeRunner) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// CommandLines returns the rendered line of every command run so far.
func (f *FakeRunner) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		lines = append(lines, c.Line())
	}
	return lines
}
