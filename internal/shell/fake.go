package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Call is one command recorded by Fake
type Call struct {
	Dir  string
	Name string
	Args []string
}

// String renders the call as a command line
func (c Call) String() string {
	return Render(c.Name, c.Args...)
}

// Response is the scripted result for commands with a given prefix
type Response struct {
	Prefix string // matched against the rendered command line
	Output string
	Err    error
}

// Fake is a Runner that records calls and returns scripted responses.
// Unmatched commands succeed with empty output.
type Fake struct {
	mu        sync.Mutex
	calls     []Call
	responses []Response
}

// NewFake creates a Fake with the given responses. The first matching
// prefix wins.
func NewFake(responses ...Response) *Fake {
	return &Fake{responses: responses}
}

// On adds a scripted response
func (f *Fake) On(prefix, output string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, Response{Prefix: prefix, Output: output, Err: err})
	return f
}

// Fail scripts a failure for the given prefix
func (f *Fake) Fail(prefix, stderr string) *Fake {
	return f.On(prefix, "", &ExitError{Command: prefix, Stderr: stderr, Err: errors.New("exit status 1")})
}

// Output implements Runner
func (f *Fake) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	call := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)

	line := call.String()
	for _, r := range f.responses {
		if strings.HasPrefix(line, r.Prefix) {
			return []byte(r.Output), r.Err
		}
	}
	return nil, nil
}

// Calls returns the recorded calls
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Called reports whether any recorded command line starts with prefix
func (f *Fake) Called(prefix string) bool {
	for _, c := range f.Calls() {
		if strings.HasPrefix(c.String(), prefix) {
			return true
		}
	}
	return false
}

// Dump formats all recorded calls, one per line
func (f *Fake) Dump() string {
	var b strings.Builder
	for i, c := range f.Calls() {
		fmt.Fprintf(&b, "%d: %s\n", i, c)
	}
	return b.String()
}
