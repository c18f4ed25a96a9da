// Package ostest provides a scripted Executor for tests.
package ostest

import (
	"context"
	"io"
	"strings"
	"sync"

	kos "com.github.tunahansezen/kubeboot/pkg/os"
)

type Response struct {
	Output string
	Err    error
}

func OK(output string) Response {
	return Response{Output: output}
}

// Fail returns a response that fails like a command exiting with code.
func Fail(code int, output string) Response {
	return Response{Output: output, Err: &kos.CommandError{ExitCode: code, Output: output}}
}

type handler struct {
	prefix    string
	responses []Response
	fn        func(command string) Response
}

// FakeExecutor answers commands by longest matching prefix and records every call.
// Queued responses are consumed in order and the last one repeats. Unmatched commands succeed
// with empty output.
type FakeExecutor struct {
	mu       sync.Mutex
	calls    []string
	handlers map[string]*handler
}

func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{handlers: make(map[string]*handler)}
}

// On queues responses for commands starting with prefix.
func (f *FakeExecutor) On(prefix string, responses ...Response) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[prefix] = &handler{prefix: prefix, responses: responses}
	return f
}

// Handle answers commands starting with prefix with fn.
func (f *FakeExecutor) Handle(prefix string, fn func(command string) Response) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[prefix] = &handler{prefix: prefix, fn: fn}
	return f
}

func (f *FakeExecutor) Run(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r := f.respond(command)
	if cmdErr, ok := r.Err.(*kos.CommandError); ok && cmdErr.Command == "" {
		copied := *cmdErr
		copied.Command = command
		return r.Output, &copied
	}
	return r.Output, r.Err
}

func (f *FakeExecutor) Stream(ctx context.Context, command string, out io.Writer) error {
	output, err := f.Run(ctx, command)
	if output != "" {
		_, _ = io.WriteString(out, output+"\n")
	}
	return err
}

func (f *FakeExecutor) respond(command string) Response {
	f.mu.Lock()
	f.calls = append(f.calls, command)
	var match *handler
	for prefix, h := range f.handlers {
		if strings.HasPrefix(command, prefix) && (match == nil || len(prefix) > len(match.prefix)) {
			match = h
		}
	}
	if match == nil {
		f.mu.Unlock()
		return Response{}
	}
	if match.fn != nil {
		fn := match.fn
		f.mu.Unlock()
		return fn(command)
	}
	defer f.mu.Unlock()
	if len(match.responses) == 0 {
		return Response{}
	}
	r := match.responses[0]
	if len(match.responses) > 1 {
		match.responses = match.responses[1:]
	}
	return r
}

// Calls returns every command run so far.
func (f *FakeExecutor) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallsWithPrefix returns the commands that start with prefix, in call order.
func (f *FakeExecutor) CallsWithPrefix(prefix string) []string {
	var matched []string
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			matched = append(matched, c)
		}
	}
	return matched
}

func (f *FakeExecutor) Count(prefix string) int {
	return len(f.CallsWithPrefix(prefix))
}

// Reset forgets the recorded calls but keeps the handlers.
func (f *FakeExecutor) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
