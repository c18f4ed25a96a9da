package cluster

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"com.github.tunahansezen/kubeboot/pkg/util"
	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
)

var (
	ErrInterrupted = errors.New("prompt interrupted")
	ErrTimeout     = errors.New("prompt timed out")
)

// Prompter reads one answer from the operator.
type Prompter interface {
	Prompt(ctx context.Context, label string) (string, error)
}

// LinePrompter reads answers line by line from in, giving up on a read after timeout. A single
// goroutine owns the reader for the lifetime of the prompter and keeps reading after a prompt
// resolves, so a line typed after a timeout is the answer to the next Prompt call. Share one
// LinePrompter between prompt sites instead of wrapping the same reader twice.
type LinePrompter struct {
	in      io.Reader
	out     io.Writer
	timeout time.Duration
	once    sync.Once
	lines   chan string
}

func NewLinePrompter(in io.Reader, out io.Writer, timeout time.Duration) *LinePrompter {
	return &LinePrompter{in: in, out: out, timeout: timeout, lines: make(chan string)}
}

func (p *LinePrompter) start() {
	go func() {
		defer close(p.lines)
		scanner := bufio.NewScanner(p.in)
		for scanner.Scan() {
			p.lines <- strings.TrimRight(scanner.Text(), "\r")
		}
	}()
}

func (p *LinePrompter) Prompt(ctx context.Context, label string) (string, error) {
	p.once.Do(p.start)
	_, _ = fmt.Fprintf(p.out, "%s: ", label)
	var timeout <-chan time.Time
	if p.timeout > 0 {
		timer := time.NewTimer(p.timeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(p.out)
		return "", ctx.Err()
	case <-timeout:
		_, _ = fmt.Fprintln(p.out)
		return "", ErrTimeout
	case line, ok := <-p.lines:
		if !ok {
			_, _ = fmt.Fprintln(p.out)
			return "", io.EOF
		}
		return line, nil
	}
}

// TerminalPrompter asks through promptui. It has no read timeout.
type TerminalPrompter struct{}

func (TerminalPrompter) Prompt(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	answer, err := util.AskString(label, false, nil)
	switch {
	case errors.Is(err, promptui.ErrInterrupt):
		return "", ErrInterrupted
	case errors.Is(err, promptui.ErrEOF):
		return "", io.EOF
	}
	return answer, err
}

// NewPrompter returns a promptui prompter when no read timeout is wanted, otherwise a line
// prompter on stdin.
func NewPrompter(in io.Reader, out io.Writer, timeout time.Duration) Prompter {
	if timeout <= 0 {
		return TerminalPrompter{}
	}
	return NewLinePrompter(in, out, timeout)
}
