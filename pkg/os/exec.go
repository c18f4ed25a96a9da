package os

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"com.github.tunahansezen/kubeboot/pkg/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Executor runs shell commands on a host, either locally or over SSH.
type Executor interface {
	// Run executes command and returns its combined output with the trailing newline trimmed.
	Run(ctx context.Context, command string) (string, error)
	// Stream executes command and copies its combined output to out as it is produced.
	Stream(ctx context.Context, command string, out io.Writer) error
}

// CommandError is returned when a command exits with a non-zero status.
type CommandError struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	last := util.GetLastNonEmptyLine(e.Output)
	if last == "" {
		return fmt.Sprintf("\"%s\" exited with code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("\"%s\" exited with code %d: %s", e.Command, e.ExitCode, last)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode maps err to a process exit code. Nil is 0; a CommandError keeps its own code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode
	}
	return 1
}

type LocalExecutor struct {
	Shell string
}

func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{Shell: "/bin/sh"}
}

func (l *LocalExecutor) Run(ctx context.Context, command string) (string, error) {
	log.Tracef("CMD - command: \"%s\"", command)
	cmd := exec.CommandContext(ctx, l.Shell, "-c", command)
	out, err := cmd.CombinedOutput()
	returnStr := strings.TrimSuffix(string(out), "\n")
	if err != nil {
		log.Debug(returnStr)
		return returnStr, localCommandError(command, returnStr, err)
	}
	log.Tracef("RETURNSTR - \"%s\"", returnStr)
	return returnStr, nil
}

func (l *LocalExecutor) Stream(ctx context.Context, command string, out io.Writer) error {
	log.Tracef("CMD - command: \"%s\"", command)
	var tail bytes.Buffer
	w := io.MultiWriter(out, &tail)
	cmd := exec.CommandContext(ctx, l.Shell, "-c", command)
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Run(); err != nil {
		return localCommandError(command, tail.String(), err)
	}
	return nil
}

func localCommandError(command, output string, err error) error {
	code := 1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		code = exitErr.ExitCode()
	}
	return &CommandError{Command: command, ExitCode: code, Output: output, Err: err}
}
