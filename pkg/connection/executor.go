package connection

import (
	"bytes"
	"context"
	"io"
	"strings"

	kos "com.github.tunahansezen/kubeboot/pkg/os"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

// SSHExecutor runs commands in a new session on the remote node.
type SSHExecutor struct {
	client *ssh.Client
	node   *Node
}

func (e *SSHExecutor) Run(ctx context.Context, command string) (string, error) {
	var out bytes.Buffer
	err := e.run(ctx, command, &out)
	returnStr := strings.TrimSuffix(out.String(), "\n")
	if err != nil {
		log.Debug(returnStr)
		return returnStr, remoteCommandError(command, returnStr, err)
	}
	log.Tracef("RETURNSTR - \"%s\"", returnStr)
	return returnStr, nil
}

func (e *SSHExecutor) Stream(ctx context.Context, command string, out io.Writer) error {
	var tail bytes.Buffer
	if err := e.run(ctx, command, io.MultiWriter(out, &tail)); err != nil {
		return remoteCommandError(command, tail.String(), err)
	}
	return nil
}

func (e *SSHExecutor) run(ctx context.Context, command string, out io.Writer) error {
	log.Tracef("CMD - ip: \"%s\" - command: \"%s\"", e.node.IP, command)
	session, err := e.client.NewSession()
	if err != nil {
		return errors.Wrapf(err, "opening session on %s", e.node.IP)
	}
	defer session.Close()
	session.Stdout = out
	session.Stderr = out

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()
	select {
	case err = <-done:
		return err
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		return ctx.Err()
	}
}

func remoteCommandError(command, output string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	code := 1
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitStatus() > 0 {
		code = exitErr.ExitStatus()
	}
	return &kos.CommandError{Command: command, ExitCode: code, Output: output, Err: err}
}
