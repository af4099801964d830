// Package remote executes shell commands on the managed server over
// SSH. A command that exits non-zero or writes to stderr is an
// expected outcome, reported through the output, not an error.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"

	"lina/internal/logging"
)

// Executor runs one shell command and returns its output streams.
// Only transport-level problems (dial, auth, session setup) are
// errors.
type Executor interface {
	Exec(ctx context.Context, command string) (stdout, stderr string, err error)
}

// Config holds SSH connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// SSHExecutor dials a fresh SSH connection per command. Commands are
// infrequent enough that connection reuse is not worth the liveness
// bookkeeping.
type SSHExecutor struct {
	config Config
}

// NewSSHExecutor creates an executor for the given connection settings.
func NewSSHExecutor(config Config) *SSHExecutor {
	if config.Port == 0 {
		config.Port = 22
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &SSHExecutor{config: config}
}

// Exec runs command on the remote host and returns its stdout and
// stderr. A non-zero exit is not an error; the caller judges success
// from stderr.
func (e *SSHExecutor) Exec(ctx context.Context, command string) (string, string, error) {
	timer := logging.StartTimer(logging.CategoryRemote, "Exec")
	defer timer.StopWithInfo()

	if e.config.Host == "" {
		return "", "", fmt.Errorf("remote host not configured")
	}

	addr := net.JoinHostPort(e.config.Host, strconv.Itoa(e.config.Port))
	logging.Remote("Executing on %s: %s", addr, command)

	clientConfig := &ssh.ClientConfig{
		User: e.config.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(e.config.Password),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         e.config.Timeout,
	}

	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		logging.RemoteError("SSH dial failed: %v", err)
		return "", "", fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer client.Close()

	sess, err := client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("failed to open ssh session: %w", err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(command) }()

	select {
	case <-ctx.Done():
		// Closing the session unblocks Run.
		sess.Close()
		return stdout.String(), stderr.String(), fmt.Errorf("command interrupted: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			// Exit errors are an expected outcome; stderr carries the
			// diagnosis. Anything else is a transport problem.
			if _, ok := err.(*ssh.ExitError); !ok {
				logging.RemoteError("Command transport error: %v", err)
				return stdout.String(), stderr.String(), fmt.Errorf("command transport failed: %w", err)
			}
			logging.RemoteDebug("Command exited non-zero: %v", err)
		}
	}

	logging.RemoteDebug("Command finished: stdout_len=%d stderr_len=%d", stdout.Len(), stderr.Len())
	return stdout.String(), stderr.String(), nil
}
