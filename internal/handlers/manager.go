package handlers

import (
	"context"
	"fmt"
	"strings"

	"lina/internal/engine"
	"lina/internal/logging"
	"lina/internal/perception"
	"lina/internal/prompt"
	"lina/internal/remote"
	"lina/internal/session"
)

// ServerManager translates an instruction into a single shell command
// and executes it on the managed server. A failed command is an
// expected outcome carried in the structured result; only command
// generation can fail the turn.
type ServerManager struct {
	llm  perception.LLMClient
	exec remote.Executor
}

// NewServerManager creates the server management handler.
func NewServerManager(llm perception.LLMClient, exec remote.Executor) *ServerManager {
	return &ServerManager{llm: llm, exec: exec}
}

// Handle generates the command, runs it remotely, and merges the
// execution result into the session.
func (m *ServerManager) Handle(ctx context.Context, query string, state *session.State) (string, error) {
	timer := logging.StartTimer(logging.CategoryHandlers, "ServerManager.Handle")
	defer timer.Stop()

	raw, err := m.llm.CompleteWithSystem(ctx, prompt.ManagerSystem, query)
	if err != nil {
		return "", fmt.Errorf("%w: %v", engine.ErrGenerationFailure, err)
	}

	command := sanitizeCommand(raw)
	if command == "" {
		return "", fmt.Errorf("%w: model produced no command", engine.ErrGenerationFailure)
	}
	logging.Handlers("Generated command: %s", command)

	result := m.run(ctx, command)
	state.ServerResult = &result
	return renderServerResult(&result), nil
}

// run executes the command. Transport failures become an unsuccessful
// result rather than an error; a failed remote command is not a bug.
func (m *ServerManager) run(ctx context.Context, command string) session.ServerResult {
	stdout, stderr, err := m.exec.Exec(ctx, command)
	if err != nil {
		logging.HandlersWarn("Remote execution failed: %v", err)
		return session.ServerResult{Command: command, Stdout: stdout, Stderr: err.Error(), Success: false}
	}

	stdout = strings.TrimSpace(stdout)
	stderr = strings.TrimSpace(stderr)
	return session.ServerResult{
		Command: command,
		Stdout:  stdout,
		Stderr:  stderr,
		Success: stderr == "",
	}
}

// sanitizeCommand reduces the model output to one bare command:
// markdown fencing removed, first line only, elevation prefix dropped
// since execution already runs with elevated rights.
func sanitizeCommand(raw string) string {
	command := stripCodeFences(raw)
	if idx := strings.IndexByte(command, '\n'); idx >= 0 {
		command = command[:idx]
	}
	command = strings.Trim(strings.TrimSpace(command), "`")
	for strings.HasPrefix(command, "sudo ") {
		command = strings.TrimSpace(strings.TrimPrefix(command, "sudo "))
	}
	return command
}

func renderServerResult(r *session.ServerResult) string {
	errText := r.Stderr
	if errText == "" {
		errText = "None"
	}
	return fmt.Sprintf("Command: `%s`\n\nOutput:\n%s\n\nError:\n%s", r.Command, r.Stdout, errText)
}
