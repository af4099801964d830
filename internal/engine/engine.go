package engine

import (
	"context"
	"errors"
	"fmt"

	"lina/internal/logging"
	"lina/internal/session"
)

// Handler executes one handler kind for one turn. Implementations
// merge their structured result into the session state and return the
// output text; the engine never inspects handler internals.
type Handler interface {
	Handle(ctx context.Context, query string, state *session.State) (string, error)
}

// Result is what one invocation hands back to the caller.
type Result struct {
	Decision   Decision
	Output     string
	Terminated bool
	State      *session.State
}

// Engine is the dispatch engine: it owns session mutation during one
// invocation. Every invocation is router -> one handler -> end; chains
// between handlers never happen inside a turn.
type Engine struct {
	router   *Router
	sessions session.Store
	handlers map[Decision]Handler
}

// New creates an engine with the given handler table.
func New(router *Router, sessions session.Store, handlers map[Decision]Handler) *Engine {
	return &Engine{router: router, sessions: sessions, handlers: handlers}
}

// Invoke runs one turn: load session, route, dispatch, record the
// turn, persist. On the exit sentinel the turn terminates without
// invoking a handler and without mutating the canonical output. On a
// generation failure inside the handler the user's query is still
// recorded and persisted so context is not lost.
func (e *Engine) Invoke(ctx context.Context, sessionID, query string) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryRouting, "Invoke")
	defer timer.StopWithInfo()

	state, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	decision, err := e.router.Route(ctx, query, state)
	if err != nil {
		return nil, err
	}

	if decision == DecisionExit {
		logging.Routing("Session %s terminated", sessionID)
		return &Result{Decision: decision, Output: state.Output, Terminated: true, State: state}, nil
	}

	handler, ok := e.handlers[decision]
	if !ok {
		return nil, fmt.Errorf("%w: no handler registered for %s", ErrRoutingFailure, decision)
	}

	state.AppendTurn(session.RoleUser, query)

	output, err := handler.Handle(ctx, query, state)
	if err != nil {
		// Persist with the query recorded so the next turn keeps
		// context even though this one failed.
		if saveErr := e.sessions.Save(ctx, state); saveErr != nil {
			logging.SessionError("Failed to persist session %s after handler error: %v", sessionID, saveErr)
		}
		if !errors.Is(err, ErrGenerationFailure) {
			err = fmt.Errorf("%w: %v", ErrGenerationFailure, err)
		}
		return nil, err
	}

	state.AppendTurn(session.RoleAssistant, output)
	state.Output = output

	if err := e.sessions.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to persist session %s: %w", sessionID, err)
	}

	return &Result{Decision: decision, Output: output, State: state}, nil
}
