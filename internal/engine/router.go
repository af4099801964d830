package engine

import (
	"context"
	"fmt"

	"lina/internal/logging"
	"lina/internal/perception"
	"lina/internal/prompt"
	"lina/internal/session"
)

// Router classifies a query into one Decision by asking the language
// model with a fixed instruction.
type Router struct {
	llm perception.LLMClient
}

// NewRouter creates a router over the given language-model client.
func NewRouter(llm perception.LLMClient) *Router {
	return &Router{llm: llm}
}

// Route returns exactly one Decision for the query. A failed
// collaborator call or an answer outside the closed set is a routing
// failure, never a fallback to chat.
func (r *Router) Route(ctx context.Context, query string, state *session.State) (Decision, error) {
	timer := logging.StartTimer(logging.CategoryRouting, "Route")
	defer timer.Stop()

	raw, err := r.llm.CompleteWithSystem(ctx, prompt.RouterSystem, query)
	if err != nil {
		logging.RoutingError("Classification call failed: %v", err)
		return "", fmt.Errorf("%w: %v", ErrRoutingFailure, err)
	}

	decision, err := ParseDecision(raw)
	if err != nil {
		logging.RoutingError("Unparseable decision %q", raw)
		return "", fmt.Errorf("%w: %v", ErrRoutingFailure, err)
	}

	logging.Routing("Query routed to %s", decision)
	return decision, nil
}
