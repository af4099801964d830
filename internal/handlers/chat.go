package handlers

import (
	"context"
	"fmt"

	"lina/internal/engine"
	"lina/internal/logging"
	"lina/internal/perception"
	"lina/internal/prompt"
	"lina/internal/session"
)

// Chat handles general queries that fit none of the specialized
// handlers. Prior turns are included so the conversation stays
// coherent.
type Chat struct {
	llm perception.LLMClient
}

// NewChat creates the fallback chat handler.
func NewChat(llm perception.LLMClient) *Chat {
	return &Chat{llm: llm}
}

// Handle answers conversationally and merges the reply into the
// session.
func (c *Chat) Handle(ctx context.Context, query string, state *session.State) (string, error) {
	timer := logging.StartTimer(logging.CategoryHandlers, "Chat.Handle")
	defer timer.Stop()

	history := make([]string, 0, len(state.Turns))
	for _, turn := range state.Turns {
		history = append(history, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
	}

	reply, err := c.llm.CompleteWithSystem(ctx, prompt.ChatSystem, prompt.HistoryBlock(history)+query)
	if err != nil {
		return "", fmt.Errorf("%w: %v", engine.ErrGenerationFailure, err)
	}

	logging.HandlersDebug("Chat reply: %d chars", len(reply))
	state.ChatReply = &session.ChatReply{Reply: reply}
	return reply, nil
}
