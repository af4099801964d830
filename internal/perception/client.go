// Package perception wraps the language-model collaborator. Handlers
// and the router talk to LLMClient; the only production implementation
// is the Gemini REST client.
package perception

import (
	"context"
	"errors"
)

// LLMClient is the language-model collaborator interface.
type LLMClient interface {
	// Complete sends a bare prompt and returns the model text.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteWithSystem sends a prompt with a system instruction.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// CompleteWithSchema requests JSON output conforming to the given
	// schema. Implementations that cannot enforce a schema return
	// ErrSchemaNotSupported.
	CompleteWithSchema(ctx context.Context, systemPrompt, userPrompt string, schema map[string]interface{}) (string, error)
}

// ErrSchemaNotSupported is returned by CompleteWithSchema when the
// backing model cannot enforce structured output.
var ErrSchemaNotSupported = errors.New("structured output not supported by this model")
