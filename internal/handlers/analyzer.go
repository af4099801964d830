package handlers

import (
	"context"
	"fmt"
	"strings"

	"lina/internal/embedding"
	"lina/internal/engine"
	"lina/internal/logging"
	"lina/internal/logstore"
	"lina/internal/perception"
	"lina/internal/prompt"
	"lina/internal/session"
)

// defaultAnalyzerTopK bounds how many retrieved records go into the
// analysis prompt.
const defaultAnalyzerTopK = 10

var analysisRequired = []string{"analysis", "severity", "timestamp", "summary", "recommendations"}

var analysisSchema = objectSchema(map[string]interface{}{
	"analysis":        stringProp("Detailed analysis of the logs"),
	"severity":        stringProp("Severity level of the findings (e.g., low, medium, high)"),
	"timestamp":       stringProp("Timestamp of the analysis"),
	"summary":         stringProp("Summary of the log analysis"),
	"recommendations": stringArrayProp("Recommendations based on the analysis"),
}, analysisRequired)

// Analyzer answers log questions: it retrieves the closest stored
// records to the query and asks the model to analyze them. Retrieval
// being unavailable or empty is recoverable; the model is still
// invoked with an empty context block.
type Analyzer struct {
	llm      perception.LLMClient
	embedder embedding.Engine
	store    *logstore.Store
	topK     int
}

// NewAnalyzer creates the log analysis handler.
func NewAnalyzer(llm perception.LLMClient, embedder embedding.Engine, store *logstore.Store) *Analyzer {
	return &Analyzer{llm: llm, embedder: embedder, store: store, topK: defaultAnalyzerTopK}
}

// Handle retrieves context, runs the analysis, and merges the result
// into the session.
func (a *Analyzer) Handle(ctx context.Context, query string, state *session.State) (string, error) {
	timer := logging.StartTimer(logging.CategoryHandlers, "Analyzer.Handle")
	defer timer.Stop()

	contextBlock := prompt.FormatLogContext(a.retrieve(ctx, query))

	raw, err := a.llm.CompleteWithSchema(ctx, prompt.AnalyzerSystem, prompt.AnalyzerUser(query, contextBlock), analysisSchema)
	if err != nil {
		return "", fmt.Errorf("%w: %v", engine.ErrGenerationFailure, err)
	}

	var analysis session.LogAnalysis
	if err := decodeStrict(raw, analysisRequired, &analysis); err != nil {
		logging.HandlersWarn("Analysis result rejected: %v", err)
		return "", fmt.Errorf("%w: %v", engine.ErrGenerationFailure, err)
	}

	state.Analysis = &analysis
	return renderAnalysis(&analysis), nil
}

// retrieve embeds the query and searches the store. Any failure along
// the way degrades to no context rather than failing the turn.
func (a *Analyzer) retrieve(ctx context.Context, query string) []string {
	vec, err := a.embedder.Embed(ctx, query)
	if err != nil {
		logging.HandlersWarn("Query embedding failed, continuing without context: %v", err)
		return nil
	}

	hits, err := a.store.Search(vec, a.topK, false)
	if err != nil {
		logging.HandlersWarn("No context retrieved: %v", err)
		return nil
	}

	lines := make([]string, 0, len(hits))
	for _, hit := range hits {
		lines = append(lines, fmt.Sprintf("[%s] [%s] [%s] - %s", hit.Timestamp, hit.Source, hit.Severity, hit.Message))
	}
	logging.HandlersDebug("Retrieved %d context records", len(lines))
	return lines
}

func renderAnalysis(a *session.LogAnalysis) string {
	var b strings.Builder
	b.WriteString(a.Analysis)
	if a.Summary != "" {
		b.WriteString("\n\nSummary: ")
		b.WriteString(a.Summary)
	}
	if a.Severity != "" {
		b.WriteString("\nSeverity: ")
		b.WriteString(a.Severity)
	}
	if len(a.Recommendations) > 0 {
		b.WriteString("\n\nRecommendations:\n")
		for _, rec := range a.Recommendations {
			b.WriteString("- ")
			b.WriteString(rec)
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}
