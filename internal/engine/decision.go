// Package engine implements the router and dispatch engine: one
// invocation classifies the query, dispatches to exactly one handler,
// and records the turn in session state.
package engine

import (
	"fmt"
	"strings"
)

// Decision is the router's classification of a query. The set is
// closed: anything else is a routing failure, never a silent default.
type Decision string

const (
	DecisionAnalyzeLogs   Decision = "analyze-logs"
	DecisionDesignNetwork Decision = "design-network"
	DecisionManageServer  Decision = "manage-server"
	DecisionChat          Decision = "chat"
	DecisionExit          Decision = "exit"
)

// ParseDecision validates raw model output against the closed decision
// set. Case, surrounding whitespace, and underscore separators are
// tolerated; anything else is an error.
func ParseDecision(raw string) (Decision, error) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.Trim(cleaned, "\"'`.")
	cleaned = strings.ReplaceAll(cleaned, "_", "-")

	switch Decision(cleaned) {
	case DecisionAnalyzeLogs, DecisionDesignNetwork, DecisionManageServer, DecisionChat, DecisionExit:
		return Decision(cleaned), nil
	}
	return "", fmt.Errorf("decision %q is not in the closed set", raw)
}
