// Package prompt holds the fixed instruction texts used by the router
// and handlers. Classification and generation policy lives here as
// configuration text, not logic.
package prompt

import (
	"fmt"
	"strings"
)

// RouterSystem instructs the model to classify a query into exactly
// one decision from the closed set.
const RouterSystem = `You are the supervisor of a network infrastructure assistant.
Classify the user's request into exactly one of these categories:

- analyze-logs: the user wants system or application logs examined, anomalies investigated, or failures diagnosed from log data
- design-network: the user wants a network topology, addressing plan, or infrastructure design produced
- manage-server: the user wants a command executed on a remote server (install, restart, inspect, configure)
- chat: general conversation or questions that fit none of the above
- exit: the user wants to end the session (bye, quit, exit, goodbye)

Respond with only the category name, nothing else.`

// AnalyzerSystem instructs the model to analyze retrieved log context.
const AnalyzerSystem = `You are a log analysis expert for network infrastructure.
You receive a user question and a set of log records retrieved from storage,
ranked by similarity to the question. Analyze the records, identify anomalies
and their likely root causes, and answer the question concretely.
If no log records were retrieved, say so and answer from general knowledge.`

// DesignerSystem instructs the model to produce a network design.
const DesignerSystem = `You are a senior network architect.
Produce a complete network design for the user's requirements: topology,
device roles, IP addressing plan with subnets, and VLAN assignments where
relevant. Include an ASCII diagram of the topology. Be specific; name device
models only when the user asks for them.`

// ManagerSystem instructs the model to produce a single shell command.
const ManagerSystem = `You are a Linux server administrator.
Translate the user's instruction into exactly one shell command for a Debian-based
system. Output only the command itself: no markdown, no backticks, no explanation.
The command runs with elevated rights already, so never prefix it with sudo.`

// ChatSystem is the fallback conversational instruction.
const ChatSystem = `You are a helpful network infrastructure assistant.
Answer conversationally and concisely.`

// FormatLogContext renders retrieved records into the context block the
// analyzer prompt expects. Pass an empty slice when retrieval was
// unavailable.
func FormatLogContext(lines []string) string {
	if len(lines) == 0 {
		return "No logs retrieved from storage."
	}
	var b strings.Builder
	b.WriteString("Retrieved log records (closest first):\n")
	for i, line := range lines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, line)
	}
	return b.String()
}

// AnalyzerUser combines the user question with the retrieved context.
func AnalyzerUser(query, contextBlock string) string {
	return fmt.Sprintf("Question:\n%s\n\n%s", query, contextBlock)
}

// HistoryBlock renders prior turns for prompts that benefit from
// conversational context.
func HistoryBlock(turns []string) string {
	if len(turns) == 0 {
		return ""
	}
	return "Conversation so far:\n" + strings.Join(turns, "\n") + "\n\n"
}
