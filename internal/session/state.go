// Package session holds multi-turn conversation state and its
// persistence backends. The dispatch engine owns mutation during an
// invocation; a Store owns durability across invocations, keyed by
// session id.
package session

import "encoding/json"

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry in the append-only conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LogAnalysis is the structured result of the log analysis handler.
type LogAnalysis struct {
	Analysis        string   `json:"analysis"`
	Severity        string   `json:"severity"`
	Timestamp       string   `json:"timestamp"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// NetworkDesign is the structured result of the network design
// handler. Diagram is an ASCII rendering of the topology.
type NetworkDesign struct {
	RouterConfig       string `json:"router_config"`
	SwitchDistribution string `json:"switch_distribution"`
	IPAddressing       string `json:"ip_addressing"`
	Scalability        string `json:"scalability"`
	Security           string `json:"security"`
	Diagram            string `json:"diagram"`
}

// ServerResult is the structured result of the server management
// handler. Success is true iff stderr is empty; exit codes are not
// separately interpreted.
type ServerResult struct {
	Command string `json:"command"`
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
	Success bool   `json:"success"`
}

// ChatReply is the structured result of the chat handler.
type ChatReply struct {
	Reply string `json:"reply"`
}

// State is one session's conversation state: the ordered turn history,
// the most recent structured result per handler kind, and the
// canonical output of the latest completed turn.
type State struct {
	ID            string         `json:"id"`
	Turns         []Turn         `json:"turns"`
	Analysis      *LogAnalysis   `json:"analysis,omitempty"`
	NetworkDesign *NetworkDesign `json:"network_design,omitempty"`
	ServerResult  *ServerResult  `json:"server_result,omitempty"`
	ChatReply     *ChatReply     `json:"chat_reply,omitempty"`
	Output        string         `json:"output"`
}

// NewState creates an empty session for the given id.
func NewState(id string) *State {
	return &State{ID: id}
}

// AppendTurn adds one entry to the history. History is append-only:
// nothing else may reorder or remove turns.
func (s *State) AppendTurn(role, content string) {
	s.Turns = append(s.Turns, Turn{Role: role, Content: content})
}

// Clone returns a deep copy so stores can hand out state without
// sharing slices with callers.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var out State
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return &out
}
