package handlers

import (
	"context"
	"fmt"
	"strings"

	"lina/internal/engine"
	"lina/internal/logging"
	"lina/internal/perception"
	"lina/internal/prompt"
	"lina/internal/session"
)

var designRequired = []string{"router_config", "switch_distribution", "ip_addressing", "scalability", "security", "diagram"}

var designSchema = objectSchema(map[string]interface{}{
	"router_config":       stringProp("Router configuration and placement recommendations"),
	"switch_distribution": stringProp("Switch placement and traffic segmentation strategy"),
	"ip_addressing":       stringProp("Subnetting and IP addressing strategy"),
	"scalability":         stringProp("Recommendations for scalability and future expansion"),
	"security":            stringProp("Recommendations for VLANs, firewalls, and failover strategies"),
	"diagram":             stringProp("ASCII representation of the network topology"),
}, designRequired)

// NetworkDesigner produces a structured network design for the query.
type NetworkDesigner struct {
	llm perception.LLMClient
}

// NewNetworkDesigner creates the network design handler.
func NewNetworkDesigner(llm perception.LLMClient) *NetworkDesigner {
	return &NetworkDesigner{llm: llm}
}

// Handle generates the design and merges it into the session.
func (d *NetworkDesigner) Handle(ctx context.Context, query string, state *session.State) (string, error) {
	timer := logging.StartTimer(logging.CategoryHandlers, "NetworkDesigner.Handle")
	defer timer.Stop()

	raw, err := d.llm.CompleteWithSchema(ctx, prompt.DesignerSystem, query, designSchema)
	if err != nil {
		return "", fmt.Errorf("%w: %v", engine.ErrGenerationFailure, err)
	}

	var design session.NetworkDesign
	if err := decodeStrict(raw, designRequired, &design); err != nil {
		logging.HandlersWarn("Design result rejected: %v", err)
		return "", fmt.Errorf("%w: %v", engine.ErrGenerationFailure, err)
	}

	state.NetworkDesign = &design
	return renderDesign(&design), nil
}

func renderDesign(d *session.NetworkDesign) string {
	sections := []struct {
		title, body string
	}{
		{"Routers", d.RouterConfig},
		{"Switches", d.SwitchDistribution},
		{"IP Addressing", d.IPAddressing},
		{"Scalability", d.Scalability},
		{"Security", d.Security},
	}

	var b strings.Builder
	for _, sec := range sections {
		if sec.body == "" {
			continue
		}
		fmt.Fprintf(&b, "%s:\n%s\n\n", sec.title, sec.body)
	}
	if d.Diagram != "" {
		b.WriteString("Topology:\n")
		b.WriteString(d.Diagram)
	}
	return strings.TrimSpace(b.String())
}
