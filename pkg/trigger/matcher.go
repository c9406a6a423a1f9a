// Package trigger decides which active flow an inbound message activates
// when the conversation has no running session.
package trigger

import (
	"sort"
	"strings"

	"github.com/enderxdxd/botflow/pkg/domain"
	"github.com/enderxdxd/botflow/pkg/flow"
)

// Match selects the flow activated by inboundText among the candidate graphs.
//
// Candidates are evaluated in a stable order: most recently updated first,
// ties broken by flow ID ascending. Keyword-class triggers (keyword and
// intent, which degrades to keyword matching until a real classifier exists)
// are evaluated before any-class triggers, so a catch-all flow never masks a
// specific one. Returns nil when nothing matches; the caller falls back to
// default/offline messaging.
func Match(inboundText string, candidates []*flow.Graph) *flow.Graph {
	norm := normalize(inboundText)

	ordered := make([]*flow.Graph, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Definition(), ordered[j].Definition()
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})

	for _, g := range ordered {
		if matchesKeywords(norm, keywordsOf(g)) {
			return g
		}
	}
	for _, g := range ordered {
		if isCatchAll(g) {
			return g
		}
	}
	return nil
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// keywordsOf collects the keyword set of a flow: the flow-level trigger value
// when present, otherwise the keywords stored on the trigger node itself.
func keywordsOf(g *flow.Graph) []string {
	def := g.Definition()
	switch def.Trigger.Type {
	case domain.TriggerKeyword, domain.TriggerIntent:
		if def.Trigger.Value != "" {
			return []string{def.Trigger.Value}
		}
	case domain.TriggerAny:
		return nil
	}
	if data := g.TriggerNode().Trigger; data != nil && data.TriggerType != domain.TriggerAny {
		return data.Keywords
	}
	return nil
}

func isCatchAll(g *flow.Graph) bool {
	def := g.Definition()
	if def.Trigger.Type == domain.TriggerAny {
		return true
	}
	if def.Trigger.Type != "" || def.Trigger.Value != "" {
		return false
	}
	data := g.TriggerNode().Trigger
	return data != nil && data.TriggerType == domain.TriggerAny
}

func matchesKeywords(norm string, keywords []string) bool {
	if norm == "" {
		return false
	}
	for _, kw := range keywords {
		kw = normalize(kw)
		if kw != "" && strings.Contains(norm, kw) {
			return true
		}
	}
	return false
}
