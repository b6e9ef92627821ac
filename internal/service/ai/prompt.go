package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/advice-chat/internal/analysis/topic"
)

const basePrompt = `You are a friendly, well-travelled advisor answering questions in a small chat widget.
Keep answers short: two to four sentences, plain text, no markdown headings.
If the traveller does not name a destination, give advice that works broadly and suggest one concrete idea.
Never invent visa rules or prices as facts; say when something should be checked with an official source.`

// PromptManager holds the per-topic guidance appended to the system prompt.
type PromptManager struct {
	hints map[topic.Label]string
}

func NewPromptManager() *PromptManager {
	return &PromptManager{
		hints: map[topic.Label]string{
			topic.Budget:    "Focus on concrete ways to spend less: timing, lodging types, passes.",
			topic.Packing:   "Focus on a short packing list suited to the trip and climate.",
			topic.Weather:   "Focus on seasons, typical weather and the best months to go.",
			topic.Food:      "Focus on local dishes worth trying and how to eat well cheaply.",
			topic.Transport: "Focus on the practical way to get there and get around.",
			topic.Safety:    "Focus on common scams, neighbourhood awareness and insurance.",
			topic.Documents: "Focus on passports, visas and entry requirements, and point to the official source.",
		},
	}
}

// BuildSystemPrompt combines the base instructions with topic guidance.
func (pm *PromptManager) BuildSystemPrompt(decision topic.Decision) string {
	hint, ok := pm.hints[decision.Topic]
	if !ok {
		return basePrompt
	}

	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("The question looks like it is about %s (matched: %s).\n",
		decision.Topic, strings.Join(decision.Hits, ", ")))
	b.WriteString(hint)
	return b.String()
}
