package ai

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/zhouzirui/advice-chat/internal/analysis/topic"
)

var cannedTips = map[topic.Label][]string{
	topic.General: {
		"Pick one region and go slow: fewer bases means more time actually travelling.",
		"Shoulder season (just before or after peak) usually means better prices and fewer crowds.",
	},
	topic.Budget: {
		"Travel in shoulder season, book stays with a kitchen and use regional rail passes to keep costs down.",
		"Set a daily budget, eat your main meal at lunch when menus are cheaper, and skip airport transfers for public transit.",
	},
	topic.Packing: {
		"Pack layers, one pair of comfortable walking shoes and a light rain shell; you can buy anything you forget.",
		"Roll clothes, keep a change of clothes in your carry-on and bring a universal adapter.",
	},
	topic.Weather: {
		"Check the average rainfall as well as the temperature; the cheapest month is often the wettest.",
		"Spring and early autumn are the safest bets for mild weather in most temperate destinations.",
	},
	topic.Food: {
		"Eat where the locals queue, try the market stalls at lunch and ask for the regional speciality.",
		"Look for set lunch menus; they are often half the price of the same dishes at dinner.",
	},
	topic.Transport: {
		"Compare trains with budget flights once you include airport time; for trips under four hours the train often wins.",
		"Download the local transit app before you land and buy a stored-value card at the airport.",
	},
	topic.Safety: {
		"Keep valuables in a zipped inner pocket, be wary of anyone who starts with a favour, and get travel insurance.",
		"Save the local emergency number and your embassy's address offline before you go.",
	},
	topic.Documents: {
		"Check entry rules on the destination's official government site; many countries need six months of passport validity.",
		"Apply for visas early and keep digital copies of your passport and permits in a separate place.",
	},
}

// FallbackAdvisor answers from canned tips chosen by topic. It never fails
// for non-empty questions and is used when no model is configured.
type FallbackAdvisor struct {
	next atomic.Uint64
}

func NewFallbackAdvisor() *FallbackAdvisor {
	return &FallbackAdvisor{}
}

func (f *FallbackAdvisor) Advise(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	tips := cannedTips[topic.Analyze(message).Topic]
	n := f.next.Add(1) - 1
	return tips[n%uint64(len(tips))], nil
}
