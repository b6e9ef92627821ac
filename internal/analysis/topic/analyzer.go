package topic

import (
	"strings"
	"unicode"
)

// Label 表示旅行问题所属的主题。
type Label string

const (
	General   Label = "general"
	Budget    Label = "budget"
	Packing   Label = "packing"
	Weather   Label = "weather"
	Food      Label = "food"
	Transport Label = "transport"
	Safety    Label = "safety"
	Documents Label = "documents"
)

// Decision 给出主题识别结果以及命中的关键词数量。
type Decision struct {
	Topic Label
	Score int
	Hits  []string
}

// order breaks ties: earlier labels win.
var order = []Label{Documents, Safety, Budget, Transport, Packing, Weather, Food}

var keywordBuckets = map[Label][]string{
	Budget: {
		"budget", "cheap", "afford", "cost", "price", "expensive", "money", "save", "deal", "hostel",
		"预算", "便宜", "省钱", "价格",
	},
	Packing: {
		"pack", "packing", "luggage", "suitcase", "carry-on", "backpack", "bring", "wear", "clothes",
		"行李", "带什么",
	},
	Weather: {
		"weather", "rain", "season", "temperature", "hot", "cold", "snow", "monsoon", "when to go",
		"best time", "天气", "季节",
	},
	Food: {
		"food", "eat", "restaurant", "dish", "cuisine", "street food", "vegetarian", "vegan", "drink",
		"美食", "吃",
	},
	Transport: {
		"train", "flight", "fly", "bus", "car", "drive", "taxi", "metro", "subway", "ferry", "get around",
		"transport", "交通", "火车", "航班",
	},
	Safety: {
		"safe", "safety", "danger", "scam", "crime", "pickpocket", "emergency", "insurance",
		"安全", "小偷",
	},
	Documents: {
		"visa", "passport", "entry", "customs", "permit", "border", "签证", "护照",
	},
}

// Analyze 根据用户问题推断旅行主题。
func Analyze(text string) Decision {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Decision{Topic: General}
	}

	best := Decision{Topic: General}
	for _, label := range order {
		var hits []string
		for _, word := range keywordBuckets[label] {
			if containsWord(normalized, word) {
				hits = append(hits, word)
			}
		}
		if len(hits) > best.Score {
			best = Decision{Topic: label, Score: len(hits), Hits: hits}
		}
	}
	return best
}

// containsWord matches ASCII keywords on word boundaries so "car" does not
// match "careful". Other scripts have no spaces and fall back to substrings.
func containsWord(text, word string) bool {
	if !isASCII(word) {
		return strings.Contains(text, word)
	}

	for start := 0; ; {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(word)

		before := idx == 0 || !isWordByte(text[idx-1])
		after := end == len(text) || !isWordByte(text[end]) || (text[end] == 's' && (end+1 == len(text) || !isWordByte(text[end+1])))
		if before && after {
			return true
		}
		start = idx + 1
	}
}

func isWordByte(b byte) bool {
	return b < unicode.MaxASCII && (b == '-' || b == '_' || unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b)))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}
