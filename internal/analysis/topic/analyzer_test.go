package topic

import "testing"

func TestAnalyzeVisaQuestion(t *testing.T) {
	decision := Analyze("Do I need a visa or just my passport for Japan?")
	if decision.Topic != Documents {
		t.Fatalf("expected documents topic, got %s", decision.Topic)
	}
	if decision.Score != 2 {
		t.Fatalf("expected two hits, got %d (%v)", decision.Score, decision.Hits)
	}
}

func TestAnalyzeBudgetQuestion(t *testing.T) {
	decision := Analyze("What's a cheap way to see Europe on a tight budget?")
	if decision.Topic != Budget {
		t.Fatalf("expected budget topic, got %s", decision.Topic)
	}
}

func TestAnalyzePluralAndWordBoundary(t *testing.T) {
	if got := Analyze("Are trains reliable?").Topic; got != Transport {
		t.Fatalf("expected transport for plural keyword, got %s", got)
	}
	if got := Analyze("I want to be careful").Topic; got == Transport {
		t.Fatalf("car must not match careful")
	}
}

func TestAnalyzeChineseKeywords(t *testing.T) {
	if got := Analyze("去泰国需要签证吗").Topic; got != Documents {
		t.Fatalf("expected documents topic, got %s", got)
	}
}

func TestAnalyzeGeneral(t *testing.T) {
	for _, text := range []string{"", "   ", "Tell me something nice"} {
		if got := Analyze(text).Topic; got != General {
			t.Fatalf("expected general for %q, got %s", text, got)
		}
	}
}
