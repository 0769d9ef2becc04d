package budget

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func Test_Estimate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},        // < 4 chars → 1
		{"abcd", 1},     // exactly 4 chars → 1
		{"abcde", 1},    // 5 chars → 1
		{"abcdefgh", 2}, // 8 chars → 2
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		got := Estimate(tc.input)
		if got != tc.want {
			t.Errorf("Estimate(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func Test_EstimateMessages(t *testing.T) {
	t.Parallel()
	msgs := []*schema.Message{
		schema.UserMessage("hello world"), // 4 overhead + 1 (role) + 2 (content) = 7
		schema.UserMessage("hello world"),
	}
	got := EstimateMessages(msgs)
	// Each message: 4 overhead + Estimate("user")=1 + Estimate("hello world")=2 = 7
	// Two messages: 14
	if got != 14 {
		t.Errorf("EstimateMessages = %d, want 14", got)
	}
}

func Test_FitContext_NoTrimNeeded(t *testing.T) {
	t.Parallel()
	fixed := []*schema.Message{schema.SystemMessage("sys")}
	passages := []string{"Acme sells widgets.", "Widgets come in three sizes."}
	got := FitContext(fixed, passages, DefaultMaxContextTokens)
	if len(got) != 2 {
		t.Errorf("want 2 passages, got %d", len(got))
	}
}

func Test_FitContext_DropsLeastRelevant(t *testing.T) {
	t.Parallel()
	// Each passage costs Estimate(8 chars)=2 + 1 overhead = 3 tokens.
	// With no fixed messages a budget of 7 fits two passages (6) but not three (9).
	passages := []string{"relevant", "runnerup", "leastone"}
	got := FitContext(nil, passages, 7)
	if len(got) != 2 {
		t.Fatalf("want 2 passages after trim, got %d", len(got))
	}
	if got[0] != "relevant" || got[1] != "runnerup" {
		t.Errorf("want the most relevant passages kept in order, got %q", got)
	}
}

func Test_FitContext_EmptyPassages(t *testing.T) {
	t.Parallel()
	fixed := []*schema.Message{schema.SystemMessage("sys")}
	got := FitContext(fixed, nil, DefaultMaxContextTokens)
	if len(got) != 0 {
		t.Errorf("want empty, got %d", len(got))
	}
}

func Test_FitContext_AllDroppedWhenFixedExceedsBudget(t *testing.T) {
	t.Parallel()
	// Fixed alone exceeds budget; all passages should be dropped.
	fixed := []*schema.Message{
		schema.SystemMessage(strings.Repeat("x", 4*7000)), // ~7000 tokens
	}
	got := FitContext(fixed, []string{"a", "b"}, 6000)
	if len(got) != 0 {
		t.Errorf("want 0 passages, got %d", len(got))
	}
}
