package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallback_RulesInOrder(t *testing.T) {
	tests := []struct {
		text string
		rule string
	}{
		{"Explain the risks of token EPUMP", RuleHoneypot},
		{"is elonpump safe? check this address", RuleHoneypot},
		{"Is this wallet address safe?", RuleAddress},
		{"What are the risks in my portfolio?", RulePortfolio},
		{"How can I AVOID crypto SCAMS?", RuleScams},
		{"hi", RuleClarify},
		{"", RuleClarify},
		{"is it safe", RuleClarify},
		{"portfolio", RuleClarify},
	}
	var f Fallback
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			rule, reply := f.Respond(tt.text)
			assert.Equal(t, tt.rule, rule)
			assert.NotEmpty(t, reply)
		})
	}
}

func TestFallback_Deterministic(t *testing.T) {
	var f Fallback
	rule, reply := f.Respond("Explain the risks of token EPUMP")
	for i := 0; i < 20; i++ {
		r, c := f.Respond("Explain the risks of token EPUMP")
		assert.Equal(t, rule, r)
		assert.Equal(t, reply, c)
	}
	assert.Contains(t, reply, "honeypot")
}
