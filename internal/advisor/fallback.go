package advisor

import "strings"

// Rule names reported by the fallback responder.
const (
	RuleHoneypot  = "honeypot"
	RuleAddress   = "address"
	RulePortfolio = "portfolio"
	RuleScams     = "scams"
	RuleClarify   = "clarify"
)

// rule pairs a keyword predicate with a canned reply.
type rule struct {
	name  string
	match func(text string) bool
	reply string
}

func containsAny(words ...string) func(string) bool {
	return func(text string) bool {
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}
}

func containsAll(words ...string) func(string) bool {
	return func(text string) bool {
		for _, w := range words {
			if !strings.Contains(text, w) {
				return false
			}
		}
		return true
	}
}

// rules are evaluated in order; the first match wins and RuleClarify catches the rest.
var rules = []rule{
	{
		name:  RuleHoneypot,
		match: containsAny("epump", "elonpump"),
		reply: "ElonPump (EPUMP) has several high-risk indicators: it appears to be a honeypot contract (meaning you can buy but not sell), the deployer wallet holds 80% of the supply, and the contract contains functions that allow the owner to mint unlimited tokens. I would recommend extreme caution with this token.",
	},
	{
		name:  RuleAddress,
		match: containsAll("safe", "address"),
		reply: "To analyze an address, please provide the full wallet address or contract address you'd like me to check.",
	},
	{
		name:  RulePortfolio,
		match: containsAll("risk", "portfolio"),
		reply: "Your portfolio currently has 3 tokens with high risk indicators: ElonPump (EPUMP) shows signs of being a honeypot, SafeMoon V2 has liquidity issues and high sell taxes, and DeFi Token has centralized control mechanisms that could be problematic. These tokens represent about 18% of your portfolio value.",
	},
	{
		name:  RuleScams,
		match: containsAll("avoid", "scam"),
		reply: "To avoid crypto scams: 1) Research projects thoroughly before investing, 2) Be skeptical of tokens with anonymous teams, 3) Use blockchain explorers to check token contracts and holder distribution, 4) Watch for red flags like unrealistic promises, 5) Never share your seed phrase, and 6) Use hardware wallets for additional security.",
	},
	{
		name:  RuleClarify,
		match: func(string) bool { return true },
		reply: "I understand your question about crypto safety. To give you the most accurate advice, I'd need a bit more specific information. Could you provide more details about the token, transaction, or security concern you're asking about?",
	},
}

// Fallback is the deterministic keyword responder used when the knowledge
// service is unavailable or returns an unusable reply.
type Fallback struct{}

// Respond returns the name of the matched rule and its reply for the latest user message.
func (Fallback) Respond(text string) (string, string) {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if r.match(lower) {
			return r.name, r.reply
		}
	}
	last := rules[len(rules)-1]
	return last.name, last.reply
}
