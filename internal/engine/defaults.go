package engine

import "strings"

const (
	DefaultAcknowledgement = "I understand what you're asking about!"
	DefaultGreeting        = "Hello! How can I help you today?"
	HelpMessage            = "I'm here to help! You can ask me questions about our services, or I can connect you with a human agent."
	FarewellMessage        = "Goodbye! Feel free to come back anytime if you need help."
	DefaultFallback        = "I'm still learning. Could you please rephrase your question?"
)

var (
	greetingKeywords = []string{"hello", "hi", "hey"}
	helpKeywords     = []string{"help", "support"}
	farewellKeywords = []string{"bye", "goodbye"}
)

func greetingQuickReplies() []string {
	return []string{"How can you help me?", "Tell me more", "Contact support"}
}

func helpQuickReplies() []string {
	return []string{"Contact human agent", "FAQ", "Services"}
}

func fallbackQuickReplies() []string {
	return []string{"Start over", "Contact support", "Help"}
}

// SelectDefault runs the built-in cascade: greeting, help, farewell, then the
// fallback. Keywords are plain substrings of the lower-cased message.
func SelectDefault(message string, cfg Config, ctx Context) Decision {
	lower := strings.ToLower(message)
	next := ctx.clone()

	switch {
	case containsAny(lower, greetingKeywords):
		next.Greeted = true
		return Decision{
			Reply:   Reply{Text: orDefault(cfg.WelcomeMessage, DefaultGreeting), QuickReplies: greetingQuickReplies()},
			Context: next,
			Tier:    TierGreeting,
		}
	case containsAny(lower, helpKeywords):
		next.HelpRequested = true
		return Decision{
			Reply:   Reply{Text: HelpMessage, QuickReplies: helpQuickReplies()},
			Context: next,
			Tier:    TierHelp,
		}
	case containsAny(lower, farewellKeywords):
		next.Ended = true
		next.CurrentFlow = ""
		return Decision{
			Reply:   Reply{Text: FarewellMessage},
			Context: next,
			Tier:    TierFarewell,
		}
	default:
		return Decision{
			Reply:   Reply{Text: orDefault(cfg.FallbackMessage, DefaultFallback), QuickReplies: fallbackQuickReplies()},
			Context: next,
			Tier:    TierFallback,
		}
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
