package engine

// Bot is the part of a bot definition the engine decides on. Optional fields
// are already resolved: an empty string means "not configured".
type Bot struct {
	Config  Config
	Intents []Intent
	Flows   []Flow
}

type Config struct {
	WelcomeMessage  string
	FallbackMessage string
}

type Intent struct {
	Name         string
	Patterns     []string
	Response     string
	QuickReplies []string
}

type Flow struct {
	ID    string
	Steps []Step
}

// Step is one message of a flow. An empty NextStep ends the flow.
type Step struct {
	ID           string
	Message      string
	QuickReplies []string
	NextStep     string
}

type Reply struct {
	Text         string
	QuickReplies []string
}

// Tier names the rule that produced a reply.
type Tier string

const (
	TierIntent   Tier = "intent"
	TierFlow     Tier = "flow"
	TierGreeting Tier = "greeting"
	TierHelp     Tier = "help"
	TierFarewell Tier = "farewell"
	TierFallback Tier = "fallback"
)

// Decision is the outcome of one turn.
type Decision struct {
	Reply   Reply
	Context Context
	Tier    Tier
}
