package engine

// Respond decides the reply to message. Intents win over an active flow, and
// an active flow wins over the built-in cascade. Exactly one tier answers.
// Respond has no error path: missing configuration, unknown flow ids and an
// empty context all fall through to the next tier.
func Respond(message string, bot Bot, ctx Context) Decision {
	if intent, ok := MatchIntent(message, bot.Intents); ok {
		next := ctx.clone()
		next.LastIntent = intent.Name
		return Decision{
			Reply:   Reply{Text: orDefault(intent.Response, DefaultAcknowledgement), QuickReplies: copyStrings(intent.QuickReplies)},
			Context: next,
			Tier:    TierIntent,
		}
	}

	if flow, step, ok := ResolveFlow(ctx, bot.Flows); ok {
		next := ctx.clone()
		next.CurrentFlow = flow.ID
		next.NextStep = step.NextStep
		return Decision{
			Reply:   Reply{Text: step.Message, QuickReplies: copyStrings(step.QuickReplies)},
			Context: next,
			Tier:    TierFlow,
		}
	}

	return SelectDefault(message, bot.Config, ctx)
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
