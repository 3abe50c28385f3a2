package chat

import (
	"chatbot-backend/internal/engine"
	"chatbot-backend/internal/model"
)

// EngineBot resolves the stored bot into the shape the engine decides on.
func EngineBot(bot model.BotItem) engine.Bot {
	out := engine.Bot{
		Config: engine.Config{
			WelcomeMessage:  bot.ConfigString(model.ConfigWelcomeMessage),
			FallbackMessage: bot.ConfigString(model.ConfigFallbackMessage),
		},
		Intents: make([]engine.Intent, 0, len(bot.Intents)),
		Flows:   make([]engine.Flow, 0, len(bot.Flows)),
	}

	for _, intent := range bot.Intents {
		out.Intents = append(out.Intents, engine.Intent{
			Name:         intent.Name,
			Patterns:     intent.Patterns,
			Response:     intent.Response,
			QuickReplies: intent.QuickReplies,
		})
	}

	for _, flow := range bot.Flows {
		steps := make([]engine.Step, 0, len(flow.Steps))
		for _, step := range flow.Steps {
			steps = append(steps, engine.Step{
				ID:           step.ID,
				Message:      step.Message,
				QuickReplies: step.QuickReplies,
				NextStep:     step.NextStep,
			})
		}
		out.Flows = append(out.Flows, engine.Flow{ID: flow.ID, Steps: steps})
	}

	return out
}
