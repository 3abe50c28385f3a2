package endpoints

import (
	"chatbot-backend/internal/dto"
	"chatbot-backend/internal/model"
	botservice "chatbot-backend/internal/service/bot"
)

func definitionFromRequest(req dto.UpdateBotRequest) botservice.Definition {
	def := botservice.Definition{
		Name:        req.Name,
		Description: req.Description,
		Config:      req.Config,
		Intents:     make([]model.IntentItem, 0, len(req.Intents)),
		Flows:       make([]model.FlowItem, 0, len(req.Flows)),
	}
	for _, intent := range req.Intents {
		def.Intents = append(def.Intents, model.IntentItem{
			Name:         intent.Name,
			Patterns:     intent.Patterns,
			Response:     intent.Response,
			QuickReplies: intent.QuickReplies,
		})
	}
	for _, flow := range req.Flows {
		steps := make([]model.StepItem, 0, len(flow.Steps))
		for _, step := range flow.Steps {
			steps = append(steps, model.StepItem{
				ID:           step.ID,
				Message:      step.Message,
				QuickReplies: step.QuickReplies,
				NextStep:     step.NextStep,
			})
		}
		def.Flows = append(def.Flows, model.FlowItem{ID: flow.ID, Name: flow.Name, Steps: steps})
	}
	return def
}

func botResponse(bot model.BotItem) dto.BotResponse {
	res := dto.BotResponse{
		ID:                 bot.BotID,
		Name:               bot.Name,
		Description:        bot.Description,
		Status:             string(bot.Status),
		Config:             bot.Config,
		Intents:            make([]dto.IntentPayload, 0, len(bot.Intents)),
		Flows:              make([]dto.FlowPayload, 0, len(bot.Flows)),
		TotalConversations: bot.TotalConversations,
		TotalMessages:      bot.TotalMessages,
		LastActivity:       bot.LastActivity,
		CreatedAt:          bot.CreatedAt,
		UpdatedAt:          bot.UpdatedAt,
	}
	if res.Config == nil {
		res.Config = map[string]interface{}{}
	}
	if bot.DeploymentURL != "" {
		url := bot.DeploymentURL
		res.DeploymentURL = &url
	}
	for _, intent := range bot.Intents {
		res.Intents = append(res.Intents, dto.IntentPayload{
			Name:         intent.Name,
			Patterns:     intent.Patterns,
			Response:     intent.Response,
			QuickReplies: intent.QuickReplies,
		})
	}
	for _, flow := range bot.Flows {
		steps := make([]dto.StepPayload, 0, len(flow.Steps))
		for _, step := range flow.Steps {
			steps = append(steps, dto.StepPayload{
				ID:           step.ID,
				Message:      step.Message,
				QuickReplies: step.QuickReplies,
				NextStep:     step.NextStep,
			})
		}
		res.Flows = append(res.Flows, dto.FlowPayload{ID: flow.ID, Name: flow.Name, Steps: steps})
	}
	return res
}
