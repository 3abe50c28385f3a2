package endpoints

import (
	"errors"
	"net/http"
	"strconv"

	"chatbot-backend/internal/dto"
	botservice "chatbot-backend/internal/service/bot"
)

type BotEndpoints interface {
	Bots(http.ResponseWriter, *http.Request) error
	Bot(http.ResponseWriter, *http.Request) error
	Deployment(http.ResponseWriter, *http.Request) error
	Analytics(http.ResponseWriter, *http.Request) error
	PublicWidget(http.ResponseWriter, *http.Request) error
}

type botEndpoints struct {
	service *botservice.Service
}

func NewBotEndpoints(service *botservice.Service) BotEndpoints {
	return &botEndpoints{service: service}
}

func (h *botEndpoints) Bots(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet:  h.handleListBots,
		http.MethodPost: h.handleCreateBot,
	})
}

func (h *botEndpoints) Bot(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet:    h.handleGetBot,
		http.MethodPut:    h.handleUpdateBot,
		http.MethodDelete: h.handleDeleteBot,
	})
}

func (h *botEndpoints) Deployment(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost:   h.handleDeploy,
		http.MethodDelete: h.handleUndeploy,
	})
}

func (h *botEndpoints) Analytics(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleAnalytics,
	})
}

func (h *botEndpoints) PublicWidget(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handlePublicWidget,
	})
}

func (h *botEndpoints) handleListBots(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.service.IdentityFromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return mapBotServiceError(err)
	}

	bots, err := h.service.List(r.Context(), identity)
	if err != nil {
		return mapBotServiceError(err)
	}

	res := dto.BotListResponse{Bots: make([]dto.BotResponse, 0, len(bots))}
	for _, bot := range bots {
		res.Bots = append(res.Bots, botResponse(bot))
	}
	return WriteJSON(w, http.StatusOK, res)
}

func (h *botEndpoints) handleCreateBot(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.service.IdentityFromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return mapBotServiceError(err)
	}

	var req dto.UpdateBotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	bot, err := h.service.Create(r.Context(), identity, definitionFromRequest(req))
	if err != nil {
		return mapBotServiceError(err)
	}

	return WriteJSON(w, http.StatusCreated, dto.BotResultResponse{Bot: botResponse(bot), Message: "Bot created successfully"})
}

func (h *botEndpoints) handleDeleteBot(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.service.IdentityFromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return mapBotServiceError(err)
	}

	if err := h.service.Delete(r.Context(), identity, r.PathValue("botId")); err != nil {
		return mapBotServiceError(err)
	}

	return WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "Bot deleted successfully"})
}

func (h *botEndpoints) handleGetBot(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.service.IdentityFromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return mapBotServiceError(err)
	}

	bot, err := h.service.Get(r.Context(), identity, r.PathValue("botId"))
	if err != nil {
		return mapBotServiceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.BotResultResponse{Bot: botResponse(bot)})
}

func (h *botEndpoints) handleUpdateBot(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.service.IdentityFromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return mapBotServiceError(err)
	}

	var req dto.UpdateBotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	bot, err := h.service.SaveDefinition(r.Context(), identity, r.PathValue("botId"), definitionFromRequest(req))
	if err != nil {
		return mapBotServiceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.BotResultResponse{Bot: botResponse(bot), Message: "Bot updated successfully"})
}

func (h *botEndpoints) handleDeploy(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.service.IdentityFromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return mapBotServiceError(err)
	}

	deployment, err := h.service.Deploy(r.Context(), identity, r.PathValue("botId"))
	if err != nil {
		return mapBotServiceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.DeployResponse{
		Bot:           botResponse(deployment.Bot),
		DeploymentURL: deployment.DeploymentURL,
		EmbedCode:     deployment.EmbedCode,
		Message:       "Bot deployed successfully",
	})
}

func (h *botEndpoints) handleUndeploy(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.service.IdentityFromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return mapBotServiceError(err)
	}

	bot, err := h.service.Undeploy(r.Context(), identity, r.PathValue("botId"))
	if err != nil {
		return mapBotServiceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.BotResultResponse{Bot: botResponse(bot), Message: "Bot undeployed successfully"})
}

func (h *botEndpoints) handleAnalytics(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.service.IdentityFromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return mapBotServiceError(err)
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 1 {
			return &HTTPError{
				StatusCode: http.StatusBadRequest,
				Message:    "days must be a positive integer",
				ErrorLog:   err,
			}
		}
	}

	res, err := h.service.Analytics(r.Context(), identity, r.PathValue("botId"), days)
	if err != nil {
		return mapBotServiceError(err)
	}

	rows := make([]dto.DailyAnalytics, 0, len(res.Report.Days))
	for _, day := range res.Report.Days {
		rows = append(rows, dto.DailyAnalytics{
			Date:          day.Date,
			Conversations: day.Conversations,
			Messages:      day.Messages,
			UniqueUsers:   day.UniqueUsers,
		})
	}

	return WriteJSON(w, http.StatusOK, dto.AnalyticsResponse{
		Analytics: rows,
		Totals: dto.AnalyticsTotals{
			Conversations: res.Report.Totals.Conversations,
			Messages:      res.Report.Totals.Messages,
			UniqueUsers:   res.Report.Totals.UniqueUsers,
		},
		Bot: dto.AnalyticsBotSummary{
			ID:                 res.Bot.BotID,
			Name:               res.Bot.Name,
			Status:             string(res.Bot.Status),
			TotalConversations: res.Bot.TotalConversations,
			TotalMessages:      res.Bot.TotalMessages,
		},
		From: res.Report.From,
		To:   res.Report.To,
	})
}

func (h *botEndpoints) handlePublicWidget(w http.ResponseWriter, r *http.Request) error {
	widget, err := h.service.PublicWidget(r.Context(), r.PathValue("botId"))
	if err != nil {
		return mapBotServiceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.WidgetResponse{
		BotID:          widget.BotID,
		Name:           widget.Name,
		Avatar:         widget.Avatar,
		WelcomeMessage: widget.WelcomeMessage,
		Theme:          widget.Theme,
	})
}

func mapBotServiceError(err error) error {
	var svcErr *botservice.Error
	if !errors.As(err, &svcErr) {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   err,
		}
	}

	status := http.StatusInternalServerError
	switch svcErr.Code {
	case botservice.ErrorCodeValidation:
		status = http.StatusBadRequest
	case botservice.ErrorCodeUnauthorized:
		status = http.StatusUnauthorized
	case botservice.ErrorCodeNotFound:
		status = http.StatusNotFound
	}

	return &HTTPError{
		StatusCode: status,
		Message:    svcErr.Message,
		ErrorLog:   err,
	}
}
