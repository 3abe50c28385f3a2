package endpoints

import (
	"errors"
	"net/http"

	"chatbot-backend/internal/dto"
	"chatbot-backend/internal/model"
	chatservice "chatbot-backend/internal/service/chat"
)

type ChatEndpoints interface {
	Chat(http.ResponseWriter, *http.Request) error
}

type chatEndpoints struct {
	service *chatservice.Service
}

func NewChatEndpoints(service *chatservice.Service) ChatEndpoints {
	return &chatEndpoints{service: service}
}

// Chat expects the route to carry a {botId} wildcard.
func (h *chatEndpoints) Chat(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleChat,
		http.MethodGet:  h.handleHistory,
	})
}

func (h *chatEndpoints) handleChat(w http.ResponseWriter, r *http.Request) error {
	var req dto.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	res, err := h.service.SendMessage(r.Context(), chatservice.SendMessageParams{
		BotID:     r.PathValue("botId"),
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Message:   req.Message,
	})
	if err != nil {
		return mapChatServiceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.ChatResponse{
		Response:       chatMessage(res.Reply),
		Context:        res.Context,
		ConversationID: res.ConversationID,
	})
}

// handleHistory lets a reloaded widget restore the session transcript.
func (h *chatEndpoints) handleHistory(w http.ResponseWriter, r *http.Request) error {
	messages, err := h.service.History(r.Context(), r.PathValue("botId"), r.URL.Query().Get("sessionId"))
	if err != nil {
		return mapChatServiceError(err)
	}

	out := make([]dto.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, chatMessage(msg))
	}
	return WriteJSON(w, http.StatusOK, dto.ChatHistoryResponse{Messages: out})
}

func chatMessage(msg model.MessageItem) dto.ChatMessage {
	return dto.ChatMessage{
		ID:           msg.ID,
		Type:         string(msg.Type),
		Text:         msg.Text,
		Timestamp:    msg.Timestamp,
		QuickReplies: msg.QuickReplies,
	}
}

func mapChatServiceError(err error) error {
	var svcErr *chatservice.Error
	if !errors.As(err, &svcErr) {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   err,
		}
	}

	status := http.StatusInternalServerError
	switch svcErr.Code {
	case chatservice.ErrorCodeInvalidRequest, chatservice.ErrorCodeBotNotDeployed:
		status = http.StatusBadRequest
	case chatservice.ErrorCodeNotFound:
		status = http.StatusNotFound
	}

	return &HTTPError{
		StatusCode: status,
		Message:    svcErr.Message,
		ErrorLog:   err,
	}
}
