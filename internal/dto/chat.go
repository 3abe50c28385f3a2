package dto

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId,omitempty"`
}

type ChatMessage struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Text         string   `json:"text"`
	Timestamp    string   `json:"timestamp"`
	QuickReplies []string `json:"quickReplies,omitempty"`
}

type ChatResponse struct {
	Response       ChatMessage            `json:"response"`
	Context        map[string]interface{} `json:"context"`
	ConversationID string                 `json:"conversationId"`
}

type ChatHistoryResponse struct {
	Messages []ChatMessage `json:"messages"`
}
