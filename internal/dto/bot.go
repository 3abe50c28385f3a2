package dto

type IntentPayload struct {
	Name         string   `json:"name"`
	Patterns     []string `json:"patterns"`
	Response     string   `json:"response,omitempty"`
	QuickReplies []string `json:"quickReplies,omitempty"`
}

type StepPayload struct {
	ID           string   `json:"id"`
	Message      string   `json:"message"`
	QuickReplies []string `json:"quickReplies,omitempty"`
	NextStep     string   `json:"nextStep,omitempty"`
}

type FlowPayload struct {
	ID    string        `json:"id"`
	Name  string        `json:"name,omitempty"`
	Steps []StepPayload `json:"steps"`
}

type UpdateBotRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Config      map[string]interface{} `json:"config"`
	Intents     []IntentPayload        `json:"intents"`
	Flows       []FlowPayload          `json:"flows"`
}

type BotResponse struct {
	ID                 string                 `json:"id"`
	Name               string                 `json:"name"`
	Description        string                 `json:"description,omitempty"`
	Status             string                 `json:"status"`
	Config             map[string]interface{} `json:"config"`
	Intents            []IntentPayload        `json:"intents"`
	Flows              []FlowPayload          `json:"flows"`
	DeploymentURL      *string                `json:"deploymentUrl"`
	TotalConversations int64                  `json:"totalConversations"`
	TotalMessages      int64                  `json:"totalMessages"`
	LastActivity       string                 `json:"lastActivity,omitempty"`
	CreatedAt          string                 `json:"createdAt"`
	UpdatedAt          string                 `json:"updatedAt"`
}

type BotResultResponse struct {
	Bot     BotResponse `json:"bot"`
	Message string      `json:"message,omitempty"`
}

type BotListResponse struct {
	Bots []BotResponse `json:"bots"`
}

type DeployResponse struct {
	Bot           BotResponse `json:"bot"`
	DeploymentURL string      `json:"deploymentUrl"`
	EmbedCode     string      `json:"embedCode"`
	Message       string      `json:"message"`
}

type DailyAnalytics struct {
	Date          string `json:"date"`
	Conversations int64  `json:"conversations"`
	Messages      int64  `json:"messages"`
	UniqueUsers   int64  `json:"uniqueUsers"`
}

type AnalyticsTotals struct {
	Conversations int64 `json:"conversations"`
	Messages      int64 `json:"messages"`
	UniqueUsers   int64 `json:"uniqueUsers"`
}

type AnalyticsBotSummary struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Status             string `json:"status"`
	TotalConversations int64  `json:"totalConversations"`
	TotalMessages      int64  `json:"totalMessages"`
}

type AnalyticsResponse struct {
	Analytics []DailyAnalytics    `json:"analytics"`
	Totals    AnalyticsTotals     `json:"totals"`
	Bot       AnalyticsBotSummary `json:"bot"`
	From      string              `json:"from"`
	To        string              `json:"to"`
}

type WidgetResponse struct {
	BotID          string                 `json:"botId"`
	Name           string                 `json:"name"`
	Avatar         string                 `json:"avatar,omitempty"`
	WelcomeMessage string                 `json:"welcomeMessage,omitempty"`
	Theme          map[string]interface{} `json:"theme"`
}
