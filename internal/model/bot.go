package model

type BotStatus string

const (
	BotStatusDraft     BotStatus = "DRAFT"
	BotStatusPublished BotStatus = "PUBLISHED"
	BotStatusDeployed  BotStatus = "DEPLOYED"
	BotStatusArchived  BotStatus = "ARCHIVED"
)

// Keys read from BotItem.Config.
const (
	ConfigWelcomeMessage  = "welcomeMessage"
	ConfigFallbackMessage = "fallbackMessage"
	ConfigAvatar          = "avatar"
	ConfigTheme           = "theme"
)

type BotItem struct {
	BotID              string                 `dynamodbav:"botId"`
	OwnerID            string                 `dynamodbav:"ownerId"`
	Name               string                 `dynamodbav:"name"`
	Description        string                 `dynamodbav:"description,omitempty"`
	Status             BotStatus              `dynamodbav:"status"`
	Config             map[string]interface{} `dynamodbav:"config,omitempty"`
	Intents            []IntentItem           `dynamodbav:"intents,omitempty"`
	Flows              []FlowItem             `dynamodbav:"flows,omitempty"`
	DeploymentURL      string                 `dynamodbav:"deploymentUrl,omitempty"`
	TotalConversations int64                  `dynamodbav:"totalConversations"`
	TotalMessages      int64                  `dynamodbav:"totalMessages"`
	LastActivity       string                 `dynamodbav:"lastActivity,omitempty"`
	CreatedAt          string                 `dynamodbav:"createdAt"`
	UpdatedAt          string                 `dynamodbav:"updatedAt"`
}

type IntentItem struct {
	Name         string   `dynamodbav:"name" validate:"required"`
	Patterns     []string `dynamodbav:"patterns" validate:"required,min=1,dive,required"`
	Response     string   `dynamodbav:"response,omitempty"`
	QuickReplies []string `dynamodbav:"quickReplies,omitempty" validate:"max=10"`
}

type FlowItem struct {
	ID    string     `dynamodbav:"id" validate:"required"`
	Name  string     `dynamodbav:"name,omitempty"`
	Steps []StepItem `dynamodbav:"steps" validate:"required,min=1,dive"`
}

type StepItem struct {
	ID           string   `dynamodbav:"id" validate:"required"`
	Message      string   `dynamodbav:"message" validate:"required"`
	QuickReplies []string `dynamodbav:"quickReplies,omitempty" validate:"max=10"`
	NextStep     string   `dynamodbav:"nextStep,omitempty"`
}

// ConfigString returns a string entry of the free-form config, or "".
func (b BotItem) ConfigString(key string) string {
	if b.Config == nil {
		return ""
	}
	s, _ := b.Config[key].(string)
	return s
}
