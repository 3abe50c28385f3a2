package model

type MessageType string

const (
	MessageTypeUser MessageType = "user"
	MessageTypeBot  MessageType = "bot"
)

// ConversationItem is one chat session with a bot. Messages live in their own
// table; MessageCount is the seq of the newest one. Version increases by one
// on every committed turn and guards concurrent writers.
type ConversationItem struct {
	PK             string                 `dynamodbav:"pk"`
	ConversationID string                 `dynamodbav:"conversationId"`
	BotID          string                 `dynamodbav:"botId"`
	SessionID      string                 `dynamodbav:"sessionId"`
	UserID         string                 `dynamodbav:"userId,omitempty"`
	Context        map[string]interface{} `dynamodbav:"context"`
	MessageCount   int64                  `dynamodbav:"messageCount"`
	Version        int64                  `dynamodbav:"version"`
	CreatedAt      string                 `dynamodbav:"createdAt"`
	UpdatedAt      string                 `dynamodbav:"updatedAt"`
}

// MessageItem is keyed by conversationId with seq as the range key, so a
// query returns the transcript in order.
type MessageItem struct {
	ConversationID string      `dynamodbav:"conversationId" json:"-"`
	Seq            int64       `dynamodbav:"seq" json:"-"`
	ID             string      `dynamodbav:"id" json:"id"`
	Type           MessageType `dynamodbav:"type" json:"type"`
	Text           string      `dynamodbav:"text" json:"text"`
	Timestamp      string      `dynamodbav:"timestamp" json:"timestamp"`
	QuickReplies   []string    `dynamodbav:"quickReplies,omitempty" json:"quickReplies,omitempty"`
}
