package model

import "fmt"

const (
	BotsTable          = "Bots"
	ConversationsTable = "Conversations"
	MessagesTable      = "ConversationMessages"
	BotAnalyticsTable  = "BotAnalytics"

	// BotsByOwnerIndex is keyed by ownerId with updatedAt as the range key.
	BotsByOwnerIndex = "byOwner"

	// BotAnalyticsByBotIndex is keyed by botId with date as the range key.
	BotAnalyticsByBotIndex = "byBot"
)

// DateLayout is the calendar day format used by analytics rows.
const DateLayout = "2006-01-02"

func ConversationPK(botID, sessionID string) string {
	return fmt.Sprintf("%s#%s", botID, sessionID)
}

func DailyAnalyticsPK(botID, date string) string {
	return fmt.Sprintf("%s#%s", botID, date)
}
