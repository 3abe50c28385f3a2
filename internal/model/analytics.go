package model

type DailyAnalyticsItem struct {
	PK            string `dynamodbav:"pk"`
	BotID         string `dynamodbav:"botId"`
	Date          string `dynamodbav:"date"`
	Conversations int64  `dynamodbav:"conversations"`
	Messages      int64  `dynamodbav:"messages"`
	UniqueUsers   int64  `dynamodbav:"uniqueUsers"`
}
