package models

import "time"

// Sentiment labels assigned to chat records.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// User represents a registered bot user, keyed by their Telegram chat ID.
type User struct {
	ChatID    int64  `json:"chat_id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
	Phone     string `json:"phone,omitempty"`
}

// Sentiment is the score/label pair attached to every chat record.
// Score is in [0,100]; 50 is perfectly neutral.
type Sentiment struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// ChatRecord is one persisted text exchange between a user and the bot.
type ChatRecord struct {
	ID        string    `json:"id"`
	ChatID    int64     `json:"chat_id"`
	UserInput string    `json:"user_input"`
	Response  string    `json:"bot_response"`
	Sentiment Sentiment `json:"sentiment"`
	CreatedAt time.Time `json:"timestamp"`
}

// FileRecord is the stored metadata for one analyzed upload.
type FileRecord struct {
	ID          string    `json:"id"`
	ChatID      int64     `json:"chat_id"`
	FileName    string    `json:"file_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"timestamp"`
}

// LabelCount is one bucket of the sentiment distribution. The JSON key
// matches the shape the dashboard frontend consumes.
type LabelCount struct {
	Label string `json:"_id"`
	Count int    `json:"count"`
}

// DayCount is the message count for one UTC calendar day ("2006-01-02").
type DayCount struct {
	Day   string `json:"_id"`
	Count int    `json:"count"`
}

// AnalyticsSummary is the 30-day rollup served to the dashboard.
type AnalyticsSummary struct {
	TotalUsers            int          `json:"total_users"`
	TotalMessages         int          `json:"total_messages"`
	SentimentDistribution []LabelCount `json:"sentiment_distribution"`
	DailyMessages         []DayCount   `json:"daily_messages"`
}
