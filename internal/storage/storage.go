package storage

import (
	"context"
	"time"

	"github.com/nemirov/pulse-bot/internal/models"
)

type Storage interface {
	// SaveUser upserts by chat_id. Empty fields on the incoming user leave
	// the stored values untouched; non-empty fields overwrite them.
	SaveUser(ctx context.Context, user *models.User) error

	// SaveChatRecord and SaveFileRecord append; records are never mutated.
	SaveChatRecord(ctx context.Context, record *models.ChatRecord) error
	SaveFileRecord(ctx context.Context, record *models.FileRecord) error

	CountChatRecords(ctx context.Context, chatID int64) (int, error)
	CountUsers(ctx context.Context) (int, error)
	CountMessages(ctx context.Context) (int, error)

	// SentimentDistribution groups chat records at or after since by label,
	// ordered by label. DailyMessageCounts groups them by UTC calendar day,
	// ascending by day.
	SentimentDistribution(ctx context.Context, since time.Time) ([]models.LabelCount, error)
	DailyMessageCounts(ctx context.Context, since time.Time) ([]models.DayCount, error)

	Close() error
}
