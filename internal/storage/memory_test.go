package storage

import (
	"context"
	"testing"
	"time"

	"github.com/nemirov/pulse-bot/internal/models"
)

func chatRecord(chatID int64, label string, createdAt time.Time) *models.ChatRecord {
	return &models.ChatRecord{
		ID:        createdAt.String() + label,
		ChatID:    chatID,
		UserInput: "hello",
		Response:  "hi",
		Sentiment: models.Sentiment{Score: 50, Label: label},
		CreatedAt: createdAt,
	}
}

func TestSaveUserUpsertMergesFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	if err := s.SaveUser(ctx, &models.User{ChatID: 1, FirstName: "Ada", Username: "ada"}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	// Contact share only carries the phone
	if err := s.SaveUser(ctx, &models.User{ChatID: 1, Phone: "+123"}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}

	count, err := s.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 user after upsert, got %d", count)
	}

	u := s.users[1]
	if u.FirstName != "Ada" || u.Username != "ada" || u.Phone != "+123" {
		t.Errorf("unexpected merged user: %+v", u)
	}

	// A later write overwrites provided fields
	if err := s.SaveUser(ctx, &models.User{ChatID: 1, FirstName: "Grace"}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if u := s.users[1]; u.FirstName != "Grace" || u.Phone != "+123" {
		t.Errorf("expected last write per field to win, got %+v", u)
	}
}

func TestCountChatRecordsScopedByChat(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		if err := s.SaveChatRecord(ctx, chatRecord(1, models.SentimentNeutral, now.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("SaveChatRecord: %v", err)
		}
	}
	if err := s.SaveChatRecord(ctx, chatRecord(2, models.SentimentNeutral, now)); err != nil {
		t.Fatalf("SaveChatRecord: %v", err)
	}

	count, err := s.CountChatRecords(ctx, 1)
	if err != nil {
		t.Fatalf("CountChatRecords: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 records for chat 1, got %d", count)
	}

	total, err := s.CountMessages(ctx)
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	if total != 4 {
		t.Errorf("expected 4 messages total, got %d", total)
	}
}

func TestSentimentDistributionWindow(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	now := time.Now().UTC()
	since := now.Add(-30 * 24 * time.Hour)

	s.SaveChatRecord(ctx, chatRecord(1, models.SentimentPositive, now.Add(-time.Hour)))
	s.SaveChatRecord(ctx, chatRecord(1, models.SentimentPositive, now.Add(-2*time.Hour)))
	s.SaveChatRecord(ctx, chatRecord(1, models.SentimentNegative, now.Add(-3*time.Hour)))
	// Outside the window, must not be counted
	s.SaveChatRecord(ctx, chatRecord(1, models.SentimentPositive, since.Add(-time.Hour)))

	dist, err := s.SentimentDistribution(ctx, since)
	if err != nil {
		t.Fatalf("SentimentDistribution: %v", err)
	}

	want := []models.LabelCount{
		{Label: models.SentimentNegative, Count: 1},
		{Label: models.SentimentPositive, Count: 2},
	}
	if len(dist) != len(want) {
		t.Fatalf("expected %d buckets, got %d: %+v", len(want), len(dist), dist)
	}
	for i, lc := range want {
		if dist[i] != lc {
			t.Errorf("bucket %d = %+v, want %+v", i, dist[i], lc)
		}
	}
}

func TestDailyMessageCountsSortedAndSummed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	now := time.Now().UTC()
	since := now.Add(-30 * 24 * time.Hour)

	day1 := now.Add(-48 * time.Hour)
	day2 := now.Add(-24 * time.Hour)

	s.SaveChatRecord(ctx, chatRecord(1, models.SentimentNeutral, day2))
	s.SaveChatRecord(ctx, chatRecord(1, models.SentimentNeutral, day1))
	s.SaveChatRecord(ctx, chatRecord(2, models.SentimentNeutral, day1.Add(time.Minute)))
	// Outside the window
	s.SaveChatRecord(ctx, chatRecord(1, models.SentimentNeutral, since.Add(-time.Hour)))

	days, err := s.DailyMessageCounts(ctx, since)
	if err != nil {
		t.Fatalf("DailyMessageCounts: %v", err)
	}

	if len(days) != 2 {
		t.Fatalf("expected entries only for days with records, got %+v", days)
	}

	sum := 0
	for i, dc := range days {
		sum += dc.Count
		if i > 0 && days[i-1].Day >= dc.Day {
			t.Errorf("days not ascending: %q before %q", days[i-1].Day, dc.Day)
		}
	}
	if sum != 3 {
		t.Errorf("window sum = %d, want 3", sum)
	}

	if days[0].Day != day1.Format("2006-01-02") || days[0].Count != 2 {
		t.Errorf("first bucket = %+v, want {%s 2}", days[0], day1.Format("2006-01-02"))
	}
	if days[1].Day != day2.Format("2006-01-02") || days[1].Count != 1 {
		t.Errorf("second bucket = %+v, want {%s 1}", days[1], day2.Format("2006-01-02"))
	}
}
