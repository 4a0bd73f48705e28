package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nemirov/pulse-bot/internal/models"
)

// MemoryStorage keeps everything in process memory. Used in tests and when
// database.use_in_memory is set.
type MemoryStorage struct {
	mu    sync.RWMutex
	users map[int64]*models.User
	chats []*models.ChatRecord
	files []*models.FileRecord
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users: make(map[int64]*models.User),
	}
}

func (s *MemoryStorage) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.users[user.ChatID]
	if !exists {
		stored := *user
		s.users[user.ChatID] = &stored
		return nil
	}

	if user.FirstName != "" {
		existing.FirstName = user.FirstName
	}
	if user.Username != "" {
		existing.Username = user.Username
	}
	if user.Phone != "" {
		existing.Phone = user.Phone
	}
	return nil
}

func (s *MemoryStorage) SaveChatRecord(ctx context.Context, record *models.ChatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	s.chats = append(s.chats, &stored)
	return nil
}

func (s *MemoryStorage) SaveFileRecord(ctx context.Context, record *models.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	s.files = append(s.files, &stored)
	return nil
}

func (s *MemoryStorage) CountChatRecords(ctx context.Context, chatID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.chats {
		if rec.ChatID == chatID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *MemoryStorage) CountMessages(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chats), nil
}

func (s *MemoryStorage) SentimentDistribution(ctx context.Context, since time.Time) ([]models.LabelCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, rec := range s.chats {
		if !rec.CreatedAt.Before(since) {
			counts[rec.Sentiment.Label]++
		}
	}

	distribution := make([]models.LabelCount, 0, len(counts))
	for label, count := range counts {
		distribution = append(distribution, models.LabelCount{Label: label, Count: count})
	}
	sort.Slice(distribution, func(i, j int) bool {
		return distribution[i].Label < distribution[j].Label
	})

	if len(distribution) == 0 {
		return nil, nil
	}
	return distribution, nil
}

func (s *MemoryStorage) DailyMessageCounts(ctx context.Context, since time.Time) ([]models.DayCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, rec := range s.chats {
		if !rec.CreatedAt.Before(since) {
			counts[rec.CreatedAt.UTC().Format("2006-01-02")]++
		}
	}

	days := make([]models.DayCount, 0, len(counts))
	for day, count := range counts {
		days = append(days, models.DayCount{Day: day, Count: count})
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Day < days[j].Day
	})

	if len(days) == 0 {
		return nil, nil
	}
	return days, nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
