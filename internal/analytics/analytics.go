package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/nemirov/pulse-bot/internal/models"
	"github.com/nemirov/pulse-bot/internal/storage"
)

// Window is the trailing period analytics are computed over.
const Window = 30 * 24 * time.Hour

// Aggregator assembles the dashboard rollup from storage reads. Nothing
// is cached; every call recomputes against a fresh window.
type Aggregator struct {
	storage storage.Storage
}

func NewAggregator(storage storage.Storage) *Aggregator {
	return &Aggregator{storage: storage}
}

func (a *Aggregator) Summary(ctx context.Context) (*models.AnalyticsSummary, error) {
	since := time.Now().UTC().Add(-Window)

	totalUsers, err := a.storage.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}

	totalMessages, err := a.storage.CountMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting messages: %w", err)
	}

	distribution, err := a.storage.SentimentDistribution(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("error loading sentiment distribution: %w", err)
	}

	daily, err := a.storage.DailyMessageCounts(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("error loading daily message counts: %w", err)
	}

	return &models.AnalyticsSummary{
		TotalUsers:            totalUsers,
		TotalMessages:         totalMessages,
		SentimentDistribution: distribution,
		DailyMessages:         daily,
	}, nil
}
