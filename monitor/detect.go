package monitor

import (
	"context"
	"fmt"
	"time"
)

// RankChange is the notification payload delivered when a pair's position
// differs between the two most recent observations. It is ephemeral:
// delivered synchronously to the registered listener, never persisted.
type RankChange struct {
	Keyword          string    `json:"keyword"`
	Domain           string    `json:"domain"`
	PreviousPosition *int64    `json:"previous_position"`
	CurrentPosition  *int64    `json:"current_position"`
	DetectedAt       time.Time `json:"detected_at"`
}

// detectChange compares the observation just written against the prior
// baseline for the same pair. It returns nil on cold start (fewer than two
// stored observations) and when positions are equal. A nil position on
// both sides counts as equal, a nil on one side counts as a difference.
func (m *Monitor) detectChange(ctx context.Context, keyword, domain string) (*RankChange, error) {
	history, err := m.store.History(ctx, keyword, domain, 2)
	if err != nil {
		return nil, fmt.Errorf("monitor: history: %w", err)
	}
	if len(history) < 2 {
		return nil, nil
	}

	current, baseline := history[0], history[1]
	if positionsEqual(baseline.Position, current.Position) {
		return nil, nil
	}

	return &RankChange{
		Keyword:          keyword,
		Domain:           domain,
		PreviousPosition: baseline.Position,
		CurrentPosition:  current.Position,
		DetectedAt:       time.Now(),
	}, nil
}

func positionsEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
