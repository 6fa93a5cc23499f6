// Package history keeps a capped list of recently asked questions in Redis.
// Only the question, its intent and outcome are stored; answers are always recomputed.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sales-assistant/internal/common/config"
	apperrors "sales-assistant/internal/common/errors"
	"sales-assistant/internal/models"
)

type Entry struct {
	Question string        `json:"question"`
	Intent   models.Intent `json:"intent"`
	Outcome  string        `json:"outcome"`
	AskedAt  time.Time     `json:"askedAt"`
}

type Store struct {
	client     redis.Cmdable
	key        string
	maxEntries int
	now        func() time.Time
}

func New(client redis.Cmdable, cfg config.HistoryConfig) *Store {
	return &Store{
		client:     client,
		key:        cfg.Key,
		maxEntries: cfg.MaxEntries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Record prepends an entry and trims the list to the configured size.
func (s *Store) Record(ctx context.Context, question string, intent models.Intent, outcome string) error {
	data, err := json.Marshal(Entry{
		Question: question,
		Intent:   intent,
		Outcome:  outcome,
		AskedAt:  s.now(),
	})
	if err != nil {
		return apperrors.NewHistoryFailedError(err)
	}

	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.key, data)
		pipe.LTrim(ctx, s.key, 0, int64(s.maxEntries-1))
		return nil
	})
	if err != nil {
		return apperrors.NewHistoryFailedError(err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.maxEntries {
		limit = s.maxEntries
	}

	raw, err := s.client.LRange(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, apperrors.NewHistoryFailedError(err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, apperrors.NewHistoryFailedError(fmt.Errorf("decode entry: %w", err))
		}
		entries = append(entries, e)
	}
	return entries, nil
}
