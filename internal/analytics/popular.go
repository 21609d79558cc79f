// Package analytics keeps per-store search term statistics in Redis.
package analytics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/text/cases"

	"github.com/utafrali/quicksearch/internal/service"
)

const keyPrefix = "quicksearch:terms:"

// Term is a recorded search term.
type Term struct {
	Query      string `json:"query"`
	Popularity int64  `json:"popularity"`
	// Results is the result count of the most recent search.
	Results int `json:"num_results"`
}

// TermTracker counts searches per store in a sorted set and remembers the
// latest result count of each term in a hash.
type TermTracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTermTracker creates a tracker whose keys expire ttl after the last
// search in a store. A zero ttl keeps them forever.
func NewTermTracker(client *redis.Client, ttl time.Duration) *TermTracker {
	return &TermTracker{
		client: client,
		ttl:    ttl,
	}
}

func popularityKey(storeID string) string { return keyPrefix + storeID }

func resultsKey(storeID string) string { return keyPrefix + storeID + ":results" }

// Normalize folds case and collapses whitespace so equivalent queries share
// one counter. A Caser is not safe for concurrent use, so each call gets
// its own.
func (t *TermTracker) Normalize(query string) string {
	return strings.Join(strings.Fields(cases.Fold().String(query)), " ")
}

// RecordSearch implements service.SearchRecorder.
func (t *TermTracker) RecordSearch(ctx context.Context, rec service.SearchRecord) error {
	term := t.Normalize(rec.Query)
	if term == "" {
		return nil
	}

	pipe := t.client.TxPipeline()
	pipe.ZIncrBy(ctx, popularityKey(rec.StoreID), 1, term)
	pipe.HSet(ctx, resultsKey(rec.StoreID), term, rec.Results)
	if t.ttl > 0 {
		pipe.Expire(ctx, popularityKey(rec.StoreID), t.ttl)
		pipe.Expire(ctx, resultsKey(rec.StoreID), t.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis record search term: %w", err)
	}
	return nil
}

// Popular returns up to limit terms of storeID, most searched first.
func (t *TermTracker) Popular(ctx context.Context, storeID string, limit int) ([]Term, error) {
	if limit <= 0 {
		return []Term{}, nil
	}

	zs, err := t.client.ZRevRangeWithScores(ctx, popularityKey(storeID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis popular terms: %w", err)
	}
	if len(zs) == 0 {
		return []Term{}, nil
	}

	fields := make([]string, 0, len(zs))
	for _, z := range zs {
		fields = append(fields, z.Member.(string))
	}
	counts, err := t.client.HMGet(ctx, resultsKey(storeID), fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis term results: %w", err)
	}

	terms := make([]Term, 0, len(zs))
	for i, z := range zs {
		term := Term{Query: fields[i], Popularity: int64(z.Score)}
		if s, ok := counts[i].(string); ok {
			term.Results, _ = strconv.Atoi(s)
		}
		terms = append(terms, term)
	}
	return terms, nil
}

// Ping checks the Redis connection.
func (t *TermTracker) Ping(ctx context.Context) error {
	if err := t.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
