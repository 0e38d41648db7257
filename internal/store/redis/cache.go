package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

// CacheSearch stores the unranked postings of a search under its fingerprint
func (s *Store) CacheSearch(ctx context.Context, fingerprint string, postings []domain.Posting, ttl time.Duration) error {
	data, err := json.Marshal(postings)
	if err != nil {
		return fmt.Errorf("failed to marshal search results: %w", err)
	}

	if err := s.client.Set(ctx, CacheKey(fingerprint), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache search: %w", err)
	}
	return nil
}

// GetCachedSearch retrieves cached postings. The bool is false on a cache miss.
func (s *Store) GetCachedSearch(ctx context.Context, fingerprint string) ([]domain.Posting, bool, error) {
	data, err := s.client.Get(ctx, CacheKey(fingerprint)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil // Cache miss
		}
		return nil, false, fmt.Errorf("failed to get cached search: %w", err)
	}

	var postings []domain.Posting
	if err := json.Unmarshal(data, &postings); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached search: %w", err)
	}
	return postings, true, nil
}

// InvalidateSearch removes one cached search
func (s *Store) InvalidateSearch(ctx context.Context, fingerprint string) error {
	if err := s.client.Del(ctx, CacheKey(fingerprint)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// FlushCache removes all cached searches and returns how many were dropped
func (s *Store) FlushCache(ctx context.Context) (int, error) {
	flushed := 0
	iter := s.client.Scan(ctx, 0, KeyPrefixCache+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return flushed, fmt.Errorf("failed to delete cache key: %w", err)
		}
		flushed++
	}
	if err := iter.Err(); err != nil {
		return flushed, fmt.Errorf("failed to flush cache: %w", err)
	}
	return flushed, nil
}
