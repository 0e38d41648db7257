package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/store"
)

var _ store.SavedJobs = (*Store)(nil)

// saveScript claims the dedup field and writes the record and the user
// index in one step. It returns {1, id} when it created the record and
// {0, existing id} when the field was already claimed.
//
// KEYS: dedup hash, record key, user zset. ARGV: field, record JSON, id.
var saveScript = redis.NewScript(`
local existing = redis.call('HGET', KEYS[1], ARGV[1])
if existing then
	return {0, tonumber(existing)}
end
redis.call('SET', KEYS[2], ARGV[2])
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[3])
redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
return {1, tonumber(ARGV[3])}
`)

// dropDedupScript deletes a dedup field only while it still maps to the
// given id, so a sweep never removes a claim made after it read the hash.
//
// KEYS: dedup hash. ARGV: field, id.
var dropDedupScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], ARGV[1]) == ARGV[2] then
	return redis.call('HDEL', KEYS[1], ARGV[1])
end
return 0
`)

// Save stores a posting for email unless the same posting is already saved.
//
// Layout:
//   - jobscout:saved:seq           INCR counter for ids
//   - jobscout:saved:job:<id>      JSON SavedPosting
//   - jobscout:saved:user:<email>  ZSET of ids scored by id
//   - jobscout:saved:dedup:<email> HASH posting key -> id
//
// A dedup field is never visible without its record: the claim, the record
// and the index entry are written by one script.
func (s *Store) Save(ctx context.Context, email string, posting domain.Posting) (domain.SaveOutcome, domain.SavedPosting, error) {
	email = domain.NormalizeEmail(email)
	field := posting.Key().String()
	dedup := DedupKey(email)

	existing, err := s.lookup(ctx, email, dedup, field, posting)
	if err != nil {
		return 0, domain.SavedPosting{}, err
	}
	if existing != nil {
		return domain.SaveAlreadyExists, *existing, nil
	}

	id, err := s.client.Incr(ctx, KeySavedSeq).Result()
	if err != nil {
		return 0, domain.SavedPosting{}, fmt.Errorf("failed to allocate saved id: %w", err)
	}

	saved := domain.SavedPosting{
		Posting:   posting,
		ID:        id,
		UserEmail: email,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return 0, domain.SavedPosting{}, fmt.Errorf("failed to marshal saved posting: %w", err)
	}

	res, err := saveScript.Run(ctx, s.client,
		[]string{dedup, SavedKey(id), UserKey(email)},
		field, data, id,
	).Int64Slice()
	if err != nil {
		return 0, domain.SavedPosting{}, fmt.Errorf("failed to save posting: %w", err)
	}
	if len(res) != 2 {
		return 0, domain.SavedPosting{}, fmt.Errorf("failed to save posting: unexpected reply %v", res)
	}

	if res[0] == 0 {
		// Lost a race against a concurrent save of the same posting
		winner, err := s.get(ctx, res[1])
		if err != nil {
			return domain.SaveAlreadyExists, domain.SavedPosting{Posting: posting, ID: res[1], UserEmail: email}, nil
		}
		return domain.SaveAlreadyExists, *winner, nil
	}

	return domain.SaveCreated, saved, nil
}

// lookup returns the saved posting recorded under field, or nil.
// A claimed field whose record is gone (a dangling entry awaiting the
// janitor) still counts as saved.
func (s *Store) lookup(ctx context.Context, email, dedup, field string, posting domain.Posting) (*domain.SavedPosting, error) {
	id, err := s.client.HGet(ctx, dedup, field).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read dedup key: %w", err)
	}

	saved, err := s.get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.SavedPosting{Posting: posting, ID: id, UserEmail: email}, nil
		}
		return nil, err
	}
	return saved, nil
}

func (s *Store) get(ctx context.Context, id int64) (*domain.SavedPosting, error) {
	data, err := s.client.Get(ctx, SavedKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("saved posting %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get saved posting: %w", err)
	}

	var saved domain.SavedPosting
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("failed to unmarshal saved posting: %w", err)
	}
	return &saved, nil
}

// List returns the postings saved by email, highest id first
func (s *Store) List(ctx context.Context, email string) ([]domain.SavedPosting, error) {
	ids, err := s.client.ZRevRange(ctx, UserKey(email), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list saved ids: %w", err)
	}

	saved := make([]domain.SavedPosting, 0, len(ids))
	if len(ids) == 0 {
		return saved, nil
	}

	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		keys = append(keys, SavedKey(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get saved postings: %w", err)
	}

	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Dangling index entry, cleaned up by the janitor
			continue
		}
		var sp domain.SavedPosting
		if err := json.Unmarshal([]byte(raw), &sp); err != nil {
			continue
		}
		saved = append(saved, sp)
	}

	return saved, nil
}

// Remove deletes a saved posting and its index entries
func (s *Store) Remove(ctx context.Context, id int64) error {
	saved, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, SavedKey(id))
	pipe.ZRem(ctx, UserKey(saved.UserEmail), id)
	pipe.HDel(ctx, DedupKey(saved.UserEmail), saved.Key().String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove saved posting: %w", err)
	}

	// A concurrent remove got there first
	if del.Val() == 0 {
		return fmt.Errorf("saved posting %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SweepDangling drops index entries whose saved record no longer exists.
// It returns the number of entries removed.
func (s *Store) SweepDangling(ctx context.Context) (int, error) {
	removed := 0

	iter := s.client.Scan(ctx, 0, KeyPrefixUser+"*", 0).Iterator()
	for iter.Next(ctx) {
		n, err := s.sweepUserIndex(ctx, iter.Val())
		if err != nil {
			return removed, err
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan user indexes: %w", err)
	}

	iter = s.client.Scan(ctx, 0, KeyPrefixDedup+"*", 0).Iterator()
	for iter.Next(ctx) {
		n, err := s.sweepDedupIndex(ctx, iter.Val())
		if err != nil {
			return removed, err
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan dedup indexes: %w", err)
	}

	return removed, nil
}

func (s *Store) sweepUserIndex(ctx context.Context, key string) (int, error) {
	members, err := s.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}

	missing, err := s.missingRecords(ctx, members)
	if err != nil {
		return 0, err
	}
	if len(missing) == 0 {
		return 0, nil
	}

	args := make([]interface{}, len(missing))
	for i, m := range missing {
		args[i] = m
	}
	if err := s.client.ZRem(ctx, key, args...).Err(); err != nil {
		return 0, fmt.Errorf("failed to clean %s: %w", key, err)
	}
	return len(missing), nil
}

func (s *Store) sweepDedupIndex(ctx context.Context, key string) (int, error) {
	entries, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}

	fields := make([]string, 0, len(entries))
	ids := make([]string, 0, len(entries))
	for field, id := range entries {
		fields = append(fields, field)
		ids = append(ids, id)
	}

	missing, err := s.missingRecords(ctx, ids)
	if err != nil {
		return 0, err
	}
	if len(missing) == 0 {
		return 0, nil
	}

	gone := make(map[string]struct{}, len(missing))
	for _, id := range missing {
		gone[id] = struct{}{}
	}
	stale := make(map[string]string, len(missing))
	for i, id := range ids {
		if _, ok := gone[id]; ok {
			stale[fields[i]] = id
		}
	}

	return s.dropDedupEntries(ctx, key, stale)
}

// dropDedupEntries removes each field of stale that still maps to the id
// read by the sweep.
func (s *Store) dropDedupEntries(ctx context.Context, key string, stale map[string]string) (int, error) {
	removed := 0
	for field, id := range stale {
		n, err := dropDedupScript.Run(ctx, s.client, []string{key}, field, id).Int()
		if err != nil {
			return removed, fmt.Errorf("failed to clean %s: %w", key, err)
		}
		removed += n
	}
	return removed, nil
}

// missingRecords returns the ids (as stored) that have no saved record
func (s *Store) missingRecords(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	checks := make([]*redis.IntCmd, len(ids))
	for i, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			// Unparseable members point nowhere
			checks[i] = nil
			continue
		}
		checks[i] = pipe.Exists(ctx, SavedKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to check saved records: %w", err)
	}

	missing := make([]string, 0)
	for i, cmd := range checks {
		if cmd == nil || cmd.Val() == 0 {
			missing = append(missing, ids[i])
		}
	}
	return missing, nil
}
