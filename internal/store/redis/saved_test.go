package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func posting(title, company string) domain.Posting {
	return domain.Posting{
		Title:       title,
		CompanyName: company,
		Location:    "Remote",
		ApplyLink:   "https://jobs.example.com/" + title,
		Platform:    "LinkedIn",
	}
}

func TestSaveTwiceKeepsOneRecord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	x := posting("backend", "Acme")

	outcome, first, err := s.Save(ctx, "a@x.com", x)
	require.NoError(t, err)
	assert.Equal(t, domain.SaveCreated, outcome)
	assert.Equal(t, int64(1), first.ID)

	outcome, second, err := s.Save(ctx, "a@x.com", x)
	require.NoError(t, err)
	assert.Equal(t, domain.SaveAlreadyExists, outcome)
	assert.Equal(t, first.ID, second.ID)

	list, err := s.List(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSaveDedupIgnoresCaseAndSpaces(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.Save(ctx, "A@X.com ", posting("backend", "Acme"))
	require.NoError(t, err)

	p := posting("backend", "Acme")
	p.CompanyName = " ACME"
	outcome, _, err := s.Save(ctx, "a@x.com", p)
	require.NoError(t, err)
	assert.Equal(t, domain.SaveAlreadyExists, outcome)
}

func TestSameFieldsDifferentIdentityAreDistinct(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	x := posting("backend", "Acme")

	_, _, err := s.Save(ctx, "a@x.com", x)
	require.NoError(t, err)
	outcome, _, err := s.Save(ctx, "b@x.com", x)
	require.NoError(t, err)
	assert.Equal(t, domain.SaveCreated, outcome)

	other := x
	other.ApplyLink = "https://elsewhere.example.com"
	outcome, _, err = s.Save(ctx, "a@x.com", other)
	require.NoError(t, err)
	assert.Equal(t, domain.SaveCreated, outcome, "different apply link is a different posting")
}

func TestListOrderedByIDDescending(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		_, _, err := s.Save(ctx, "a@x.com", posting(title, "Acme"))
		require.NoError(t, err)
	}

	list, err := s.List(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "three", list[0].Title)
	assert.Equal(t, "one", list[2].Title)
	assert.Greater(t, list[0].ID, list[1].ID)
	assert.Greater(t, list[1].ID, list[2].ID)
}

func TestListUnknownUserIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	list, err := s.List(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestRemoveOnlyThatRecord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, a, _ := s.Save(ctx, "a@x.com", posting("one", "Acme"))
	_, b, _ := s.Save(ctx, "a@x.com", posting("two", "Acme"))
	_, c, _ := s.Save(ctx, "b@x.com", posting("one", "Acme"))

	require.NoError(t, s.Remove(ctx, a.ID))

	list, err := s.List(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	other, err := s.List(ctx, "b@x.com")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, c.ID, other[0].ID)

	// removed posting can be saved again
	outcome, again, err := s.Save(ctx, "a@x.com", posting("one", "Acme"))
	require.NoError(t, err)
	assert.Equal(t, domain.SaveCreated, outcome)
	assert.Greater(t, again.ID, c.ID)
}

func TestRemoveMissing(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.Remove(context.Background(), 42)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestConcurrentSavesCreateOneRecord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	x := posting("backend", "Acme")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, _, err := s.Save(ctx, "a@x.com", x)
			if err != nil {
				t.Error(err)
				return
			}
			if outcome == domain.SaveCreated {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	list, err := s.List(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSweepDangling(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, kept, _ := s.Save(ctx, "a@x.com", posting("one", "Acme"))
	_, lost, _ := s.Save(ctx, "a@x.com", posting("two", "Acme"))

	// Simulate a record that vanished without its index entries
	mr.Del(SavedKey(lost.ID))

	removed, err := s.SweepDangling(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed, "one zset member and one dedup field")

	members, err := mr.ZMembers(UserKey("a@x.com"))
	require.NoError(t, err)
	assert.Len(t, members, 1)

	list, err := s.List(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept.ID, list[0].ID)

	// the vanished posting can be saved again
	outcome, _, err := s.Save(ctx, "a@x.com", posting("two", "Acme"))
	require.NoError(t, err)
	assert.Equal(t, domain.SaveCreated, outcome)
}

func TestSearchCache(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetCachedSearch(ctx, "fp")
	require.NoError(t, err)
	assert.False(t, ok)

	postings := []domain.Posting{posting("one", "Acme"), posting("two", "Google")}
	require.NoError(t, s.CacheSearch(ctx, "fp", postings, time.Minute))

	got, ok, err := s.GetCachedSearch(ctx, "fp")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, postings, got)

	mr.FastForward(2 * time.Minute)
	_, ok, err = s.GetCachedSearch(ctx, "fp")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire")

	require.NoError(t, s.CacheSearch(ctx, "a", postings, time.Minute))
	require.NoError(t, s.CacheSearch(ctx, "b", postings, time.Minute))
	n, err := s.FlushCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSweepKeepsReclaimedDedupEntry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	x := posting("backend", "Acme")
	key := DedupKey("a@x.com")

	_, first, err := s.Save(ctx, "a@x.com", x)
	require.NoError(t, err)

	// The sweep reads the hash, then the posting is removed and saved again
	// before the sweep acts on what it read.
	snapshot := map[string]string{x.Key().String(): mr.HGet(key, x.Key().String())}
	require.NoError(t, s.Remove(ctx, first.ID))
	outcome, second, err := s.Save(ctx, "a@x.com", x)
	require.NoError(t, err)
	require.Equal(t, domain.SaveCreated, outcome)

	removed, err := s.dropDedupEntries(ctx, key, snapshot)
	require.NoError(t, err)
	assert.Zero(t, removed, "claim made after the read must survive")

	outcome, again, err := s.Save(ctx, "a@x.com", x)
	require.NoError(t, err)
	assert.Equal(t, domain.SaveAlreadyExists, outcome)
	assert.Equal(t, second.ID, again.ID)

	list, err := s.List(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSweepDuringSavesKeepsOneRecord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	x := posting("backend", "Acme")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			outcome, _, err := s.Save(ctx, "a@x.com", x)
			if err != nil {
				t.Error(err)
				return
			}
			if outcome == domain.SaveCreated {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := s.SweepDangling(ctx); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)

	// Nothing saved is dangling, so a final sweep finds nothing
	removed, err := s.SweepDangling(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	outcome, _, err := s.Save(ctx, "a@x.com", x)
	require.NoError(t, err)
	assert.Equal(t, domain.SaveAlreadyExists, outcome)

	list, err := s.List(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
