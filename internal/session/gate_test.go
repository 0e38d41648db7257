package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

type memCache struct {
	email  string
	sets   int
	setErr error
}

func (c *memCache) Get() string { return c.email }

func (c *memCache) Set(email string) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.email = email
	return nil
}

func TestGateSubmitResolvesPendingAction(t *testing.T) {
	cache := &memCache{email: "old@example.com"}
	g := NewActionGate(cache)
	p := domain.Posting{Title: "Backend Engineer", CompanyName: "Initech"}

	prefill, err := g.Request(GateRequest{Action: ActionSave, Posting: &p})
	require.NoError(t, err)
	assert.Equal(t, "old@example.com", prefill)
	assert.Equal(t, GateAwaitingIdentity, g.State())

	res, err := g.Submit("  new@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", res.Email())
	assert.Equal(t, ActionSave, res.Request().Action)
	assert.Equal(t, "Backend Engineer", res.Request().Posting.Title)

	assert.Equal(t, GateIdle, g.State())
	assert.Equal(t, "new@example.com", cache.email)
	_, pending := g.Pending()
	assert.False(t, pending)

	assert.Equal(t, []Transition{
		{GateIdle, GateAwaitingIdentity},
		{GateAwaitingIdentity, GateResolved},
		{GateResolved, GateIdle},
	}, g.History())
}

func TestGateInvalidEmailKeepsWaiting(t *testing.T) {
	cache := &memCache{}
	g := NewActionGate(cache)
	_, err := g.Request(GateRequest{Action: ActionViewSaved})
	require.NoError(t, err)

	for _, email := range []string{"", "   ", "not-an-email", "a@"} {
		_, err := g.Submit(email)
		require.Error(t, err, "email %q", email)
		assert.True(t, errors.Is(err, domain.ErrValidation))
		assert.Equal(t, GateAwaitingIdentity, g.State())
	}
	assert.Zero(t, cache.sets)

	req, ok := g.Pending()
	require.True(t, ok)
	assert.Equal(t, ActionViewSaved, req.Action)
}

func TestGateCancelDiscardsRequest(t *testing.T) {
	g := NewActionGate(&memCache{})
	p := domain.Posting{Title: "x", CompanyName: "y"}
	_, err := g.Request(GateRequest{Action: ActionSave, Posting: &p})
	require.NoError(t, err)

	require.NoError(t, g.Cancel())
	assert.Equal(t, GateIdle, g.State())
	_, pending := g.Pending()
	assert.False(t, pending)

	_, err = g.Submit("a@example.com")
	assert.ErrorIs(t, err, ErrNoPendingAction)

	assert.Equal(t, []Transition{
		{GateIdle, GateAwaitingIdentity},
		{GateAwaitingIdentity, GateCancelled},
		{GateCancelled, GateIdle},
	}, g.History())
}

func TestGateRejectsOverlappingRequests(t *testing.T) {
	g := NewActionGate(nil)
	prefill, err := g.Request(GateRequest{Action: ActionViewSaved})
	require.NoError(t, err)
	assert.Empty(t, prefill)

	_, err = g.Request(GateRequest{Action: ActionViewSaved})
	assert.ErrorIs(t, err, ErrGateBusy)
}

func TestGateRejectsMalformedRequests(t *testing.T) {
	g := NewActionGate(nil)

	_, err := g.Request(GateRequest{Action: ActionSave})
	assert.Error(t, err)
	_, err = g.Request(GateRequest{Action: "delete-everything"})
	assert.Error(t, err)

	assert.Equal(t, GateIdle, g.State())
	assert.Empty(t, g.History())
}

func TestGateCancelWhenIdle(t *testing.T) {
	g := NewActionGate(nil)
	assert.ErrorIs(t, g.Cancel(), ErrNoPendingAction)
}

func TestGateCacheFailureDoesNotBlock(t *testing.T) {
	cache := &memCache{setErr: errors.New("read-only filesystem")}
	g := NewActionGate(cache)
	_, err := g.Request(GateRequest{Action: ActionViewSaved})
	require.NoError(t, err)

	res, err := g.Submit("a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", res.Email())
	assert.EqualError(t, g.LastCacheError(), "read-only filesystem")
}

func TestGateTransitionTable(t *testing.T) {
	states := []GateState{GateIdle, GateAwaitingIdentity, GateResolved, GateCancelled}
	allowed := map[Transition]bool{
		{GateIdle, GateAwaitingIdentity}:      true,
		{GateAwaitingIdentity, GateResolved}:  true,
		{GateAwaitingIdentity, GateCancelled}: true,
		{GateResolved, GateIdle}:              true,
		{GateCancelled, GateIdle}:             true,
	}

	for _, from := range states {
		for _, to := range states {
			want := allowed[Transition{from, to}]
			assert.Equal(t, want, IsGateTransitionAllowed(from, to), "%s -> %s", from, to)
		}
	}
}

// Every recorded history only uses allowed transitions and starts and ends idle.
func TestGateHistoryIsConsistent(t *testing.T) {
	g := NewActionGate(&memCache{})
	p := domain.Posting{Title: "x", CompanyName: "y"}

	_, _ = g.Request(GateRequest{Action: ActionSave, Posting: &p})
	_, _ = g.Submit("bad")
	_ = g.Cancel()
	_, _ = g.Request(GateRequest{Action: ActionViewSaved})
	_, _ = g.Submit("ok@example.com")
	_, _ = g.Request(GateRequest{Action: ActionSave, Posting: &p})
	_, _ = g.Submit("ok@example.com")

	h := g.History()
	require.NotEmpty(t, h)
	assert.Equal(t, GateIdle, h[0].From)
	assert.Equal(t, GateIdle, h[len(h)-1].To)
	for i, tr := range h {
		assert.True(t, IsGateTransitionAllowed(tr.From, tr.To), "step %d: %s -> %s", i, tr.From, tr.To)
		if i > 0 {
			assert.Equal(t, h[i-1].To, tr.From, "step %d", i)
		}
	}
}
