package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

type fakeAPI struct {
	mu sync.Mutex

	manual      []domain.Posting
	manualErr   error
	manualGate  chan struct{} // when set, ManualSearch blocks until closed
	manualEnter chan struct{}
	resume      []domain.Posting
	resumeErr   error

	saveOutcome domain.SaveOutcome
	saveErr     error
	saved       []domain.SavedPosting
	listErr     error
	removeErr   error

	manualCalls int
	resumeCalls int
	saveCalls   int
	savedEmails []string
	listCalls   int
	removed     []int64
}

func (f *fakeAPI) ManualSearch(ctx context.Context, q domain.ManualQuery) ([]domain.Posting, error) {
	f.mu.Lock()
	f.manualCalls++
	gate, enter := f.manualGate, f.manualEnter
	f.mu.Unlock()
	if enter != nil {
		enter <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return f.manual, f.manualErr
}

func (f *fakeAPI) ResumeSearch(ctx context.Context, q domain.ResumeQuery) ([]domain.Posting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumeCalls++
	return f.resume, f.resumeErr
}

func (f *fakeAPI) Save(ctx context.Context, email string, p domain.Posting) (domain.SaveOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	f.savedEmails = append(f.savedEmails, email)
	return f.saveOutcome, f.saveErr
}

func (f *fakeAPI) ListSaved(ctx context.Context, email string) ([]domain.SavedPosting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]domain.SavedPosting(nil), f.saved...), f.listErr
}

func (f *fakeAPI) RemoveSaved(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return f.removeErr
}

func newTestScreen(api API, cache IdentityCache) (*Screen, *fakeClock) {
	clock := &fakeClock{}
	return NewScreen(api, cache, NewNotificationCenter(WithAfterFunc(clock.AfterFunc))), clock
}

func manualQuery(role string) domain.SearchQuery {
	return domain.NewManualQuery(domain.ManualQuery{
		Role:      role,
		Platforms: []string{"LinkedIn", "Indeed"},
	})
}

func requireNotification(t *testing.T, s *Screen, msg string, kind Kind) {
	t.Helper()
	n, ok := s.Notification()
	require.True(t, ok, "expected notification %q", msg)
	assert.Equal(t, msg, n.Message)
	assert.Equal(t, kind, n.Kind)
}

func TestScreenSearchAndShowMore(t *testing.T) {
	api := &fakeAPI{manual: postings(25)}
	s, _ := newTestScreen(api, nil)

	outcome, err := s.Search(context.Background(), manualQuery("Software Engineer"))
	require.NoError(t, err)
	assert.Equal(t, SearchApplied, outcome)
	assert.Len(t, s.Visible(), 10)
	assert.True(t, s.HasMore())

	assert.Equal(t, ResultWindow{Total: 25, Revealed: 20}, s.ShowMore())
	assert.Equal(t, ResultWindow{Total: 25, Revealed: 25}, s.ShowMore())
	assert.False(t, s.HasMore())
	assert.Len(t, s.Visible(), 25)
}

func TestScreenSearchValidationSkipsNetwork(t *testing.T) {
	api := &fakeAPI{}
	s, _ := newTestScreen(api, nil)

	_, err := s.Search(context.Background(), manualQuery(""))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.Search(context.Background(), domain.NewResumeQuery(domain.ResumeQuery{}))
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Zero(t, api.manualCalls)
	assert.Zero(t, api.resumeCalls)
	_, shown := s.Notification()
	assert.False(t, shown)
}

func TestScreenSearchWithoutPlatformsIsEmpty(t *testing.T) {
	api := &fakeAPI{manual: postings(5)}
	s, _ := newTestScreen(api, nil)

	q := domain.NewManualQuery(domain.ManualQuery{Role: "Data Scientist", Platforms: []string{}})
	outcome, err := s.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, SearchEmpty, outcome)
	assert.Zero(t, api.manualCalls)
	requireNotification(t, s, MsgNoJobs, KindInfo)
}

func TestScreenEmptySearchReplacesWindow(t *testing.T) {
	api := &fakeAPI{manual: postings(12)}
	s, _ := newTestScreen(api, nil)
	_, err := s.Search(context.Background(), manualQuery("Software Engineer"))
	require.NoError(t, err)

	api.manual = nil
	outcome, err := s.Search(context.Background(), manualQuery("Software Engineer"))
	require.NoError(t, err)
	assert.Equal(t, SearchEmpty, outcome)
	assert.Empty(t, s.Visible())
	assert.Equal(t, ResultWindow{}, s.Window())
	requireNotification(t, s, MsgNoJobs, KindInfo)
}

func TestScreenFailedSearchKeepsWindow(t *testing.T) {
	api := &fakeAPI{manual: postings(15)}
	s, _ := newTestScreen(api, nil)
	_, err := s.Search(context.Background(), manualQuery("Software Engineer"))
	require.NoError(t, err)
	s.ShowMore()

	api.manualErr = errors.New("502 Bad Gateway")
	outcome, err := s.Search(context.Background(), manualQuery("Software Engineer"))
	require.Error(t, err)
	assert.Equal(t, SearchFailed, outcome)
	assert.Equal(t, ResultWindow{Total: 15, Revealed: 15}, s.Window())
	requireNotification(t, s, MsgSearchFailed, KindError)
	assert.False(t, s.Busy(OpManualSearch))
}

func TestScreenDiscardsStaleSearch(t *testing.T) {
	api := &fakeAPI{
		manual:      postings(3),
		manualGate:  make(chan struct{}),
		manualEnter: make(chan struct{}),
		resume:      postings(7),
	}
	s, _ := newTestScreen(api, nil)

	type result struct {
		outcome SearchOutcome
		err     error
	}
	done := make(chan result)
	go func() {
		o, err := s.Search(context.Background(), manualQuery("Software Engineer"))
		done <- result{o, err}
	}()
	<-api.manualEnter
	assert.True(t, s.Busy(OpManualSearch))

	// a newer resume search completes while the manual one is in flight
	outcome, err := s.Search(context.Background(), domain.NewResumeQuery(domain.ResumeQuery{Document: []byte("go engineer")}))
	require.NoError(t, err)
	assert.Equal(t, SearchApplied, outcome)

	close(api.manualGate)
	late := <-done
	require.NoError(t, late.err)
	assert.Equal(t, SearchStale, late.outcome)

	assert.Equal(t, 7, s.Window().Total)
	assert.False(t, s.Busy(OpManualSearch))
}

func TestScreenRejectsDuplicateInFlightSearch(t *testing.T) {
	api := &fakeAPI{
		manual:      postings(3),
		manualGate:  make(chan struct{}),
		manualEnter: make(chan struct{}),
	}
	s, _ := newTestScreen(api, nil)

	done := make(chan error)
	go func() {
		_, err := s.Search(context.Background(), manualQuery("Software Engineer"))
		done <- err
	}()
	<-api.manualEnter

	_, err := s.Search(context.Background(), manualQuery("Data Scientist"))
	assert.ErrorIs(t, err, ErrBusy)

	close(api.manualGate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.manualCalls)
}

func TestScreenSaveThroughGate(t *testing.T) {
	cache := &memCache{email: "dev@example.com"}
	api := &fakeAPI{manual: postings(2)}
	s, _ := newTestScreen(api, cache)
	p := postings(1)[0]

	prefill, err := s.RequestSave(p)
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", prefill)

	top, ok := s.ActiveModal()
	require.True(t, ok)
	assert.Equal(t, ModalIdentity, top.Kind)
	assert.Equal(t, "dev@example.com", top.Prefill)

	require.NoError(t, s.SubmitIdentity(context.Background(), prefill))
	assert.Equal(t, 1, api.saveCalls)
	assert.Equal(t, []string{"dev@example.com"}, api.savedEmails)
	requireNotification(t, s, MsgSaved, KindSuccess)

	_, open := s.ActiveModal()
	assert.False(t, open)
	assert.Equal(t, GateIdle, s.GateState())
}

func TestScreenSaveOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		outcome  domain.SaveOutcome
		err      error
		wantMsg  string
		wantKind Kind
	}{
		{"created", domain.SaveCreated, nil, MsgSaved, KindSuccess},
		{"duplicate", domain.SaveAlreadyExists, nil, MsgAlreadySaved, KindInfo},
		{"failure", 0, errors.New("boom"), MsgSaveFailed, KindError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{saveOutcome: tt.outcome, saveErr: tt.err}
			s, _ := newTestScreen(api, &memCache{})

			_, err := s.RequestSave(postings(1)[0])
			require.NoError(t, err)
			err = s.SubmitIdentity(context.Background(), "a@example.com")
			if tt.err != nil {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			requireNotification(t, s, tt.wantMsg, tt.wantKind)
		})
	}
}

// Cancelling the identity prompt never runs the save.
func TestScreenCancelIdentityNeverSaves(t *testing.T) {
	api := &fakeAPI{}
	s, _ := newTestScreen(api, &memCache{})

	_, err := s.RequestSave(postings(1)[0])
	require.NoError(t, err)
	require.NoError(t, s.CancelIdentity())

	assert.Zero(t, api.saveCalls)
	assert.Equal(t, GateIdle, s.GateState())
	_, open := s.ActiveModal()
	assert.False(t, open)

	assert.Equal(t, []Transition{
		{GateIdle, GateAwaitingIdentity},
		{GateAwaitingIdentity, GateCancelled},
		{GateCancelled, GateIdle},
	}, s.GateHistory())
}

func TestScreenCloseIdentityModalCancels(t *testing.T) {
	api := &fakeAPI{}
	s, _ := newTestScreen(api, nil)

	_, err := s.RequestViewSaved()
	require.NoError(t, err)

	m, ok := s.CloseModal()
	require.True(t, ok)
	assert.Equal(t, ModalIdentity, m.Kind)
	assert.Equal(t, GateIdle, s.GateState())
	assert.Zero(t, api.listCalls)
}

func TestScreenInvalidIdentityKeepsPrompt(t *testing.T) {
	api := &fakeAPI{}
	s, _ := newTestScreen(api, nil)

	_, err := s.RequestViewSaved()
	require.NoError(t, err)
	err = s.SubmitIdentity(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrValidation)

	top, ok := s.ActiveModal()
	require.True(t, ok)
	assert.Equal(t, ModalIdentity, top.Kind)
	assert.Equal(t, GateAwaitingIdentity, s.GateState())
	assert.Zero(t, api.listCalls)
}

func TestScreenViewSavedSortsNewestFirst(t *testing.T) {
	api := &fakeAPI{saved: []domain.SavedPosting{
		{ID: 2, UserEmail: "a@example.com"},
		{ID: 9, UserEmail: "a@example.com"},
		{ID: 5, UserEmail: "a@example.com"},
	}}
	cache := &memCache{}
	s, _ := newTestScreen(api, cache)

	_, err := s.RequestViewSaved()
	require.NoError(t, err)
	require.NoError(t, s.SubmitIdentity(context.Background(), "a@example.com"))

	saved, owner := s.Saved()
	assert.Equal(t, "a@example.com", owner)
	require.Len(t, saved, 3)
	assert.Equal(t, []int64{9, 5, 2}, []int64{saved[0].ID, saved[1].ID, saved[2].ID})
	assert.Equal(t, "a@example.com", cache.email)
}

func TestScreenViewSavedFailureKeepsList(t *testing.T) {
	api := &fakeAPI{saved: []domain.SavedPosting{{ID: 1}}}
	s, _ := newTestScreen(api, nil)
	_, _ = s.RequestViewSaved()
	require.NoError(t, s.SubmitIdentity(context.Background(), "a@example.com"))

	api.listErr = errors.New("connection refused")
	_, _ = s.RequestViewSaved()
	require.Error(t, s.SubmitIdentity(context.Background(), "a@example.com"))

	saved, _ := s.Saved()
	assert.Len(t, saved, 1)
	requireNotification(t, s, MsgLoadSavedFail, KindError)
}

func TestScreenViewSavedEmpty(t *testing.T) {
	s, _ := newTestScreen(&fakeAPI{}, nil)
	_, _ = s.RequestViewSaved()
	require.NoError(t, s.SubmitIdentity(context.Background(), "a@example.com"))
	requireNotification(t, s, MsgNoSavedJobs, KindInfo)
}

func TestScreenRemoveFlow(t *testing.T) {
	api := &fakeAPI{saved: []domain.SavedPosting{{ID: 3}, {ID: 2}, {ID: 1}}}
	s, _ := newTestScreen(api, nil)
	_, _ = s.RequestViewSaved()
	require.NoError(t, s.SubmitIdentity(context.Background(), "a@example.com"))

	// cancel first: nothing is deleted
	s.RequestRemove(2)
	s.CancelRemove()
	assert.Empty(t, api.removed)

	s.RequestRemove(2)
	top, ok := s.ActiveModal()
	require.True(t, ok)
	assert.Equal(t, ModalConfirmRemove, top.Kind)
	assert.Equal(t, int64(2), top.SavedID)

	require.NoError(t, s.ConfirmRemove(context.Background()))
	assert.Equal(t, []int64{2}, api.removed)
	saved, _ := s.Saved()
	assert.Equal(t, []int64{3, 1}, []int64{saved[0].ID, saved[1].ID})
	requireNotification(t, s, MsgRemoved, KindSuccess)
}

func TestScreenRemoveFailureKeepsList(t *testing.T) {
	api := &fakeAPI{saved: []domain.SavedPosting{{ID: 1}}, removeErr: domain.ErrNotFound}
	s, _ := newTestScreen(api, nil)
	_, _ = s.RequestViewSaved()
	require.NoError(t, s.SubmitIdentity(context.Background(), "a@example.com"))

	s.RequestRemove(1)
	err := s.ConfirmRemove(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	saved, _ := s.Saved()
	assert.Len(t, saved, 1)
	requireNotification(t, s, MsgRemoveFailed, KindError)
}

func TestScreenConfirmRemoveNeedsConfirmation(t *testing.T) {
	api := &fakeAPI{}
	s, _ := newTestScreen(api, nil)

	assert.Error(t, s.ConfirmRemove(context.Background()))

	// only the active modal counts
	s.RequestRemove(4)
	s.ViewDetails(postings(1)[0])
	assert.Error(t, s.ConfirmRemove(context.Background()))
	assert.Empty(t, api.removed)
}

func TestScreenModalStackOrder(t *testing.T) {
	s, _ := newTestScreen(&fakeAPI{}, nil)
	p := postings(1)[0]

	s.ViewDetails(p)
	s.RequestEndSession()

	m, ok := s.CloseModal()
	require.True(t, ok)
	assert.Equal(t, ModalEndSession, m.Kind)

	m, ok = s.CloseModal()
	require.True(t, ok)
	assert.Equal(t, ModalDetails, m.Kind)
	assert.Equal(t, p.Title, m.Posting.Title)

	_, ok = s.CloseModal()
	assert.False(t, ok)
}

func TestScreenNotificationExpires(t *testing.T) {
	s, clock := newTestScreen(&fakeAPI{}, nil)
	_, _ = s.Search(context.Background(), manualQuery("Software Engineer"))
	requireNotification(t, s, MsgNoJobs, KindInfo)

	clock.last().f()
	_, ok := s.Notification()
	assert.False(t, ok)
}

func TestSearchOutcomeString(t *testing.T) {
	assert.Equal(t, "applied", SearchApplied.String())
	assert.Equal(t, "stale", SearchStale.String())
	assert.Equal(t, "unknown", SearchOutcome(42).String())
}
