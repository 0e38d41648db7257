package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

// Messages shown after screen operations.
const (
	MsgNoJobs        = "No jobs found for this search."
	MsgSearchFailed  = "Search failed. Please try again."
	MsgSaved         = "Job Saved Successfully!"
	MsgAlreadySaved  = "Job Already Saved"
	MsgSaveFailed    = "Could not save job."
	MsgLoadSavedFail = "Failed to fetch saved jobs."
	MsgRemoved       = "Job removed successfully."
	MsgRemoveFailed  = "Failed to remove job."
	MsgNoSavedJobs   = "You have no saved jobs yet."
)

// ErrBusy is returned when the same operation is already in flight.
var ErrBusy = errors.New("operation already in progress")

// API is the backend the screen talks to.
type API interface {
	ManualSearch(ctx context.Context, q domain.ManualQuery) ([]domain.Posting, error)
	ResumeSearch(ctx context.Context, q domain.ResumeQuery) ([]domain.Posting, error)
	Save(ctx context.Context, email string, p domain.Posting) (domain.SaveOutcome, error)
	ListSaved(ctx context.Context, email string) ([]domain.SavedPosting, error)
	RemoveSaved(ctx context.Context, id int64) error
}

// Op is an operation guarded by a busy flag.
type Op string

const (
	OpManualSearch Op = "manual-search"
	OpResumeSearch Op = "resume-search"
	OpSave         Op = "save"
	OpViewSaved    Op = "view-saved"
	OpRemove       Op = "remove"
)

// SearchOutcome tells the caller what a Search did to the screen.
type SearchOutcome int

const (
	// SearchApplied replaced the result window with postings.
	SearchApplied SearchOutcome = iota
	// SearchEmpty replaced the result window with nothing.
	SearchEmpty
	// SearchFailed left the window untouched.
	SearchFailed
	// SearchStale was overtaken by a newer search and discarded.
	SearchStale
)

func (o SearchOutcome) String() string {
	switch o {
	case SearchApplied:
		return "applied"
	case SearchEmpty:
		return "empty"
	case SearchFailed:
		return "failed"
	case SearchStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Screen is the state of one job search screen.
// Methods are safe to call from several goroutines; network calls run
// without the lock held.
type Screen struct {
	mu     sync.Mutex
	api    API
	seq    Sequencer
	pager  ResultPager
	gate   *ActionGate
	modals ModalStack
	busy   map[Op]bool
	saved  []domain.SavedPosting
	owner  string // identity the saved list belongs to

	notify *NotificationCenter
}

// NewScreen builds a screen over api. A nil notification center gets a
// default one.
func NewScreen(api API, cache IdentityCache, notify *NotificationCenter) *Screen {
	if notify == nil {
		notify = NewNotificationCenter()
	}
	return &Screen{
		api:    api,
		gate:   NewActionGate(cache),
		busy:   make(map[Op]bool),
		notify: notify,
	}
}

// Search runs q and, when it is still the newest search, replaces the
// result window. Validation errors are returned before any network call.
func (s *Screen) Search(ctx context.Context, q domain.SearchQuery) (SearchOutcome, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return SearchFailed, err
	}

	op := OpManualSearch
	if q.Mode == domain.ModeResume {
		op = OpResumeSearch
	}
	if !s.acquire(op) {
		return SearchFailed, ErrBusy
	}
	token := s.seq.Next()

	var (
		postings []domain.Posting
		err      error
	)
	switch {
	case q.Mode == domain.ModeResume:
		postings, err = s.api.ResumeSearch(ctx, *q.Resume)
	case len(q.Manual.Platforms) == 0:
		// no platform selected: nothing to ask for
	default:
		postings, err = s.api.ManualSearch(ctx, *q.Manual)
	}

	s.mu.Lock()
	delete(s.busy, op)
	if !s.seq.IsLatest(token) {
		s.mu.Unlock()
		return SearchStale, nil
	}
	if err != nil {
		s.mu.Unlock()
		s.notify.Show(MsgSearchFailed, KindError)
		return SearchFailed, err
	}
	s.pager.Replace(postings)
	s.mu.Unlock()

	if len(postings) == 0 {
		s.notify.Show(MsgNoJobs, KindInfo)
		return SearchEmpty, nil
	}
	return SearchApplied, nil
}

// ShowMore reveals the next page of results.
func (s *Screen) ShowMore() ResultWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pager.Reveal()
	return s.pager.Window()
}

// Visible returns the revealed postings.
func (s *Screen) Visible() []domain.Posting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Posting(nil), s.pager.Visible()...)
}

// Window returns the current paging state.
func (s *Screen) Window() ResultWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pager.Window()
}

// HasMore reports whether ShowMore would reveal anything.
func (s *Screen) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pager.HasMore()
}

// RequestSave asks for an identity before saving p. It returns the
// identity to pre-fill the prompt with.
func (s *Screen) RequestSave(p domain.Posting) (string, error) {
	return s.requestGated(GateRequest{Action: ActionSave, Posting: &p})
}

// RequestViewSaved asks for an identity before listing saved jobs.
func (s *Screen) RequestViewSaved() (string, error) {
	return s.requestGated(GateRequest{Action: ActionViewSaved})
}

func (s *Screen) requestGated(req GateRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefill, err := s.gate.Request(req)
	if err != nil {
		return "", err
	}
	s.modals.Push(Modal{Kind: ModalIdentity, Prefill: prefill})
	return prefill, nil
}

// SubmitIdentity resolves the pending gated action with email and runs it.
// An invalid email keeps the identity prompt open.
func (s *Screen) SubmitIdentity(ctx context.Context, email string) error {
	s.mu.Lock()
	res, err := s.gate.Submit(email)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.modals.popIf(ModalIdentity)
	s.mu.Unlock()

	return s.execute(ctx, res)
}

// CancelIdentity closes the identity prompt; the pending action never runs.
func (s *Screen) CancelIdentity() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.gate.Cancel(); err != nil {
		return err
	}
	s.modals.popIf(ModalIdentity)
	return nil
}

func (s *Screen) execute(ctx context.Context, res Resolution) error {
	req := res.Request()
	switch req.Action {
	case ActionSave:
		return s.save(ctx, res.Email(), *req.Posting)
	case ActionViewSaved:
		return s.loadSaved(ctx, res.Email())
	}
	return nil
}

func (s *Screen) save(ctx context.Context, email string, p domain.Posting) error {
	if !s.acquire(OpSave) {
		return ErrBusy
	}
	defer s.release(OpSave)

	outcome, err := s.api.Save(ctx, email, p)
	switch {
	case err != nil:
		s.notify.Show(MsgSaveFailed, KindError)
		return err
	case outcome == domain.SaveAlreadyExists:
		s.notify.Show(MsgAlreadySaved, KindInfo)
	default:
		s.notify.Show(MsgSaved, KindSuccess)
	}
	return nil
}

func (s *Screen) loadSaved(ctx context.Context, email string) error {
	if !s.acquire(OpViewSaved) {
		return ErrBusy
	}
	defer s.release(OpViewSaved)

	saved, err := s.api.ListSaved(ctx, email)
	if err != nil {
		s.notify.Show(MsgLoadSavedFail, KindError)
		return err
	}
	sort.SliceStable(saved, func(i, j int) bool { return saved[i].ID > saved[j].ID })

	s.mu.Lock()
	s.saved = saved
	s.owner = email
	s.mu.Unlock()

	if len(saved) == 0 {
		s.notify.Show(MsgNoSavedJobs, KindInfo)
	}
	return nil
}

// Saved returns the last loaded saved list and the identity it belongs to.
func (s *Screen) Saved() ([]domain.SavedPosting, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SavedPosting(nil), s.saved...), s.owner
}

// RequestRemove opens the delete confirmation for a saved record.
func (s *Screen) RequestRemove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modals.Push(Modal{Kind: ModalConfirmRemove, SavedID: id})
}

// ConfirmRemove deletes the record named by the active confirmation.
// On success the record also leaves the local saved list.
func (s *Screen) ConfirmRemove(ctx context.Context) error {
	s.mu.Lock()
	m, ok := s.modals.popIf(ModalConfirmRemove)
	s.mu.Unlock()
	if !ok {
		return errors.New("no removal awaiting confirmation")
	}

	if !s.acquire(OpRemove) {
		return ErrBusy
	}
	defer s.release(OpRemove)

	if err := s.api.RemoveSaved(ctx, m.SavedID); err != nil {
		s.notify.Show(MsgRemoveFailed, KindError)
		return err
	}

	s.mu.Lock()
	kept := s.saved[:0:0]
	for _, sp := range s.saved {
		if sp.ID != m.SavedID {
			kept = append(kept, sp)
		}
	}
	s.saved = kept
	s.mu.Unlock()

	s.notify.Show(MsgRemoved, KindSuccess)
	return nil
}

// CancelRemove closes the delete confirmation without deleting.
func (s *Screen) CancelRemove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modals.popIf(ModalConfirmRemove)
}

// ViewDetails opens the details view of p.
func (s *Screen) ViewDetails(p domain.Posting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modals.Push(Modal{Kind: ModalDetails, Posting: &p})
}

// RequestEndSession asks the user to confirm leaving the screen.
func (s *Screen) RequestEndSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modals.Push(Modal{Kind: ModalEndSession})
}

// CloseModal dismisses the active modal. Closing the identity prompt
// cancels the pending action.
func (s *Screen) CloseModal() (Modal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	top, ok := s.modals.Top()
	if !ok {
		return Modal{}, false
	}
	if top.Kind == ModalIdentity {
		_ = s.gate.Cancel()
	}
	return s.modals.Pop()
}

// ActiveModal returns the modal on top of the stack.
func (s *Screen) ActiveModal() (Modal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modals.Top()
}

// GateState returns the identity gate state.
func (s *Screen) GateState() GateState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate.State()
}

// GateHistory returns the identity gate transitions so far.
func (s *Screen) GateHistory() []Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate.History()
}

// Notification returns the message currently on display.
func (s *Screen) Notification() (Notification, bool) {
	return s.notify.Current()
}

// DismissNotification clears the message on display.
func (s *Screen) DismissNotification() {
	s.notify.Dismiss()
}

// Busy reports whether op is in flight.
func (s *Screen) Busy(op Op) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[op]
}

func (s *Screen) acquire(op Op) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[op] {
		return false
	}
	s.busy[op] = true
	return true
}

func (s *Screen) release(op Op) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, op)
}
