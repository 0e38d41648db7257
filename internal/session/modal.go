package session

import "github.com/MrSnakeDoc/jobscout/internal/domain"

// ModalKind names what a modal asks of the user.
type ModalKind string

const (
	ModalIdentity      ModalKind = "identity"
	ModalConfirmRemove ModalKind = "confirm-remove"
	ModalDetails       ModalKind = "details"
	ModalEndSession    ModalKind = "end-session"
)

// Modal is one pending modal request.
type Modal struct {
	Kind ModalKind

	// Prefill is the cached identity offered by ModalIdentity.
	Prefill string
	// Posting is shown by ModalDetails.
	Posting *domain.Posting
	// SavedID is the record ModalConfirmRemove would delete.
	SavedID int64
}

// ModalStack orders open modals. Only the top one is active.
type ModalStack struct {
	items []Modal
}

func (s *ModalStack) Push(m Modal) { s.items = append(s.items, m) }

func (s *ModalStack) Pop() (Modal, bool) {
	if len(s.items) == 0 {
		return Modal{}, false
	}
	m := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return m, true
}

func (s *ModalStack) Top() (Modal, bool) {
	if len(s.items) == 0 {
		return Modal{}, false
	}
	return s.items[len(s.items)-1], true
}

func (s *ModalStack) Len() int { return len(s.items) }

// popIf pops the top modal only when it has the given kind.
func (s *ModalStack) popIf(kind ModalKind) (Modal, bool) {
	if top, ok := s.Top(); !ok || top.Kind != kind {
		return Modal{}, false
	}
	return s.Pop()
}
