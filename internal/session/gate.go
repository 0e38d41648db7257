// Package session holds the client-side state of the job search screen:
// result paging, the identity gate in front of saved-job actions,
// notifications, modals and search sequencing.
//
// Transitions of the identity gate:
//
//	Idle ──► AwaitingIdentity ──► Resolved ──► Idle
//	               │
//	               └──► Cancelled ──► Idle
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

var (
	// ErrGateBusy is returned when a gated action is requested while
	// another one is still waiting for an identity.
	ErrGateBusy = errors.New("another action is waiting for an identity")
	// ErrNoPendingAction is returned by Submit and Cancel outside AwaitingIdentity.
	ErrNoPendingAction = errors.New("no action is waiting for an identity")
)

// GateState is a state of the identity gate.
type GateState string

const (
	GateIdle             GateState = "idle"
	GateAwaitingIdentity GateState = "awaiting_identity"
	GateResolved         GateState = "resolved"
	GateCancelled        GateState = "cancelled"
)

// gateTransitions lists every allowed (from -> to) pair.
var gateTransitions = map[GateState][]GateState{
	GateIdle:             {GateAwaitingIdentity},
	GateAwaitingIdentity: {GateResolved, GateCancelled},
	GateResolved:         {GateIdle},
	GateCancelled:        {GateIdle},
}

// IsGateTransitionAllowed reports whether moving from -> to is permitted.
func IsGateTransitionAllowed(from, to GateState) bool {
	for _, s := range gateTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Action names an operation that needs an identity.
type Action string

const (
	ActionSave      Action = "save"
	ActionViewSaved Action = "view-saved"
)

// GateRequest is the action held while the gate collects an identity.
type GateRequest struct {
	Action Action
	// Posting is set for ActionSave.
	Posting *domain.Posting
}

// Transition is one recorded move of the gate.
type Transition struct {
	From GateState
	To   GateState
}

// IdentityCache remembers the last identity between gated actions.
// Get returns "" when nothing is cached.
type IdentityCache interface {
	Get() string
	Set(email string) error
}

// Resolution is handed out by Submit. It is the only way to obtain a
// pending request together with a validated identity, so every gated
// action runs through the gate.
type Resolution struct {
	email   string
	request GateRequest
}

// Email is the resolved identity.
func (r Resolution) Email() string { return r.email }

// Request is the action that was waiting for the identity.
func (r Resolution) Request() GateRequest { return r.request }

// ActionGate is the identity state machine in front of save and view-saved.
// It is not safe for concurrent use; Screen serializes access.
type ActionGate struct {
	state    GateState
	pending  *GateRequest
	cache    IdentityCache
	history  []Transition
	cacheErr error
}

// NewActionGate returns an idle gate backed by cache.
func NewActionGate(cache IdentityCache) *ActionGate {
	return &ActionGate{state: GateIdle, cache: cache}
}

// State returns the current state.
func (g *ActionGate) State() GateState { return g.state }

// Pending returns the request waiting for an identity, if any.
func (g *ActionGate) Pending() (GateRequest, bool) {
	if g.pending == nil {
		return GateRequest{}, false
	}
	return *g.pending, true
}

// History returns every transition taken so far.
func (g *ActionGate) History() []Transition {
	return append([]Transition(nil), g.history...)
}

// LastCacheError returns the error of the latest identity cache write.
func (g *ActionGate) LastCacheError() error { return g.cacheErr }

// Request captures req and moves to AwaitingIdentity. It returns the cached
// identity to pre-fill the prompt with.
func (g *ActionGate) Request(req GateRequest) (string, error) {
	if g.state != GateIdle {
		return "", ErrGateBusy
	}
	switch req.Action {
	case ActionSave:
		if req.Posting == nil {
			return "", fmt.Errorf("save request without a posting")
		}
	case ActionViewSaved:
	default:
		return "", fmt.Errorf("unknown gated action %q", req.Action)
	}

	g.pending = &req
	g.move(GateAwaitingIdentity)

	if g.cache == nil {
		return "", nil
	}
	return g.cache.Get(), nil
}

// Submit validates email, caches it and resolves the pending request.
// An invalid email keeps the gate in AwaitingIdentity.
func (g *ActionGate) Submit(email string) (Resolution, error) {
	if g.state != GateAwaitingIdentity {
		return Resolution{}, ErrNoPendingAction
	}
	email = strings.TrimSpace(email)
	if err := domain.ValidateEmail(email); err != nil {
		return Resolution{}, err
	}

	// a failed write only means the next prompt starts empty
	g.cacheErr = nil
	if g.cache != nil {
		g.cacheErr = g.cache.Set(email)
	}

	res := Resolution{email: email, request: *g.pending}
	g.pending = nil
	g.move(GateResolved)
	g.move(GateIdle)
	return res, nil
}

// Cancel discards the pending request without running it.
func (g *ActionGate) Cancel() error {
	if g.state != GateAwaitingIdentity {
		return ErrNoPendingAction
	}
	g.pending = nil
	g.move(GateCancelled)
	g.move(GateIdle)
	return nil
}

func (g *ActionGate) move(to GateState) {
	if !IsGateTransitionAllowed(g.state, to) {
		panic(fmt.Sprintf("session: illegal gate transition %s -> %s", g.state, to))
	}
	g.history = append(g.history, Transition{From: g.state, To: to})
	g.state = to
}
