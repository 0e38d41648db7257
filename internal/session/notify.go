package session

import (
	"sync"
	"time"
)

// DismissAfter is how long a notification stays up.
const DismissAfter = 3000 * time.Millisecond

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindError   Kind = "error"
)

// Notification is the message currently shown to the user.
type Notification struct {
	Message string
	Kind    Kind
	Shown   time.Time
}

// Timer is the part of *time.Timer the center needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// NotificationCenter holds at most one notification. Showing a new one
// replaces the current one and restarts the dismissal timer.
type NotificationCenter struct {
	mu        sync.Mutex
	current   *Notification
	timer     Timer
	gen       uint64
	afterFunc AfterFunc
	now       func() time.Time
	onChange  func(*Notification)
}

// NotifyOption customizes a NotificationCenter.
type NotifyOption func(*NotificationCenter)

// WithAfterFunc replaces the timer source (tests).
func WithAfterFunc(f AfterFunc) NotifyOption {
	return func(c *NotificationCenter) { c.afterFunc = f }
}

// WithClock replaces the wall clock used for Notification.Shown.
func WithClock(now func() time.Time) NotifyOption {
	return func(c *NotificationCenter) { c.now = now }
}

// WithOnChange registers a callback run after every show or dismissal.
// It receives nil on dismissal and runs without the center's lock held.
func WithOnChange(f func(*Notification)) NotifyOption {
	return func(c *NotificationCenter) { c.onChange = f }
}

// NewNotificationCenter returns an empty center.
func NewNotificationCenter(opts ...NotifyOption) *NotificationCenter {
	c := &NotificationCenter{afterFunc: realAfterFunc, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Show replaces the current notification and schedules its dismissal.
func (c *NotificationCenter) Show(message string, kind Kind) {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	n := &Notification{Message: message, Kind: kind, Shown: c.now()}
	c.current = n
	c.timer = c.afterFunc(DismissAfter, func() { c.expire(gen) })
	onChange := c.onChange
	c.mu.Unlock()

	if onChange != nil {
		cp := *n
		onChange(&cp)
	}
}

// Current returns the notification on display, if any.
func (c *NotificationCenter) Current() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Notification{}, false
	}
	return *c.current, true
}

// Dismiss clears the current notification immediately.
func (c *NotificationCenter) Dismiss() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	had := c.current != nil
	c.current = nil
	onChange := c.onChange
	c.mu.Unlock()

	if had && onChange != nil {
		onChange(nil)
	}
}

// expire runs from the timer; a stale generation means the message was
// already replaced.
func (c *NotificationCenter) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.timer = nil
	onChange := c.onChange
	c.mu.Unlock()

	if onChange != nil {
		onChange(nil)
	}
}
