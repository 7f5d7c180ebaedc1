package booking

import (
	"sync"
	"time"
)

// ActionState is the in-flight and last-error state of actions on one booking.
type ActionState struct {
	InFlight  bool
	Err       error
	UpdatedAt time.Time
}

// ActionTracker holds per-booking action state outside the status machine.
// The zero value is ready to use.
type ActionTracker struct {
	mu     sync.Mutex
	states map[BookingID]ActionState
	now    func() time.Time
}

func NewActionTracker(now func() time.Time) *ActionTracker {
	return &ActionTracker{now: now}
}

// Run executes fn unless another action on the same booking is in flight,
// in which case it returns ErrActionInFlight without calling fn.
func (t *ActionTracker) Run(id BookingID, fn func() error) (err error) {
	if !t.begin(id) {
		return ErrActionInFlight
	}
	defer func() { t.finish(id, err) }()
	return fn()
}

func (t *ActionTracker) State(id BookingID) ActionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[id]
}

// Clear drops the stored state, e.g. once an error was shown.
func (t *ActionTracker) Clear(id BookingID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, id)
}

func (t *ActionTracker) begin(id BookingID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.states == nil {
		t.states = make(map[BookingID]ActionState)
	}
	if t.states[id].InFlight {
		return false
	}
	t.states[id] = ActionState{InFlight: true, UpdatedAt: t.clock()}
	return true
}

func (t *ActionTracker) finish(id BookingID, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[id] = ActionState{Err: err, UpdatedAt: t.clock()}
}

func (t *ActionTracker) clock() time.Time {
	if t.now != nil {
		return t.now().UTC()
	}
	return time.Now().UTC()
}
