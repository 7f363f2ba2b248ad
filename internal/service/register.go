package service

import (
	"strings"
	"sync"
	"time"
)

// PendingAnswer is one coalesced answer write waiting out its debounce
// window.
type PendingAnswer struct {
	AttemptID        string
	QuestionID       string
	SelectedOption   string
	TimeTakenSeconds int
}

// WriteRegister is a single-slot pending-write register keyed by
// attempt/question. Putting a value for a key that already holds a pending
// write cancels the old timer and replaces the value: only the last
// selection inside the debounce window fires. This replaces the ad hoc
// timer-handle juggling the debounce pattern usually degenerates into.
type WriteRegister struct {
	mu    sync.Mutex
	delay time.Duration
	fire  func(PendingAnswer)
	slots map[string]*registerSlot
}

type registerSlot struct {
	value PendingAnswer
	timer *time.Timer
}

// NewWriteRegister creates a register. fire is invoked (on a timer
// goroutine) once per key when the debounce window elapses untouched.
func NewWriteRegister(delay time.Duration, fire func(PendingAnswer)) *WriteRegister {
	return &WriteRegister{
		delay: delay,
		fire:  fire,
		slots: make(map[string]*registerSlot),
	}
}

func slotKey(attemptID, questionID string) string {
	return attemptID + "/" + questionID
}

// Put registers a pending write, cancelling and replacing any write already
// pending for the same attempt/question.
func (r *WriteRegister) Put(p PendingAnswer) {
	key := slotKey(p.AttemptID, p.QuestionID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if slot, ok := r.slots[key]; ok {
		slot.timer.Stop()
		slot.value = p
		slot.timer.Reset(r.delay)
		return
	}

	slot := &registerSlot{value: p}
	slot.timer = time.AfterFunc(r.delay, func() {
		r.mu.Lock()
		current, ok := r.slots[key]
		if !ok || current != slot {
			r.mu.Unlock()
			return
		}
		delete(r.slots, key)
		v := current.value
		r.mu.Unlock()

		r.fire(v)
	})
	r.slots[key] = slot
}

// Drain cancels every pending write for the attempt and returns the values
// so the caller can persist them synchronously. Used when submission begins:
// nothing may fire asynchronously after this returns.
func (r *WriteRegister) Drain(attemptID string) []PendingAnswer {
	prefix := attemptID + "/"

	r.mu.Lock()
	defer r.mu.Unlock()

	var pending []PendingAnswer
	for key, slot := range r.slots {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		slot.timer.Stop()
		delete(r.slots, key)
		pending = append(pending, slot.value)
	}
	return pending
}

// Len reports the number of pending writes across all attempts.
func (r *WriteRegister) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}
