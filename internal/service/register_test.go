package service

import (
	"sync"
	"testing"
	"time"
)

// firedCollector records register fires for assertions.
type firedCollector struct {
	mu    sync.Mutex
	fired []PendingAnswer
}

func (c *firedCollector) fire(p PendingAnswer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fired = append(c.fired, p)
}

func (c *firedCollector) all() []PendingAnswer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]PendingAnswer(nil), c.fired...)
}

func TestWriteRegisterCoalesces(t *testing.T) {
	c := &firedCollector{}
	reg := NewWriteRegister(30*time.Millisecond, c.fire)

	reg.Put(PendingAnswer{AttemptID: "a1", QuestionID: "q1", SelectedOption: "A"})
	reg.Put(PendingAnswer{AttemptID: "a1", QuestionID: "q1", SelectedOption: "B"})
	reg.Put(PendingAnswer{AttemptID: "a1", QuestionID: "q1", SelectedOption: "C"})

	time.Sleep(100 * time.Millisecond)

	fired := c.all()
	if len(fired) != 1 {
		t.Fatalf("fired %d writes, want 1", len(fired))
	}
	if fired[0].SelectedOption != "C" {
		t.Errorf("fired option %s, want C (the last selection)", fired[0].SelectedOption)
	}
	if reg.Len() != 0 {
		t.Errorf("register holds %d slots after firing, want 0", reg.Len())
	}
}

func TestWriteRegisterIndependentKeys(t *testing.T) {
	c := &firedCollector{}
	reg := NewWriteRegister(20*time.Millisecond, c.fire)

	reg.Put(PendingAnswer{AttemptID: "a1", QuestionID: "q1", SelectedOption: "A"})
	reg.Put(PendingAnswer{AttemptID: "a1", QuestionID: "q2", SelectedOption: "B"})
	reg.Put(PendingAnswer{AttemptID: "a2", QuestionID: "q1", SelectedOption: "D"})

	time.Sleep(80 * time.Millisecond)

	if got := len(c.all()); got != 3 {
		t.Fatalf("fired %d writes, want 3 (distinct keys must not coalesce)", got)
	}
}

func TestWriteRegisterDrain(t *testing.T) {
	c := &firedCollector{}
	reg := NewWriteRegister(50*time.Millisecond, c.fire)

	reg.Put(PendingAnswer{AttemptID: "a1", QuestionID: "q1", SelectedOption: "A"})
	reg.Put(PendingAnswer{AttemptID: "a1", QuestionID: "q2", SelectedOption: "B"})
	reg.Put(PendingAnswer{AttemptID: "other", QuestionID: "q1", SelectedOption: "C"})

	pending := reg.Drain("a1")
	if len(pending) != 2 {
		t.Fatalf("drained %d writes, want 2", len(pending))
	}
	for _, p := range pending {
		if p.AttemptID != "a1" {
			t.Errorf("drained write for attempt %s, want a1 only", p.AttemptID)
		}
	}

	// Nothing drained may fire asynchronously afterwards; the untouched
	// attempt's write still fires normally.
	time.Sleep(120 * time.Millisecond)
	fired := c.all()
	if len(fired) != 1 {
		t.Fatalf("fired %d writes after drain, want 1", len(fired))
	}
	if fired[0].AttemptID != "other" {
		t.Errorf("fired write for attempt %s, want other", fired[0].AttemptID)
	}
}

func TestWriteRegisterReplaceAfterFire(t *testing.T) {
	c := &firedCollector{}
	reg := NewWriteRegister(10*time.Millisecond, c.fire)

	reg.Put(PendingAnswer{AttemptID: "a1", QuestionID: "q1", SelectedOption: "A"})
	time.Sleep(50 * time.Millisecond)
	reg.Put(PendingAnswer{AttemptID: "a1", QuestionID: "q1", SelectedOption: "B"})
	time.Sleep(50 * time.Millisecond)

	fired := c.all()
	if len(fired) != 2 {
		t.Fatalf("fired %d writes, want 2 (second selection after window is a new write)", len(fired))
	}
	if fired[0].SelectedOption != "A" || fired[1].SelectedOption != "B" {
		t.Errorf("fired options %s,%s want A,B", fired[0].SelectedOption, fired[1].SelectedOption)
	}
}
