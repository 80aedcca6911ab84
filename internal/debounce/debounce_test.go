package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTriggerCollapsesBurst(t *testing.T) {
	d := New(40 * time.Millisecond)

	var calls atomic.Int32
	var last atomic.Int32
	done := make(chan struct{}, 10)

	for i := 1; i <= 5; i++ {
		v := int32(i)
		d.Trigger(func() {
			calls.Add(1)
			last.Store(v)
			done <- struct{}{}
		})
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced task never ran")
	}
	time.Sleep(100 * time.Millisecond)

	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
	if last.Load() != 5 {
		t.Errorf("expected last trigger to win, got %d", last.Load())
	}
}

func TestCancelStopsPending(t *testing.T) {
	d := New(30 * time.Millisecond)
	var calls atomic.Int32

	d.Trigger(func() { calls.Add(1) })
	if !d.Pending() {
		t.Error("expected pending task")
	}
	if !d.Cancel() {
		t.Error("expected Cancel to report a pending task")
	}
	if d.Pending() {
		t.Error("expected nothing pending after Cancel")
	}

	time.Sleep(80 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("expected no calls after cancel, got %d", calls.Load())
	}
	if d.Cancel() {
		t.Error("expected Cancel on idle debouncer to report false")
	}
}

func TestSeparatedTriggersBothRun(t *testing.T) {
	d := New(10 * time.Millisecond)
	done := make(chan struct{}, 2)

	d.Trigger(func() { done <- struct{}{} })
	<-done
	d.Trigger(func() { done <- struct{}{} })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second trigger never ran")
	}
}
