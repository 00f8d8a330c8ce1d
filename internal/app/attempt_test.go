package app

import (
	"sync"
	"testing"
	"time"
)

func TestAttemptSubscribeConcurrentWithClose(t *testing.T) {
	for i := 0; i < 2000; i++ {
		attempt := NewAttempt("a1", "quiz-1", "u1", 3)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch, cancel := attempt.subscribe()
			defer cancel()
			for range ch {
			}
		}()
		go func() {
			defer wg.Done()
			attempt.close()
		}()
		wg.Wait()
	}
}

func TestAttemptSubscribeDeliversSnapshotThenCloses(t *testing.T) {
	attempt := NewAttempt("a1", "quiz-1", "u1", 3)
	ch, cancel := attempt.subscribe()
	defer cancel()

	select {
	case p := <-ch:
		if p.AttemptID != "a1" || p.Total != 3 {
			t.Fatalf("unexpected snapshot %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatalf("no initial snapshot")
	}

	attempt.close()
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after the attempt closes")
	}

	late, lateCancel := attempt.subscribe()
	defer lateCancel()
	if _, ok := <-late; ok {
		t.Fatalf("subscribing to a closed attempt should yield a closed channel")
	}
}
