package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubDeleter struct {
	calls chan time.Time
	err   error
}

func (s *stubDeleter) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	s.calls <- before
	return 2, s.err
}

func TestSweeperRunsUntilCancelled(t *testing.T) {
	st := &stubDeleter{calls: make(chan time.Time, 8)}
	sw := NewSweeper(st, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	select {
	case before := <-st.calls:
		assert.WithinDuration(t, time.Now(), before, time.Minute)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never swept")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}

func TestSweeperSurvivesErrors(t *testing.T) {
	st := &stubDeleter{calls: make(chan time.Time, 8), err: errors.New("db down")}
	sw := NewSweeper(st, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sw.Run(ctx)

	// Two ticks mean the first failure did not kill the loop.
	for i := 0; i < 2; i++ {
		select {
		case <-st.calls:
		case <-time.After(2 * time.Second):
			t.Fatal("sweeper stopped after an error")
		}
	}
}
