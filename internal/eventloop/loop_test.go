package eventloop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New(16, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, cancel
}

func TestDoRunsTasksInOrder(t *testing.T) {
	l, _ := startLoop(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	// Do is queued behind the posts, so they have all run when it returns.
	var snapshot []int
	if err := l.Do(context.Background(), func() { snapshot = append(snapshot, got...) }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	want := []int{0, 1, 2, 3, 4}
	if len(snapshot) != len(want) {
		t.Fatalf("got %v, want %v", snapshot, want)
	}
	for i := range want {
		if snapshot[i] != want[i] {
			t.Fatalf("got %v, want %v", snapshot, want)
		}
	}
}

func TestDoAfterStop(t *testing.T) {
	l := New(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	cancel()
	<-l.Done()

	err := l.Do(context.Background(), func() {})
	if !errors.Is(err, ErrStopped) {
		t.Errorf("Do after stop = %v, want ErrStopped", err)
	}
	if l.Post(func() {}) {
		t.Error("Post after stop reported success")
	}
}

func TestPanickingTaskDoesNotKillLoop(t *testing.T) {
	l, _ := startLoop(t)

	l.Post(func() { panic("boom") })
	ran := false
	if err := l.Do(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !ran {
		t.Error("task after panic did not run")
	}
}

func TestEveryTicksUntilStopped(t *testing.T) {
	l, _ := startLoop(t)

	var count atomic.Int32
	var tk interface{ Stop() }
	l.Do(context.Background(), func() {
		tk = l.Every(5*time.Millisecond, func() { count.Add(1) })
	})

	deadline := time.Now().Add(2 * time.Second)
	for count.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d ticks before deadline", count.Load())
		}
		time.Sleep(time.Millisecond)
	}

	l.Do(context.Background(), func() { tk.Stop() })
	stoppedAt := count.Load()
	time.Sleep(30 * time.Millisecond)
	// Stop is synchronous on the loop: no tick may run afterwards.
	if got := count.Load(); got != stoppedAt {
		t.Errorf("ticks after Stop: %d → %d", stoppedAt, got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	l, _ := startLoop(t)
	l.Do(context.Background(), func() {
		tk := l.Every(time.Hour, func() {})
		tk.Stop()
		tk.Stop()
	})
}

func TestDoHonoursContext(t *testing.T) {
	l, _ := startLoop(t)

	block := make(chan struct{})
	l.Post(func() { <-block })
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Do(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do = %v, want deadline exceeded", err)
	}
}
