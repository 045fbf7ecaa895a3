package shell

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Scheduler_Start_RunsTaskImmediatelyAndOnInterval(t *testing.T) {
	// arrange
	scheduler := NewScheduler(nil)

	var runs atomic.Int32

	scheduler.Register(Task{
		Name:     "counting",
		Interval: 20 * time.Millisecond,
		Run: func(_ context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Millisecond)
	defer cancel()

	// act
	scheduler.Start(ctx)

	// assert: one immediate run plus at least one tick
	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}

func Test_Scheduler_Start_KeepsRunningAfterTaskFailure(t *testing.T) {
	// arrange
	scheduler := NewScheduler(nil)

	var runs atomic.Int32

	scheduler.Register(Task{
		Name:     "flaky",
		Interval: 10 * time.Millisecond,
		Run: func(_ context.Context) error {
			runs.Add(1)
			return errors.New("transient failure")
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	// act
	scheduler.Start(ctx)

	// assert: failures are logged, the schedule continues
	assert.GreaterOrEqual(t, runs.Load(), int32(3))
}

func Test_Scheduler_Start_RunsAllRegisteredTasks(t *testing.T) {
	// arrange
	scheduler := NewScheduler(nil)

	var first, second atomic.Int32

	scheduler.Register(Task{
		Name:     "first",
		Interval: time.Hour,
		Run: func(_ context.Context) error {
			first.Add(1)
			return nil
		},
	})
	scheduler.Register(Task{
		Name:     "second",
		Interval: time.Hour,
		Run: func(_ context.Context) error {
			second.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	// act
	scheduler.Start(ctx)

	// assert: each task got its immediate startup run
	assert.Equal(t, int32(1), first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func Test_Scheduler_Start_ReturnsAfterCancellation(t *testing.T) {
	// arrange
	scheduler := NewScheduler(nil)
	scheduler.Register(Task{
		Name:     "idle",
		Interval: time.Hour,
		Run:      func(_ context.Context) error { return nil },
	})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})

	// act
	go func() {
		scheduler.Start(ctx)
		close(done)
	}()

	cancel()

	// assert
	select {
	case <-done:
		// stopped cleanly
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}
