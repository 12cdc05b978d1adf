package plugin

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireotag/vireo/internal/logging"
)

func TestTasksRun(t *testing.T) {
	tasks := NewTasks(logging.Nop())

	done := make(chan struct{})
	id := tasks.Run("demo", "fetch-covers", func(ctx context.Context) error {
		close(done)
		return nil
	})
	assert.NotEmpty(t, id)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
}

func TestTasksUniqueIDs(t *testing.T) {
	tasks := NewTasks(logging.Nop())
	noop := func(ctx context.Context) error { return nil }

	a := tasks.Run("demo", "a", noop)
	b := tasks.Run("demo", "b", noop)
	assert.NotEqual(t, a, b)
}

func TestTasksCancel(t *testing.T) {
	tasks := NewTasks(logging.Nop())

	started := make(chan struct{})
	var cancelled atomic.Bool
	id := tasks.Run("demo", "watch", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	})

	<-started
	tasks.Cancel(id)
	assert.True(t, cancelled.Load(), "Cancel must wait for the task to finish")
	assert.Equal(t, 0, tasks.Active("demo"))
}

func TestTasksCancelAllByOwner(t *testing.T) {
	tasks := NewTasks(logging.Nop())

	started := make(chan struct{}, 3)
	blocker := func(ctx context.Context) error {
		started <- struct{}{}
		<-ctx.Done()
		return ctx.Err()
	}
	tasks.Run("demo", "one", blocker)
	tasks.Run("demo", "two", blocker)
	otherDone := make(chan struct{})
	tasks.Run("other", "keep", func(ctx context.Context) error {
		started <- struct{}{}
		<-otherDone
		return nil
	})
	for i := 0; i < 3; i++ {
		<-started
	}

	require.Equal(t, 2, tasks.Active("demo"))
	tasks.CancelAll("demo")
	assert.Equal(t, 0, tasks.Active("demo"))
	assert.Equal(t, 1, tasks.Active("other"), "other plugins' tasks keep running")
	assert.Equal(t, 1, tasks.Active(""))

	close(otherDone)
	tasks.CancelAll("other")
	assert.Equal(t, 0, tasks.Active(""))
}

func TestTasksCancelUnknownID(t *testing.T) {
	tasks := NewTasks(logging.Nop())
	tasks.Cancel("no-such-task") // must not block or panic
}

func TestTasksErrorLoggedNotFatal(t *testing.T) {
	tasks := NewTasks(logging.Nop())

	done := make(chan struct{})
	tasks.Run("demo", "boom", func(ctx context.Context) error {
		defer close(done)
		return errors.New("network down")
	})
	<-done
}
