package plugin

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/vireotag/vireo/internal/logging"
)

type task struct {
	id     string
	owner  string
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

// Tasks runs plugin background work off the caller's goroutine and ties its
// lifetime to the owning plugin: disabling a plugin cancels and waits for all
// of its tasks.
type Tasks struct {
	mu   sync.Mutex
	byID map[string]*task
	log  *logging.Logger
}

// NewTasks creates a task manager.
func NewTasks(log *logging.Logger) *Tasks {
	return &Tasks{
		byID: make(map[string]*task),
		log:  log.Sub("tasks"),
	}
}

// Run starts fn on its own goroutine and returns the task id. The context
// passed to fn is cancelled by Cancel, CancelAll or plugin disable; fn is
// expected to honor it.
func (t *Tasks) Run(owner, name string, fn func(ctx context.Context) error) string {
	ctx, cancel := context.WithCancel(context.Background())
	tk := &task{
		id:     uuid.NewString(),
		owner:  owner,
		name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	t.mu.Lock()
	t.byID[tk.id] = tk
	t.mu.Unlock()

	go func() {
		defer close(tk.done)
		defer cancel()
		err := fn(ctx)

		t.mu.Lock()
		delete(t.byID, tk.id)
		t.mu.Unlock()

		if err != nil && !errors.Is(err, context.Canceled) {
			t.log.Warn().
				Err(err).
				Str("plugin", owner).
				Str("task", name).
				Msg("background task failed")
		}
	}()

	return tk.id
}

// Cancel cancels a single task and waits for it to finish. Unknown ids are a
// no-op.
func (t *Tasks) Cancel(id string) {
	t.mu.Lock()
	tk, ok := t.byID[id]
	t.mu.Unlock()
	if !ok {
		return
	}
	tk.cancel()
	<-tk.done
}

// CancelAll cancels every task owned by a plugin and waits for all of them.
func (t *Tasks) CancelAll(owner string) {
	t.mu.Lock()
	var owned []*task
	for _, tk := range t.byID {
		if tk.owner == owner {
			owned = append(owned, tk)
		}
	}
	t.mu.Unlock()

	for _, tk := range owned {
		tk.cancel()
	}
	for _, tk := range owned {
		<-tk.done
	}
}

// Active returns the number of running tasks for a plugin, or all plugins
// when owner is empty.
func (t *Tasks) Active(owner string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if owner == "" {
		return len(t.byID)
	}
	n := 0
	for _, tk := range t.byID {
		if tk.owner == owner {
			n++
		}
	}
	return n
}
