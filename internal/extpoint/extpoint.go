// Package extpoint provides the priority-ordered extension point registry
// that plugins populate during activation.
package extpoint

import (
	"context"
	"sort"
	"sync"

	"github.com/vireotag/vireo/internal/logging"
)

// Categories of host behavior plugins can attach handlers to.
const (
	CategoryMetadataProcessor = "metadata_processor"
	CategoryUIAction          = "ui_action"
	CategoryCoverArtProvider  = "coverart_provider"
	CategoryFilePostLoad      = "file_post_load"
	CategoryFilePostSave      = "file_post_save"
)

// AllCategories lists the known extension point categories.
var AllCategories = []string{
	CategoryMetadataProcessor,
	CategoryUIAction,
	CategoryCoverArtProvider,
	CategoryFilePostLoad,
	CategoryFilePostSave,
}

// Payload carries event data to handlers.
type Payload struct {
	Category string         `json:"category"`
	Data     map[string]any `json:"data,omitempty"`
}

// Handler is invoked when the host drains a category. Returning an error
// logs the failure but never stops the remaining handlers.
type Handler func(ctx context.Context, p Payload) error

type registration struct {
	priority int
	seq      uint64 // registration order, breaks priority ties
	owner    string
	handler  Handler
}

// Registry stores handler registrations per category. Within a category,
// execution order is by descending priority, ties broken by registration
// order.
type Registry struct {
	mu      sync.RWMutex
	byCat   map[string][]registration
	nextSeq uint64
	log     *logging.Logger
}

// NewRegistry creates an extension point registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		byCat: make(map[string][]registration),
		log:   log.Sub("extpoint"),
	}
}

// Register adds a handler for a category on behalf of a plugin.
func (r *Registry) Register(category string, priority int, handler Handler, ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg := registration{priority: priority, seq: r.nextSeq, owner: ownerID, handler: handler}
	r.nextSeq++

	regs := append(r.byCat[category], reg)
	sort.SliceStable(regs, func(i, j int) bool {
		if regs[i].priority != regs[j].priority {
			return regs[i].priority > regs[j].priority
		}
		return regs[i].seq < regs[j].seq
	})
	r.byCat[category] = regs

	r.log.Debug().
		Str("category", category).
		Int("priority", priority).
		Str("plugin", ownerID).
		Msg("extension point registered")
}

// RunAll invokes every handler registered for a category in priority order.
// A handler error is logged and does not prevent the remaining handlers from
// running; one misbehaving plugin must not break another's behavior.
func (r *Registry) RunAll(ctx context.Context, category string, data map[string]any) {
	r.mu.RLock()
	regs := make([]registration, len(r.byCat[category]))
	copy(regs, r.byCat[category])
	r.mu.RUnlock()

	if len(regs) == 0 {
		return
	}

	payload := Payload{Category: category, Data: data}

	for _, reg := range regs {
		r.invoke(ctx, category, reg, payload)
	}
}

// invoke runs one handler, recovering panics so plugin code cannot take the
// host event loop down.
func (r *Registry) invoke(ctx context.Context, category string, reg registration, payload Payload) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().
				Any("panic", rec).
				Str("category", category).
				Str("plugin", reg.owner).
				Msg("extension point handler panicked")
		}
	}()

	if err := reg.handler(ctx, payload); err != nil {
		r.log.Warn().
			Err(err).
			Str("category", category).
			Str("plugin", reg.owner).
			Msg("extension point handler error")
	}
}

// UnregisterAll removes every registration owned by a plugin in one atomic
// step. It is idempotent: unknown owners are a no-op.
func (r *Registry) UnregisterAll(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for category, regs := range r.byCat {
		filtered := regs[:0:0]
		for _, reg := range regs {
			if reg.owner != ownerID {
				filtered = append(filtered, reg)
			}
		}
		if len(filtered) == 0 {
			delete(r.byCat, category)
		} else {
			r.byCat[category] = filtered
		}
	}
}

// Count returns the number of handlers registered for a category.
func (r *Registry) Count(category string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCat[category])
}

// Owners returns the owning plugin ids for a category in execution order.
func (r *Registry) Owners(category string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owners := make([]string, 0, len(r.byCat[category]))
	for _, reg := range r.byCat[category] {
		owners = append(owners, reg.owner)
	}
	return owners
}

// Categories returns the categories that have at least one handler.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cats := make([]string, 0, len(r.byCat))
	for c := range r.byCat {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}
