package extpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vireotag/vireo/internal/logging"
)

func testRegistry() *Registry {
	return NewRegistry(logging.Nop())
}

func noop(_ context.Context, _ Payload) error { return nil }

func TestRunAllPriorityOrder(t *testing.T) {
	r := testRegistry()

	var order []string
	record := func(name string) Handler {
		return func(_ context.Context, _ Payload) error {
			order = append(order, name)
			return nil
		}
	}

	// Registered low priority first; priority 10 must still run first.
	r.Register(CategoryMetadataProcessor, -5, record("low"), "plugin-b")
	r.Register(CategoryMetadataProcessor, 10, record("high"), "plugin-a")
	r.Register(CategoryMetadataProcessor, 0, record("mid"), "plugin-c")

	r.RunAll(context.Background(), CategoryMetadataProcessor, nil)
	assert.Equal(t, []string{"high", "mid", "low"}, order)
}

func TestRunAllTieBreakByRegistrationOrder(t *testing.T) {
	r := testRegistry()

	var order []string
	record := func(name string) Handler {
		return func(_ context.Context, _ Payload) error {
			order = append(order, name)
			return nil
		}
	}

	r.Register(CategoryUIAction, 0, record("first"), "a")
	r.Register(CategoryUIAction, 0, record("second"), "b")
	r.Register(CategoryUIAction, 0, record("third"), "c")

	r.RunAll(context.Background(), CategoryUIAction, nil)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestRunAllIsolatesErrors(t *testing.T) {
	r := testRegistry()

	var ran []string
	r.Register(CategoryMetadataProcessor, 10, func(_ context.Context, _ Payload) error {
		ran = append(ran, "failing")
		return errors.New("broken plugin")
	}, "bad")
	r.Register(CategoryMetadataProcessor, 5, func(_ context.Context, _ Payload) error {
		ran = append(ran, "healthy")
		return nil
	}, "good")

	r.RunAll(context.Background(), CategoryMetadataProcessor, nil)
	assert.Equal(t, []string{"failing", "healthy"}, ran)
}

func TestRunAllIsolatesPanics(t *testing.T) {
	r := testRegistry()

	var ran bool
	r.Register(CategoryFilePostLoad, 10, func(_ context.Context, _ Payload) error {
		panic("plugin bug")
	}, "bad")
	r.Register(CategoryFilePostLoad, 5, func(_ context.Context, _ Payload) error {
		ran = true
		return nil
	}, "good")

	assert.NotPanics(t, func() {
		r.RunAll(context.Background(), CategoryFilePostLoad, nil)
	})
	assert.True(t, ran)
}

func TestRunAllPayload(t *testing.T) {
	r := testRegistry()

	var got Payload
	r.Register(CategoryFilePostSave, 0, func(_ context.Context, p Payload) error {
		got = p
		return nil
	}, "p")

	r.RunAll(context.Background(), CategoryFilePostSave, map[string]any{"path": "/music/a.flac"})
	assert.Equal(t, CategoryFilePostSave, got.Category)
	assert.Equal(t, "/music/a.flac", got.Data["path"])
}

func TestRunAllNoHandlers(t *testing.T) {
	r := testRegistry()
	assert.NotPanics(t, func() {
		r.RunAll(context.Background(), CategoryUIAction, nil)
	})
}

func TestUnregisterAll(t *testing.T) {
	r := testRegistry()

	r.Register(CategoryMetadataProcessor, 0, noop, "keep")
	r.Register(CategoryMetadataProcessor, 0, noop, "drop")
	r.Register(CategoryCoverArtProvider, 0, noop, "drop")

	r.UnregisterAll("drop")

	assert.Equal(t, 1, r.Count(CategoryMetadataProcessor))
	assert.Equal(t, 0, r.Count(CategoryCoverArtProvider))
	assert.Equal(t, []string{"keep"}, r.Owners(CategoryMetadataProcessor))
}

func TestUnregisterAllIdempotent(t *testing.T) {
	r := testRegistry()
	assert.NotPanics(t, func() {
		r.UnregisterAll("never-registered")
		r.UnregisterAll("never-registered")
	})
}

func TestCategories(t *testing.T) {
	r := testRegistry()
	assert.Empty(t, r.Categories())

	r.Register(CategoryUIAction, 0, noop, "a")
	r.Register(CategoryMetadataProcessor, 0, noop, "a")
	assert.Equal(t, []string{CategoryMetadataProcessor, CategoryUIAction}, r.Categories())

	r.UnregisterAll("a")
	assert.Empty(t, r.Categories())
}

func TestEnableDisableCycleLeavesNoResidue(t *testing.T) {
	r := testRegistry()

	register := func() {
		r.Register(CategoryMetadataProcessor, 5, noop, "cycler")
		r.Register(CategoryCoverArtProvider, 1, noop, "cycler")
	}

	register()
	first := map[string]int{}
	for _, c := range r.Categories() {
		first[c] = r.Count(c)
	}

	r.UnregisterAll("cycler")
	register()

	for c, n := range first {
		assert.Equal(t, n, r.Count(c), "category %s", c)
	}
	assert.Len(t, r.Categories(), len(first))
}
