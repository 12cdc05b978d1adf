package plugin

// State is a plugin's lifecycle state.
type State string

const (
	// StateDiscovered means a checkout exists on disk but was never installed
	// through the manager. Discovered plugins are not persisted as such; a
	// restart re-discovers them.
	StateDiscovered State = "discovered"
	// StateLoaded means installed and validated but never enabled.
	StateLoaded State = "loaded"
	// StateEnabled means the entry point ran and hooks are registered.
	StateEnabled State = "enabled"
	// StateDisabled means explicitly turned off; the checkout stays on disk.
	StateDisabled State = "disabled"
	// StateError means the last activation attempt failed.
	StateError State = "error"
)

// Persistent reports whether the state is written to the store. Discovered is
// the only transient state; it exists between a directory scan and an
// install decision.
func (s State) Persistent() bool {
	return s != StateDiscovered
}

func (s State) String() string { return string(s) }
