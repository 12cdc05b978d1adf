// Package plugin manages the full plugin lifecycle: install from git,
// trust and blacklist policy, activation through extension points, updates
// and startup reconciliation.
package plugin

import (
	"context"
	"os"

	"github.com/vireotag/vireo/internal/extpoint"
	"github.com/vireotag/vireo/internal/logging"
)

// Plugin is the entry point contract. Enable registers the plugin's hooks
// through the API; it must return before the plugin is considered enabled.
type Plugin interface {
	Enable(ctx context.Context, api *API) error
}

// Disabler is optionally implemented by plugins that need teardown beyond
// hook unregistration, which the manager always does itself.
type Disabler interface {
	Disable(ctx context.Context) error
}

// Factory constructs a plugin instance. The host registers one per plugin id
// at startup; ids without a factory cannot be enabled.
type Factory func() Plugin

// API is handed to a plugin's Enable call. It scopes everything to the owning
// plugin: registrations carry its id, tasks cancel with it, logs are tagged
// with it.
type API struct {
	pluginID string
	ext      *extpoint.Registry
	tasks    *Tasks
	dataDir  string
	log      *logging.Logger
}

// Register attaches a handler to an extension point category on behalf of
// this plugin.
func (a *API) Register(category string, priority int, h extpoint.Handler) {
	a.ext.Register(category, priority, h, a.pluginID)
}

// RunTask starts a background task owned by this plugin and returns its id.
// All of a plugin's tasks are cancelled when it is disabled.
func (a *API) RunTask(name string, fn func(ctx context.Context) error) string {
	return a.tasks.Run(a.pluginID, name, fn)
}

// DataDir returns the plugin's private data directory, creating it on first
// use.
func (a *API) DataDir() (string, error) {
	if err := os.MkdirAll(a.dataDir, 0o700); err != nil {
		return "", err
	}
	return a.dataDir, nil
}

// Logger returns a logger tagged with the plugin id.
func (a *API) Logger() *logging.Logger { return a.log }

// PluginID returns the owning plugin's id.
func (a *API) PluginID() string { return a.pluginID }
