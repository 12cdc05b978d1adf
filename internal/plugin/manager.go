package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vireotag/vireo/internal/config"
	"github.com/vireotag/vireo/internal/extpoint"
	"github.com/vireotag/vireo/internal/gitrepo"
	"github.com/vireotag/vireo/internal/logging"
	"github.com/vireotag/vireo/internal/manifest"
	"github.com/vireotag/vireo/internal/registry"
	"github.com/vireotag/vireo/internal/store"
)

// Installed is the full view of one installed plugin: the persisted record,
// its manifest and the trust level the registry currently assigns it.
type Installed struct {
	Record   store.PluginRecord
	Manifest *manifest.Manifest
	Trust    registry.TrustLevel
}

// Options wires a Manager's collaborators.
type Options struct {
	Store    *store.PluginStore
	Registry *registry.Client
	Resolver *gitrepo.Resolver
	Ext      *extpoint.Registry
	Tasks    *Tasks
	Paths    config.Paths
	// HostAPI lists the plugin API versions this host accepts. Defaults to
	// DefaultHostAPI.
	HostAPI []string
	// DefaultRef is used when an install names no ref. Defaults to "main".
	DefaultRef string
}

// InstallOptions tunes one Install call.
type InstallOptions struct {
	// Ref is the branch, tag or commit to install. Empty uses the manager's
	// default ref.
	Ref string
	// Force bypasses repository and ref blacklists.
	Force bool
	// AllowDirty lets a re-sync discard local edits in the checkout.
	AllowDirty bool
	// Confirm is consulted before cloning community or unregistered code.
	// Nil declines.
	Confirm ConfirmFunc
}

// Manager owns the plugin lifecycle. Operations on the same plugin id are
// serialized; different ids proceed concurrently.
type Manager struct {
	store    *store.PluginStore
	registry *registry.Client
	resolver *gitrepo.Resolver
	ext      *extpoint.Registry
	tasks    *Tasks
	paths    config.Paths
	hostAPI  []string
	defRef   string
	log      *logging.Logger

	mu        sync.Mutex
	locks     map[string]*sync.Mutex
	factories map[string]Factory
	active    map[string]Plugin
}

// NewManager creates a lifecycle manager.
func NewManager(opts Options, log *logging.Logger) *Manager {
	hostAPI := opts.HostAPI
	if len(hostAPI) == 0 {
		hostAPI = DefaultHostAPI
	}
	defRef := opts.DefaultRef
	if defRef == "" {
		defRef = "main"
	}
	tasks := opts.Tasks
	if tasks == nil {
		tasks = NewTasks(log)
	}
	return &Manager{
		store:     opts.Store,
		registry:  opts.Registry,
		resolver:  opts.Resolver,
		ext:       opts.Ext,
		tasks:     tasks,
		paths:     opts.Paths,
		hostAPI:   hostAPI,
		defRef:    defRef,
		log:       log.Sub("manager"),
		locks:     make(map[string]*sync.Mutex),
		factories: make(map[string]Factory),
		active:    make(map[string]Plugin),
	}
}

// RegisterFactory registers the entry point constructor for a plugin id.
// Hosts call this at startup for every plugin they can run.
func (m *Manager) RegisterFactory(id string, f Factory) {
	m.mu.Lock()
	m.factories[id] = f
	m.mu.Unlock()
}

// Tasks returns the background task manager.
func (m *Manager) Tasks() *Tasks { return m.tasks }

// RegistrySnapshot fetches the current registry snapshot, honoring caches.
// Unlike the lifecycle operations this does not degrade on failure; browsing
// the registry is meaningless without it.
func (m *Manager) RegistrySnapshot(ctx context.Context) (*registry.Snapshot, error) {
	if m.registry == nil {
		return nil, errors.New("no registry configured")
	}
	return m.registry.Fetch(ctx, false)
}

// lock serializes operations on one plugin id and returns the unlock func.
func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// snapshot fetches the registry, degrading gracefully: an unreachable
// registry yields nil, which downstream checks treat as "unregistered trust,
// nothing blacklisted".
func (m *Manager) snapshot(ctx context.Context) *registry.Snapshot {
	if m.registry == nil {
		return nil
	}
	snap, err := m.registry.Fetch(ctx, false)
	if err != nil {
		m.log.Warn().Err(err).Msg("registry unavailable; trust and blacklist checks degraded")
		return nil
	}
	return snap
}

// Install fetches, validates and persists a plugin without enabling it.
// The trust warning, when due, is raised before anything is cloned.
func (m *Manager) Install(ctx context.Context, src string, opts InstallOptions) (*Installed, error) {
	snap := m.snapshot(ctx)

	url := src
	originalURL := ""
	if snap != nil {
		if resolved := snap.ResolveRedirect(src); resolved != src {
			m.log.Info().Str("from", src).Str("to", resolved).Msg("repository moved, following redirect")
			originalURL = src
			url = resolved
		}
	}

	if snap != nil && !opts.Force {
		if blocked, reason := snap.IsBlacklisted(url); blocked {
			return nil, &PolicyError{URL: url, Reason: reason, Override: "--force"}
		}
	}

	// The registry may bound the host API range for a listed plugin; known
	// incompatibilities are rejected before anything is cloned.
	if err := m.checkRegistryAPI(snap, url); err != nil {
		return nil, err
	}

	trust := registry.TrustUnregistered
	if snap != nil {
		trust = snap.TrustLevel(url)
	}
	if trust == registry.TrustCommunity || trust == registry.TrustUnregistered {
		w := trustWarning(url, trust)
		if opts.Confirm == nil || !opts.Confirm(w) {
			return nil, fmt.Errorf("%s: %w", url, ErrNotConfirmed)
		}
	}

	if existing, err := m.findByURL(url); err != nil {
		return nil, err
	} else if existing != "" {
		return nil, fmt.Errorf("%s (as %s): %w", url, existing, ErrAlreadyInstalled)
	}

	if err := os.MkdirAll(m.paths.Plugins, 0o700); err != nil {
		return nil, fmt.Errorf("creating plugins directory: %w", err)
	}
	staging, err := os.MkdirTemp(m.paths.Plugins, ".install-")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	ref := opts.Ref
	if ref == "" {
		ref = m.defRef
	}
	source := gitrepo.NewSource(url, ref)
	res, err := m.resolver.Sync(ctx, source, staging, gitrepo.SyncOptions{AllowDirty: opts.AllowDirty})
	if err != nil {
		return nil, err
	}

	man, err := m.validateCheckout(staging)
	if err != nil {
		return nil, err
	}

	if snap != nil && !opts.Force {
		for _, candidate := range []string{ref, res.Commit} {
			if blocked, reason, fixedIn := snap.IsRefBlacklisted(url, candidate); blocked {
				return nil, &PolicyError{
					PluginID: man.ID,
					URL:      url,
					Ref:      candidate,
					Reason:   reason,
					FixedIn:  fixedIn,
					Override: "--force",
				}
			}
		}
	}

	unlock := m.lock(man.ID)
	defer unlock()

	if _, err := m.store.Get(man.ID); err == nil {
		return nil, fmt.Errorf("%s: %w", man.ID, ErrAlreadyInstalled)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	target := m.paths.PluginDir(man.ID)
	if err := os.RemoveAll(target); err != nil {
		return nil, fmt.Errorf("clearing plugin directory: %w", err)
	}
	if err := os.Rename(staging, target); err != nil {
		return nil, fmt.Errorf("moving plugin into place: %w", err)
	}

	rec := store.PluginRecord{
		ID:           man.ID,
		URL:          url,
		OriginalURL:  originalURL,
		RequestedRef: ref,
		RefKind:      string(res.RefKind),
		Commit:       res.Commit,
		Enabled:      false,
		State:        string(StateLoaded),
	}
	if err := m.store.Save(rec); err != nil {
		os.RemoveAll(target)
		return nil, err
	}
	saved, err := m.store.Get(man.ID)
	if err != nil {
		return nil, err
	}

	m.log.Info().
		Str("plugin", man.ID).
		Str("url", url).
		Str("ref", ref).
		Str("commit", res.Commit).
		Str("trust", string(trust)).
		Msg("plugin installed")

	return &Installed{Record: saved, Manifest: man, Trust: trust}, nil
}

// findByURL returns the id of an installed plugin with the same normalized
// repository URL, or "".
func (m *Manager) findByURL(url string) (string, error) {
	recs, err := m.store.List()
	if err != nil {
		return "", err
	}
	want := registry.NormalizeURL(url)
	for _, rec := range recs {
		if registry.NormalizeURL(rec.URL) == want {
			return rec.ID, nil
		}
	}
	return "", nil
}

// Enable activates an installed plugin. The enabled state is committed only
// after the entry point returns without error; a failed or panicking entry
// point leaves the plugin in the error state with no hooks registered.
func (m *Manager) Enable(ctx context.Context, id string, overrideBlacklist bool) error {
	unlock := m.lock(id)
	defer unlock()
	return m.enableLocked(ctx, id, overrideBlacklist)
}

func (m *Manager) enableLocked(ctx context.Context, id string, overrideBlacklist bool) error {
	rec, err := m.store.Get(id)
	if err != nil {
		return err
	}
	if rec.Enabled {
		m.mu.Lock()
		_, running := m.active[id]
		m.mu.Unlock()
		if running {
			return nil
		}
		// Enabled in the store but not running: a restart. Fall through and
		// activate.
	}

	if snap := m.snapshot(ctx); snap != nil {
		perr := m.checkBlacklists(snap, id, rec)
		if perr != nil {
			if overrideBlacklist {
				if err := m.store.SetOverride(id); err != nil {
					return err
				}
				m.log.Warn().Str("plugin", id).Str("reason", perr.Reason).Msg("blacklist overridden by user")
			} else if has, err := m.store.HasOverride(id); err != nil {
				return err
			} else if !has {
				perr.Override = "--override-blacklist"
				return perr
			}
		}
	}

	m.mu.Lock()
	factory := m.factories[id]
	m.mu.Unlock()
	if factory == nil {
		return fmt.Errorf("%s: %w", id, ErrNoFactory)
	}

	p := factory()
	api := &API{
		pluginID: id,
		ext:      m.ext,
		tasks:    m.tasks,
		dataDir:  m.paths.PluginDataDir(id),
		log:      m.log.Sub("plugin." + id),
	}

	if err := runEnable(ctx, p, api); err != nil {
		// Roll back any registrations the entry point made before failing.
		m.ext.UnregisterAll(id)
		m.tasks.CancelAll(id)
		rec.Enabled = false
		rec.State = string(StateError)
		if serr := m.store.Save(rec); serr != nil {
			m.log.Error().Err(serr).Str("plugin", id).Msg("cannot persist error state")
		}
		m.log.Error().Err(err).Str("plugin", id).Msg("plugin activation failed")
		return &ActivationError{PluginID: id, Err: err}
	}

	rec.Enabled = true
	rec.State = string(StateEnabled)
	if err := m.store.Save(rec); err != nil {
		m.ext.UnregisterAll(id)
		m.tasks.CancelAll(id)
		return err
	}

	m.mu.Lock()
	m.active[id] = p
	m.mu.Unlock()

	m.log.Info().Str("plugin", id).Msg("plugin enabled")
	return nil
}

// runEnable calls the entry point with panic isolation.
func runEnable(ctx context.Context, p Plugin, api *API) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("entry point panicked: %v", r)
		}
	}()
	return p.Enable(ctx, api)
}

// checkRegistryAPI enforces the host API range a registry entry declares for
// a repository. URLs without an entry, and entries without bounds, pass.
func (m *Manager) checkRegistryAPI(snap *registry.Snapshot, url string) error {
	if snap == nil {
		return nil
	}
	e := snap.Find(url)
	if e == nil {
		return nil
	}
	if apiInRange(m.hostAPI, e.MinAPIVersion, e.MaxAPIVersion) {
		return nil
	}
	return &VersionError{
		PluginID: e.ID,
		MinAPI:   e.MinAPIVersion,
		MaxAPI:   e.MaxAPIVersion,
		HostAPI:  m.hostAPI,
	}
}

// checkBlacklists returns a PolicyError if the record's repository or pinned
// ref is blacklisted, nil otherwise.
func (m *Manager) checkBlacklists(snap *registry.Snapshot, id string, rec store.PluginRecord) *PolicyError {
	if blocked, reason := snap.IsBlacklisted(rec.URL); blocked {
		return &PolicyError{PluginID: id, URL: rec.URL, Reason: reason}
	}
	for _, candidate := range []string{rec.RequestedRef, rec.Commit} {
		if candidate == "" {
			continue
		}
		if blocked, reason, fixedIn := snap.IsRefBlacklisted(rec.URL, candidate); blocked {
			return &PolicyError{PluginID: id, URL: rec.URL, Ref: candidate, Reason: reason, FixedIn: fixedIn}
		}
	}
	return nil
}

// Disable deactivates a plugin. Teardown is best-effort; hook
// unregistration and task cancellation happen unconditionally so a broken
// teardown cannot leak registrations.
func (m *Manager) Disable(ctx context.Context, id string) error {
	unlock := m.lock(id)
	defer unlock()
	return m.disableLocked(ctx, id)
}

func (m *Manager) disableLocked(ctx context.Context, id string) error {
	rec, err := m.store.Get(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	p := m.active[id]
	delete(m.active, id)
	m.mu.Unlock()

	if d, ok := p.(Disabler); ok {
		if err := runDisable(ctx, d); err != nil {
			m.log.Warn().Err(err).Str("plugin", id).Msg("plugin teardown failed, continuing")
		}
	}

	m.tasks.CancelAll(id)
	m.ext.UnregisterAll(id)

	if !rec.Enabled && rec.State == string(StateDisabled) {
		return nil
	}
	rec.Enabled = false
	rec.State = string(StateDisabled)
	if err := m.store.Save(rec); err != nil {
		return err
	}

	m.log.Info().Str("plugin", id).Msg("plugin disabled")
	return nil
}

func runDisable(ctx context.Context, d Disabler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("teardown panicked: %v", r)
		}
	}()
	return d.Disable(ctx)
}

// Uninstall disables a plugin, removes its checkout and deletes its record.
// With purge the plugin's private data directory is removed too.
func (m *Manager) Uninstall(ctx context.Context, id string, purge bool) error {
	unlock := m.lock(id)
	defer unlock()

	rec, err := m.store.Get(id)
	if err != nil {
		return err
	}
	if rec.Enabled {
		if err := m.disableLocked(ctx, id); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(m.paths.PluginDir(id)); err != nil {
		return fmt.Errorf("removing plugin checkout: %w", err)
	}
	if err := m.store.Delete(id); err != nil {
		return err
	}
	if err := m.store.ClearOverride(id); err != nil {
		return err
	}
	if purge {
		if err := os.RemoveAll(m.paths.PluginDataDir(id)); err != nil {
			return fmt.Errorf("purging plugin data: %w", err)
		}
	}

	// The id is gone; drop its lock entry so long-lived hosts do not
	// accumulate a mutex per plugin ever touched. A waiter already parked on
	// the old mutex proceeds against a record that no longer exists, which
	// every operation reports as not found.
	m.mu.Lock()
	delete(m.locks, id)
	m.mu.Unlock()

	m.log.Info().Str("plugin", id).Bool("purge", purge).Msg("plugin uninstalled")
	return nil
}

// Update re-synchronizes a plugin. With an empty ref it follows the tip of
// the currently pinned ref, so tag- and commit-pinned plugins never move.
// The update is all-or-nothing: any failure restores the previous checkout
// and state.
func (m *Manager) Update(ctx context.Context, id, ref string, allowDirty bool) (*Installed, error) {
	unlock := m.lock(id)
	defer unlock()

	rec, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if ref == "" {
		ref = rec.RequestedRef
	}
	return m.switchLocked(ctx, rec, ref, allowDirty)
}

// SwitchRef re-pins a plugin to a different branch, tag or commit. Like
// Update it is all-or-nothing.
func (m *Manager) SwitchRef(ctx context.Context, id, ref string, allowDirty bool) (*Installed, error) {
	if ref == "" {
		return nil, errors.New("switch-ref requires a ref")
	}

	unlock := m.lock(id)
	defer unlock()

	rec, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	return m.switchLocked(ctx, rec, ref, allowDirty)
}

// switchLocked moves a plugin to a target ref with rollback on failure.
// The caller holds the plugin's lock.
func (m *Manager) switchLocked(ctx context.Context, rec store.PluginRecord, ref string, allowDirty bool) (*Installed, error) {
	id := rec.ID

	// Policy is checked against the target before anything is touched.
	snap := m.snapshot(ctx)
	if snap != nil {
		if blocked, reason := snap.IsBlacklisted(rec.URL); blocked {
			return nil, &PolicyError{PluginID: id, URL: rec.URL, Reason: reason}
		}
		if blocked, reason, fixedIn := snap.IsRefBlacklisted(rec.URL, ref); blocked {
			return nil, &PolicyError{PluginID: id, URL: rec.URL, Ref: ref, Reason: reason, FixedIn: fixedIn}
		}
	}
	if err := m.checkRegistryAPI(snap, rec.URL); err != nil {
		return nil, err
	}

	prev := rec
	wasEnabled := rec.Enabled
	if wasEnabled {
		if err := m.disableLocked(ctx, id); err != nil {
			return nil, err
		}
	}

	dir := m.paths.PluginDir(id)
	source := gitrepo.NewSource(rec.URL, ref)
	res, err := m.resolver.Sync(ctx, source, dir, gitrepo.SyncOptions{AllowDirty: allowDirty})
	if err != nil {
		// The working copy never moved; only the run state needs restoring.
		if wasEnabled {
			if eerr := m.enableLocked(ctx, id, false); eerr != nil {
				m.log.Error().Err(eerr).Str("plugin", id).Msg("re-enable after failed sync failed")
			}
		}
		return nil, err
	}

	man, err := m.validateCheckout(dir)
	if err != nil {
		m.rollback(ctx, prev, wasEnabled)
		return nil, err
	}

	rec.RequestedRef = ref
	rec.RefKind = string(res.RefKind)
	rec.Commit = res.Commit
	rec.Enabled = false
	rec.State = string(StateDisabled)
	if !wasEnabled {
		rec.State = prev.State
		if rec.State == string(StateEnabled) {
			rec.State = string(StateLoaded)
		}
	}
	if err := m.store.Save(rec); err != nil {
		m.rollback(ctx, prev, wasEnabled)
		return nil, err
	}

	if wasEnabled {
		if err := m.enableLocked(ctx, id, false); err != nil {
			// The new code failed to activate. Put the old commit back
			// rather than leaving a broken checkout persisted as current.
			m.rollback(ctx, prev, true)
			return nil, fmt.Errorf("activation at %s failed, rolled back to %s: %w", res.Commit, prev.Commit, err)
		}
	}

	saved, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}

	m.log.Info().
		Str("plugin", id).
		Str("ref", ref).
		Str("from", prev.Commit).
		Str("to", res.Commit).
		Msg("plugin ref switched")

	trust := registry.TrustUnregistered
	if snap != nil {
		trust = snap.TrustLevel(rec.URL)
	}
	return &Installed{Record: saved, Manifest: man, Trust: trust}, nil
}

// validateCheckout validates the manifest and API compatibility of what a
// sync left in the checkout.
func (m *Manager) validateCheckout(dir string) (*manifest.Manifest, error) {
	man, err := manifest.LoadAndValidate(dir)
	if err != nil {
		return nil, err
	}
	if !apiCompatible(m.hostAPI, man.API) {
		return nil, &VersionError{PluginID: man.ID, PluginAPI: man.API, HostAPI: m.hostAPI}
	}
	return man, nil
}

// rollback restores a checkout to its pre-switch commit and re-enables the
// plugin if it was enabled. Failures are logged, not returned; the original
// error is what the caller reports.
func (m *Manager) rollback(ctx context.Context, prev store.PluginRecord, wasEnabled bool) {
	if prev.Commit != "" {
		source := gitrepo.NewSource(prev.URL, prev.Commit)
		if _, err := m.resolver.Sync(ctx, source, m.paths.PluginDir(prev.ID), gitrepo.SyncOptions{AllowDirty: true}); err != nil {
			m.log.Error().Err(err).Str("plugin", prev.ID).Msg("rollback sync failed; checkout may not match record")
		}
	}
	if wasEnabled {
		// Restore the record first: the failed switch may have persisted the
		// new commit already. enableLocked re-reads and flips it to enabled.
		restore := prev
		restore.Enabled = false
		restore.State = string(StateDisabled)
		if err := m.store.Save(restore); err != nil {
			m.log.Error().Err(err).Str("plugin", prev.ID).Msg("rollback save failed")
		}
		if err := m.enableLocked(ctx, prev.ID, false); err != nil {
			m.log.Error().Err(err).Str("plugin", prev.ID).Msg("rollback re-enable failed")
		}
		return
	}
	if err := m.store.Save(prev); err != nil {
		m.log.Error().Err(err).Str("plugin", prev.ID).Msg("rollback save failed")
	}
}

// StartupScan reconciles persisted plugins against the current registry.
// Plugins whose repository or pinned ref became blacklisted since the last
// run are disabled unless the user overrode the blacklist earlier; plugins
// stuck in the error state are surfaced. Run this before enabling anything.
func (m *Manager) StartupScan(ctx context.Context) error {
	recs, err := m.store.List()
	if err != nil {
		return err
	}
	snap := m.snapshot(ctx)

	g, ctx := errgroup.WithContext(ctx)
	for _, rec := range recs {
		rec := rec
		g.Go(func() error {
			return m.scanOne(ctx, snap, rec)
		})
	}
	return g.Wait()
}

func (m *Manager) scanOne(ctx context.Context, snap *registry.Snapshot, rec store.PluginRecord) error {
	unlock := m.lock(rec.ID)
	defer unlock()

	// Re-read under the lock; another operation may have moved it.
	rec, err := m.store.Get(rec.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	if rec.State == string(StateError) {
		m.log.Warn().Str("plugin", rec.ID).Msg("plugin is in error state from a previous run")
	}

	if snap == nil || !rec.Enabled {
		return nil
	}

	perr := m.checkBlacklists(snap, rec.ID, rec)
	if perr == nil {
		return nil
	}
	if has, err := m.store.HasOverride(rec.ID); err != nil {
		return err
	} else if has {
		m.log.Warn().Str("plugin", rec.ID).Str("reason", perr.Reason).Msg("plugin is blacklisted but the user overrode it")
		return nil
	}

	ev := m.log.Warn().Str("plugin", rec.ID).Str("reason", perr.Reason)
	if perr.FixedIn != "" {
		ev = ev.Str("fixed_in", perr.FixedIn).Str("hint", "update to "+perr.FixedIn)
	}
	ev.Msg("plugin blacklisted since last run, disabling")

	return m.disableLocked(ctx, rec.ID)
}

// Discover scans the plugins directory for checkouts that are not in the
// store, typically copied in by hand. Discovered
// plugins are not persisted until installed or enabled through the manager.
func (m *Manager) Discover(ctx context.Context) ([]Installed, error) {
	entries, err := os.ReadDir(m.paths.Plugins)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading plugins directory: %w", err)
	}

	var found []Installed
	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		if _, err := m.store.Get(e.Name()); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}

		dir := filepath.Join(m.paths.Plugins, e.Name())
		man, err := manifest.LoadAndValidate(dir)
		if err != nil {
			m.log.Warn().Err(err).Str("dir", dir).Msg("skipping directory with invalid manifest")
			continue
		}

		found = append(found, Installed{
			Record: store.PluginRecord{
				ID:    man.ID,
				URL:   dir,
				State: string(StateDiscovered),
			},
			Manifest: man,
		})
		m.log.Info().Str("plugin", man.ID).Str("dir", dir).Msg("discovered unmanaged plugin checkout")
	}
	return found, nil
}

// List returns every installed plugin with its manifest and current trust.
// A missing or broken manifest does not hide the record.
func (m *Manager) List(ctx context.Context) ([]Installed, error) {
	recs, err := m.store.List()
	if err != nil {
		return nil, err
	}
	snap := m.snapshot(ctx)

	out := make([]Installed, 0, len(recs))
	for _, rec := range recs {
		out = append(out, m.describe(snap, rec))
	}
	return out, nil
}

// Info returns the full view of one installed plugin.
func (m *Manager) Info(ctx context.Context, id string) (*Installed, error) {
	rec, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	inst := m.describe(m.snapshot(ctx), rec)
	return &inst, nil
}

func (m *Manager) describe(snap *registry.Snapshot, rec store.PluginRecord) Installed {
	inst := Installed{Record: rec, Trust: registry.TrustUnregistered}
	if man, err := manifest.Load(m.paths.PluginDir(rec.ID)); err == nil {
		inst.Manifest = man
	}
	if snap != nil {
		inst.Trust = snap.TrustLevel(rec.URL)
	}
	return inst
}
