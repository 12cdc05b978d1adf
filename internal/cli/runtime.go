package cli

import (
	"context"
	"time"

	"github.com/vireotag/vireo/internal/config"
	"github.com/vireotag/vireo/internal/extpoint"
	"github.com/vireotag/vireo/internal/gitrepo"
	"github.com/vireotag/vireo/internal/plugin"
	"github.com/vireotag/vireo/internal/registry"
	"github.com/vireotag/vireo/internal/store"
)

// runtime holds the wired plugin subsystem for one command invocation.
type runtime struct {
	cfg config.Config
	db  *store.DB
	mgr *plugin.Manager
}

// openRuntime loads config, opens the store and wires the plugin manager.
// Callers must Close it.
func openRuntime() (*runtime, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}

	db, err := store.Open(paths.Database(), log)
	if err != nil {
		return nil, err
	}

	client := registry.NewClient(registry.Options{
		URL:        cfg.Plugins.RegistryURL,
		CacheDir:   paths.Cache,
		TTL:        time.Duration(cfg.Plugins.RegistryTTLHours) * time.Hour,
		Timeout:    time.Duration(cfg.Network.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.Network.MaxRetries,
	}, log)

	mgr := plugin.NewManager(plugin.Options{
		Store:      store.NewPluginStore(db),
		Registry:   client,
		Resolver:   gitrepo.NewResolver(gitrepo.ExecRunner{}, log),
		Ext:        extpoint.NewRegistry(log),
		Paths:      paths,
		DefaultRef: cfg.Plugins.DefaultRef,
	}, log)

	return &runtime{cfg: cfg, db: db, mgr: mgr}, nil
}

func (r *runtime) Close() error {
	return r.db.Close()
}

// gitContext bounds clone/fetch work with the configured git timeout.
func (r *runtime) gitContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(r.cfg.Network.GitTimeoutSeconds) * time.Second
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
