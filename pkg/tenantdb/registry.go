// Package tenantdb routes database access to the correct per-tenant
// Postgres database. A Registry caches one connection pool per database
// name for the life of the process; Sessions hands request handlers a
// scoped connection against the database of the tenant resolved for the
// current request.
package tenantdb

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/pg"
)

// DatabaseName derives the physical database name for a tenant slug:
// "iglesia-central" becomes "ekk_iglesia_central". Deterministic so
// provisioning and routing always agree.
func DatabaseName(slug string) string {
	return "ekk_" + strings.ReplaceAll(slug, "-", "_")
}

// DSN substitutes dbName into baseURL, replacing the database segment of
// the connection string. Works for both the postgres:// and postgresql://
// schemes, with or without an existing database path.
func DSN(baseURL, dbName string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		// Not URL-shaped; leave routing to fail at connect time with the
		// real parse error instead of guessing here.
		return baseURL
	}
	u.Path = "/" + dbName
	return u.String()
}

type registryEntry struct {
	once sync.Once
	pool *pgxpool.Pool
	err  error
}

// Registry is a process-wide cache of connection pools keyed by database
// name. It is an explicit dependency passed to whatever needs tenant
// database access, never a package-level singleton. Pools are built at
// most once per key: concurrent first requests for the same tenant share
// a single construction through a per-key sync.Once. Entries are never
// evicted; Close shuts every pool down at process exit.
type Registry struct {
	cfg pg.Config

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewRegistry creates a registry deriving per-tenant connection strings
// from cfg.MasterURL and reusing its pool settings.
func NewRegistry(cfg pg.Config) *Registry {
	return &Registry{
		cfg:     cfg,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the pool for dbName, constructing it on first use. A failed
// construction is not cached: the next request retries, since the common
// cause is a database that was still being provisioned.
func (r *Registry) Get(ctx context.Context, dbName string) (*pgxpool.Pool, error) {
	r.mu.Lock()
	e, ok := r.entries[dbName]
	if !ok {
		e = &registryEntry{}
		r.entries[dbName] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		// The pool outlives the request that triggered its construction,
		// so a cancelled request must not abort it for everyone else.
		e.pool, e.err = pg.Connect(context.WithoutCancel(ctx), r.cfg.PoolConfig(DSN(r.cfg.MasterURL, dbName)))
	})

	if e.err != nil {
		r.mu.Lock()
		// Drop the failed entry so a later request can retry.
		if r.entries[dbName] == e {
			delete(r.entries, dbName)
		}
		r.mu.Unlock()
		return nil, e.err
	}
	return e.pool, nil
}

// Evict closes and removes the pool for dbName, if cached. Provisioning
// rollback uses it so the database can be dropped without live
// connections holding it open.
func (r *Registry) Evict(dbName string) {
	r.mu.Lock()
	e, ok := r.entries[dbName]
	if ok {
		delete(r.entries, dbName)
	}
	r.mu.Unlock()

	if ok && e.pool != nil {
		e.pool.Close()
	}
}

// Close shuts down every cached pool. Safe to call once during shutdown;
// Get must not be called afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, e := range entries {
		if e.pool != nil {
			e.pool.Close()
		}
	}
}

// Len reports the number of cached pools. Used by the control-plane stats
// endpoint and tests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
