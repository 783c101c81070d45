package superadmin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/logger"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/pg"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/slug"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/statemachine"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenant"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenantdb"
)

// Provisioning saga states. Each state names the last step that completed,
// so the compensation path knows exactly what to undo.
const (
	StateRequested       statemachine.State = "requested"
	StateSlugValidated   statemachine.State = "slug_validated"
	StateRecordInserted  statemachine.State = "record_inserted"
	StateDatabaseCreated statemachine.State = "database_created"
	StateSchemaApplied   statemachine.State = "schema_applied"
	StateCommitted       statemachine.State = "committed"
	StateRolledBack      statemachine.State = "rolled_back"
)

const (
	eventValidate    statemachine.Event = "validate_slug"
	eventInsert      statemachine.Event = "insert_record"
	eventCreateDB    statemachine.Event = "create_database"
	eventApplySchema statemachine.Event = "apply_schema"
	eventCommit      statemachine.Event = "commit"
	eventRollback    statemachine.Event = "rollback"
)

// tenantStore is the slice of the control-plane repository the saga needs.
type tenantStore interface {
	InsertTenant(ctx context.Context, t *tenant.Tenant) error
	DeleteTenant(ctx context.Context, id uuid.UUID) error
}

// databaseManager creates and destroys physical tenant databases.
type databaseManager interface {
	Create(ctx context.Context, dbName string) error
	ApplySchema(ctx context.Context, dbName string) error
	Drop(ctx context.Context, dbName string) error
}

// pgDatabaseManager runs DDL on the master pool and migrations through the
// shared registry.
type pgDatabaseManager struct {
	master     *pgxpool.Pool
	registry   *tenantdb.Registry
	migrations fs.FS
	log        *slog.Logger
}

// NewDatabaseManager wires the Postgres-backed database manager used in
// production.
func NewDatabaseManager(master *pgxpool.Pool, registry *tenantdb.Registry, migrations fs.FS, log *slog.Logger) *pgDatabaseManager {
	return &pgDatabaseManager{master: master, registry: registry, migrations: migrations, log: log}
}

// Create runs CREATE DATABASE on the master pool. DDL of this kind cannot
// run inside a transaction, and the database name is not parameterizable,
// so it is quoted through pgx.Identifier after the slug pattern check
// upstream.
func (m *pgDatabaseManager) Create(ctx context.Context, dbName string) error {
	stmt := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{dbName}.Sanitize())
	if _, err := m.master.Exec(ctx, stmt); err != nil {
		if isDuplicateDatabase(err) {
			return fmt.Errorf("%w: database %s already exists", ErrSlugTaken, dbName)
		}
		return fmt.Errorf("create database %s: %w", dbName, err)
	}
	return nil
}

func (m *pgDatabaseManager) ApplySchema(ctx context.Context, dbName string) error {
	pool, err := m.registry.Get(ctx, dbName)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", dbName, err)
	}
	if err := pg.Migrate(ctx, pool, m.migrations, m.log); err != nil {
		return fmt.Errorf("apply schema to %s: %w", dbName, err)
	}
	return nil
}

func (m *pgDatabaseManager) Drop(ctx context.Context, dbName string) error {
	// The registry may already hold a pool against the database; close it
	// first or the drop blocks on its connections.
	m.registry.Evict(dbName)

	stmt := fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", pgx.Identifier{dbName}.Sanitize())
	if _, err := m.master.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("drop database %s: %w", dbName, err)
	}
	return nil
}

// isDuplicateDatabase reports the Postgres duplicate_database condition,
// raised when CREATE DATABASE hits an existing name.
func isDuplicateDatabase(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "42P04"
}

// Provisioner creates the resources behind a tenant: the control-plane row,
// the dedicated database and its schema. Every run is a fresh saga; a step
// failure triggers compensation in reverse order, so a failed run leaves
// neither an orphan row nor an orphan database behind.
type Provisioner struct {
	store tenantStore
	dbm   databaseManager
	log   *slog.Logger
}

func NewProvisioner(store tenantStore, dbm databaseManager, log *slog.Logger) *Provisioner {
	return &Provisioner{
		store: store,
		dbm:   dbm,
		log:   log.With(logger.Component("provisioner")),
	}
}

// saga is the mutable working set threaded through the state machine as
// the transition data.
type saga struct {
	tenant *tenant.Tenant
}

func (p *Provisioner) newMachine() *statemachine.Machine {
	m := statemachine.New(StateRequested)
	for _, t := range []statemachine.Transition{
		{From: StateRequested, To: StateSlugValidated, Event: eventValidate, Actions: []statemachine.Action{p.validateSlug}},
		{From: StateSlugValidated, To: StateRecordInserted, Event: eventInsert, Actions: []statemachine.Action{p.insertRecord}},
		{From: StateRecordInserted, To: StateDatabaseCreated, Event: eventCreateDB, Actions: []statemachine.Action{p.createDatabase}},
		{From: StateDatabaseCreated, To: StateSchemaApplied, Event: eventApplySchema, Actions: []statemachine.Action{p.applySchema}},
		{From: StateSchemaApplied, To: StateCommitted, Event: eventCommit},

		{From: StateSlugValidated, To: StateRolledBack, Event: eventRollback},
		{From: StateRecordInserted, To: StateRolledBack, Event: eventRollback, Actions: []statemachine.Action{p.deleteRecord}},
		{From: StateDatabaseCreated, To: StateRolledBack, Event: eventRollback, Actions: []statemachine.Action{p.dropDatabase, p.deleteRecord}},
		{From: StateSchemaApplied, To: StateRolledBack, Event: eventRollback, Actions: []statemachine.Action{p.dropDatabase, p.deleteRecord}},
	} {
		if err := m.AddTransition(t); err != nil {
			panic(err) // static transition table, an error here is a programming bug
		}
	}
	return m
}

// Provision runs the full saga for t. On success t carries the generated
// ID and timestamps. On failure the returned error wraps
// ErrProvisioningFailed unless the slug itself was rejected.
func (p *Provisioner) Provision(ctx context.Context, t *tenant.Tenant) error {
	t.DBName = tenantdb.DatabaseName(t.Slug)
	s := &saga{tenant: t}
	m := p.newMachine()

	log := p.log.With(slog.String("slug", t.Slug), slog.String("db_name", t.DBName))
	log.InfoContext(ctx, "provisioning tenant")

	for _, ev := range []statemachine.Event{eventValidate, eventInsert, eventCreateDB, eventApplySchema, eventCommit} {
		if err := m.Fire(ctx, ev, s); err != nil {
			failed := m.Current()
			log.ErrorContext(ctx, "provisioning step failed",
				slog.String("state", string(failed)), logger.Error(err))

			// Compensation runs with a fresh context so a cancelled request
			// cannot strand half-provisioned resources.
			rbCtx := context.WithoutCancel(ctx)
			if rbErr := m.Fire(rbCtx, eventRollback, s); rbErr != nil {
				var noTransition *statemachine.NoTransitionError
				if !errors.As(rbErr, &noTransition) {
					log.ErrorContext(rbCtx, "provisioning rollback failed", logger.Error(rbErr))
					err = errors.Join(err, rbErr)
				}
			} else {
				log.InfoContext(rbCtx, "provisioning rolled back",
					slog.String("from_state", string(failed)))
			}

			if errors.Is(err, ErrInvalidSlug) || errors.Is(err, ErrSlugTaken) {
				return err
			}
			return errors.Join(ErrProvisioningFailed, err)
		}
	}

	log.InfoContext(ctx, "tenant provisioned", slog.String("tenant_id", t.ID.String()))
	return nil
}

func (p *Provisioner) validateSlug(_ context.Context, _, _ statemachine.State, data any) error {
	s := data.(*saga)
	if err := slug.Validate(s.tenant.Slug); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSlug, err)
	}
	return nil
}

func (p *Provisioner) insertRecord(ctx context.Context, _, _ statemachine.State, data any) error {
	s := data.(*saga)
	return p.store.InsertTenant(ctx, s.tenant)
}

func (p *Provisioner) createDatabase(ctx context.Context, _, _ statemachine.State, data any) error {
	s := data.(*saga)
	return p.dbm.Create(ctx, s.tenant.DBName)
}

func (p *Provisioner) applySchema(ctx context.Context, _, _ statemachine.State, data any) error {
	s := data.(*saga)
	return p.dbm.ApplySchema(ctx, s.tenant.DBName)
}

func (p *Provisioner) deleteRecord(ctx context.Context, _, _ statemachine.State, data any) error {
	s := data.(*saga)
	if s.tenant.ID == uuid.Nil {
		return nil
	}
	return p.store.DeleteTenant(ctx, s.tenant.ID)
}

func (p *Provisioner) dropDatabase(ctx context.Context, _, _ statemachine.State, data any) error {
	s := data.(*saga)
	return p.dbm.Drop(ctx, s.tenant.DBName)
}
