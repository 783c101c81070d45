package superadmin

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenant"
)

type fakeStore struct {
	insertErr error
	inserted  bool
	deleted   bool
}

func (f *fakeStore) InsertTenant(_ context.Context, t *tenant.Tenant) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = true
	t.ID = uuid.New()
	return nil
}

func (f *fakeStore) DeleteTenant(context.Context, uuid.UUID) error {
	f.deleted = true
	return nil
}

type fakeDBM struct {
	createErr error
	applyErr  error
	calls     []string
}

func (f *fakeDBM) Create(_ context.Context, _ string) error {
	f.calls = append(f.calls, "create")
	return f.createErr
}

func (f *fakeDBM) ApplySchema(_ context.Context, _ string) error {
	f.calls = append(f.calls, "apply")
	return f.applyErr
}

func (f *fakeDBM) Drop(_ context.Context, _ string) error {
	f.calls = append(f.calls, "drop")
	return nil
}

func newTestProvisioner(store *fakeStore, dbm *fakeDBM) *Provisioner {
	return NewProvisioner(store, dbm, slog.New(slog.DiscardHandler))
}

func TestProvisioner_Provision(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		store := &fakeStore{}
		dbm := &fakeDBM{}
		p := newTestProvisioner(store, dbm)

		tn := &tenant.Tenant{Slug: "iglesia-central", Name: "Iglesia Central"}
		require.NoError(t, p.Provision(context.Background(), tn))

		assert.Equal(t, "ekk_iglesia_central", tn.DBName)
		assert.NotEqual(t, uuid.Nil, tn.ID)
		assert.Equal(t, []string{"create", "apply"}, dbm.calls)
		assert.False(t, store.deleted)
	})

	t.Run("invalid slug stops before any side effect", func(t *testing.T) {
		store := &fakeStore{}
		dbm := &fakeDBM{}
		p := newTestProvisioner(store, dbm)

		err := p.Provision(context.Background(), &tenant.Tenant{Slug: "Iglesia Central!"})
		require.ErrorIs(t, err, ErrInvalidSlug)
		assert.NotErrorIs(t, err, ErrProvisioningFailed)
		assert.False(t, store.inserted)
		assert.Empty(t, dbm.calls)
	})

	t.Run("duplicate slug surfaces as conflict", func(t *testing.T) {
		store := &fakeStore{insertErr: ErrSlugTaken}
		dbm := &fakeDBM{}
		p := newTestProvisioner(store, dbm)

		err := p.Provision(context.Background(), &tenant.Tenant{Slug: "iglesia-central"})
		require.ErrorIs(t, err, ErrSlugTaken)
		assert.NotErrorIs(t, err, ErrProvisioningFailed)
		assert.Empty(t, dbm.calls)
		assert.False(t, store.deleted)
	})

	t.Run("create database failure deletes the record", func(t *testing.T) {
		store := &fakeStore{}
		dbm := &fakeDBM{createErr: errors.New("permission denied")}
		p := newTestProvisioner(store, dbm)

		err := p.Provision(context.Background(), &tenant.Tenant{Slug: "iglesia-central"})
		require.ErrorIs(t, err, ErrProvisioningFailed)
		assert.Equal(t, []string{"create"}, dbm.calls)
		assert.True(t, store.deleted)
	})

	t.Run("schema failure drops database and record", func(t *testing.T) {
		store := &fakeStore{}
		dbm := &fakeDBM{applyErr: errors.New("migration failed")}
		p := newTestProvisioner(store, dbm)

		err := p.Provision(context.Background(), &tenant.Tenant{Slug: "iglesia-central"})
		require.ErrorIs(t, err, ErrProvisioningFailed)
		assert.Equal(t, []string{"create", "apply", "drop"}, dbm.calls)
		assert.True(t, store.deleted)
	})
}
