package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository/memory"
)

func newGuard(t *testing.T) *Guard {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Properties.Create(ctx, &models.Property{ID: "p1", OwnerID: "owner"}, []models.Unit{
		{ID: "u1", PropertyID: "p1", Status: models.UnitOccupied, TenantID: "t1"},
	}))
	require.NoError(t, store.Properties.Create(ctx, &models.Property{ID: "p2", OwnerID: "other"}, nil))
	require.NoError(t, store.Users.Create(ctx, &models.User{ID: "staff", Role: models.RoleStaff, OwnerID: "owner"}))
	return NewGuard(store.Users, store.Properties, store.Units)
}

func TestOwnedProperty(t *testing.T) {
	g := newGuard(t)
	ctx := context.Background()
	owner := models.Identity{UID: "owner", Role: models.RoleOwner}

	p, err := g.OwnedProperty(ctx, owner, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	_, err = g.OwnedProperty(ctx, owner, "p2")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = g.OwnedProperty(ctx, owner, "missing")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	forged := models.Identity{UID: "system", Role: "system"}
	_, err = g.OwnedProperty(ctx, forged, "p2")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = g.ManagedProperty(ctx, forged, "p1")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestManagedPropertyAllowsEmployedStaff(t *testing.T) {
	g := newGuard(t)
	ctx := context.Background()
	staff := models.Identity{UID: "staff", Role: models.RoleStaff}

	_, err := g.ManagedProperty(ctx, staff, "p1")
	assert.NoError(t, err)

	_, err = g.ManagedProperty(ctx, staff, "p2")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = g.OwnedProperty(ctx, staff, "p1")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUnitViewer(t *testing.T) {
	g := newGuard(t)
	ctx := context.Background()

	_, err := g.UnitViewer(ctx, models.Identity{UID: "t1", Role: models.RoleTenant}, "u1")
	assert.NoError(t, err)

	_, err = g.UnitViewer(ctx, models.Identity{UID: "t2", Role: models.RoleTenant}, "u1")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = g.UnitViewer(ctx, models.Identity{UID: "owner"}, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUnitInProperty(t *testing.T) {
	g := newGuard(t)

	_, err := g.UnitInProperty(context.Background(), "p2", "u1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
