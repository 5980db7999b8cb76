package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assettrack/apiserver/types"
)

func TestAuthorizeAsset(t *testing.T) {
	owner := uuid.New()
	asset := types.Asset{ID: uuid.New(), UserID: owner}

	assert.Equal(t, Allow, AuthorizeAsset(owner, asset))
	assert.Equal(t, Deny, AuthorizeAsset(uuid.New(), asset))
	assert.Equal(t, Deny, AuthorizeAsset(uuid.Nil, types.Asset{}))
}

func TestOwnershipGuard_AuthorizeMaintenance(t *testing.T) {
	ctx := context.Background()
	assets := newMemoryAssets()
	ana := uuid.New()
	forklift := assets.add(ana, "Forklift")
	guard := NewOwnershipGuard(assets)

	t.Run("owner is allowed", func(t *testing.T) {
		asset, err := guard.AuthorizeMaintenance(ctx, ana, forklift.ID)
		require.NoError(t, err)
		assert.Equal(t, forklift.ID, asset.ID)
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		_, err := guard.AuthorizeMaintenance(ctx, uuid.New(), forklift.ID)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing asset is not found", func(t *testing.T) {
		_, err := guard.AuthorizeMaintenance(ctx, ana, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrForbidden)
	})

	t.Run("store failure", func(t *testing.T) {
		assets.err = errBoom
		defer func() { assets.err = nil }()

		_, err := guard.AuthorizeMaintenance(ctx, ana, forklift.ID)
		assert.ErrorIs(t, err, ErrStoreFailure)
		assert.ErrorIs(t, err, errBoom)
	})
}

func TestErrorKinds(t *testing.T) {
	err := invalid("name", "name is required")
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "name", validation.Field)
	assert.ErrorIs(t, err, ErrValidation)

	assert.EqualError(t, &NotFoundError{Entity: "asset"}, "asset not found")
	assert.ErrorIs(t, &ForbiddenError{Entity: "asset"}, ErrForbidden)
	assert.ErrorIs(t, errEmailTaken, ErrConflict)
	assert.ErrorIs(t, errInvalidCredentials, ErrUnauthenticated)
	assert.ErrorIs(t, errExportsDisabled, ErrUnavailable)
}
