package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/assettrack/apiserver/internal/store"
	"github.com/assettrack/apiserver/types"
)

// Decision is the outcome of an ownership check.
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

// AuthorizeAsset allows only the asset's owner.
func AuthorizeAsset(requesterID uuid.UUID, asset types.Asset) Decision {
	if requesterID != uuid.Nil && asset.UserID == requesterID {
		return Allow
	}
	return Deny
}

// AssetGetter is the slice of the asset store the guard reads from.
type AssetGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (types.Asset, error)
}

// OwnershipGuard binds a requester to assets and, through them, to
// maintenance records. Maintenance records carry no owner of their own.
type OwnershipGuard struct {
	assets AssetGetter
}

func NewOwnershipGuard(assets AssetGetter) *OwnershipGuard {
	return &OwnershipGuard{assets: assets}
}

// AuthorizeMaintenance loads the asset and checks that requesterID owns it.
// It returns the asset on ALLOW, a NotFound error when the asset does not
// exist and a Forbidden error on DENY.
func (g *OwnershipGuard) AuthorizeMaintenance(ctx context.Context, requesterID, assetID uuid.UUID) (types.Asset, error) {
	return g.ownedAsset(ctx, requesterID, assetID, "maintenance records of this asset")
}

// OwnedAsset is AuthorizeMaintenance for operations on the asset itself.
func (g *OwnershipGuard) OwnedAsset(ctx context.Context, requesterID, assetID uuid.UUID) (types.Asset, error) {
	return g.ownedAsset(ctx, requesterID, assetID, "asset")
}

func (g *OwnershipGuard) ownedAsset(ctx context.Context, requesterID, assetID uuid.UUID, entity string) (types.Asset, error) {
	asset, err := g.assets.GetByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Asset{}, &NotFoundError{Entity: "asset"}
		}
		return types.Asset{}, storeFailure("load asset", err)
	}
	if AuthorizeAsset(requesterID, asset) == Deny {
		return types.Asset{}, &ForbiddenError{Entity: entity}
	}
	return asset, nil
}
