package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/assettrack/apiserver/internal/store"
	"github.com/assettrack/apiserver/types"
)

// AssetRepository defines persistence operations for assets.
type AssetRepository interface {
	Create(ctx context.Context, asset types.Asset) (types.Asset, error)
	GetByID(ctx context.Context, id uuid.UUID) (types.Asset, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]types.Asset, error)
	Update(ctx context.Context, id uuid.UUID, patch types.AssetPatch) (types.Asset, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AssetService encapsulates asset use-cases. Every operation on an existing
// asset goes through the ownership guard first.
type AssetService struct {
	repo    AssetRepository
	guard   *OwnershipGuard
	exports ExportStore
	logger  *slog.Logger
}

// NewAssetService builds the service. exports may be nil when history
// exports are disabled.
func NewAssetService(repo AssetRepository, exports ExportStore, logger *slog.Logger) *AssetService {
	return &AssetService{
		repo:    repo,
		guard:   NewOwnershipGuard(repo),
		exports: exports,
		logger:  logger,
	}
}

func (s *AssetService) Create(ctx context.Context, ownerID uuid.UUID, input types.AssetInput) (types.Asset, error) {
	name, err := requiredText("name", "name", input.Name, maxShortText)
	if err != nil {
		return types.Asset{}, err
	}
	description, err := optionalText("description", "description", input.Description, 0)
	if err != nil {
		return types.Asset{}, err
	}

	asset, err := s.repo.Create(ctx, types.Asset{
		UserID:      ownerID,
		Name:        name,
		Description: description,
	})
	if err != nil {
		s.logger.Error("failed to create asset", "user_id", ownerID, "error", err)
		return types.Asset{}, storeFailure("create asset", err)
	}
	return asset, nil
}

// ListByOwner returns the owner's assets, newest first. It needs no guard:
// the owner is the requester.
func (s *AssetService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]types.Asset, error) {
	assets, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list assets", "user_id", ownerID, "error", err)
		return nil, storeFailure("list assets", err)
	}
	return assets, nil
}

func (s *AssetService) Get(ctx context.Context, requesterID, id uuid.UUID) (types.Asset, error) {
	return s.guard.OwnedAsset(ctx, requesterID, id)
}

// Update applies patch. An empty patch returns the current asset unchanged.
func (s *AssetService) Update(ctx context.Context, requesterID, id uuid.UUID, patch types.AssetPatch) (types.Asset, error) {
	patch, err := normalizeAssetPatch(patch)
	if err != nil {
		return types.Asset{}, err
	}

	current, err := s.guard.OwnedAsset(ctx, requesterID, id)
	if err != nil {
		return types.Asset{}, err
	}
	if patch.Empty() {
		return current, nil
	}

	asset, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Asset{}, &NotFoundError{Entity: "asset"}
		}
		s.logger.Error("failed to update asset", "asset_id", id, "error", err)
		return types.Asset{}, storeFailure("update asset", err)
	}
	return asset, nil
}

// Delete removes the asset. Its maintenance records go with it, and its
// history exports are removed best-effort afterwards.
func (s *AssetService) Delete(ctx context.Context, requesterID, id uuid.UUID) error {
	asset, err := s.guard.OwnedAsset(ctx, requesterID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Entity: "asset"}
		}
		s.logger.Error("failed to delete asset", "asset_id", id, "error", err)
		return storeFailure("delete asset", err)
	}

	if s.exports != nil {
		removed, err := purgeExports(ctx, s.exports, asset)
		if err != nil {
			s.logger.Warn("failed to remove asset exports", "asset_id", id, "removed", removed, "error", err)
		} else if removed > 0 {
			s.logger.Info("removed asset exports", "asset_id", id, "removed", removed)
		}
	}
	return nil
}

func normalizeAssetPatch(patch types.AssetPatch) (types.AssetPatch, error) {
	if patch.Name.Set {
		if patch.Name.Null {
			return patch, invalid("name", "name cannot be null")
		}
		name, err := requiredText("name", "name", patch.Name.Value, maxShortText)
		if err != nil {
			return patch, err
		}
		patch.Name = types.Some(name)
	}
	if patch.Description.Set && !patch.Description.Null {
		description, _ := optionalText("description", "description", &patch.Description.Value, 0)
		patch.Description = types.Some(*description)
	}
	return patch, nil
}
