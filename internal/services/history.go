package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/assettrack/apiserver/internal/status"
	"github.com/assettrack/apiserver/internal/storage"
	"github.com/assettrack/apiserver/types"
)

const exportTimeLayout = "20060102T150405.000Z"

// Export names are a millisecond timestamp plus a random suffix. Two exports
// taken in the same instant get distinct keys.
var exportNamePattern = regexp.MustCompile(`^\d{8}T\d{6}\.\d{3}Z-[0-9a-f]{8}\.json$`)

// ExportStore is the object storage used for history exports.
// *storage.Storage satisfies it.
type ExportStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// HistoryService serves the full maintenance history of an asset and
// snapshots it to object storage on request.
type HistoryService struct {
	guard       *OwnershipGuard
	maintenance MaintenanceLister
	exports     ExportStore
	now         func() time.Time
	logger      *slog.Logger
}

// NewHistoryService builds the service. exports may be nil, in which case
// the export operations fail with ErrUnavailable.
func NewHistoryService(assets AssetGetter, maintenance MaintenanceLister, exports ExportStore, now func() time.Time, logger *slog.Logger) *HistoryService {
	if now == nil {
		now = time.Now
	}
	return &HistoryService{
		guard:       NewOwnershipGuard(assets),
		maintenance: maintenance,
		exports:     exports,
		now:         now,
		logger:      logger,
	}
}

func (s *HistoryService) Build(ctx context.Context, requesterID, assetID uuid.UUID) (types.AssetHistory, error) {
	asset, err := s.guard.OwnedAsset(ctx, requesterID, assetID)
	if err != nil {
		return types.AssetHistory{}, err
	}
	records, err := s.maintenance.ListByAsset(ctx, assetID)
	if err != nil {
		s.logger.Error("failed to load history", "asset_id", assetID, "error", err)
		return types.AssetHistory{}, storeFailure("list maintenance", err)
	}
	now := s.now()
	return types.AssetHistory{
		Asset:        asset,
		Maintenances: status.Views(records, now),
		GeneratedAt:  now,
	}, nil
}

// Export writes the current history as a JSON document.
func (s *HistoryService) Export(ctx context.Context, requesterID, assetID uuid.UUID) (types.HistoryExport, error) {
	if s.exports == nil {
		return types.HistoryExport{}, errExportsDisabled
	}
	history, err := s.Build(ctx, requesterID, assetID)
	if err != nil {
		return types.HistoryExport{}, err
	}

	data, err := json.Marshal(history)
	if err != nil {
		return types.HistoryExport{}, fmt.Errorf("encode history: %w", err)
	}

	createdAt := history.GeneratedAt.UTC()
	name := exportName(createdAt)
	key := path.Join(exportPrefix(history.Asset), name)
	if err := s.exports.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		s.logger.Error("failed to store history export", "asset_id", assetID, "key", key, "error", err)
		return types.HistoryExport{}, storeFailure("store export", err)
	}
	return types.HistoryExport{Key: key, Name: name, CreatedAt: createdAt}, nil
}

// ListExports returns the asset's exports, newest first.
func (s *HistoryService) ListExports(ctx context.Context, requesterID, assetID uuid.UUID) ([]types.HistoryExport, error) {
	if s.exports == nil {
		return nil, errExportsDisabled
	}
	asset, err := s.guard.OwnedAsset(ctx, requesterID, assetID)
	if err != nil {
		return nil, err
	}
	objects, err := s.exports.List(ctx, exportPrefix(asset)+"/")
	if err != nil {
		return nil, storeFailure("list exports", err)
	}

	exports := make([]types.HistoryExport, 0, len(objects))
	for _, object := range objects {
		name := path.Base(object.Key)
		if !exportNamePattern.MatchString(name) {
			continue
		}
		exports = append(exports, types.HistoryExport{Key: object.Key, Name: name, CreatedAt: object.LastModified})
	}
	sort.Slice(exports, func(i, j int) bool { return exports[i].Name > exports[j].Name })
	return exports, nil
}

// OpenExport streams a stored export back. The caller closes the reader.
func (s *HistoryService) OpenExport(ctx context.Context, requesterID, assetID uuid.UUID, name string) (io.ReadCloser, error) {
	if s.exports == nil {
		return nil, errExportsDisabled
	}
	if !exportNamePattern.MatchString(name) {
		return nil, &NotFoundError{Entity: "export"}
	}
	asset, err := s.guard.OwnedAsset(ctx, requesterID, assetID)
	if err != nil {
		return nil, err
	}
	reader, err := s.exports.Get(ctx, path.Join(exportPrefix(asset), name))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, &NotFoundError{Entity: "export"}
		}
		return nil, storeFailure("open export", err)
	}
	return reader, nil
}

func exportName(createdAt time.Time) string {
	return createdAt.Format(exportTimeLayout) + "-" + uuid.NewString()[:8] + ".json"
}

// purgeExports deletes every export stored for asset and reports how many
// were removed. Objects already gone count as removed.
func purgeExports(ctx context.Context, exports ExportStore, asset types.Asset) (int, error) {
	objects, err := exports.List(ctx, exportPrefix(asset)+"/")
	if err != nil {
		return 0, fmt.Errorf("list exports: %w", err)
	}
	removed := 0
	for _, object := range objects {
		if err := exports.Delete(ctx, object.Key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			return removed, fmt.Errorf("delete export %s: %w", object.Key, err)
		}
		removed++
	}
	return removed, nil
}

func exportPrefix(asset types.Asset) string {
	return path.Join("exports", asset.UserID.String(), asset.ID.String())
}

var errExportsDisabled = fmt.Errorf("history exports are not configured: %w", ErrUnavailable)
