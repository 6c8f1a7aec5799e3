// Package store holds the shell's per-kind entity stores. Each store owns
// one ordered collection of records, issues exactly one gateway command per
// operation, and applies the returned value to its collection only after
// the command succeeds. Stores push position-relevant changes into the
// shared position book; nothing else writes the merged projection.
package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"wolfquant/internal/gateway"
	"wolfquant/internal/logger"
	"wolfquant/internal/models"
	"wolfquant/internal/position"
	"wolfquant/internal/session"
)

// AssetStore owns the asset collection and the asset type list.
type AssetStore struct {
	mu       sync.Mutex
	gw       gateway.Gateway
	sessions *session.Manager
	book     *position.Book
	log      *zap.SugaredLogger

	assetTypes []models.AssetType
	assets     []models.Asset
	loading    bool
	lastErr    error
}

// NewAssetStore creates an empty asset store.
func NewAssetStore(gw gateway.Gateway, sessions *session.Manager, book *position.Book) *AssetStore {
	return &AssetStore{gw: gw, sessions: sessions, book: book, log: logger.Get()}
}

// LoadAssetTypes fetches the backend-defined asset types.
func (s *AssetStore) LoadAssetTypes(ctx context.Context) ([]models.AssetType, error) {
	s.begin()

	var types []models.AssetType
	err := s.gw.Invoke(ctx, gateway.CmdGetAssetTypes, nil, &types)
	s.finish(err)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.assetTypes = types
	s.mu.Unlock()
	return s.AssetTypes(), nil
}

// LoadAssets fetches the user's assets, optionally filtered by type and
// group. The fetched slice replaces exactly the filter-matching region of
// the collection; assets outside the filter are kept.
func (s *AssetStore) LoadAssets(ctx context.Context, assetTypeID, groupID *uint) ([]models.Asset, error) {
	userID, err := s.sessions.UserID()
	if err != nil {
		return nil, err
	}
	s.begin()

	req := &gateway.GetUserAssetsRequest{UserID: userID, AssetTypeID: assetTypeID, GroupID: groupID}
	var fetched []models.Asset
	err = s.gw.Invoke(ctx, gateway.CmdGetUserAssets, req, &fetched)
	s.finish(err)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	kept := s.assets[:0:0]
	for _, a := range s.assets {
		if !assetMatchesFilter(&a, assetTypeID, groupID) {
			kept = append(kept, a)
		}
	}
	s.assets = append(kept, fetched...)
	s.mu.Unlock()

	for i := range fetched {
		s.reconcile(&fetched[i])
	}
	return fetched, nil
}

// CreateAsset creates an asset and appends the backend's record.
func (s *AssetStore) CreateAsset(ctx context.Context, assetTypeID uint, groupID *uint, code, name string, currentPrice, positionAmount, positionCost *float64) (*models.Asset, error) {
	userID, err := s.sessions.UserID()
	if err != nil {
		return nil, err
	}
	s.begin()

	req := &gateway.CreateAssetRequest{
		UserID:         userID,
		GroupID:        groupID,
		AssetTypeID:    assetTypeID,
		Code:           code,
		Name:           name,
		CurrentPrice:   currentPrice,
		PositionAmount: positionAmount,
		PositionCost:   positionCost,
	}
	var asset models.Asset
	err = s.gw.Invoke(ctx, gateway.CmdCreateAsset, req, &asset)
	s.finish(err)
	if err != nil {
		return nil, err
	}

	s.apply(asset)
	s.reconcile(&asset)
	return &asset, nil
}

// UpdateAsset updates an asset and applies the backend's record by
// identity match, appending when the id is not yet present locally.
func (s *AssetStore) UpdateAsset(ctx context.Context, id uint, name string, groupID *uint, currentPrice, positionAmount, positionCost *float64) (*models.Asset, error) {
	userID, err := s.sessions.UserID()
	if err != nil {
		return nil, err
	}
	s.begin()

	req := &gateway.UpdateAssetRequest{
		ID:             id,
		UserID:         userID,
		GroupID:        groupID,
		Name:           name,
		CurrentPrice:   currentPrice,
		PositionAmount: positionAmount,
		PositionCost:   positionCost,
	}
	var asset models.Asset
	err = s.gw.Invoke(ctx, gateway.CmdUpdateAsset, req, &asset)
	s.finish(err)
	if err != nil {
		return nil, err
	}

	s.apply(asset)
	s.reconcile(&asset)
	return &asset, nil
}

// DeleteAsset deletes an asset, drops it locally, and removes its position
// entry. The backend cascades to the asset's plans, so the whole entry
// goes, schedule included.
func (s *AssetStore) DeleteAsset(ctx context.Context, id uint) error {
	userID, err := s.sessions.UserID()
	if err != nil {
		return err
	}
	s.begin()

	req := &gateway.DeleteAssetRequest{ID: id, UserID: userID}
	err = s.gw.Invoke(ctx, gateway.CmdDeleteAsset, req, nil)
	s.finish(err)
	if err != nil {
		return err
	}

	s.mu.Lock()
	var code string
	for i := range s.assets {
		if s.assets[i].ID == id {
			code = s.assets[i].Code
			s.assets = append(s.assets[:i], s.assets[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if code != "" {
		s.book.Remove(code)
	}
	return nil
}

// Assets returns a copy of the current collection.
func (s *AssetStore) Assets() []models.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Asset, len(s.assets))
	copy(out, s.assets)
	return out
}

// AssetTypes returns a copy of the loaded asset types.
func (s *AssetStore) AssetTypes() []models.AssetType {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.AssetType, len(s.assetTypes))
	copy(out, s.assetTypes)
	return out
}

// Get returns the asset with the given id, if loaded.
func (s *AssetStore) Get(id uint) (models.Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.assets {
		if s.assets[i].ID == id {
			return s.assets[i], true
		}
	}
	return models.Asset{}, false
}

// Loading reports whether an operation is in flight.
func (s *AssetStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error recorded by the most recent operation, nil after a
// success.
func (s *AssetStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Reset drops all local state. Used when the session ends.
func (s *AssetStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assetTypes = nil
	s.assets = nil
	s.loading = false
	s.lastErr = nil
}

func (s *AssetStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *AssetStore) finish(err error) {
	s.mu.Lock()
	s.loading = false
	s.lastErr = err
	s.mu.Unlock()
}

func (s *AssetStore) apply(asset models.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.assets {
		if s.assets[i].ID == asset.ID {
			s.assets[i] = asset
			return
		}
	}
	s.assets = append(s.assets, asset)
}

// reconcile pushes the asset-owned fields into the position book. Assets
// without holding data leave the book untouched.
func (s *AssetStore) reconcile(asset *models.Asset) {
	if asset.HasPosition() {
		s.book.SetHolding(asset.Code, *asset.PositionCost, *asset.PositionAmount)
	}
}

func assetMatchesFilter(a *models.Asset, assetTypeID, groupID *uint) bool {
	if assetTypeID != nil && a.AssetTypeID != *assetTypeID {
		return false
	}
	if groupID != nil && (a.GroupID == nil || *a.GroupID != *groupID) {
		return false
	}
	return true
}
