package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"wolfquant/internal/gateway"
	"wolfquant/internal/logger"
	"wolfquant/internal/models"
	"wolfquant/internal/session"
)

// GroupStore owns the asset group collection.
type GroupStore struct {
	mu       sync.Mutex
	gw       gateway.Gateway
	sessions *session.Manager
	log      *zap.SugaredLogger

	groups  []models.Group
	loading bool
	lastErr error
}

// NewGroupStore creates an empty group store.
func NewGroupStore(gw gateway.Gateway, sessions *session.Manager) *GroupStore {
	return &GroupStore{gw: gw, sessions: sessions, log: logger.Get()}
}

// LoadGroups fetches the user's groups, optionally filtered by asset type.
// The fetched slice replaces exactly the filter-matching region of the
// collection.
func (s *GroupStore) LoadGroups(ctx context.Context, assetTypeID *uint) ([]models.Group, error) {
	userID, err := s.sessions.UserID()
	if err != nil {
		return nil, err
	}
	s.begin()

	req := &gateway.GetUserGroupsRequest{UserID: userID, AssetTypeID: assetTypeID}
	var fetched []models.Group
	err = s.gw.Invoke(ctx, gateway.CmdGetUserGroups, req, &fetched)
	s.finish(err)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	kept := s.groups[:0:0]
	for _, g := range s.groups {
		if assetTypeID != nil && g.AssetTypeID != *assetTypeID {
			kept = append(kept, g)
		}
	}
	s.groups = append(kept, fetched...)
	s.mu.Unlock()
	return fetched, nil
}

// CreateGroup creates a group and appends the backend's record.
func (s *GroupStore) CreateGroup(ctx context.Context, assetTypeID uint, name string, description *string) (*models.Group, error) {
	userID, err := s.sessions.UserID()
	if err != nil {
		return nil, err
	}
	s.begin()

	req := &gateway.CreateGroupRequest{
		UserID:      userID,
		Name:        name,
		AssetTypeID: assetTypeID,
		Description: description,
	}
	var group models.Group
	err = s.gw.Invoke(ctx, gateway.CmdCreateGroup, req, &group)
	s.finish(err)
	if err != nil {
		return nil, err
	}

	s.apply(group)
	return &group, nil
}

// UpdateGroup updates a group and applies the backend's record by identity
// match, appending when absent.
func (s *GroupStore) UpdateGroup(ctx context.Context, id uint, name string, description *string) (*models.Group, error) {
	userID, err := s.sessions.UserID()
	if err != nil {
		return nil, err
	}
	s.begin()

	req := &gateway.UpdateGroupRequest{ID: id, UserID: userID, Name: name, Description: description}
	var group models.Group
	err = s.gw.Invoke(ctx, gateway.CmdUpdateGroup, req, &group)
	s.finish(err)
	if err != nil {
		return nil, err
	}

	s.apply(group)
	return &group, nil
}

// DeleteGroup deletes a group and drops it locally. Member assets survive
// remotely with their group detached; callers reload the asset store to
// observe that.
func (s *GroupStore) DeleteGroup(ctx context.Context, id uint) error {
	userID, err := s.sessions.UserID()
	if err != nil {
		return err
	}
	s.begin()

	req := &gateway.DeleteGroupRequest{ID: id, UserID: userID}
	err = s.gw.Invoke(ctx, gateway.CmdDeleteGroup, req, nil)
	s.finish(err)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.groups {
		if s.groups[i].ID == id {
			s.groups = append(s.groups[:i], s.groups[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// Groups returns a copy of the current collection.
func (s *GroupStore) Groups() []models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Group, len(s.groups))
	copy(out, s.groups)
	return out
}

// Loading reports whether an operation is in flight.
func (s *GroupStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error recorded by the most recent operation.
func (s *GroupStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Reset drops all local state.
func (s *GroupStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups = nil
	s.loading = false
	s.lastErr = nil
}

func (s *GroupStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *GroupStore) finish(err error) {
	s.mu.Lock()
	s.loading = false
	s.lastErr = err
	s.mu.Unlock()
}

func (s *GroupStore) apply(group models.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.groups {
		if s.groups[i].ID == group.ID {
			s.groups[i] = group
			return
		}
	}
	s.groups = append(s.groups, group)
}
