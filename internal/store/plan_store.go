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

// PlanStore owns the investment plan collection. It is the only writer of
// the schedule fields in the position book.
type PlanStore struct {
	mu       sync.Mutex
	gw       gateway.Gateway
	sessions *session.Manager
	book     *position.Book
	log      *zap.SugaredLogger

	plans   []models.InvestmentPlan
	loading bool
	lastErr error
}

// NewPlanStore creates an empty plan store.
func NewPlanStore(gw gateway.Gateway, sessions *session.Manager, book *position.Book) *PlanStore {
	return &PlanStore{gw: gw, sessions: sessions, book: book, log: logger.Get()}
}

// LoadPlans fetches the user's plans, optionally restricted to one asset.
// Active plans in the result have their schedules pushed into the position
// book so a fresh shell converges without replaying mutations.
func (s *PlanStore) LoadPlans(ctx context.Context, assetID *uint) ([]models.InvestmentPlan, error) {
	userID, err := s.sessions.UserID()
	if err != nil {
		return nil, err
	}
	s.begin()

	req := &gateway.GetUserPlansRequest{UserID: userID, AssetID: assetID}
	var fetched []models.InvestmentPlan
	err = s.gw.Invoke(ctx, gateway.CmdGetUserPlans, req, &fetched)
	s.finish(err)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	kept := s.plans[:0:0]
	for _, p := range s.plans {
		if assetID != nil && *assetID != 0 && p.AssetID != *assetID {
			kept = append(kept, p)
		}
	}
	s.plans = append(kept, fetched...)
	s.mu.Unlock()

	for i := range fetched {
		s.reconcile(&fetched[i])
	}
	return fetched, nil
}

// CreatePlan creates a plan for an asset. New plans start active, so the
// asset's position gains schedule fields immediately.
func (s *PlanStore) CreatePlan(ctx context.Context, assetID uint, name string, frequency models.Frequency, dayOfWeek, dayOfMonth *int, amount float64) (*models.InvestmentPlan, error) {
	userID, err := s.sessions.UserID()
	if err != nil {
		return nil, err
	}
	s.begin()

	req := &gateway.CreatePlanRequest{
		UserID:     userID,
		AssetID:    assetID,
		Name:       name,
		Frequency:  string(frequency),
		DayOfWeek:  dayOfWeek,
		DayOfMonth: dayOfMonth,
		Amount:     amount,
	}
	var plan models.InvestmentPlan
	err = s.gw.Invoke(ctx, gateway.CmdCreatePlan, req, &plan)
	s.finish(err)
	if err != nil {
		return nil, err
	}

	s.apply(plan)
	s.reconcile(&plan)
	return &plan, nil
}

// UpdatePlan rewrites a plan. Deactivating a plan clears the schedule
// fields from its asset's position; the holding fields survive.
func (s *PlanStore) UpdatePlan(ctx context.Context, id, assetID uint, name string, frequency models.Frequency, dayOfWeek, dayOfMonth *int, amount float64, isActive bool) (*models.InvestmentPlan, error) {
	userID, err := s.sessions.UserID()
	if err != nil {
		return nil, err
	}
	s.begin()

	req := &gateway.UpdatePlanRequest{
		ID:         id,
		UserID:     userID,
		AssetID:    assetID,
		Name:       name,
		Frequency:  string(frequency),
		DayOfWeek:  dayOfWeek,
		DayOfMonth: dayOfMonth,
		Amount:     amount,
		IsActive:   isActive,
	}
	var plan models.InvestmentPlan
	err = s.gw.Invoke(ctx, gateway.CmdUpdatePlan, req, &plan)
	s.finish(err)
	if err != nil {
		return nil, err
	}

	s.apply(plan)
	s.reconcile(&plan)
	return &plan, nil
}

// DeletePlan deletes a plan and clears its schedule from the position
// book. The asset and its holding fields are untouched.
func (s *PlanStore) DeletePlan(ctx context.Context, id uint) error {
	userID, err := s.sessions.UserID()
	if err != nil {
		return err
	}

	// Capture the asset code before the record disappears locally.
	s.mu.Lock()
	var code string
	for i := range s.plans {
		if s.plans[i].ID == id {
			code = s.plans[i].AssetCode
			break
		}
	}
	s.mu.Unlock()

	s.begin()
	req := &gateway.DeletePlanRequest{ID: id, UserID: userID}
	err = s.gw.Invoke(ctx, gateway.CmdDeletePlan, req, nil)
	s.finish(err)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.plans {
		if s.plans[i].ID == id {
			s.plans = append(s.plans[:i], s.plans[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if code != "" {
		s.book.ClearSchedule(code)
	}
	return nil
}

// Plans returns a copy of the current collection.
func (s *PlanStore) Plans() []models.InvestmentPlan {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.InvestmentPlan, len(s.plans))
	copy(out, s.plans)
	return out
}

// Get returns the plan with the given id, if loaded.
func (s *PlanStore) Get(id uint) (models.InvestmentPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.plans {
		if s.plans[i].ID == id {
			return s.plans[i], true
		}
	}
	return models.InvestmentPlan{}, false
}

// Loading reports whether an operation is in flight.
func (s *PlanStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error recorded by the most recent operation.
func (s *PlanStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Reset drops all local state.
func (s *PlanStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans = nil
	s.loading = false
	s.lastErr = nil
}

func (s *PlanStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *PlanStore) finish(err error) {
	s.mu.Lock()
	s.loading = false
	s.lastErr = err
	s.mu.Unlock()
}

func (s *PlanStore) apply(plan models.InvestmentPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.plans {
		if s.plans[i].ID == plan.ID {
			s.plans[i] = plan
			return
		}
	}
	s.plans = append(s.plans, plan)
}

// reconcile pushes the plan-owned fields into the position book: active
// plans set the schedule, inactive ones clear it. Plans without a resolved
// asset code cannot be keyed and are skipped.
func (s *PlanStore) reconcile(plan *models.InvestmentPlan) {
	if plan.AssetCode == "" {
		s.log.Warnw("plan has no asset code, skipping position update", "plan_id", plan.ID)
		return
	}
	if plan.IsActive {
		s.book.SetSchedule(plan.AssetCode, plan.Frequency, plan.DayOfWeek, plan.DayOfMonth, plan.Amount)
	} else {
		s.book.ClearSchedule(plan.AssetCode)
	}
}
