package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"wolfquant/internal/gateway"
	"wolfquant/internal/logger"
	"wolfquant/internal/models"
	"wolfquant/internal/session"
)

// TaskStore owns the import task collection, newest first, and a pointer
// to the task of interest (the one most recently started or fetched).
type TaskStore struct {
	mu       sync.Mutex
	gw       gateway.Gateway
	sessions *session.Manager
	log      *zap.SugaredLogger

	tasks   []models.ImportTask
	current *models.ImportTask
	loading bool
	lastErr error
}

// NewTaskStore creates an empty task store.
func NewTaskStore(gw gateway.Gateway, sessions *session.Manager) *TaskStore {
	return &TaskStore{gw: gw, sessions: sessions, log: logger.Get()}
}

// Refresh replaces the whole collection with the backend's task list.
func (s *TaskStore) Refresh(ctx context.Context) ([]models.ImportTask, error) {
	if _, err := s.sessions.UserID(); err != nil {
		return nil, err
	}
	s.begin()

	var tasks []models.ImportTask
	err := s.gw.Invoke(ctx, gateway.CmdGetImportTasks, nil, &tasks)
	s.finish(err)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	return s.Tasks(), nil
}

// Fetch retrieves one task and upserts it: replace in place when the id is
// known, otherwise prepend. The fetched task becomes current. A result
// whose status ranks below the local record is stale and is dropped.
func (s *TaskStore) Fetch(ctx context.Context, id string) (*models.ImportTask, error) {
	if _, err := s.sessions.UserID(); err != nil {
		return nil, err
	}
	s.begin()

	req := &gateway.GetImportTaskRequest{ID: id}
	var task models.ImportTask
	err := s.gw.Invoke(ctx, gateway.CmdGetImportTask, req, &task)
	s.finish(err)
	if err != nil {
		return nil, err
	}

	applied := s.upsert(task)
	return &applied, nil
}

// StartImport launches a candle import and records the pending task as
// current.
func (s *TaskStore) StartImport(ctx context.Context, assetType, symbol, source string, start, end time.Time, interval string) (*models.ImportTask, error) {
	if _, err := s.sessions.UserID(); err != nil {
		return nil, err
	}
	s.begin()

	req := &gateway.StartImportRequest{
		AssetType: assetType,
		Symbol:    symbol,
		Source:    source,
		StartTime: start,
		EndTime:   end,
		Interval:  interval,
	}
	var task models.ImportTask
	err := s.gw.Invoke(ctx, gateway.CmdStartImport, req, &task)
	s.finish(err)
	if err != nil {
		return nil, err
	}

	applied := s.upsert(task)
	return &applied, nil
}

// Tasks returns a copy of the collection.
func (s *TaskStore) Tasks() []models.ImportTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ImportTask, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Current returns the task of interest, if set.
func (s *TaskStore) Current() (models.ImportTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return models.ImportTask{}, false
	}
	return *s.current, true
}

// Get returns the task with the given id, if present.
func (s *TaskStore) Get(id string) (models.ImportTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return s.tasks[i], true
		}
	}
	return models.ImportTask{}, false
}

// Loading reports whether an operation is in flight.
func (s *TaskStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error recorded by the most recent operation.
func (s *TaskStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Reset drops all local state.
func (s *TaskStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = nil
	s.current = nil
	s.loading = false
	s.lastErr = nil
}

func (s *TaskStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *TaskStore) finish(err error) {
	s.mu.Lock()
	s.loading = false
	s.lastErr = err
	s.mu.Unlock()
}

// upsert applies a fetched task to the collection and the current pointer,
// rejecting status regressions so overlapping fetches cannot move a task
// backwards through its lifecycle. The applied record is returned.
func (s *TaskStore) upsert(task models.ImportTask) models.ImportTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID != task.ID {
			continue
		}
		if task.Status.Rank() < s.tasks[i].Status.Rank() {
			s.log.Debugw("dropping stale task update",
				"task_id", task.ID, "incoming", task.Status, "local", s.tasks[i].Status)
			task = s.tasks[i]
		} else {
			s.tasks[i] = task
		}
		applied := task
		s.current = &applied
		return applied
	}

	s.tasks = append([]models.ImportTask{task}, s.tasks...)
	applied := task
	s.current = &applied
	return applied
}
