package backend

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "wolfquant/internal/errors"
	"wolfquant/internal/gateway"
	"wolfquant/internal/models"
	"wolfquant/internal/uuid"
	"wolfquant/internal/validator"
)

const candleBatchSize = 500

func (b *Backend) getImportTasks(ctx context.Context) ([]models.ImportTask, error) {
	var tasks []models.ImportTask
	if err := b.db.WithContext(ctx).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tasks, nil
}

func (b *Backend) getImportTask(ctx context.Context, req *gateway.GetImportTaskRequest) (*models.ImportTask, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	var task models.ImportTask
	err := b.db.WithContext(ctx).Where("id = ?", req.ID).First(&task).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrTaskNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &task, nil
}

// startImport records a pending task and launches the import in the
// background. The response is the pending task; callers poll
// get_import_task for progress.
func (b *Backend) startImport(ctx context.Context, req *gateway.StartImportRequest) (*models.ImportTask, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if !req.StartTime.Before(req.EndTime) {
		return nil, apperrors.ErrInvalidTimeRange
	}
	adapter, ok := b.adapters.Get(req.AssetType, req.Source)
	if !ok {
		return nil, apperrors.ErrUnknownSource
	}

	task := models.ImportTask{
		ID:        uuid.New(),
		AssetType: req.AssetType,
		Source:    req.Source,
		Symbol:    req.Symbol,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Interval:  req.Interval,
		Status:    models.ImportStatusPending,
	}
	if err := b.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// The worker outlives the request; it runs on its own context.
	go b.runImport(context.Background(), task, adapter)

	b.log.Infow("import started", "task_id", task.ID, "symbol", task.Symbol, "source", task.Source)
	return &task, nil
}

func (b *Backend) runImport(ctx context.Context, task models.ImportTask, adapter MarketAdapter) {
	if err := b.setTaskRunning(ctx, task.ID); err != nil {
		b.log.Errorw("failed to mark task running", "task_id", task.ID, "error", err)
		return
	}

	candles, err := adapter.FetchCandles(ctx, task.Symbol, task.StartTime, task.EndTime, task.Interval)
	if err != nil {
		b.failTask(ctx, task.ID, err)
		return
	}
	b.setTaskProgress(ctx, task.ID, 50)

	if err := b.saveCandles(ctx, candles, task); err != nil {
		b.failTask(ctx, task.ID, err)
		return
	}

	b.completeTask(ctx, task.ID)
	b.log.Infow("import completed", "task_id", task.ID, "candles", len(candles))
}

// saveCandles upserts bars in batches, replacing any existing bar with the
// same (symbol, source, timestamp, interval). Re-importing a range is
// idempotent.
func (b *Backend) saveCandles(ctx context.Context, candles []models.Candle, task models.ImportTask) error {
	for i := 0; i < len(candles); i += candleBatchSize {
		end := i + candleBatchSize
		if end > len(candles) {
			end = len(candles)
		}
		err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "symbol"}, {Name: "source"}, {Name: "timestamp"}, {Name: "interval"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
		}).Create(candles[i:end]).Error
		if err != nil {
			return err
		}
		progress := 50 + float64(end)/float64(len(candles))*50
		b.setTaskProgress(ctx, task.ID, progress)
	}
	return nil
}

func (b *Backend) setTaskRunning(ctx context.Context, id string) error {
	return b.db.WithContext(ctx).Model(&models.ImportTask{}).
		Where("id = ? AND status = ?", id, models.ImportStatusPending).
		Updates(map[string]interface{}{
			"status":   models.ImportStatusRunning,
			"progress": 10,
		}).Error
}

func (b *Backend) setTaskProgress(ctx context.Context, id string, progress float64) {
	if err := b.db.WithContext(ctx).Model(&models.ImportTask{}).
		Where("id = ? AND status = ?", id, models.ImportStatusRunning).
		Update("progress", progress).Error; err != nil {
		b.log.Errorw("failed to update task progress", "task_id", id, "error", err)
	}
}

func (b *Backend) completeTask(ctx context.Context, id string) {
	now := time.Now()
	if err := b.db.WithContext(ctx).Model(&models.ImportTask{}).
		Where("id = ? AND status = ?", id, models.ImportStatusRunning).
		Updates(map[string]interface{}{
			"status":       models.ImportStatusCompleted,
			"progress":     100,
			"completed_at": now,
		}).Error; err != nil {
		b.log.Errorw("failed to complete task", "task_id", id, "error", err)
	}
}

func (b *Backend) failTask(ctx context.Context, id string, cause error) {
	now := time.Now()
	msg := cause.Error()
	if err := b.db.WithContext(ctx).Model(&models.ImportTask{}).
		Where("id = ? AND status IN ?", id, []models.ImportStatus{models.ImportStatusPending, models.ImportStatusRunning}).
		Updates(map[string]interface{}{
			"status":       models.ImportStatusFailed,
			"error":        msg,
			"completed_at": now,
		}).Error; err != nil {
		b.log.Errorw("failed to mark task failed", "task_id", id, "error", err)
	}
	b.log.Errorw("import failed", "task_id", id, "error", cause)
}

// getAvailableData summarizes the imported candles per (type, source,
// symbol): bar count, covered range, and the distinct intervals present.
func (b *Backend) getAvailableData(ctx context.Context) ([]models.DatasetInfo, error) {
	agg := "GROUP_CONCAT(DISTINCT interval)"
	if b.db.Dialector.Name() == "postgres" {
		agg = "STRING_AGG(DISTINCT interval, ',')"
	}

	var infos []models.DatasetInfo
	err := b.db.WithContext(ctx).Model(&models.Candle{}).
		Select("asset_type, source, symbol, MIN(timestamp) AS min_timestamp, MAX(timestamp) AS max_timestamp, COUNT(*) AS candle_count, " + agg + " AS intervals").
		Group("asset_type, source, symbol").
		Order("asset_type, source, symbol").
		Scan(&infos).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return infos, nil
}
