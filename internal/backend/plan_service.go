package backend

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "wolfquant/internal/errors"
	"wolfquant/internal/gateway"
	"wolfquant/internal/models"
	"wolfquant/internal/validator"
)

func (b *Backend) createPlan(ctx context.Context, req *gateway.CreatePlanRequest) (*models.InvestmentPlan, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	freq := models.Frequency(req.Frequency)
	if err := validateSchedule(freq, req.DayOfWeek, req.DayOfMonth); err != nil {
		return nil, err
	}

	asset, err := b.findAsset(ctx, req.AssetID, req.UserID)
	if err != nil {
		return nil, err
	}

	next, err := nextExecution(time.Now(), freq, req.DayOfWeek, req.DayOfMonth)
	if err != nil {
		return nil, err
	}

	plan := models.InvestmentPlan{
		UserID:        req.UserID,
		AssetID:       req.AssetID,
		Name:          req.Name,
		Frequency:     freq,
		DayOfWeek:     req.DayOfWeek,
		DayOfMonth:    req.DayOfMonth,
		Amount:        req.Amount,
		IsActive:      true,
		NextExecution: &next,
	}
	if err := b.db.WithContext(ctx).Create(&plan).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	plan.AssetName = asset.Name
	plan.AssetCode = asset.Code
	return &plan, nil
}

func (b *Backend) updatePlan(ctx context.Context, req *gateway.UpdatePlanRequest) (*models.InvestmentPlan, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	freq := models.Frequency(req.Frequency)
	if err := validateSchedule(freq, req.DayOfWeek, req.DayOfMonth); err != nil {
		return nil, err
	}

	plan, err := b.findPlan(ctx, req.ID, req.UserID)
	if err != nil {
		return nil, err
	}
	asset, err := b.findAsset(ctx, req.AssetID, req.UserID)
	if err != nil {
		return nil, err
	}

	next, err := nextExecution(time.Now(), freq, req.DayOfWeek, req.DayOfMonth)
	if err != nil {
		return nil, err
	}

	plan.AssetID = req.AssetID
	plan.Name = req.Name
	plan.Frequency = freq
	plan.DayOfWeek = req.DayOfWeek
	plan.DayOfMonth = req.DayOfMonth
	plan.Amount = req.Amount
	plan.IsActive = req.IsActive
	plan.NextExecution = &next
	if err := b.db.WithContext(ctx).Save(plan).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	plan.AssetName = asset.Name
	plan.AssetCode = asset.Code
	return plan, nil
}

func (b *Backend) deletePlan(ctx context.Context, req *gateway.DeletePlanRequest) (*gateway.MessageResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	if _, err := b.findPlan(ctx, req.ID, req.UserID); err != nil {
		return nil, err
	}
	if err := b.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", req.ID, req.UserID).
		Delete(&models.InvestmentPlan{}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &gateway.MessageResponse{Message: "Investment plan deleted"}, nil
}

func (b *Backend) getUserPlans(ctx context.Context, req *gateway.GetUserPlansRequest) ([]models.InvestmentPlan, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	query := b.db.WithContext(ctx).Where("user_id = ?", req.UserID)
	if req.AssetID != nil && *req.AssetID != 0 {
		query = query.Where("asset_id = ?", *req.AssetID)
	}

	var plans []models.InvestmentPlan
	if err := query.Order("id").Find(&plans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var assets []models.Asset
	if err := b.db.WithContext(ctx).Where("user_id = ?", req.UserID).Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	byID := make(map[uint]*models.Asset, len(assets))
	for i := range assets {
		byID[assets[i].ID] = &assets[i]
	}
	for i := range plans {
		if a, ok := byID[plans[i].AssetID]; ok {
			plans[i].AssetName = a.Name
			plans[i].AssetCode = a.Code
		}
	}
	return plans, nil
}

// executeDuePlans runs every active plan whose next execution has passed.
// Each plan buys amount/price units of its asset at the current price,
// writes a BUY transaction, folds the purchase into the asset position,
// and reschedules the plan. Plans whose asset has no price are skipped.
func (b *Backend) executeDuePlans(ctx context.Context) (*gateway.ExecuteDuePlansResponse, error) {
	now := time.Now()

	var due []models.InvestmentPlan
	if err := b.db.WithContext(ctx).
		Where("is_active = ? AND next_execution IS NOT NULL AND next_execution <= ?", true, now).
		Find(&due).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	executed := 0
	for i := range due {
		plan := &due[i]
		if err := b.executePlan(ctx, plan, now); err != nil {
			b.log.Errorw("plan execution failed", "plan_id", plan.ID, "error", err)
			continue
		}
		executed++
	}
	return &gateway.ExecuteDuePlansResponse{Executed: executed}, nil
}

func (b *Backend) executePlan(ctx context.Context, plan *models.InvestmentPlan, now time.Time) error {
	asset, err := b.findAsset(ctx, plan.AssetID, plan.UserID)
	if err != nil {
		return err
	}
	if asset.CurrentPrice == nil || *asset.CurrentPrice <= 0 {
		b.log.Warnw("skipping plan, asset has no price", "plan_id", plan.ID, "asset_id", asset.ID)
		return nil
	}

	price := decimal.NewFromFloat(*asset.CurrentPrice)
	spend := decimal.NewFromFloat(plan.Amount)
	quantity := spend.Div(price)

	next, err := nextExecution(now, plan.Frequency, plan.DayOfWeek, plan.DayOfMonth)
	if err != nil {
		return err
	}

	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qty, _ := quantity.Float64()
		record := models.Transaction{
			UserID:          plan.UserID,
			AssetID:         plan.AssetID,
			Type:            models.TransactionBuy,
			Amount:          qty,
			Price:           *asset.CurrentPrice,
			TotalCost:       plan.Amount,
			TransactionDate: now,
			Notes:           "recurring investment: " + plan.Name,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		amount := decimal.Zero
		cost := decimal.Zero
		if asset.HasPosition() {
			amount = decimal.NewFromFloat(*asset.PositionAmount)
			cost = decimal.NewFromFloat(*asset.PositionCost)
		}
		newAmount, _ := amount.Add(quantity).Float64()
		newCost, _ := cost.Add(spend).Float64()
		if err := tx.Model(&models.Asset{}).Where("id = ?", asset.ID).
			Updates(map[string]interface{}{
				"position_amount": newAmount,
				"position_cost":   newCost,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&models.InvestmentPlan{}).Where("id = ?", plan.ID).
			Updates(map[string]interface{}{
				"last_executed":  now,
				"next_execution": next,
			}).Error
	})
}

func (b *Backend) findPlan(ctx context.Context, id, userID uint) (*models.InvestmentPlan, error) {
	var plan models.InvestmentPlan
	err := b.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&plan).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrPlanNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &plan, nil
}

// validateSchedule enforces the frequency/day field matrix: daily plans
// take no day fields, weekly and biweekly require a weekday (1=Mon..7=Sun)
// and no day of month, monthly requires a day of month (1..31) and no
// weekday.
func validateSchedule(freq models.Frequency, dayOfWeek, dayOfMonth *int) error {
	if !freq.Valid() {
		return apperrors.ErrInvalidFrequency
	}
	switch {
	case freq == models.FrequencyDaily:
		if dayOfWeek != nil || dayOfMonth != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidSchedule,
				"daily plans take no day_of_week or day_of_month")
		}
	case freq.NeedsWeekday():
		if dayOfWeek == nil || *dayOfWeek < 1 || *dayOfWeek > 7 {
			return apperrors.WithMessage(apperrors.ErrInvalidSchedule,
				"weekly and biweekly plans require day_of_week between 1 and 7")
		}
		if dayOfMonth != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidSchedule,
				"weekly and biweekly plans take no day_of_month")
		}
	case freq == models.FrequencyMonthly:
		if dayOfMonth == nil || *dayOfMonth < 1 || *dayOfMonth > 31 {
			return apperrors.WithMessage(apperrors.ErrInvalidSchedule,
				"monthly plans require day_of_month between 1 and 31")
		}
		if dayOfWeek != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidSchedule,
				"monthly plans take no day_of_week")
		}
	}
	return nil
}

// nextExecution computes when the plan should next run, measured from now.
// A weekly plan whose weekday is today schedules a full week out, not
// today; the same rule shifts biweekly plans by the second week. Monthly
// plans run this month if the day is still ahead, otherwise next month,
// with the day clamped to the month's length.
func nextExecution(now time.Time, freq models.Frequency, dayOfWeek, dayOfMonth *int) (time.Time, error) {
	switch freq {
	case models.FrequencyDaily:
		return now.Add(24 * time.Hour), nil

	case models.FrequencyWeekly, models.FrequencyBiweekly:
		if dayOfWeek == nil {
			return time.Time{}, apperrors.ErrInvalidSchedule
		}
		days := daysUntilWeekday(now, *dayOfWeek)
		if days == 0 {
			days = 7
		}
		if freq == models.FrequencyBiweekly {
			days += 7
		}
		return now.AddDate(0, 0, days), nil

	case models.FrequencyMonthly:
		if dayOfMonth == nil {
			return time.Time{}, apperrors.ErrInvalidSchedule
		}
		year, month, day := now.Date()
		target := year
		targetMonth := month
		if day >= *dayOfMonth {
			targetMonth++
			if targetMonth > time.December {
				targetMonth = time.January
				target++
			}
		}
		d := *dayOfMonth
		if last := daysInMonth(target, targetMonth); d > last {
			d = last
		}
		hour, min, sec := now.Clock()
		return time.Date(target, targetMonth, d, hour, min, sec, 0, now.Location()), nil
	}
	return time.Time{}, apperrors.ErrInvalidFrequency
}

// daysUntilWeekday returns 0..6 days from now to the target ISO weekday
// (1=Mon..7=Sun).
func daysUntilWeekday(now time.Time, target int) int {
	current := int(now.Weekday())
	if current == 0 {
		current = 7 // Sunday
	}
	return ((target - current) + 7) % 7
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
