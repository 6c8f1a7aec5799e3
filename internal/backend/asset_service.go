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

func (b *Backend) getAssetTypes(ctx context.Context) ([]models.AssetType, error) {
	var types []models.AssetType
	if err := b.db.WithContext(ctx).Order("id").Find(&types).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return types, nil
}

func (b *Backend) getUserGroups(ctx context.Context, req *gateway.GetUserGroupsRequest) ([]models.Group, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	query := b.db.WithContext(ctx).Where("user_id = ?", req.UserID)
	if req.AssetTypeID != nil {
		query = query.Where("asset_type_id = ?", *req.AssetTypeID)
	}

	var groups []models.Group
	if err := query.Order("id").Find(&groups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	typeNames, err := b.assetTypeNames(ctx)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		groups[i].AssetTypeName = typeNames[groups[i].AssetTypeID]
	}
	return groups, nil
}

func (b *Backend) getUserAssets(ctx context.Context, req *gateway.GetUserAssetsRequest) ([]models.Asset, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	query := b.db.WithContext(ctx).Where("user_id = ?", req.UserID)
	if req.AssetTypeID != nil {
		query = query.Where("asset_type_id = ?", *req.AssetTypeID)
	}
	if req.GroupID != nil {
		query = query.Where("group_id = ?", *req.GroupID)
	}

	var assets []models.Asset
	if err := query.Order("id").Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	typeNames, err := b.assetTypeNames(ctx)
	if err != nil {
		return nil, err
	}
	groupNames, err := b.groupNames(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	for i := range assets {
		a := &assets[i]
		a.AssetTypeName = typeNames[a.AssetTypeID]
		if a.GroupID != nil {
			if name, ok := groupNames[*a.GroupID]; ok {
				n := name
				a.GroupName = &n
			}
		}
		decorateProfit(a)
	}
	return assets, nil
}

// decorateProfit computes total profit from the current price and the
// position. Decimal arithmetic keeps the derived numbers exact; the stored
// floats are only converted at the boundary.
func decorateProfit(a *models.Asset) {
	if !a.HasPosition() || a.CurrentPrice == nil {
		return
	}
	price := decimal.NewFromFloat(*a.CurrentPrice)
	amount := decimal.NewFromFloat(*a.PositionAmount)
	cost := decimal.NewFromFloat(*a.PositionCost)

	profit := price.Mul(amount).Sub(cost)
	p, _ := profit.Float64()
	a.TotalProfit = &p

	if !cost.IsZero() {
		pct, _ := profit.Div(cost).Mul(decimal.NewFromInt(100)).Float64()
		a.TotalProfitPercent = &pct
	}
}

func (b *Backend) createGroup(ctx context.Context, req *gateway.CreateGroupRequest) (*models.Group, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	if err := b.assetTypeExists(ctx, req.AssetTypeID); err != nil {
		return nil, err
	}

	var count int64
	if err := b.db.WithContext(ctx).Model(&models.Group{}).
		Where("user_id = ? AND asset_type_id = ? AND name = ?", req.UserID, req.AssetTypeID, req.Name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateGroup
	}

	group := models.Group{
		UserID:      req.UserID,
		Name:        req.Name,
		AssetTypeID: req.AssetTypeID,
		Description: req.Description,
	}
	if err := b.db.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	b.decorateGroup(ctx, &group)
	return &group, nil
}

func (b *Backend) updateGroup(ctx context.Context, req *gateway.UpdateGroupRequest) (*models.Group, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	group, err := b.findGroup(ctx, req.ID, req.UserID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := b.db.WithContext(ctx).Model(&models.Group{}).
		Where("user_id = ? AND asset_type_id = ? AND name = ? AND id <> ?",
			req.UserID, group.AssetTypeID, req.Name, group.ID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateGroup
	}

	group.Name = req.Name
	group.Description = req.Description
	if err := b.db.WithContext(ctx).Save(group).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	b.decorateGroup(ctx, group)
	return group, nil
}

// deleteGroup detaches member assets rather than deleting them: the group
// is a view over assets, so removing it must not destroy holdings. Both
// steps run in one transaction.
func (b *Backend) deleteGroup(ctx context.Context, req *gateway.DeleteGroupRequest) (*gateway.MessageResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	if _, err := b.findGroup(ctx, req.ID, req.UserID); err != nil {
		return nil, err
	}

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Asset{}).
			Where("group_id = ? AND user_id = ?", req.ID, req.UserID).
			Update("group_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", req.ID, req.UserID).
			Delete(&models.Group{}).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &gateway.MessageResponse{Message: "Group deleted"}, nil
}

func (b *Backend) createAsset(ctx context.Context, req *gateway.CreateAssetRequest) (*models.Asset, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if err := validatePosition(req.PositionAmount, req.PositionCost); err != nil {
		return nil, err
	}
	if err := b.assetTypeExists(ctx, req.AssetTypeID); err != nil {
		return nil, err
	}
	if err := b.checkGroupBinding(ctx, req.GroupID, req.UserID, req.AssetTypeID); err != nil {
		return nil, err
	}

	var count int64
	if err := b.db.WithContext(ctx).Model(&models.Asset{}).
		Where("user_id = ? AND asset_type_id = ? AND code = ?", req.UserID, req.AssetTypeID, req.Code).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCode
	}

	asset := models.Asset{
		UserID:         req.UserID,
		GroupID:        req.GroupID,
		AssetTypeID:    req.AssetTypeID,
		Code:           req.Code,
		Name:           req.Name,
		CurrentPrice:   req.CurrentPrice,
		PositionAmount: req.PositionAmount,
		PositionCost:   req.PositionCost,
	}
	if req.CurrentPrice != nil {
		now := time.Now()
		asset.LastUpdated = &now
	}
	if err := b.db.WithContext(ctx).Create(&asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	b.decorateAsset(ctx, &asset)
	return &asset, nil
}

func (b *Backend) updateAsset(ctx context.Context, req *gateway.UpdateAssetRequest) (*models.Asset, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if err := validatePosition(req.PositionAmount, req.PositionCost); err != nil {
		return nil, err
	}

	asset, err := b.findAsset(ctx, req.ID, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := b.checkGroupBinding(ctx, req.GroupID, req.UserID, asset.AssetTypeID); err != nil {
		return nil, err
	}

	asset.Name = req.Name
	asset.GroupID = req.GroupID
	if req.CurrentPrice != nil && (asset.CurrentPrice == nil || *asset.CurrentPrice != *req.CurrentPrice) {
		now := time.Now()
		asset.LastUpdated = &now
	}
	asset.CurrentPrice = req.CurrentPrice
	if req.PositionAmount != nil {
		asset.PositionAmount = req.PositionAmount
		asset.PositionCost = req.PositionCost
	}

	if err := b.db.WithContext(ctx).Save(asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	b.decorateAsset(ctx, asset)
	return asset, nil
}

// deleteAsset cascades: plans and transactions reference the asset and
// mean nothing without it.
func (b *Backend) deleteAsset(ctx context.Context, req *gateway.DeleteAssetRequest) (*gateway.MessageResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	if _, err := b.findAsset(ctx, req.ID, req.UserID); err != nil {
		return nil, err
	}

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("asset_id = ? AND user_id = ?", req.ID, req.UserID).
			Delete(&models.InvestmentPlan{}).Error; err != nil {
			return err
		}
		if err := tx.Where("asset_id = ? AND user_id = ?", req.ID, req.UserID).
			Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", req.ID, req.UserID).
			Delete(&models.Asset{}).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &gateway.MessageResponse{Message: "Asset deleted"}, nil
}

// validatePosition enforces the all-or-nothing rule on holding data.
func validatePosition(amount, cost *float64) error {
	if (amount == nil) != (cost == nil) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			"position_amount and position_cost must be provided together")
	}
	if amount != nil && (*amount < 0 || *cost < 0) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			"position_amount and position_cost must not be negative")
	}
	return nil
}

func (b *Backend) findGroup(ctx context.Context, id, userID uint) (*models.Group, error) {
	var group models.Group
	err := b.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&group).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrGroupNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &group, nil
}

func (b *Backend) findAsset(ctx context.Context, id, userID uint) (*models.Asset, error) {
	var asset models.Asset
	err := b.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&asset).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrAssetNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &asset, nil
}

func (b *Backend) assetTypeExists(ctx context.Context, id uint) error {
	var count int64
	if err := b.db.WithContext(ctx).Model(&models.AssetType{}).
		Where("id = ?", id).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrAssetTypeNotFound
	}
	return nil
}

// checkGroupBinding verifies the group exists, belongs to the user, and
// matches the asset's type. A nil group id is always valid.
func (b *Backend) checkGroupBinding(ctx context.Context, groupID *uint, userID, assetTypeID uint) error {
	if groupID == nil {
		return nil
	}
	group, err := b.findGroup(ctx, *groupID, userID)
	if err != nil {
		return err
	}
	if group.AssetTypeID != assetTypeID {
		return apperrors.ErrGroupTypeMismatch
	}
	return nil
}

func (b *Backend) assetTypeNames(ctx context.Context) (map[uint]string, error) {
	var types []models.AssetType
	if err := b.db.WithContext(ctx).Find(&types).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	names := make(map[uint]string, len(types))
	for _, t := range types {
		names[t.ID] = t.Name
	}
	return names, nil
}

func (b *Backend) groupNames(ctx context.Context, userID uint) (map[uint]string, error) {
	var groups []models.Group
	if err := b.db.WithContext(ctx).Where("user_id = ?", userID).Find(&groups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	names := make(map[uint]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}
	return names, nil
}

func (b *Backend) decorateGroup(ctx context.Context, group *models.Group) {
	if names, err := b.assetTypeNames(ctx); err == nil {
		group.AssetTypeName = names[group.AssetTypeID]
	}
}

func (b *Backend) decorateAsset(ctx context.Context, asset *models.Asset) {
	if names, err := b.assetTypeNames(ctx); err == nil {
		asset.AssetTypeName = names[asset.AssetTypeID]
	}
	if asset.GroupID != nil {
		if names, err := b.groupNames(ctx, asset.UserID); err == nil {
			if name, ok := names[*asset.GroupID]; ok {
				n := name
				asset.GroupName = &n
			}
		}
	}
	decorateProfit(asset)
}
