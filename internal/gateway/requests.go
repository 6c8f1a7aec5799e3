package gateway

import (
	"time"

	"wolfquant/internal/models"
)

// Request and response records for the command surface. Field names match
// the wire format: snake_case JSON, numeric identities transmitted
// verbatim, nullable fields explicit.

type GetUserGroupsRequest struct {
	UserID      uint  `json:"user_id" validate:"required"`
	AssetTypeID *uint `json:"asset_type_id"`
}

type GetUserAssetsRequest struct {
	UserID      uint  `json:"user_id" validate:"required"`
	AssetTypeID *uint `json:"asset_type_id"`
	GroupID     *uint `json:"group_id"`
}

type CreateGroupRequest struct {
	UserID      uint    `json:"user_id" validate:"required"`
	Name        string  `json:"name" validate:"required,max=64"`
	AssetTypeID uint    `json:"asset_type_id" validate:"required"`
	Description *string `json:"description"`
}

type UpdateGroupRequest struct {
	ID          uint    `json:"id" validate:"required"`
	UserID      uint    `json:"user_id" validate:"required"`
	Name        string  `json:"name" validate:"required,max=64"`
	Description *string `json:"description"`
}

type DeleteGroupRequest struct {
	ID     uint `json:"id" validate:"required"`
	UserID uint `json:"user_id" validate:"required"`
}

type CreateAssetRequest struct {
	UserID         uint     `json:"user_id" validate:"required"`
	GroupID        *uint    `json:"group_id"`
	AssetTypeID    uint     `json:"asset_type_id" validate:"required"`
	Code           string   `json:"code" validate:"required,market_symbol"`
	Name           string   `json:"name" validate:"required,max=128"`
	CurrentPrice   *float64 `json:"current_price"`
	PositionAmount *float64 `json:"position_amount"`
	PositionCost   *float64 `json:"position_cost"`
}

type UpdateAssetRequest struct {
	ID             uint     `json:"id" validate:"required"`
	UserID         uint     `json:"user_id" validate:"required"`
	GroupID        *uint    `json:"group_id"`
	Name           string   `json:"name" validate:"required,max=128"`
	CurrentPrice   *float64 `json:"current_price"`
	PositionAmount *float64 `json:"position_amount"`
	PositionCost   *float64 `json:"position_cost"`
}

type DeleteAssetRequest struct {
	ID     uint `json:"id" validate:"required"`
	UserID uint `json:"user_id" validate:"required"`
}

type CreatePlanRequest struct {
	UserID     uint    `json:"user_id" validate:"required"`
	AssetID    uint    `json:"asset_id" validate:"required"`
	Name       string  `json:"name" validate:"required,max=64"`
	Frequency  string  `json:"frequency" validate:"required,plan_frequency"`
	DayOfWeek  *int    `json:"day_of_week"`
	DayOfMonth *int    `json:"day_of_month"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
}

type UpdatePlanRequest struct {
	ID         uint    `json:"id" validate:"required"`
	UserID     uint    `json:"user_id" validate:"required"`
	AssetID    uint    `json:"asset_id" validate:"required"`
	Name       string  `json:"name" validate:"required,max=64"`
	Frequency  string  `json:"frequency" validate:"required,plan_frequency"`
	DayOfWeek  *int    `json:"day_of_week"`
	DayOfMonth *int    `json:"day_of_month"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	IsActive   bool    `json:"is_active"`
}

type DeletePlanRequest struct {
	ID     uint `json:"id" validate:"required"`
	UserID uint `json:"user_id" validate:"required"`
}

type GetUserPlansRequest struct {
	UserID uint `json:"user_id" validate:"required"`
	// AssetID 0 (or absent) selects plans for all assets.
	AssetID *uint `json:"asset_id"`
}

type GetImportTaskRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

type StartImportRequest struct {
	AssetType string    `json:"asset_type" validate:"required"`
	Symbol    string    `json:"symbol" validate:"required,market_symbol"`
	Source    string    `json:"source" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
	Interval  string    `json:"interval" validate:"required,import_interval"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

type VerifySessionRequest struct {
	Token string `json:"token" validate:"required"`
}

type LogoutRequest struct {
	Token string `json:"token" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type LoginResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

type ExecuteDuePlansResponse struct {
	Executed int `json:"executed"`
}

type VerifySessionResponse struct {
	Valid  bool `json:"valid"`
	UserID uint `json:"user_id"`
}

// NewRequest returns a zero request record for command, for decoding a
// wire payload. The second return is false for unknown commands; a nil
// first return means the command takes no parameters.
func NewRequest(command string) (interface{}, bool) {
	switch command {
	case CmdGetAssetTypes, CmdGetImportTasks, CmdGetAvailableData, CmdExecuteDuePlans:
		return nil, true
	case CmdGetUserGroups:
		return &GetUserGroupsRequest{}, true
	case CmdGetUserAssets:
		return &GetUserAssetsRequest{}, true
	case CmdCreateGroup:
		return &CreateGroupRequest{}, true
	case CmdUpdateGroup:
		return &UpdateGroupRequest{}, true
	case CmdDeleteGroup:
		return &DeleteGroupRequest{}, true
	case CmdCreateAsset:
		return &CreateAssetRequest{}, true
	case CmdUpdateAsset:
		return &UpdateAssetRequest{}, true
	case CmdDeleteAsset:
		return &DeleteAssetRequest{}, true
	case CmdCreatePlan:
		return &CreatePlanRequest{}, true
	case CmdUpdatePlan:
		return &UpdatePlanRequest{}, true
	case CmdDeletePlan:
		return &DeletePlanRequest{}, true
	case CmdGetUserPlans:
		return &GetUserPlansRequest{}, true
	case CmdGetImportTask:
		return &GetImportTaskRequest{}, true
	case CmdStartImport:
		return &StartImportRequest{}, true
	case CmdAuthRegister:
		return &RegisterRequest{}, true
	case CmdAuthLogin:
		return &LoginRequest{}, true
	case CmdAuthVerifySession:
		return &VerifySessionRequest{}, true
	case CmdAuthLogout:
		return &LogoutRequest{}, true
	}
	return nil, false
}
