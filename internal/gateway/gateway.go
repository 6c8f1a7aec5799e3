// Package gateway defines the remote command boundary between the shell
// core and whatever backend executes its commands. The core treats every
// command as an opaque async call: one request record in, one response
// record out. Implementations live elsewhere (the embedded backend, the
// HTTP client); stores depend only on this interface.
package gateway

import "context"

// Gateway executes a single named command. req is the typed request record
// for the command (nil for commands without parameters); out, when non-nil,
// must be a pointer the response is decoded into. Implementations must not
// mutate local shell state: callers apply results themselves.
type Gateway interface {
	Invoke(ctx context.Context, command string, req, out interface{}) error
}

// Command names. These are the wire-level identifiers shared by every
// Gateway implementation and the gatewayd HTTP surface.
const (
	CmdGetAssetTypes = "asset_get_asset_types"
	CmdGetUserGroups = "asset_get_user_groups"
	CmdGetUserAssets = "asset_get_user_assets"
	CmdCreateGroup   = "asset_create_group"
	CmdUpdateGroup   = "asset_update_group"
	CmdDeleteGroup   = "asset_delete_group"
	CmdCreateAsset   = "asset_create_asset"
	CmdUpdateAsset   = "asset_update_asset"
	CmdDeleteAsset   = "asset_delete_asset"

	CmdCreatePlan      = "plan_create_investment_plan"
	CmdUpdatePlan      = "plan_update_investment_plan"
	CmdDeletePlan      = "plan_delete_investment_plan"
	CmdGetUserPlans    = "plan_get_user_investment_plans"
	CmdExecuteDuePlans = "plan_execute_due_plans"

	CmdGetImportTasks   = "get_import_tasks"
	CmdGetImportTask    = "get_import_task"
	CmdStartImport      = "start_import"
	CmdGetAvailableData = "get_available_data"

	CmdAuthRegister      = "auth_register"
	CmdAuthLogin         = "auth_login"
	CmdAuthVerifySession = "auth_verify_session"
	CmdAuthLogout        = "auth_logout"
)
