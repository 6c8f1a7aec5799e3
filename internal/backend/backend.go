// Package backend is the embedded implementation of the command gateway.
// It executes every command in-process against a GORM database, mirroring
// what a detached gatewayd deployment exposes over HTTP. The shell core
// never imports this package directly for logic; it only sees the
// gateway.Gateway interface.
package backend

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wolfquant/internal/config"
	apperrors "wolfquant/internal/errors"
	"wolfquant/internal/gateway"
	"wolfquant/internal/logger"
)

// Backend dispatches gateway commands to the local services.
type Backend struct {
	db       *gorm.DB
	cfg      *config.Config
	log      *zap.SugaredLogger
	adapters *AdapterRegistry
}

// New creates a backend over an open database. The default adapter
// registry is used unless overridden with WithAdapters.
func New(db *gorm.DB, cfg *config.Config) *Backend {
	return &Backend{
		db:       db,
		cfg:      cfg,
		log:      logger.Get(),
		adapters: DefaultAdapters(),
	}
}

// WithAdapters replaces the market adapter registry. Tests use this to
// substitute scripted adapters.
func (b *Backend) WithAdapters(reg *AdapterRegistry) *Backend {
	b.adapters = reg
	return b
}

// Invoke implements gateway.Gateway. The dispatched result is round-tripped
// through JSON into out so the embedded backend and the HTTP client behave
// identically at the call site.
func (b *Backend) Invoke(ctx context.Context, command string, req, out interface{}) error {
	res, err := b.dispatch(ctx, command, req)
	if err != nil {
		return err
	}
	if out == nil || res == nil {
		return nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (b *Backend) dispatch(ctx context.Context, command string, req interface{}) (interface{}, error) {
	switch command {
	case gateway.CmdGetAssetTypes:
		return b.getAssetTypes(ctx)
	case gateway.CmdGetUserGroups:
		r, err := reqAs[gateway.GetUserGroupsRequest](req)
		if err != nil {
			return nil, err
		}
		return b.getUserGroups(ctx, r)
	case gateway.CmdGetUserAssets:
		r, err := reqAs[gateway.GetUserAssetsRequest](req)
		if err != nil {
			return nil, err
		}
		return b.getUserAssets(ctx, r)
	case gateway.CmdCreateGroup:
		r, err := reqAs[gateway.CreateGroupRequest](req)
		if err != nil {
			return nil, err
		}
		return b.createGroup(ctx, r)
	case gateway.CmdUpdateGroup:
		r, err := reqAs[gateway.UpdateGroupRequest](req)
		if err != nil {
			return nil, err
		}
		return b.updateGroup(ctx, r)
	case gateway.CmdDeleteGroup:
		r, err := reqAs[gateway.DeleteGroupRequest](req)
		if err != nil {
			return nil, err
		}
		return b.deleteGroup(ctx, r)
	case gateway.CmdCreateAsset:
		r, err := reqAs[gateway.CreateAssetRequest](req)
		if err != nil {
			return nil, err
		}
		return b.createAsset(ctx, r)
	case gateway.CmdUpdateAsset:
		r, err := reqAs[gateway.UpdateAssetRequest](req)
		if err != nil {
			return nil, err
		}
		return b.updateAsset(ctx, r)
	case gateway.CmdDeleteAsset:
		r, err := reqAs[gateway.DeleteAssetRequest](req)
		if err != nil {
			return nil, err
		}
		return b.deleteAsset(ctx, r)

	case gateway.CmdCreatePlan:
		r, err := reqAs[gateway.CreatePlanRequest](req)
		if err != nil {
			return nil, err
		}
		return b.createPlan(ctx, r)
	case gateway.CmdUpdatePlan:
		r, err := reqAs[gateway.UpdatePlanRequest](req)
		if err != nil {
			return nil, err
		}
		return b.updatePlan(ctx, r)
	case gateway.CmdDeletePlan:
		r, err := reqAs[gateway.DeletePlanRequest](req)
		if err != nil {
			return nil, err
		}
		return b.deletePlan(ctx, r)
	case gateway.CmdGetUserPlans:
		r, err := reqAs[gateway.GetUserPlansRequest](req)
		if err != nil {
			return nil, err
		}
		return b.getUserPlans(ctx, r)
	case gateway.CmdExecuteDuePlans:
		return b.executeDuePlans(ctx)

	case gateway.CmdGetImportTasks:
		return b.getImportTasks(ctx)
	case gateway.CmdGetImportTask:
		r, err := reqAs[gateway.GetImportTaskRequest](req)
		if err != nil {
			return nil, err
		}
		return b.getImportTask(ctx, r)
	case gateway.CmdStartImport:
		r, err := reqAs[gateway.StartImportRequest](req)
		if err != nil {
			return nil, err
		}
		return b.startImport(ctx, r)
	case gateway.CmdGetAvailableData:
		return b.getAvailableData(ctx)

	case gateway.CmdAuthRegister:
		r, err := reqAs[gateway.RegisterRequest](req)
		if err != nil {
			return nil, err
		}
		return b.register(ctx, r)
	case gateway.CmdAuthLogin:
		r, err := reqAs[gateway.LoginRequest](req)
		if err != nil {
			return nil, err
		}
		return b.login(ctx, r)
	case gateway.CmdAuthVerifySession:
		r, err := reqAs[gateway.VerifySessionRequest](req)
		if err != nil {
			return nil, err
		}
		return b.verifySession(ctx, r)
	case gateway.CmdAuthLogout:
		r, err := reqAs[gateway.LogoutRequest](req)
		if err != nil {
			return nil, err
		}
		return b.logout(ctx, r)
	}
	return nil, apperrors.WithMessage(apperrors.ErrUnknownCommand, "unknown command: "+command)
}

// reqAs asserts the request record type for a command. Invoke callers
// construct records via gateway.NewRequest, so a mismatch is a programming
// error surfaced as INVALID_INPUT.
func reqAs[T any](req interface{}) (*T, error) {
	r, ok := req.(*T)
	if !ok || r == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "missing or mistyped request payload")
	}
	return r, nil
}
