package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/interfaces"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// AnalyticsUseCase aggregates task counts under access control
type AnalyticsUseCase struct {
	repo   interfaces.Repository
	access *AccessUseCase
}

func NewAnalyticsUseCase(repo interfaces.Repository, access *AccessUseCase) *AnalyticsUseCase {
	return &AnalyticsUseCase{
		repo:   repo,
		access: access,
	}
}

// UserAnalytics aggregates the tasks of target. The access check comes
// first and fails hard with ErrAccessDenied.
func (uc *AnalyticsUseCase) UserAnalytics(ctx context.Context, requester, target types.UserID) (*model.TaskAnalytics, error) {
	if !uc.access.CanAccess(requester, target) {
		return nil, goerr.Wrap(ErrAccessDenied, "cannot read user analytics",
			goerr.V(UserIDKey, requester), goerr.V("target", target))
	}
	return uc.aggregate(ctx, []types.UserID{target})
}

// TeamAnalytics aggregates the tasks of every user the requester may access.
// Only managers, org admins and the CEO may call it.
func (uc *AnalyticsUseCase) TeamAnalytics(ctx context.Context, requester types.UserID) (*model.TaskAnalytics, error) {
	scope := uc.access.Scope(requester)
	if !scope.CanViewTeamAnalytics {
		return nil, goerr.Wrap(ErrAccessDenied, "role cannot read team analytics",
			goerr.V(UserIDKey, requester), goerr.V("role", scope.Role))
	}
	return uc.aggregate(ctx, scope.SortedUserIDs())
}

func (uc *AnalyticsUseCase) aggregate(ctx context.Context, userIDs []types.UserID) (*model.TaskAnalytics, error) {
	result := model.NewTaskAnalytics(userIDs)
	if len(userIDs) == 0 {
		return result, nil
	}

	tasks, err := uc.repo.Task().List(ctx, interfaces.WithUserIDs(userIDs...))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tasks for analytics", goerr.V("user_count", len(userIDs)))
	}
	for _, t := range tasks {
		result.Add(t)
	}
	return result, nil
}
