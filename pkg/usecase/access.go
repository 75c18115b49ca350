package usecase

import (
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// AccessibleUserIDs returns the users whose data the requester may read.
// CEO and org admins see the whole organization, a manager sees self and
// direct reports (not transitive), everyone else sees only self.
func AccessibleUserIDs(requester types.UserID, org *model.OrgHierarchy) map[types.UserID]struct{} {
	if requester == "" {
		return map[types.UserID]struct{}{}
	}

	switch org.RoleOf(requester) {
	case types.RoleCEO, types.RoleOrgAdmin:
		return org.AllUserIDs()

	case types.RoleManager:
		ids := map[types.UserID]struct{}{requester: {}}
		for _, id := range org.DirectReports(requester) {
			ids[id] = struct{}{}
		}
		return ids

	default:
		return map[types.UserID]struct{}{requester: {}}
	}
}

// CanAccess reports whether requester may read target's data
func CanAccess(requester, target types.UserID, org *model.OrgHierarchy) bool {
	if target == "" {
		return false
	}
	_, ok := AccessibleUserIDs(requester, org)[target]
	return ok
}

// ScopeOf computes the access scope of a requester
func ScopeOf(requester types.UserID, org *model.OrgHierarchy) *model.AccessScope {
	role := org.RoleOf(requester)
	return &model.AccessScope{
		Role:                 role,
		CanViewAllUsers:      role.CanViewAllUsers(),
		CanViewTeamAnalytics: role.CanViewTeamAnalytics(),
		DataScope:            role.Scope(),
		AccessibleUserIDs:    AccessibleUserIDs(requester, org),
	}
}

// AccessUseCase answers access questions against one organization
type AccessUseCase struct {
	org *model.OrgHierarchy
}

// NewAccessUseCase creates an AccessUseCase. A nil org grants self access only.
func NewAccessUseCase(org *model.OrgHierarchy) *AccessUseCase {
	return &AccessUseCase{org: org}
}

func (uc *AccessUseCase) AccessibleUserIDs(requester types.UserID) map[types.UserID]struct{} {
	return AccessibleUserIDs(requester, uc.org)
}

func (uc *AccessUseCase) CanAccess(requester, target types.UserID) bool {
	return CanAccess(requester, target, uc.org)
}

func (uc *AccessUseCase) Scope(requester types.UserID) *model.AccessScope {
	return ScopeOf(requester, uc.org)
}

// Org returns the organization the use case was built with
func (uc *AccessUseCase) Org() *model.OrgHierarchy {
	return uc.org
}
