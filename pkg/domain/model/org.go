package model

import (
	"slices"

	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// OrgHierarchy is the static reporting structure of one organization. It is
// read-only after construction and safe for concurrent readers.
type OrgHierarchy struct {
	CEOID            types.UserID
	AdminIDs         map[types.UserID]struct{}
	ManagerToReports map[types.UserID][]types.UserID
	// Members lists users that are neither CEO, admin, manager nor report
	Members map[types.UserID]struct{}
}

// RoleOf resolves the role of a user. CEO takes precedence over admin,
// admin over manager.
func (h *OrgHierarchy) RoleOf(id types.UserID) types.Role {
	if h == nil || id == "" {
		return types.RoleUser
	}
	if h.CEOID != "" && id == h.CEOID {
		return types.RoleCEO
	}
	if _, ok := h.AdminIDs[id]; ok {
		return types.RoleOrgAdmin
	}
	if _, ok := h.ManagerToReports[id]; ok {
		return types.RoleManager
	}
	return types.RoleUser
}

// DirectReports returns the direct reports of a manager (not transitive)
func (h *OrgHierarchy) DirectReports(managerID types.UserID) []types.UserID {
	if h == nil {
		return nil
	}
	return slices.Clone(h.ManagerToReports[managerID])
}

// AllUserIDs returns every user known to the organization
func (h *OrgHierarchy) AllUserIDs() map[types.UserID]struct{} {
	all := make(map[types.UserID]struct{})
	if h == nil {
		return all
	}
	if h.CEOID != "" {
		all[h.CEOID] = struct{}{}
	}
	for id := range h.AdminIDs {
		all[id] = struct{}{}
	}
	for mgr, reports := range h.ManagerToReports {
		all[mgr] = struct{}{}
		for _, r := range reports {
			all[r] = struct{}{}
		}
	}
	for id := range h.Members {
		all[id] = struct{}{}
	}
	return all
}

// Contains reports whether the user belongs to the organization
func (h *OrgHierarchy) Contains(id types.UserID) bool {
	_, ok := h.AllUserIDs()[id]
	return ok
}

// AccessScope is computed per request and never stored
type AccessScope struct {
	Role                 types.Role
	CanViewAllUsers      bool
	CanViewTeamAnalytics bool
	DataScope            types.DataScope
	AccessibleUserIDs    map[types.UserID]struct{}
}

// SortedUserIDs returns accessible user IDs in a stable order
func (s *AccessScope) SortedUserIDs() []types.UserID {
	ids := make([]types.UserID, 0, len(s.AccessibleUserIDs))
	for id := range s.AccessibleUserIDs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
