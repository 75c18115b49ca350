package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
)

func newHierarchy() *model.OrgHierarchy {
	return &model.OrgHierarchy{
		CEOID:    "ceo_test",
		AdminIDs: map[types.UserID]struct{}{"admin_1": {}},
		ManagerToReports: map[types.UserID][]types.UserID{
			"mgr_1": {"user_alice", "mgr_2"},
			"mgr_2": {"user_bob"},
		},
		Members: map[types.UserID]struct{}{"user_carol": {}},
	}
}

func TestOrgHierarchy_RoleOf(t *testing.T) {
	h := newHierarchy()
	gt.Value(t, h.RoleOf("ceo_test")).Equal(types.RoleCEO)
	gt.Value(t, h.RoleOf("admin_1")).Equal(types.RoleOrgAdmin)
	gt.Value(t, h.RoleOf("mgr_2")).Equal(types.RoleManager)
	gt.Value(t, h.RoleOf("user_alice")).Equal(types.RoleUser)
	gt.Value(t, h.RoleOf("stranger")).Equal(types.RoleUser)
	gt.Value(t, h.RoleOf("")).Equal(types.RoleUser)
}

func TestOrgHierarchy_AllUserIDs(t *testing.T) {
	all := newHierarchy().AllUserIDs()
	gt.Number(t, len(all)).Equal(7)
	gt.Map(t, all).HasKey("user_bob")
	gt.Map(t, all).HasKey("user_carol")
}

func TestOrgHierarchy_DirectReportsIsACopy(t *testing.T) {
	h := newHierarchy()
	reports := h.DirectReports("mgr_1")
	reports[0] = "mutated"
	gt.Value(t, h.ManagerToReports["mgr_1"][0]).Equal(types.UserID("user_alice"))
}
