package types

// UserID identifies a user across sources (Slack user ID, tracker login
// mapped by the source adapter, or mailbox owner)
type UserID string

func (u UserID) String() string {
	return string(u)
}

// Role is a user's position in the organization for access control
type Role string

const (
	RoleCEO      Role = "ceo"
	RoleOrgAdmin Role = "org_admin"
	RoleManager  Role = "manager"
	RoleUser     Role = "user"
)

// CanViewTeamAnalytics reports whether the role may call aggregate endpoints
func (r Role) CanViewTeamAnalytics() bool {
	switch r {
	case RoleCEO, RoleOrgAdmin, RoleManager:
		return true
	}
	return false
}

// CanViewAllUsers reports whether the role sees every user in the organization
func (r Role) CanViewAllUsers() bool {
	return r == RoleCEO || r == RoleOrgAdmin
}

func (r Role) String() string {
	return string(r)
}

// DataScope is the breadth of data a requester may read
type DataScope string

const (
	DataScopeSelf DataScope = "self"
	DataScopeTeam DataScope = "team"
	DataScopeOrg  DataScope = "org"
)

// Scope returns the data scope granted to the role
func (r Role) Scope() DataScope {
	switch r {
	case RoleCEO, RoleOrgAdmin:
		return DataScopeOrg
	case RoleManager:
		return DataScopeTeam
	default:
		return DataScopeSelf
	}
}
