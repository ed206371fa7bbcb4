package shared

// Core platform grants. Colons separate resource from action.
const (
	GrantUsersList    = "users:list"
	GrantUsersEdit    = "users:edit"
	GrantRolesList    = "roles:list"
	GrantRolesManage  = "roles:manage"
	GrantGrantsList   = "grants:list"
	GrantGrantsManage = "grants:manage"
	GrantAuditView    = "audit:view"
)

// CoreGrants lists all grants shipped with the core platform.
func CoreGrants() []string {
	return []string{
		GrantUsersList,
		GrantUsersEdit,
		GrantRolesList,
		GrantRolesManage,
		GrantGrantsList,
		GrantGrantsManage,
		GrantAuditView,
	}
}
