package model

// Privilege codes checked by middleware.RequirePrivilege.
const (
	PrivUserManage     = "user:manage"
	PrivUserCreate     = "user:create"
	PrivCategoryView   = "category:view"
	PrivCategoryWrite  = "category:write"
	PrivProductView    = "product:view"
	PrivProductWrite   = "product:write"
	PrivStockView      = "stock:view"
	PrivStockRecord    = "stock:record"
	PrivStockDelete    = "stock:delete"
	PrivDashboardView  = "dashboard:view"
	PrivLedgerFeedView = "ledger:feed"
)

// rolePrivileges maps each role to what it may do. Staff may record movements,
// but the ledger itself still refuses OUT movements for staff.
var rolePrivileges = map[Role][]string{
	RoleAdmin: {
		PrivUserManage, PrivUserCreate,
		PrivCategoryView, PrivCategoryWrite,
		PrivProductView, PrivProductWrite,
		PrivStockView, PrivStockRecord, PrivStockDelete,
		PrivDashboardView, PrivLedgerFeedView,
	},
	RoleStaff: {
		PrivCategoryView,
		PrivProductView,
		PrivStockView, PrivStockRecord,
		PrivDashboardView, PrivLedgerFeedView,
	},
}

// PrivilegesFor returns the privilege codes granted to role.
func PrivilegesFor(role Role) []string {
	privs := rolePrivileges[role]
	out := make([]string, len(privs))
	copy(out, privs)
	return out
}

// HasPrivilege checks if the role grants a specific privilege
func (r Role) HasPrivilege(code string) bool {
	for _, p := range rolePrivileges[r] {
		if p == code {
			return true
		}
	}
	return false
}
