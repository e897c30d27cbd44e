package rbac

// Role is the high-level access tier assigned to a user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// Valid reports whether the role is one of the known tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// Permission names gate route groups. Staff can view, managers can edit,
// admins additionally manage the recycle bin.
const (
	PermPurchasingView = "purchasing.view"
	PermPurchasingEdit = "purchasing.edit"
	PermSalesView      = "sales.view"
	PermSalesEdit      = "sales.edit"
	PermMasterdataView = "masterdata.view"
	PermMasterdataEdit = "masterdata.edit"
	PermReportsView    = "reports.view"
	PermRecycleView    = "recyclebin.view"
	PermRecycleRestore = "recyclebin.restore"
)

var staffPerms = []string{
	PermPurchasingView,
	PermSalesView,
	PermMasterdataView,
	PermReportsView,
}

var managerPerms = append(append([]string{}, staffPerms...),
	PermPurchasingEdit,
	PermSalesEdit,
	PermMasterdataEdit,
	PermRecycleView,
)

var adminPerms = append(append([]string{}, managerPerms...),
	PermRecycleRestore,
)

// PermissionsForRole returns the static grant set for a role.
func PermissionsForRole(role Role) []string {
	switch role {
	case RoleAdmin:
		return append([]string(nil), adminPerms...)
	case RoleManager:
		return append([]string(nil), managerPerms...)
	case RoleStaff:
		return append([]string(nil), staffPerms...)
	}
	return nil
}
