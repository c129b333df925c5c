// Package rbac holds the static permission table and the membership
// check every facade operation runs before touching storage.
package rbac

import "mocdesk.org/internal/domain"

// Verb distinguishes read from write access.
type Verb string

const (
	Read  Verb = "read"
	Write Verb = "write"
)

type roleSet map[domain.Role]struct{}

func set(roles ...domain.Role) roleSet {
	s := make(roleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

type permission struct {
	read  roleSet
	write roleSet
}

// rules is declared once at init and never mutated. Admin is absent on
// purpose: Allowed grants it everything regardless of the table.
var rules = map[domain.Resource]permission{
	domain.ResourceFacilities: {
		read:  set(domain.RoleFacilityManager, domain.RoleProcessEngineer),
		write: set(domain.RoleFacilityManager),
	},
	domain.ResourceAssets: {
		read:  set(domain.RoleFacilityManager, domain.RoleMaintenanceTech),
		write: set(domain.RoleFacilityManager, domain.RoleMaintenanceTech),
	},
	domain.ResourceMOCs: {
		read: set(domain.RoleFacilityManager, domain.RoleProcessEngineer,
			domain.RoleHSECoordinator, domain.RoleApprovalCommittee),
		write: set(domain.RoleProcessEngineer, domain.RoleFacilityManager,
			domain.RoleApprovalCommittee),
	},
	domain.ResourceRisks: {
		read:  set(domain.RoleProcessEngineer, domain.RoleHSECoordinator),
		write: set(domain.RoleProcessEngineer, domain.RoleHSECoordinator),
	},
	domain.ResourceWorkOrders: {
		read:  set(domain.RoleMaintenanceTech, domain.RoleFacilityManager),
		write: set(domain.RoleMaintenanceTech),
	},
	domain.ResourceAdminUsers: {
		read:  set(),
		write: set(),
	},
	domain.ResourceAuditTrail: {
		read:  set(),
		write: set(),
	},
	domain.ResourceStandards: {
		read: set(domain.RoleFacilityManager, domain.RoleProcessEngineer,
			domain.RoleMaintenanceTech, domain.RoleHSECoordinator,
			domain.RoleApprovalCommittee),
		write: set(domain.RoleFacilityManager),
	},
	domain.ResourceLinks: {
		read: set(domain.RoleFacilityManager, domain.RoleProcessEngineer,
			domain.RoleMaintenanceTech, domain.RoleHSECoordinator,
			domain.RoleApprovalCommittee),
		write: set(domain.RoleFacilityManager),
	},
}

// Allowed reports whether role may perform verb on resource. Admin
// passes unconditionally; unknown resources or verbs always deny.
func Allowed(role domain.Role, resource domain.Resource, verb Verb) bool {
	if role == domain.RoleAdmin {
		return true
	}
	perm, ok := rules[resource]
	if !ok {
		return false
	}
	switch verb {
	case Read:
		_, ok := perm.read[role]
		return ok
	case Write:
		_, ok := perm.write[role]
		return ok
	}
	return false
}
