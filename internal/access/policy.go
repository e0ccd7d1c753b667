// Package access implements the access policy gate for lead operations.
// The policy is a static role to operation matrix evaluated before any
// domain logic runs. It is stateless and side-effect free.
package access

import (
	"leadhub_backend/platform/apperr"

	"github.com/google/uuid"
)

// Operation identifies an action a principal may attempt on tenant data.
type Operation string

const (
	OpRead       Operation = "read"
	OpCreate     Operation = "create"
	OpUpdate     Operation = "update"
	OpDelete     Operation = "delete"
	OpBulkTag    Operation = "bulk_tag"
	OpManageTags Operation = "manage_tags"
)

// Known roles. Role names arrive in JWT claims from the identity provider.
const (
	RoleAdmin       = "admin"
	RoleOrganizer   = "organizer"
	RoleDeveloper   = "developer"
	RoleInterviewer = "interviewer"
)

var allOperations = []Operation{OpRead, OpCreate, OpUpdate, OpDelete, OpBulkTag, OpManageTags}

// rolePermissions is the static policy matrix. Interviewers can capture and
// browse leads but never mutate lifecycle state or tags.
var rolePermissions = map[string]map[Operation]bool{
	RoleAdmin:       permitAll(),
	RoleOrganizer:   permitAll(),
	RoleDeveloper:   permitAll(),
	RoleInterviewer: permit(OpRead, OpCreate),
}

func permitAll() map[Operation]bool {
	return permit(allOperations...)
}

func permit(ops ...Operation) map[Operation]bool {
	set := make(map[Operation]bool, len(ops))
	for _, op := range ops {
		set[op] = true
	}
	return set
}

// Principal is the acting identity as supplied by the session layer.
// TenantID is the tenant scope the principal is authorized for.
type Principal struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Roles    []string
}

// Authorize checks whether the principal may perform op on the given tenant's
// leads. Cross-tenant access is denied regardless of role. Returns a typed
// forbidden error on denial, nil on approval.
func Authorize(p Principal, op Operation, tenantID uuid.UUID) error {
	if tenantID == uuid.Nil || tenantID != p.TenantID {
		return apperr.Forbidden("tenant out of scope")
	}

	for _, role := range p.Roles {
		if rolePermissions[role][op] {
			return nil
		}
	}

	return apperr.Forbidden("operation not permitted for role")
}
