package domain

import "time"

// PolicyChangeKind names a policy mutation.
type PolicyChangeKind string

const (
	PolicyChangeRoleGranted                PolicyChangeKind = "role.granted"
	PolicyChangeRoleRevoked                PolicyChangeKind = "role.revoked"
	PolicyChangeRolePermissionGranted      PolicyChangeKind = "role.permission.granted"
	PolicyChangeRolePermissionRevoked      PolicyChangeKind = "role.permission.revoked"
	PolicyChangeRolePermissionsReplaced    PolicyChangeKind = "role.permissions.replaced"
	PolicyChangeEndpointPermissionGranted  PolicyChangeKind = "endpoint.permission.granted"
	PolicyChangeEndpointPermissionRevoked  PolicyChangeKind = "endpoint.permission.revoked"
	PolicyChangeEndpointPermissionsReplace PolicyChangeKind = "endpoint.permissions.replaced"
	PolicyChangeRoleCreated                PolicyChangeKind = "role.created"
	PolicyChangeRoleUpdated                PolicyChangeKind = "role.updated"
	PolicyChangeRoleDeleted                PolicyChangeKind = "role.deleted"
	PolicyChangeEndpointCreated            PolicyChangeKind = "endpoint.created"
	PolicyChangeEndpointUpdated            PolicyChangeKind = "endpoint.updated"
	PolicyChangeEndpointDeleted            PolicyChangeKind = "endpoint.deleted"
	PolicyChangePermissionCreated          PolicyChangeKind = "permission.created"
	PolicyChangeAdminGranted               PolicyChangeKind = "admin.granted"
	PolicyChangeAdminRevoked               PolicyChangeKind = "admin.revoked"
)

// PolicyChangedEvent is the audit record emitted after a successful policy mutation.
type PolicyChangedEvent struct {
	EventID       string
	Kind          PolicyChangeKind
	ActorID       *int64
	RoleID        *int64
	EndpointID    *int64
	UserID        *int64
	PermissionIDs []int64
	OccurredAt    time.Time
}
