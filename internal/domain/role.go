package domain

// Roles carried in JWT claims.
const (
	RoleUser = "user"
	// RoleService is held by trusted backends that publish fan-out events.
	RoleService = "service"
)
