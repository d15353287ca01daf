package domain

import "time"

// Permission strings follow an <area>:<verb> convention and are the unit of
// authorization for the admin API.
const (
	PermCatalogRead    = "catalog:read"
	PermCatalogWrite   = "catalog:write"
	PermOrdersRead     = "orders:read"
	PermOrdersWrite    = "orders:write"
	PermCustomersRead  = "customers:read"
	PermCustomersWrite = "customers:write"
	PermRolesWrite     = "roles:write"
	PermSegmentsWrite  = "segments:write"
	PermSettingsWrite  = "settings:write"
	PermMediaWrite     = "media:write"
)

// AllPermissions lists every permission the admin API understands.
var AllPermissions = []string{
	PermCatalogRead,
	PermCatalogWrite,
	PermOrdersRead,
	PermOrdersWrite,
	PermCustomersRead,
	PermCustomersWrite,
	PermRolesWrite,
	PermSegmentsWrite,
	PermSettingsWrite,
	PermMediaWrite,
}

func ValidPermission(p string) bool {
	for _, known := range AllPermissions {
		if known == p {
			return true
		}
	}
	return false
}

// Role groups permissions for staff users. System roles keep their name and
// cannot be deleted.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	IsSystem    bool      `json:"isSystem"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasPermission reports whether the role grants p.
func (r Role) HasPermission(p string) bool {
	for _, granted := range r.Permissions {
		if granted == p {
			return true
		}
	}
	return false
}

// StaffUser is an admin-console account bound to a role.
type StaffUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       string    `json:"roleId"`
	RoleName     string    `json:"roleName,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}
