package authz

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
	RoleViewer  Role = "viewer"
)

type Capability string

// --- СПИСОК ВСЕХ ВОЗМОЖНОСТЕЙ В СИСТЕМЕ ---
const (
	Read             Capability = "read"
	Write            Capability = "write"
	Delete           Capability = "delete"
	ManageUsers      Capability = "manage_users"
	ManageCategories Capability = "manage_categories"
)

// roleCapabilities - единственный источник правды о правах ролей.
var roleCapabilities = map[Role][]Capability{
	RoleAdmin:   {Read, Write, Delete, ManageUsers, ManageCategories},
	RoleManager: {Read, Write, Delete, ManageCategories},
	RoleUser:    {Read, Write},
	RoleViewer:  {Read},
}

func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleUser, RoleViewer}
}

func (r Role) IsValid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// CapabilitiesFor возвращает копию набора возможностей роли. Для неизвестной роли набор пуст.
func CapabilitiesFor(role Role) []Capability {
	caps := roleCapabilities[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

func HasPermission(role Role, capability Capability) bool {
	for _, c := range roleCapabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}
