package models

import "time"

// Privilege names are global capability grants. They gate which review role a
// user could ever hold, not which course they hold it for.
const (
	PrivilegeAdmin       = "ADMIN"
	PrivilegeCoordinator = "COORDINATOR"
	PrivilegeDeputyDean  = "DEPUTY_DEAN"
)

// KnownPrivileges lists every privilege the system accepts.
var KnownPrivileges = []string{PrivilegeAdmin, PrivilegeCoordinator, PrivilegeDeputyDean}

// ValidPrivilege reports whether name is a recognised privilege.
func ValidPrivilege(name string) bool {
	for _, p := range KnownPrivileges {
		if p == name {
			return true
		}
	}
	return false
}

// User is an authenticated account. Lecturers carry no privilege at all.
type User struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"size:255;not null" json:"name"`
	Email        string          `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string          `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Privileges   []UserPrivilege `gorm:"constraint:OnDelete:CASCADE" json:"privileges,omitempty"`
}

// ActivePrivileges returns the names of the user's active privilege grants.
func (u User) ActivePrivileges() []string {
	names := make([]string, 0, len(u.Privileges))
	for _, p := range u.Privileges {
		if p.Active {
			names = append(names, p.Privilege)
		}
	}
	return names
}

// HasPrivilege reports whether the user holds an active grant of name.
func (u User) HasPrivilege(name string) bool {
	for _, p := range u.Privileges {
		if p.Active && p.Privilege == name {
			return true
		}
	}
	return false
}

// UserPrivilege is one privilege grant. Revocation flips Active rather than
// deleting the row so the grant history survives.
type UserPrivilege struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_privilege" json:"user_id"`
	Privilege string    `gorm:"size:32;not null;uniqueIndex:idx_user_privilege" json:"privilege"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
