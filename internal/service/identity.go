package service

import "github.com/noah-isme/qpflow-api/internal/models"

// Identity is the caller resolved by the auth middleware: who is acting and
// which global privilege grants they hold. It lives for one request only.
type Identity struct {
	UserID     uint
	Privileges []string
}

// IsAdmin reports whether the identity holds the global ADMIN privilege.
func (i Identity) IsAdmin() bool {
	return i.HasPrivilege(models.PrivilegeAdmin)
}

// HasPrivilege reports whether the identity holds the named privilege.
func (i Identity) HasPrivilege(name string) bool {
	for _, p := range i.Privileges {
		if p == name {
			return true
		}
	}
	return false
}

// ActorID returns the identity's user id as an audit actor reference.
func (i Identity) ActorID() *uint {
	if i.UserID == 0 {
		return nil
	}
	id := i.UserID
	return &id
}
