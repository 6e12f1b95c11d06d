package service

import (
	"errors"

	"presenca_backend/models"
)

// ErrForbidden means the caller holds no administrative capability.
var ErrForbidden = errors.New("administrative capability required")

// AdminCapability is an opaque token proving the holder may administer the
// ledger. Only an AccessControl implementation can mint a valid one; the
// zero value is rejected everywhere.
type AdminCapability struct {
	userID string
}

func (c AdminCapability) valid() bool { return c.userID != "" }

// AccessControl decides who gets an administrative capability. It is a
// collaborator of the service, not part of it: the service trusts the
// capability, never the raw role string.
type AccessControl interface {
	Administer(id models.Identity) (AdminCapability, error)
}

// RoleAccess grants administration to identities carrying the admin role.
type RoleAccess struct{}

func (RoleAccess) Administer(id models.Identity) (AdminCapability, error) {
	if id.Role != models.RoleAdmin {
		return AdminCapability{}, ErrForbidden
	}
	return AdminCapability{userID: id.UserID}, nil
}
