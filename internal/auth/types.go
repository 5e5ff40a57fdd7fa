package auth

import "context"

// Role is the persisted role string of a principal.
type Role string

const (
	RoleUser       Role = "ROLE_PORTAL_USER"
	RoleAdmin      Role = "ROLE_PORTAL_ADMIN"
	RoleSuperAdmin Role = "ROLE_PORTAL_SUPERADMIN"
	RoleManager    Role = "ROLE_PORTAL_MANAGER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin, RoleManager:
		return true
	}
	return false
}

// Principal is an authenticated identity, resolved fresh on every request.
type Principal struct {
	ID      string
	Name    string
	Surname string
	Email   string
	Role    Role
	Active  bool
}

// Credential is what the credential store returns for a login attempt.
type Credential struct {
	Principal
	PasswordHash string
}

// CredentialStore looks up principals by normalized email. Implementations return
// an error wrapping ErrCredentialNotFound when no row matches.
type CredentialStore interface {
	CredentialByEmail(ctx context.Context, email string) (Credential, error)
}
