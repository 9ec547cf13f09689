// Package user defines the user domain model for authentication and authorization.
package user

import (
	"errors"
	"net/mail"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crowndesk/crowndesk/internal/domain/tenant"
)

// Role represents the authorization role of a user within a tenant.
type Role string

const (
	RoleCrownAdmin      Role = "CROWN_ADMIN"
	RoleFranchisorAdmin Role = "FRANCHISOR_ADMIN"
	RoleFranchiseAdmin  Role = "FRANCHISE_ADMIN"
	RoleAgent           Role = "AGENT"
	RoleUser            Role = "USER"
)

// ValidRoles is the set of all valid user roles.
var ValidRoles = map[Role]bool{
	RoleCrownAdmin:      true,
	RoleFranchisorAdmin: true,
	RoleFranchiseAdmin:  true,
	RoleAgent:           true,
	RoleUser:            true,
}

// AccessLevel is the coarse role grouping that controls which navigation
// and data a user may see.
type AccessLevel string

const (
	AccessCrown      AccessLevel = "CROWN"
	AccessFranchisor AccessLevel = "FRANCHISOR"
	AccessFranchise  AccessLevel = "FRANCHISE"
	AccessUser       AccessLevel = "USER"
)

// AccessLevel maps a role to its access level. Total: unrecognized roles
// map to AccessUser.
func (r Role) AccessLevel() AccessLevel {
	switch r {
	case RoleCrownAdmin:
		return AccessCrown
	case RoleFranchisorAdmin:
		return AccessFranchisor
	case RoleFranchiseAdmin:
		return AccessFranchise
	default:
		return AccessUser
	}
}

// CanManageTenants reports whether the role may create or edit tenants.
func (r Role) CanManageTenants() bool {
	return r == RoleCrownAdmin || r == RoleFranchisorAdmin
}

// CanManageUsers reports whether the role may create or edit users.
func (r Role) CanManageUsers() bool {
	return r == RoleCrownAdmin || r == RoleFranchisorAdmin || r == RoleFranchiseAdmin
}

// CanManageTickets reports whether the role may work tickets.
func (r Role) CanManageTickets() bool {
	return r.CanManageUsers() || r == RoleAgent
}

// CanViewReports reports whether the role may see reporting views.
func (r Role) CanViewReports() bool {
	return r.CanManageUsers()
}

// User represents an authenticated user and their embedded tenant claim.
type User struct {
	ID     int64          `json:"id"`
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	Role   Role           `json:"role"`
	Tenant *tenant.Tenant `json:"tenant,omitempty"`
}

// LoginRequest is the credential payload for the tenant-scoped login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks that the LoginRequest has all required fields.
func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// LoginResponse is the payload returned by a successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"` //nolint:gosec // response field, not a hardcoded secret
	User        User   `json:"user"`
}

// TokenClaims is the JWT payload issued by the backend. The console decodes
// it without verifying the signature; only the backend holds the key.
type TokenClaims struct {
	UserID     int64       `json:"userId"`
	TenantID   int64       `json:"tenantId"`
	TenantSlug string      `json:"tenantSlug"`
	TenantType tenant.Type `json:"tenantType"`
	Role       Role        `json:"role"`
	Email      string      `json:"email"`
	Brand      string      `json:"brand,omitempty"`
	Segment    string      `json:"segment,omitempty"`
	jwt.RegisteredClaims
}

// DecodeToken extracts the claims from a bearer token without verifying its
// signature. Used for client-side tenant resolution only, never for
// authorization decisions.
func DecodeToken(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.New("malformed token")
	}
	return claims, nil
}
