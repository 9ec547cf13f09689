package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/crowndesk/crowndesk/internal/adapter/otel"
	"github.com/crowndesk/crowndesk/internal/domain"
	"github.com/crowndesk/crowndesk/internal/domain/tenant"
	"github.com/crowndesk/crowndesk/internal/domain/user"
	"github.com/crowndesk/crowndesk/internal/port/state"
)

// SessionState is the lifecycle state of the session manager.
type SessionState string

const (
	StateUninitialized SessionState = "UNINITIALIZED"
	StateAnonymous     SessionState = "ANONYMOUS"
	StateAuthenticated SessionState = "AUTHENTICATED"
)

// AuthAPI is the slice of the helpdesk client the session manager needs.
type AuthAPI interface {
	Login(ctx context.Context, slug string, req user.LoginRequest) (*user.LoginResponse, error)
}

// Session is the single source of truth for who is logged in, to which
// tenant, with what token. It owns the durable session keys: nothing else
// may write them.
type Session struct {
	store state.Store
	api   AuthAPI

	initOnce sync.Once

	mu          sync.RWMutex
	initialized bool
	usr         *user.User
	ten         *tenant.Tenant
	token       string
	slug        string
}

// NewSession creates a session manager backed by the given durable store and
// authentication API.
func NewSession(store state.Store, api AuthAPI) *Session {
	return &Session{store: store, api: api}
}

// Initialize rehydrates the session from durable storage. It runs at most
// once per Session; concurrent calls are safe and later calls are no-ops.
// Malformed or partial storage is wiped and the session starts anonymous;
// corruption never surfaces as an error. No network call is made: the
// persisted token is trusted on read and validated lazily by the first
// authenticated call.
func (s *Session) Initialize(ctx context.Context) {
	s.initOnce.Do(func() { s.initialize(ctx) })
}

func (s *Session) initialize(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()
	}()

	token, okToken, err := s.store.Get(ctx, state.KeyToken)
	if err != nil {
		slog.WarnContext(ctx, "session restore failed, starting anonymous", "error", err)
		return
	}
	slug, okSlug, err := s.store.Get(ctx, state.KeyTenantSlug)
	if err != nil {
		slog.WarnContext(ctx, "session restore failed, starting anonymous", "error", err)
		return
	}
	userJSON, okUser, err := s.store.Get(ctx, state.KeyUser)
	if err != nil {
		slog.WarnContext(ctx, "session restore failed, starting anonymous", "error", err)
		return
	}

	if !okToken || !okSlug || !okUser || token == "" || slug == "" {
		s.wipe(ctx)
		return
	}

	var u user.User
	if err := json.Unmarshal([]byte(userJSON), &u); err != nil {
		slog.DebugContext(ctx, "stored user unparsable, wiping session", "error", err)
		s.wipe(ctx)
		return
	}

	s.mu.Lock()
	s.usr = &u
	s.ten = u.Tenant
	s.token = token
	s.slug = slug
	s.mu.Unlock()

	slog.InfoContext(ctx, "session restored", "tenant", slug, "user", u.Email)
}

// wipe clears all session keys so no partial leftovers survive. Best effort.
func (s *Session) wipe(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		slog.WarnContext(ctx, "failed to clear session storage", "error", err)
	}
}

// Login authenticates against the tenant-scoped endpoint. On success the
// token, tenant slug, and user payload are committed to durable storage in
// one transaction and the in-memory session is replaced atomically. On
// failure any prior session state is left untouched.
func (s *Session) Login(ctx context.Context, slug, email, password string) error {
	ctx, span := otel.StartLoginSpan(ctx, slug)
	defer span.End()

	req := user.LoginRequest{Email: email, Password: password}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	resp, err := s.api.Login(ctx, slug, req)
	if err != nil {
		slog.DebugContext(ctx, "login failed", "tenant", slug, "email", email, "error", err)
		return err
	}

	userJSON, err := json.Marshal(resp.User)
	if err != nil {
		return fmt.Errorf("login: marshal user: %w", err)
	}

	if err := s.store.SetMany(ctx, map[string]string{
		state.KeyToken:      resp.AccessToken,
		state.KeyTenantSlug: slug,
		state.KeyUser:       string(userJSON),
	}); err != nil {
		// Still usable in memory; it just won't survive a restart.
		slog.WarnContext(ctx, "failed to persist session", "error", err)
	}

	u := resp.User
	s.mu.Lock()
	s.usr = &u
	s.ten = u.Tenant
	s.token = resp.AccessToken
	s.slug = slug
	s.initialized = true
	s.mu.Unlock()

	slog.InfoContext(ctx, "logged in", "tenant", slug, "user", u.Email, "role", u.Role)
	return nil
}

// Logout clears the in-memory session and durable storage. It never fails:
// storage errors are logged and swallowed.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	s.usr = nil
	s.ten = nil
	s.token = ""
	s.slug = ""
	s.mu.Unlock()

	s.wipe(ctx)
	slog.InfoContext(ctx, "logged out")
}

// Invalidate force-logs-out after an authorization expiry (401 from any
// authenticated call).
func (s *Session) Invalidate(ctx context.Context) {
	slog.WarnContext(ctx, "session invalidated by backend, forcing logout")
	s.Logout(ctx)
}

// State reports the session lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return StateUninitialized
	}
	if s.usr != nil && s.token != "" {
		return StateAuthenticated
	}
	return StateAnonymous
}

// IsAuthenticated reports whether both a user and a token are present.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usr != nil && s.token != ""
}

// Token returns the current bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// TenantSlug returns the slug the current session is scoped to.
func (s *Session) TenantSlug() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slug
}

// User returns a copy of the current user, with ok false when logged out.
func (s *Session) User() (user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.usr == nil {
		return user.User{}, false
	}
	return *s.usr, true
}

// Tenant returns the current tenant record, or nil when absent. Read-only.
func (s *Session) Tenant() *tenant.Tenant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ten
}

// Claims decodes the current token's claims for client-side tenant
// resolution. Fails when logged out or the token is malformed.
func (s *Session) Claims() (*user.TokenClaims, error) {
	token := s.Token()
	if token == "" {
		return nil, fmt.Errorf("claims: not authenticated")
	}
	return user.DecodeToken(token)
}

// AccessLevel derives the coarse access level from the current user's role.
// Total: absent users and unrecognized roles map to AccessUser.
func (s *Session) AccessLevel() user.AccessLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.usr == nil {
		return user.AccessUser
	}
	return s.usr.Role.AccessLevel()
}

// HasRole reports whether the current user has exactly the given role.
func (s *Session) HasRole(role user.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usr != nil && s.usr.Role == role
}

// HasAccessToTenant reports whether the current user may see the given
// tenant. Crown admins see everything; franchisor admins see their own
// tenant and its direct children; everyone else only their own.
func (s *Session) HasAccessToTenant(tenantID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.usr == nil || s.ten == nil {
		return false
	}
	if s.usr.Role == user.RoleCrownAdmin {
		return true
	}
	if s.ten.ID == tenantID {
		return true
	}
	return s.usr.Role == user.RoleFranchisorAdmin && s.ten.HasChild(tenantID)
}

// HasAccessToBrand reports whether the current user may see the given brand.
func (s *Session) HasAccessToBrand(brand string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.usr == nil || s.ten == nil {
		return false
	}
	return s.usr.Role == user.RoleCrownAdmin || s.ten.Brand == brand
}

// HasAccessToSegment reports whether the current user may see the given segment.
func (s *Session) HasAccessToSegment(segment tenant.Segment) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.usr == nil || s.ten == nil {
		return false
	}
	return s.usr.Role == user.RoleCrownAdmin || s.ten.Segment == segment
}

// CanManageTenants reports whether the current user may create or edit tenants.
func (s *Session) CanManageTenants() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usr != nil && s.usr.Role.CanManageTenants()
}

// CanManageUsers reports whether the current user may create or edit users.
func (s *Session) CanManageUsers() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usr != nil && s.usr.Role.CanManageUsers()
}

// CanManageTickets reports whether the current user may work tickets.
func (s *Session) CanManageTickets() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usr != nil && s.usr.Role.CanManageTickets()
}

// CanViewReports reports whether the current user may see reporting views.
func (s *Session) CanViewReports() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usr != nil && s.usr.Role.CanViewReports()
}

// BrandName returns the display brand of the current tenant, or the
// fallback label when none is present.
func (s *Session) BrandName() string {
	return s.Tenant().BrandName()
}

// TenantTypeLabel returns the localized tenant-type label, or the fallback
// label when no tenant is present.
func (s *Session) TenantTypeLabel() string {
	return s.Tenant().TypeLabel()
}

// SegmentLabel returns the localized segment label, or the fallback label
// when no tenant is present.
func (s *Session) SegmentLabel() string {
	return s.Tenant().SegmentLabel()
}
