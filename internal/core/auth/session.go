package auth

import (
	"context"

	"github.com/google/uuid"
)

// SessionState is the lifecycle of an actor's permission resolution.
type SessionState int

const (
	// StateLoading means roles/permissions have not resolved yet; checks
	// report "unresolved" rather than denying, so callers can show a loading
	// boundary instead of flashing unauthorized content.
	StateLoading SessionState = iota
	StateAuthenticated
	StateAnonymous
)

// Session is the actor's resolved authorization state for one tenant: the
// role set is resolved once at sign-in and the implied permission set is held
// for the session's lifetime. Constructed explicitly and passed to whatever
// needs it; Initialize and Teardown bracket sign-in and sign-out.
type Session struct {
	UserID   uuid.UUID
	TenantID uuid.UUID

	state       SessionState
	roles       []string
	permissions map[string]struct{}
	isAdmin     bool

	resolver SessionResolver
}

// SessionResolver is implemented by Service; split out so middleware and
// tests can construct sessions without the full service.
type SessionResolver interface {
	ResolvePermissions(ctx context.Context, tenantID, userID uuid.UUID) (roles []string, permissions []string, err error)
	InvalidatePermissions(ctx context.Context, tenantID, userID uuid.UUID) error
}

func NewSession(userID, tenantID uuid.UUID, resolver SessionResolver) *Session {
	return &Session{
		UserID:   userID,
		TenantID: tenantID,
		state:    StateLoading,
		resolver: resolver,
	}
}

// AnonymousSession is a session that resolved to no authenticated actor.
func AnonymousSession() *Session {
	return &Session{state: StateAnonymous}
}

// Initialize resolves the actor's roles and permission set. A resolution
// failure leaves the session anonymous.
func (s *Session) Initialize(ctx context.Context) error {
	if s.resolver == nil {
		s.state = StateAnonymous
		return ErrUnauthorized
	}

	roles, perms, err := s.resolver.ResolvePermissions(ctx, s.TenantID, s.UserID)
	if err != nil {
		s.state = StateAnonymous
		return err
	}

	s.roles = roles
	s.permissions = make(map[string]struct{}, len(perms))
	for _, p := range perms {
		s.permissions[p] = struct{}{}
	}
	for _, r := range roles {
		if r == AdminRole {
			s.isAdmin = true
		}
	}
	s.state = StateAuthenticated
	return nil
}

// Teardown drops the resolved state and evicts the cached permission set.
func (s *Session) Teardown(ctx context.Context) error {
	s.roles = nil
	s.permissions = nil
	s.isAdmin = false
	state := s.state
	s.state = StateAnonymous
	if state == StateAuthenticated && s.resolver != nil {
		return s.resolver.InvalidatePermissions(ctx, s.TenantID, s.UserID)
	}
	return nil
}

func (s *Session) State() SessionState { return s.state }

// Resolved reports whether permission checks have a definitive answer yet.
func (s *Session) Resolved() bool { return s.state != StateLoading }

func (s *Session) Roles() []string { return s.roles }

func (s *Session) IsAdmin() bool { return s.isAdmin }

// HasPermission reports whether the actor may perform action on resource.
// Action defaults to "view". An actor holding the admin role is granted
// every permission unconditionally. While the session is still loading this
// returns false; callers must check Resolved before treating false as a
// denial.
func (s *Session) HasPermission(resource string, action ...string) bool {
	if s.state != StateAuthenticated {
		return false
	}
	if s.isAdmin {
		return true
	}
	act := ActionView
	if len(action) > 0 && action[0] != "" {
		act = action[0]
	}
	_, ok := s.permissions[Permission(resource, act)]
	return ok
}

// HasAnyPermission is satisfied if the actor holds action on ANY of the
// resources.
func (s *Session) HasAnyPermission(resources []string, action string) bool {
	for _, res := range resources {
		if s.HasPermission(res, action) {
			return true
		}
	}
	return false
}
