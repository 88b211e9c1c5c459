package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsboard/opsboard/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user with this email already exists")
	ErrTenantExists       = errors.New("tenant with this slug already exists")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)

// PermissionCache holds the role/permission set resolved at sign-in for the
// session's lifetime. Backed by redis in production, evicted on Teardown.
type PermissionCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Service struct {
	repo   *Repository
	cache  PermissionCache
	config *config.JWTConfig
}

func NewService(repo *Repository, cache PermissionCache, cfg *config.JWTConfig) *Service {
	return &Service{repo: repo, cache: cache, config: cfg}
}

type JWTClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

// User authentication
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	existing, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Status:       "active",
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *Service) generateToken(user *User) (string, error) {
	claims := JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.config.ExpirationDuration())),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrUnauthorized
}

// Tenant management
func (s *Service) CreateTenant(ctx context.Context, userID uuid.UUID, req *CreateTenantRequest) (*Tenant, error) {
	existing, err := s.repo.GetTenantBySlug(ctx, req.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTenantExists
	}

	tenant := &Tenant{
		ID:   uuid.New(),
		Name: req.Name,
		Slug: req.Slug,
	}

	if err := s.repo.CreateTenant(ctx, tenant); err != nil {
		return nil, err
	}

	adminRole := &Role{
		ID:          uuid.New(),
		TenantID:    tenant.ID,
		Name:        AdminRole,
		Permissions: AdminPermissions,
	}
	if err := s.repo.CreateRole(ctx, adminRole); err != nil {
		return nil, err
	}

	operatorRole := &Role{
		ID:          uuid.New(),
		TenantID:    tenant.ID,
		Name:        "operator",
		Permissions: OperatorPermissions,
	}
	if err := s.repo.CreateRole(ctx, operatorRole); err != nil {
		return nil, err
	}

	viewerRole := &Role{
		ID:          uuid.New(),
		TenantID:    tenant.ID,
		Name:        "viewer",
		Permissions: ViewerPermissions,
	}
	if err := s.repo.CreateRole(ctx, viewerRole); err != nil {
		return nil, err
	}

	membership := &Membership{
		ID:       uuid.New(),
		TenantID: tenant.ID,
		UserID:   userID,
		RoleID:   adminRole.ID,
	}
	if err := s.repo.CreateMembership(ctx, membership); err != nil {
		return nil, err
	}

	return tenant, nil
}

func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	tenant, err := s.repo.GetTenantByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrNotFound
	}
	return tenant, nil
}

func (s *Service) GetTenantsByUser(ctx context.Context, userID uuid.UUID) ([]*Tenant, error) {
	return s.repo.GetTenantsByUserID(ctx, userID)
}

func (s *Service) GetRoles(ctx context.Context, tenantID uuid.UUID) ([]*Role, error) {
	return s.repo.GetRolesByTenantID(ctx, tenantID)
}

func (s *Service) AddMember(ctx context.Context, tenantID uuid.UUID, userEmail string, roleID uuid.UUID) (*Membership, error) {
	user, err := s.repo.GetUserByEmail(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	membership := &Membership{
		ID:       uuid.New(),
		TenantID: tenantID,
		UserID:   user.ID,
		RoleID:   roleID,
	}
	if err := s.repo.CreateMembership(ctx, membership); err != nil {
		return nil, err
	}
	// Role set changed; force re-resolution on next check.
	_ = s.InvalidatePermissions(ctx, tenantID, user.ID)
	return membership, nil
}

func (s *Service) RemoveMember(ctx context.Context, tenantID, userID uuid.UUID) error {
	if err := s.repo.DeleteMembership(ctx, tenantID, userID); err != nil {
		return err
	}
	return s.InvalidatePermissions(ctx, tenantID, userID)
}

// cachedGrants is the serialized form of a resolved permission set.
type cachedGrants struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func permissionCacheKey(tenantID, userID uuid.UUID) string {
	return fmt.Sprintf("perms:%s:%s", tenantID, userID)
}

// ResolvePermissions resolves the actor's role set and the permission set
// those roles imply. Resolution hits the store once per session; subsequent
// calls within the session TTL are served from the cache.
func (s *Service) ResolvePermissions(ctx context.Context, tenantID, userID uuid.UUID) ([]string, []string, error) {
	key := permissionCacheKey(tenantID, userID)

	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var grants cachedGrants
			if err := json.Unmarshal([]byte(raw), &grants); err == nil {
				return grants.Roles, grants.Permissions, nil
			}
		}
	}

	roles, err := s.repo.GetRolesByMember(ctx, tenantID, userID)
	if err != nil {
		return nil, nil, err
	}
	if len(roles) == 0 {
		return nil, nil, ErrForbidden
	}

	grants := cachedGrants{}
	seen := make(map[string]struct{})
	for _, role := range roles {
		grants.Roles = append(grants.Roles, role.Name)
		for _, p := range role.Permissions {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			grants.Permissions = append(grants.Permissions, p)
		}
	}

	if s.cache != nil {
		if raw, err := json.Marshal(grants); err == nil {
			_ = s.cache.Set(ctx, key, string(raw), s.config.ExpirationDuration())
		}
	}

	return grants.Roles, grants.Permissions, nil
}

// InvalidatePermissions evicts the cached permission set (sign-out, role
// changes).
func (s *Service) InvalidatePermissions(ctx context.Context, tenantID, userID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, permissionCacheKey(tenantID, userID))
}

// NewSessionFor builds the session value object for an authenticated actor
// in a tenant. Callers must Initialize it before permission checks resolve.
func (s *Service) NewSessionFor(userID, tenantID uuid.UUID) *Session {
	return NewSession(userID, tenantID, s)
}
