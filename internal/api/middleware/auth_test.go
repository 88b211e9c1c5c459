package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/opsboard/opsboard/internal/config"
	"github.com/opsboard/opsboard/internal/core/auth"
	"github.com/opsboard/opsboard/internal/storage/postgres"
)

var testJWT = &config.JWTConfig{Secret: "test-secret", ExpirationHours: 1}

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(t *testing.T, req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func signToken(t *testing.T, userID uuid.UUID, secret string) string {
	t.Helper()
	claims := auth.JWTClaims{
		UserID: userID,
		Email:  "ops@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

type stubResolver struct {
	roles       []string
	permissions []string
}

func (s *stubResolver) ResolvePermissions(ctx context.Context, tenantID, userID uuid.UUID) ([]string, []string, error) {
	return s.roles, s.permissions, nil
}

func (s *stubResolver) InvalidatePermissions(ctx context.Context, tenantID, userID uuid.UUID) error {
	return nil
}

func sessionWith(t *testing.T, roles, permissions []string) *auth.Session {
	t.Helper()
	s := auth.NewSession(uuid.New(), uuid.New(), &stubResolver{roles: roles, permissions: permissions})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize session: %v", err)
	}
	return s
}

func TestAuthenticate(t *testing.T) {
	m := NewAuthMiddleware(auth.NewService(nil, nil, testJWT))
	userID := uuid.New()

	cases := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc123", http.StatusUnauthorized},
		{"malformed token", "Bearer not-a-token", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, userID, "other-secret"), http.StatusUnauthorized},
		{"valid token", "Bearer " + signToken(t, userID, testJWT.Secret), http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/workflows", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			c, w := newContext(t, req)

			m.Authenticate()(c)

			if tc.wantStatus == http.StatusOK {
				if c.IsAborted() {
					t.Fatalf("request aborted: %s", w.Body.String())
				}
				got, ok := GetUserID(c)
				if !ok || got != userID {
					t.Errorf("user id not set, got %v", got)
				}
			} else if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}

func TestRequireTenant_BadInputs(t *testing.T) {
	m := NewAuthMiddleware(auth.NewService(nil, nil, testJWT))

	t.Run("missing tenant id", func(t *testing.T) {
		c, w := newContext(t, httptest.NewRequest(http.MethodGet, "/api/workflows", nil))
		c.Set(ContextUserID, uuid.New())
		m.RequireTenant()(c)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("malformed tenant id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/workflows", nil)
		req.Header.Set("X-Tenant-ID", "not-a-uuid")
		c, w := newContext(t, req)
		c.Set(ContextUserID, uuid.New())
		m.RequireTenant()(c)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/workflows", nil)
		req.Header.Set("X-Tenant-ID", uuid.New().String())
		c, w := newContext(t, req)
		m.RequireTenant()(c)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}

// An authenticated user with no membership in the requested tenant is denied,
// not shown an empty dashboard.
func TestRequireTenant_NoMembershipIsDenied(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectQuery("SELECT r.id, r.tenant_id, r.name").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "permissions", "created_at"}))

	svc := auth.NewService(auth.NewRepository(&postgres.Client{DB: db}), nil, testJWT)
	m := NewAuthMiddleware(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/workflows", nil)
	req.Header.Set("X-Tenant-ID", uuid.New().String())
	c, w := newContext(t, req)
	c.Set(ContextUserID, uuid.New())

	m.RequireTenant()(c)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	m := NewAuthMiddleware(nil)

	t.Run("granted", func(t *testing.T) {
		c, w := newContext(t, httptest.NewRequest(http.MethodGet, "/api/workflows", nil))
		c.Set(ContextSession, sessionWith(t, []string{"operator"},
			[]string{auth.Permission(auth.ResourceWorkflows, auth.ActionView)}))

		m.RequirePermission(auth.ResourceWorkflows, auth.ActionView)(c)

		if c.IsAborted() {
			t.Errorf("granted permission aborted: %s", w.Body.String())
		}
	})

	t.Run("denied", func(t *testing.T) {
		c, w := newContext(t, httptest.NewRequest(http.MethodDelete, "/api/workflows/1", nil))
		c.Set(ContextSession, sessionWith(t, []string{"viewer"},
			[]string{auth.Permission(auth.ResourceWorkflows, auth.ActionView)}))

		m.RequirePermission(auth.ResourceWorkflows, auth.ActionDelete)(c)

		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("admin bypass", func(t *testing.T) {
		c, w := newContext(t, httptest.NewRequest(http.MethodDelete, "/api/workflows/1", nil))
		c.Set(ContextSession, sessionWith(t, []string{auth.AdminRole}, nil))

		m.RequirePermission(auth.ResourceWorkflows, auth.ActionDelete)(c)

		if c.IsAborted() {
			t.Errorf("admin aborted: %s", w.Body.String())
		}
	})

	t.Run("no session", func(t *testing.T) {
		c, w := newContext(t, httptest.NewRequest(http.MethodGet, "/api/workflows", nil))
		m.RequirePermission(auth.ResourceWorkflows, auth.ActionView)(c)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})
}

func TestRequireAnyPermission(t *testing.T) {
	m := NewAuthMiddleware(nil)
	resources := []string{auth.ResourceWorkflows, auth.ResourceChats}

	t.Run("one of several granted", func(t *testing.T) {
		c, w := newContext(t, httptest.NewRequest(http.MethodGet, "/api/overview", nil))
		c.Set(ContextSession, sessionWith(t, []string{"viewer"},
			[]string{auth.Permission(auth.ResourceChats, auth.ActionView)}))

		m.RequireAnyPermission(resources, auth.ActionView)(c)

		if c.IsAborted() {
			t.Errorf("aborted: %s", w.Body.String())
		}
	})

	t.Run("none granted", func(t *testing.T) {
		c, w := newContext(t, httptest.NewRequest(http.MethodGet, "/api/overview", nil))
		c.Set(ContextSession, sessionWith(t, []string{"viewer"},
			[]string{auth.Permission(auth.ResourceContacts, auth.ActionView)}))

		m.RequireAnyPermission(resources, auth.ActionView)(c)

		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	m := NewAuthMiddleware(nil)

	t.Run("admin", func(t *testing.T) {
		c, w := newContext(t, httptest.NewRequest(http.MethodPost, "/api/members", nil))
		c.Set(ContextSession, sessionWith(t, []string{auth.AdminRole}, nil))
		m.RequireAdmin()(c)
		if c.IsAborted() {
			t.Errorf("admin aborted: %s", w.Body.String())
		}
	})

	t.Run("non-admin", func(t *testing.T) {
		c, w := newContext(t, httptest.NewRequest(http.MethodPost, "/api/members", nil))
		c.Set(ContextSession, sessionWith(t, []string{"operator"}, nil))
		m.RequireAdmin()(c)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})
}
