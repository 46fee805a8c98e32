package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cee-connect/backend/internal/auth"
	"github.com/cee-connect/backend/internal/models"
)

type fakeUsers struct {
	mu    sync.Mutex
	known map[uuid.UUID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{known: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUsers) add(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.known[u.ID] = u
}

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.known[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, auth.ErrUserNotFound
}

func authRouter(jwtService *auth.JWTService, users *fakeUsers, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := append([]gin.HandlerFunc{Authenticate(jwtService, users)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": CurrentUser(c).ID})
	})
	router.GET("/protected", handlers...)
	return router
}

func request(router *gin.Engine, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func studentUser() *models.User {
	return &models.User{
		ID:     uuid.New(),
		Name:   "Estudiante",
		Email:  "estudiante@cee.edu",
		Status: models.UserActive,
		Role:   models.Role{ID: uuid.New(), Name: "estudiante"},
	}
}

func tokenFor(t *testing.T, jwtService *auth.JWTService, u *models.User) string {
	t.Helper()
	token, err := jwtService.Generate(u.ID, u.Email, u.Role.Name, u.Role.IsAdmin, u.Role.IsSuperAdmin)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func TestAuthenticateRejectsMissingAndBadTokens(t *testing.T) {
	jwtService := auth.NewJWTService("secreto", 1)
	router := authRouter(jwtService, newFakeUsers())

	if w := request(router, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}
	if w := request(router, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer basura")
	}); w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", w.Code)
	}

	// Token signed with a different secret.
	other := auth.NewJWTService("otro-secreto", 1)
	forged := tokenFor(t, other, studentUser())
	if w := request(router, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+forged)
	}); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong-secret token status = %d, want 401", w.Code)
	}
}

func TestAuthenticateAcceptsHeaderAndCookie(t *testing.T) {
	jwtService := auth.NewJWTService("secreto", 1)
	users := newFakeUsers()
	u := studentUser()
	users.add(u)
	router := authRouter(jwtService, users)
	token := tokenFor(t, jwtService, u)

	w := request(router, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("bearer status = %d, want 200. Body: %s", w.Code, w.Body.String())
	}
	var body struct {
		UserID uuid.UUID `json:"userId"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.UserID != u.ID {
		t.Errorf("userId = %s, want %s", body.UserID, u.ID)
	}

	w = request(router, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "token", Value: token})
	})
	if w.Code != http.StatusOK {
		t.Errorf("cookie status = %d, want 200", w.Code)
	}
}

func TestAuthenticateReloadsLiveUser(t *testing.T) {
	jwtService := auth.NewJWTService("secreto", 1)
	users := newFakeUsers()
	u := studentUser()
	users.add(u)
	router := authRouter(jwtService, users)
	token := tokenFor(t, jwtService, u)

	// Deactivate after the token was issued: the token must stop working.
	u.Status = models.UserInactive
	users.add(u)
	w := request(router, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("inactive user status = %d, want 403", w.Code)
	}

	// Deleted subject: 401, not 500.
	ghost := studentUser()
	ghostToken := tokenFor(t, jwtService, ghost)
	w = request(router, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+ghostToken)
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("deleted user status = %d, want 401", w.Code)
	}
}

func TestRequireAdminUsesReloadedRole(t *testing.T) {
	jwtService := auth.NewJWTService("secreto", 1)
	users := newFakeUsers()

	student := studentUser()
	users.add(student)

	admin := studentUser()
	admin.Role = models.Role{ID: uuid.New(), Name: "admin", IsAdmin: true}
	users.add(admin)

	router := authRouter(jwtService, users, RequireAdmin())

	w := request(router, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tokenFor(t, jwtService, student))
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("student status = %d, want 403", w.Code)
	}

	w = request(router, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tokenFor(t, jwtService, admin))
	})
	if w.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", w.Code)
	}
}

func TestRequireSuperAdminReadsClaims(t *testing.T) {
	jwtService := auth.NewJWTService("secreto", 1)
	users := newFakeUsers()

	u := studentUser()
	u.Role = models.Role{ID: uuid.New(), Name: "superadmin", IsAdmin: true, IsSuperAdmin: true}
	users.add(u)
	token := tokenFor(t, jwtService, u)

	// Demote after issuance. The super-admin gate trusts the claims flag,
	// so the old token keeps working until it expires.
	u.Role = models.Role{ID: uuid.New(), Name: "estudiante"}
	users.add(u)

	router := authRouter(jwtService, users, RequireSuperAdmin())
	w := request(router, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	if w.Code != http.StatusOK {
		t.Errorf("claims-flagged token status = %d, want 200", w.Code)
	}

	w = request(router, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tokenFor(t, jwtService, u))
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("demoted token status = %d, want 403", w.Code)
	}
}
