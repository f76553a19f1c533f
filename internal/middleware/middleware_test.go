package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"flowershop/internal/config"
	"flowershop/internal/domain/model"
	"flowershop/internal/logging"
	"flowershop/internal/middleware"
	"flowershop/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// レスポンス確認用
// =====================

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
}

// =====================
// UserRepository モック
// =====================

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	panic("not used in middleware tests")
}

func (m *MockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	panic("not used in middleware tests")
}

func (m *MockUserRepo) FindByChannelID(ctx context.Context, channelID string) (*model.User, error) {
	panic("not used in middleware tests")
}

func (m *MockUserRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.User, error) {
	panic("not used in middleware tests")
}

func (m *MockUserRepo) Update(ctx context.Context, user *model.User) error {
	panic("not used in middleware tests")
}

func (m *MockUserRepo) SetChannelID(ctx context.Context, userID int64, channelID *string) error {
	panic("not used in middleware tests")
}

func (m *MockUserRepo) IncrementTokenVersion(ctx context.Context, id int64) error {
	panic("not used in middleware tests")
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

// =====================
// helper
// =====================

func testConfig() config.Config {
	return config.Config{
		JWT: config.JWT{Secret: "test-secret"},
		App: config.App{LoginURL: "/login"},
	}
}

func mustMakeJWT(t *testing.T, secret string, sub int64, role string, tv int, signingMethod jwt.SigningMethod) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"tv":   tv,
		"iat":  1,
		"exp":  9999999999,
	}

	s, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return s
}

func runRequest(t *testing.T, e *echo.Echo, method, path, authHeader string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeMWError(t *testing.T, rec *httptest.ResponseRecorder) mwErrorResponse {
	t.Helper()
	var r mwErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	return r
}

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
}

// =====================
// AuthJWT
// =====================

// Authorizationなし => 401
func TestAuthJWT_Unauthorized_NoHeader(t *testing.T) {
	e := echo.New()
	e.GET("/protected", okHandler, middleware.AuthJWT(testConfig()))

	rec := runRequest(t, e, http.MethodGet, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeMWError(t, rec).Error)
}

// ブラウザならログイン画面へ
func TestAuthJWT_RedirectsBrowserToLogin(t *testing.T) {
	e := echo.New()
	e.GET("/cart", okHandler, middleware.AuthJWT(testConfig()))

	rec := runRequest(t, e, http.MethodGet, "/cart?x=1", "", "Accept", "text/html,application/xhtml+xml")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fcart%3Fx%3D1", rec.Header().Get("Location"))
}

// Bearer形式じゃない => 401
func TestAuthJWT_Unauthorized_BadScheme(t *testing.T) {
	e := echo.New()
	e.GET("/protected", okHandler, middleware.AuthJWT(testConfig()))

	rec := runRequest(t, e, http.MethodGet, "/protected", "Token abc.def.ghi")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// 署名違い => 401
func TestAuthJWT_Unauthorized_BadSignature(t *testing.T) {
	e := echo.New()
	e.GET("/protected", okHandler, middleware.AuthJWT(testConfig()))

	raw := mustMakeJWT(t, "wrong-secret", 1, "USER", 0, jwt.SigningMethodHS256)

	rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// アルゴリズム違い（HS512）=> 401
func TestAuthJWT_Unauthorized_WrongAlg(t *testing.T) {
	e := echo.New()
	cfg := testConfig()
	e.GET("/protected", okHandler, middleware.AuthJWT(cfg))

	raw := mustMakeJWT(t, cfg.JWT.Secret, 1, "USER", 0, jwt.SigningMethodHS512)

	rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// 正常：ctxに値が入る
func TestAuthJWT_Success_SetsContext(t *testing.T) {
	e := echo.New()
	cfg := testConfig()

	e.GET("/protected", func(c echo.Context) error {
		userID, _ := c.Get(middleware.CtxUserIDKey).(int64)
		role, _ := c.Get(middleware.CtxUserRoleKey).(string)
		tv, _ := c.Get(middleware.CtxTokenVersionKey).(int)
		return c.JSON(http.StatusOK, mwOKResponse{UserID: userID, Role: role, TokenVersion: tv})
	}, middleware.AuthJWT(cfg))

	raw := mustMakeJWT(t, cfg.JWT.Secret, 123, "USER", 7, jwt.SigningMethodHS256)

	rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+raw)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	_ = json.NewDecoder(rec.Body).Decode(&body)
	assert.Equal(t, int64(123), body.UserID)
	assert.Equal(t, "USER", body.Role)
	assert.Equal(t, 7, body.TokenVersion)
}

// =====================
// TokenVersionGuard
// =====================

// AuthJWT無しでGuardだけ => 401
func TestTokenVersionGuard_Unauthorized_MissingContext(t *testing.T) {
	e := echo.New()
	userRepo := new(MockUserRepo)
	e.GET("/protected", okHandler, middleware.TokenVersionGuard(userRepo))

	rec := runRequest(t, e, http.MethodGet, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// tv不一致 => 401
func TestTokenVersionGuard_Unauthorized_TokenVersionMismatch(t *testing.T) {
	e := echo.New()
	cfg := testConfig()
	userRepo := new(MockUserRepo)

	userRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{
		ID: 1, Role: model.RoleUser, TokenVersion: 1, IsActive: true,
	}, nil)

	e.GET("/protected", okHandler, middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo))

	raw := mustMakeJWT(t, cfg.JWT.Secret, 1, "USER", 0, jwt.SigningMethodHS256)
	rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userRepo.AssertExpectations(t)
}

// 無効化されたユーザー => 401
func TestTokenVersionGuard_Unauthorized_Inactive(t *testing.T) {
	e := echo.New()
	cfg := testConfig()
	userRepo := new(MockUserRepo)

	userRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{
		ID: 1, Role: model.RoleUser, TokenVersion: 0, IsActive: false,
	}, nil)

	e.GET("/protected", okHandler, middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo))

	raw := mustMakeJWT(t, cfg.JWT.Secret, 1, "USER", 0, jwt.SigningMethodHS256)
	rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// tv一致 => 200
func TestTokenVersionGuard_Success(t *testing.T) {
	e := echo.New()
	cfg := testConfig()
	userRepo := new(MockUserRepo)

	userRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{
		ID: 1, Role: model.RoleUser, TokenVersion: 5, IsActive: true,
	}, nil)

	e.GET("/protected", okHandler, middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo))

	raw := mustMakeJWT(t, cfg.JWT.Secret, 1, "USER", 5, jwt.SigningMethodHS256)
	rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+raw)
	assert.Equal(t, http.StatusOK, rec.Code)

	userRepo.AssertExpectations(t)
}

// =====================
// AdminRoleGuard
// =====================

func TestAdminRoleGuard(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name string
		role string
		want int
	}{
		{"admin", "ADMIN", http.StatusOK},
		{"user", "USER", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/admin", okHandler, middleware.AuthJWT(cfg), middleware.AdminRoleGuard())

			raw := mustMakeJWT(t, cfg.JWT.Secret, 1, tt.role, 0, jwt.SigningMethodHS256)
			rec := runRequest(t, e, http.MethodGet, "/admin", "Bearer "+raw)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

// =====================
// RequestLogger
// =====================

func TestRequestLogger_SetsRequestIDAndLogger(t *testing.T) {
	e := echo.New()
	e.Use(middleware.RequestLogger(logging.Base()))

	var sawLogger bool
	e.GET("/ping", func(c echo.Context) error {
		sawLogger = logging.FromCtx(c.Request().Context()) != logging.Base()
		return c.NoContent(http.StatusNoContent)
	})

	rec := runRequest(t, e, http.MethodGet, "/ping", "", middleware.HeaderRequestID, "req-1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(middleware.HeaderRequestID))
	assert.True(t, sawLogger)
}

func TestRequestLogger_GeneratesRequestID(t *testing.T) {
	e := echo.New()
	e.Use(middleware.RequestLogger(logging.Base()))
	e.GET("/ping", okHandler)

	rec := runRequest(t, e, http.MethodGet, "/ping", "")
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))
}
