package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	admindomain "github.com/veilcrypt/licensed/internal/admin/domain"
	authdomain "github.com/veilcrypt/licensed/internal/auth/domain"
	"github.com/veilcrypt/licensed/internal/auth/token"
	"github.com/veilcrypt/licensed/internal/config"
	licensedomain "github.com/veilcrypt/licensed/internal/license/domain"
	stubdomain "github.com/veilcrypt/licensed/internal/stub/domain"
	usagedomain "github.com/veilcrypt/licensed/internal/usage/domain"
)

type fakeAuthService struct {
	registerCalls int
	lastRegister  authdomain.RegisterRequest
	registerErr   error
}

func (f *fakeAuthService) Register(ctx context.Context, req authdomain.RegisterRequest) (*authdomain.AuthResult, error) {
	f.registerCalls++
	f.lastRegister = req
	_ = ctx
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &authdomain.AuthResult{
		Token: "issued-token",
		User:  authdomain.UserView{ID: "200", Email: req.Email, Role: authdomain.RoleUser, Active: true},
	}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.AuthResult, error) {
	_ = ctx
	if req.Password != "correct-horse-battery" {
		return nil, authdomain.ErrInvalidCredentials
	}
	return &authdomain.AuthResult{
		Token: "issued-token",
		User:  authdomain.UserView{ID: "200", Email: req.Email, Role: authdomain.RoleUser, Active: true},
	}, nil
}

func (f *fakeAuthService) Refresh(ctx context.Context, userID string) (*authdomain.AuthResult, error) {
	_ = ctx
	return &authdomain.AuthResult{
		Token: "refreshed-token",
		User:  authdomain.UserView{ID: userID, Active: true},
	}, nil
}

func (f *fakeAuthService) GetByID(ctx context.Context, userID string) (*authdomain.UserView, error) {
	_ = ctx
	return &authdomain.UserView{ID: userID, Email: "alice@example.com", Role: authdomain.RoleUser, Active: true}, nil
}

type fakeLicenseService struct {
	lastCreate  licensedomain.CreateRequest
	lastProcess licensedomain.ProcessRequest
	validateRes *licensedomain.ValidationResult
	validateErr error
}

func (f *fakeLicenseService) Create(ctx context.Context, req licensedomain.CreateRequest) (*licensedomain.LicenseView, error) {
	f.lastCreate = req
	_ = ctx
	return &licensedomain.LicenseView{
		ID:       "300",
		Key:      "AAAA-BBBB-CCCC-DDDD",
		Plan:     req.Plan,
		MaxUsage: 100,
		Active:   true,
	}, nil
}

func (f *fakeLicenseService) Validate(ctx context.Context, req licensedomain.ValidateRequest) (*licensedomain.ValidationResult, error) {
	_ = ctx
	_ = req
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	return f.validateRes, nil
}

func (f *fakeLicenseService) RecordUsage(ctx context.Context, req licensedomain.ProcessRequest) (*licensedomain.UsageResult, error) {
	f.lastProcess = req
	_ = ctx
	return &licensedomain.UsageResult{
		Success:   true,
		Message:   "File processed successfully",
		Remaining: 9,
	}, nil
}

func (f *fakeLicenseService) History(ctx context.Context, key string) ([]usagedomain.UsageRecord, error) {
	_ = ctx
	_ = key
	return nil, nil
}

func (f *fakeLicenseService) ListByUser(ctx context.Context, userID string) ([]licensedomain.LicenseView, error) {
	_ = ctx
	_ = userID
	return []licensedomain.LicenseView{{ID: "300", Key: "AAAA-BBBB-CCCC-DDDD"}}, nil
}

type fakeAdminService struct {
	listCalls int
}

func (f *fakeAdminService) ListUsers(ctx context.Context) ([]admindomain.UserSummary, error) {
	_ = ctx
	return []admindomain.UserSummary{
		{ID: "200", Email: "alice@example.com", Role: authdomain.RoleUser, Active: true},
	}, nil
}

func (f *fakeAdminService) ListLicenses(ctx context.Context) ([]admindomain.LicenseSummary, error) {
	f.listCalls++
	_ = ctx
	return []admindomain.LicenseSummary{{ID: "300", Key: "AAAA-BBBB-CCCC-DDDD", UserEmail: "alice@example.com"}}, nil
}

func (f *fakeAdminService) Revoke(ctx context.Context, key string) (bool, error) {
	_ = ctx
	return key == "AAAA-BBBB-CCCC-DDDD", nil
}

func (f *fakeAdminService) Stats(ctx context.Context) (*admindomain.Stats, error) {
	_ = ctx
	return &admindomain.Stats{TotalUsers: 2, ActiveUsers: 1}, nil
}

type fakeStubService struct {
	info *stubdomain.StubInfo
}

func (f *fakeStubService) Latest(ctx context.Context) (*stubdomain.StubInfo, error) {
	_ = ctx
	return f.info, nil
}

type harness struct {
	router   *gin.Engine
	tokens   *token.Manager
	auth     *fakeAuthService
	licenses *fakeLicenseService
	admin    *fakeAdminService
	stub     *fakeStubService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := token.NewManager(config.Config{
		AuthJWTSecret: "test-secret",
		AuthTokenTTL:  time.Hour,
	})
	require.NoError(t, err)

	h := &harness{
		tokens:   tokens,
		auth:     &fakeAuthService{},
		licenses: &fakeLicenseService{},
		admin:    &fakeAdminService{},
		stub:     &fakeStubService{},
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	srv := &Server{
		engine:     router,
		tokens:     tokens,
		authSvc:    h.auth,
		licenseSvc: h.licenses,
		adminSvc:   h.admin,
		stubSvc:    h.stub,
	}
	srv.RegisterRoutes()
	h.router = router
	return h
}

func (h *harness) bearer(t *testing.T, role string) string {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	raw, err := h.tokens.Issue(&authdomain.User{
		ID:    node.Generate(),
		Email: "alice@example.com",
		Role:  role,
	}, time.Now())
	require.NoError(t, err)
	return "Bearer " + raw
}

func (h *harness) do(method, path, body, authorization string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp := httptest.NewRecorder()
	h.router.ServeHTTP(resp, req)
	return resp
}

func TestRegisterHandler(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, "/api/auth/register",
		`{"email":"alice@example.com","password":"correct-horse-battery","hardware_id":"HW-1"}`, "")

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, 1, h.auth.registerCalls)
	require.Equal(t, "HW-1", h.auth.lastRegister.HardwareID)

	var body struct {
		Data authdomain.AuthResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "issued-token", body.Data.Token)
}

func TestRegisterHandlerMalformedJSON(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, "/api/auth/register", `{"email":`, "")

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, 0, h.auth.registerCalls)
}

func TestRegisterHandlerDuplicateConflict(t *testing.T) {
	h := newHarness(t)
	h.auth.registerErr = authdomain.ErrUserExists

	resp := h.do(http.MethodPost, "/api/auth/register",
		`{"email":"alice@example.com","password":"correct-horse-battery"}`, "")

	require.Equal(t, http.StatusConflict, resp.Code)
}

func TestLoginHandlerBadCredentials(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"wrong"}`, "")

	require.Equal(t, http.StatusUnauthorized, resp.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "unauthorized", body.Error.Type)
}

func TestAuthRequiredRejectsMissingAndGarbageTokens(t *testing.T) {
	h := newHarness(t)

	for _, authorization := range []string{"", "Bearer ", "Bearer garbage", "Basic abc"} {
		resp := h.do(http.MethodGet, "/api/auth/me", "", authorization)
		require.Equalf(t, http.StatusUnauthorized, resp.Code, "authorization %q", authorization)
	}
}

func TestMeHandler(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, "/api/auth/me", "", h.bearer(t, authdomain.RoleUser))

	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Data authdomain.UserView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "alice@example.com", body.Data.Email)
}

// The license is always issued to the authenticated caller; a user_id in the
// request body must not override the token subject.
func TestCreateLicenseUsesTokenSubject(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, "/api/license/create",
		`{"plan":"pro","user_id":"999"}`, h.bearer(t, authdomain.RoleUser))

	require.Equal(t, http.StatusCreated, resp.Code)
	require.NotEqual(t, "999", h.licenses.lastCreate.UserID)
	require.NotEmpty(t, h.licenses.lastCreate.UserID)
	require.Equal(t, "pro", h.licenses.lastCreate.Plan)
}

func TestValidateHandlerIsPublic(t *testing.T) {
	h := newHarness(t)
	h.licenses.validateRes = &licensedomain.ValidationResult{
		Valid:   false,
		Reason:  licensedomain.ReasonExpired,
		Message: "License has expired",
	}

	resp := h.do(http.MethodPost, "/api/license/validate",
		`{"license_key":"AAAA-BBBB-CCCC-DDDD","hardware_id":"HW-1"}`, "")

	// Rejections are structured 200 results, not HTTP failures.
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Data licensedomain.ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.False(t, body.Data.Valid)
	require.Equal(t, licensedomain.ReasonExpired, body.Data.Reason)
}

func TestValidateHandlerInvalidInput(t *testing.T) {
	h := newHarness(t)
	h.licenses.validateErr = licensedomain.ErrInvalidInput

	resp := h.do(http.MethodPost, "/api/license/validate",
		`{"license_key":"nope","hardware_id":""}`, "")

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestProcessHandler(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, "/api/license/process",
		`{"license_key":"AAAA-BBBB-CCCC-DDDD","file_name":"doc.pdf","file_size":2048,"encryption_method":"aes-256-gcm","hardware_id":"HW-1","client_version":"1.4.2"}`, "")

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "doc.pdf", h.licenses.lastProcess.FileName)
	require.Equal(t, int64(2048), h.licenses.lastProcess.FileSize)

	var body struct {
		Data licensedomain.UsageResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.True(t, body.Data.Success)
	require.Equal(t, 9, body.Data.Remaining)
}

func TestAdminSurfaceForbiddenForUsers(t *testing.T) {
	h := newHarness(t)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/admin/users"},
		{http.MethodGet, "/api/admin/licenses"},
		{http.MethodPost, "/api/admin/revoke/AAAA-BBBB-CCCC-DDDD"},
		{http.MethodGet, "/api/admin/stats"},
	} {
		resp := h.do(route.method, route.path, "", h.bearer(t, authdomain.RoleUser))
		require.Equalf(t, http.StatusForbidden, resp.Code, "%s %s", route.method, route.path)
	}
	require.Equal(t, 0, h.admin.listCalls)
}

func TestAdminListLicenses(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, "/api/admin/licenses", "", h.bearer(t, authdomain.RoleAdmin))

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, 1, h.admin.listCalls)

	var body struct {
		Data []admindomain.LicenseSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "alice@example.com", body.Data[0].UserEmail)
}

func TestAdminListUsers(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, "/api/admin/users", "", h.bearer(t, authdomain.RoleAdmin))

	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Data []admindomain.UserSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "alice@example.com", body.Data[0].Email)
}

func TestAdminRevoke(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, "/api/admin/revoke/AAAA-BBBB-CCCC-DDDD", "", h.bearer(t, authdomain.RoleAdmin))
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Data struct {
			Revoked bool `json:"revoked"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.True(t, body.Data.Revoked)

	resp = h.do(http.MethodPost, "/api/admin/revoke/ZZZZ-ZZZZ-ZZZZ-ZZZZ", "", h.bearer(t, authdomain.RoleAdmin))
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.False(t, body.Data.Revoked)
}

func TestStubInfoNotFoundWhenUnpublished(t *testing.T) {
	h := newHarness(t)
	h.stub.info = nil

	resp := h.do(http.MethodGet, "/api/license/stub-info", "", h.bearer(t, authdomain.RoleUser))
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestStubInfoReturnsLatest(t *testing.T) {
	h := newHarness(t)
	h.stub.info = &stubdomain.StubInfo{
		Version:     "2.1.0",
		DownloadURL: "https://downloads.example.com/stub-2.1.0.bin",
		FileSize:    1024,
	}

	resp := h.do(http.MethodGet, "/api/license/stub-info", "", h.bearer(t, authdomain.RoleUser))
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Data stubdomain.StubInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "2.1.0", body.Data.Version)
}
