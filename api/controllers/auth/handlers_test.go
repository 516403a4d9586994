package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/api/middleware"
	"github.com/angelmondragon/tillcore-backend/internal/auth"
	"github.com/angelmondragon/tillcore-backend/internal/tenants"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/logger"
)

var testLogger = logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

type stubAuthService struct {
	login    auth.LoginRequest
	register tenants.RegisterRequest
	refresh  auth.RefreshRequest
	revoked  string
	changed  uuid.UUID
	err      error
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.login = req
	if s.err != nil {
		return nil, s.err
	}
	return &auth.LoginResponse{AccessToken: "access", RefreshToken: "refresh", State: enums.SessionStateActive}, nil
}

func (s *stubAuthService) Register(ctx context.Context, req tenants.RegisterRequest) (*auth.RegisterResponse, error) {
	s.register = req
	return &auth.RegisterResponse{Session: auth.LoginResponse{AccessToken: "owner-access"}}, nil
}

func (s *stubAuthService) ChangeCredential(ctx context.Context, staffID uuid.UUID, req auth.ChangeCredentialRequest) (*auth.ChangeCredentialResponse, error) {
	s.changed = staffID
	return &auth.ChangeCredentialResponse{State: enums.SessionStateActive, Redirect: "/dashboard"}, nil
}

func (s *stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.LoginResponse, error) {
	s.refresh = req
	return &auth.LoginResponse{AccessToken: "rotated"}, nil
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.revoked = accessID
	return nil
}

func post(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
}

func TestAuthLoginSetsTokenHeader(t *testing.T) {
	svc := &stubAuthService{}
	resp := httptest.NewRecorder()
	AuthLogin(svc, testLogger).ServeHTTP(resp, post(t, "/login", map[string]string{
		"email":      "cashier@example.com",
		"credential": "hunter22",
	}))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get(TokenHeader) != "access" {
		t.Fatalf("expected token header")
	}
	if svc.login.Email != "cashier@example.com" || svc.login.Credential != "hunter22" {
		t.Fatalf("unexpected login request %+v", svc.login)
	}
}

func TestAuthLoginRejectsInvalidEmail(t *testing.T) {
	resp := httptest.NewRecorder()
	AuthLogin(&stubAuthService{}, testLogger).ServeHTTP(resp, post(t, "/login", map[string]string{
		"email":      "not-an-email",
		"credential": "hunter22",
	}))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthLoginPropagatesUnauthorized(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	resp := httptest.NewRecorder()
	AuthLogin(svc, testLogger).ServeHTTP(resp, post(t, "/login", map[string]string{
		"email":      "cashier@example.com",
		"credential": "wrong",
	}))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRegisterCreatesTenant(t *testing.T) {
	svc := &stubAuthService{}
	resp := httptest.NewRecorder()
	AuthRegister(svc, testLogger).ServeHTTP(resp, post(t, "/register", map[string]any{
		"business_name": " Corner Cafe ",
		"owner_name":    "Ada",
		"email":         "ada@example.com",
		"credential":    "longenough",
		"currency":      "EUR",
		"tax_rate_bps":  1900,
	}))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}
	if svc.register.BusinessName != "Corner Cafe" || svc.register.Currency != "EUR" {
		t.Fatalf("unexpected register request %+v", svc.register)
	}
	if svc.register.TaxRateBps == nil || *svc.register.TaxRateBps != 1900 {
		t.Fatalf("expected tax rate")
	}
	if resp.Header().Get(TokenHeader) != "owner-access" {
		t.Fatalf("expected owner token header")
	}
}

func TestAuthRefreshUsesBearerToken(t *testing.T) {
	svc := &stubAuthService{}
	req := post(t, "/refresh", map[string]string{"refresh_token": "r1"})
	req.Header.Set("Authorization", "Bearer expired-token")
	resp := httptest.NewRecorder()
	AuthRefresh(svc, testLogger).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if svc.refresh.AccessToken != "expired-token" || svc.refresh.RefreshToken != "r1" {
		t.Fatalf("unexpected refresh request %+v", svc.refresh)
	}
}

func TestAuthRefreshRequiresBearer(t *testing.T) {
	resp := httptest.NewRecorder()
	AuthRefresh(&stubAuthService{}, testLogger).ServeHTTP(resp, post(t, "/refresh", map[string]string{"refresh_token": "r1"}))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthLogoutRequiresSession(t *testing.T) {
	svc := &stubAuthService{}
	resp := httptest.NewRecorder()
	AuthLogout(svc, testLogger).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/logout", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if svc.revoked != "" {
		t.Fatalf("expected no revoke")
	}
}

func TestAuthChangeCredentialUsesCaller(t *testing.T) {
	svc := &stubAuthService{}
	staffID := uuid.New()
	req := post(t, "/change-credential", map[string]string{
		"current_credential": "temp-pass",
		"new_credential":     "brand-new-pass",
	})
	req = req.WithContext(middleware.WithStaffID(req.Context(), staffID))
	resp := httptest.NewRecorder()
	AuthChangeCredential(svc, testLogger).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if svc.changed != staffID {
		t.Fatalf("expected change for caller")
	}
}
