package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/agencyhub/crm-api/internal/core/domain"
)

type stubPortalService struct {
	auths map[string]*domain.PortalAuth
}

func (s *stubPortalService) AuthenticateWithToken(_ context.Context, _ string) (*domain.PortalAuth, error) {
	return nil, domain.ErrPortalUnauthenticated
}

func (s *stubPortalService) AuthenticateWithMagicLink(_ context.Context, _ string) (*domain.PortalAuth, error) {
	return nil, domain.ErrPortalUnauthenticated
}

func (s *stubPortalService) AuthenticateWithSession(_ context.Context, token string) (*domain.PortalAuth, error) {
	if auth, ok := s.auths[token]; ok {
		return auth, nil
	}
	return nil, domain.ErrPortalUnauthenticated
}

func (s *stubPortalService) CreateSession(_ context.Context, _, _, _ string) (*domain.PortalSession, error) {
	return nil, domain.ErrPortalUnauthenticated
}

func (s *stubPortalService) Logout(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func TestPortalMiddleware_ValidSession(t *testing.T) {
	e := echo.New()
	svc := &stubPortalService{auths: map[string]*domain.PortalAuth{
		"sess-1": {Type: domain.PortalAuthSession, ClientID: "c1", Permissions: map[string]bool{domain.PermViewInvoices: true}},
	}}

	req := httptest.NewRequest(http.MethodGet, "/portal/invoices", nil)
	req.Header.Set("Authorization", "Bearer sess-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Portal(svc)(func(c echo.Context) error {
		called = true
		auth, ok := PortalAuthFrom(c)
		if !ok || auth.ClientID != "c1" {
			t.Fatalf("portal auth not injected: %+v", auth)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}

func TestPortalMiddleware_RejectsInvalidSession(t *testing.T) {
	e := echo.New()
	svc := &stubPortalService{auths: map[string]*domain.PortalAuth{}}

	for _, header := range []string{"", "Bearer unknown", "Token sess-1"} {
		req := httptest.NewRequest(http.MethodGet, "/portal/invoices", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := Portal(svc)(func(c echo.Context) error {
			t.Fatalf("should not reach next for header %q", header)
			return nil
		})
		if err := handler(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}
