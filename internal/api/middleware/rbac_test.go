package middleware

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/agencyhub/crm-api/internal/audit"
	"github.com/agencyhub/crm-api/internal/core/domain"
)

func newRBACContext(t *testing.T, e *echo.Echo, path string, identity *domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if identity != nil {
		c.Set("user_id", identity.ID)
		c.Set("email", identity.Email)
		c.Set("role", identity.Role)
		c.Set("agency_id", identity.AgencyID)
	}
	return c, rec
}

func runRBAC(t *testing.T, dir, path string, identity *domain.Identity) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	c, rec := newRBACContext(t, e, path, identity)

	reached := false
	mw := RBAC(audit.NewSecurityLog(dir, zerolog.Nop()), zerolog.Nop())
	handler := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, reached
}

func readViolations(t *testing.T, dir string) []audit.Violation {
	t.Helper()
	path := filepath.Join(dir, "security-"+time.Now().UTC().Format("2006-01-02")+".log")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("open audit partition: %v", err)
	}
	defer f.Close()

	var out []audit.Violation
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var v audit.Violation
		if err := json.Unmarshal(scanner.Bytes(), &v); err != nil {
			t.Fatalf("bad audit line: %v", err)
		}
		out = append(out, v)
	}
	return out
}

func TestRBAC_EndClientDeniedFinancialRoute(t *testing.T) {
	dir := t.TempDir()
	identity := &domain.Identity{ID: "u1", Email: "end@example.com", Role: domain.RoleEndClient, AgencyID: "A1"}

	rec, reached := runRBAC(t, dir, "/invoices/42", identity)
	if reached {
		t.Fatalf("handler must not run")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	violations := readViolations(t, dir)
	if len(violations) != 1 {
		t.Fatalf("expected exactly one violation record, got %d", len(violations))
	}
	v := violations[0]
	if !strings.Contains(v.Reason, "financial route") {
		t.Fatalf("reason must name the financial route class: %q", v.Reason)
	}
	if v.AttemptedResource != "/invoices/42" || v.UserRole != domain.RoleEndClient {
		t.Fatalf("unexpected violation: %+v", v)
	}
	if v.UserAgent != "test-agent" {
		t.Fatalf("user agent not captured: %+v", v)
	}
}

func TestRBAC_EndClientAllowedElsewhere(t *testing.T) {
	dir := t.TempDir()
	identity := &domain.Identity{ID: "u1", Role: domain.RoleEndClient, AgencyID: "A1"}

	rec, reached := runRBAC(t, dir, "/dashboard", identity)
	if !reached || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got code=%d reached=%v", rec.Code, reached)
	}
	if got := readViolations(t, dir); len(got) != 0 {
		t.Fatalf("no violation expected, got %d", len(got))
	}
}

func TestRBAC_AdminRoutesOwnerOnly(t *testing.T) {
	for _, role := range []string{domain.RoleAgency, domain.RoleDirectClient, domain.RoleEndClient} {
		dir := t.TempDir()
		identity := &domain.Identity{ID: "u1", Role: role, AgencyID: "A1"}

		rec, reached := runRBAC(t, dir, "/settings/billing", identity)
		if reached || rec.Code != http.StatusForbidden {
			t.Fatalf("role %s: expected 403, got %d", role, rec.Code)
		}
		violations := readViolations(t, dir)
		if len(violations) != 1 || !strings.Contains(violations[0].Reason, "admin route") {
			t.Fatalf("role %s: expected one admin-route violation, got %+v", role, violations)
		}
	}

	dir := t.TempDir()
	rec, reached := runRBAC(t, dir, "/settings/billing", &domain.Identity{ID: "u0", Role: domain.RoleOwner})
	if !reached || rec.Code != http.StatusOK {
		t.Fatalf("owner should pass admin routes, got %d", rec.Code)
	}
}

func TestRBAC_MissingIdentity(t *testing.T) {
	rec, reached := runRBAC(t, t.TempDir(), "/dashboard", nil)
	if reached {
		t.Fatalf("handler must not run without identity")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRBAC_MissingRoleIsConfigurationError(t *testing.T) {
	rec, reached := runRBAC(t, t.TempDir(), "/dashboard", &domain.Identity{ID: "u1"})
	if reached || rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "administrator") {
		t.Fatalf("configuration error must carry an actionable message: %s", rec.Body.String())
	}
}

func TestRBAC_MissingAgencyIsConfigurationError(t *testing.T) {
	for _, role := range []string{domain.RoleAgency, domain.RoleDirectClient} {
		rec, reached := runRBAC(t, t.TempDir(), "/dashboard", &domain.Identity{ID: "u1", Role: role})
		if reached || rec.Code != http.StatusForbidden {
			t.Fatalf("role %s: expected 403, got %d", role, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "not assigned to an agency") {
			t.Fatalf("role %s: expected agency message, got %s", role, rec.Body.String())
		}
	}
}
