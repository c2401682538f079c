package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agencyhub/crm-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

// stubAccessRepo holds portal credentials keyed by token hash. ConsumeMagicLink
// mirrors the store's conditional write: validate and mark used in one step.
type stubAccessRepo struct {
	byHash map[string]*domain.PortalAccess
	byID   map[string]*domain.PortalAccess
	err    error
}

func newStubAccessRepo() *stubAccessRepo {
	return &stubAccessRepo{
		byHash: make(map[string]*domain.PortalAccess),
		byID:   make(map[string]*domain.PortalAccess),
	}
}

func (r *stubAccessRepo) add(access *domain.PortalAccess) {
	r.byHash[access.TokenHash] = access
	r.byID[access.ID] = access
}

func (r *stubAccessRepo) FindByID(_ context.Context, id string) (*domain.PortalAccess, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.byID[id], nil
}

func (r *stubAccessRepo) FindByTokenHash(_ context.Context, hash string, typ domain.PortalAccessType, now time.Time) (*domain.PortalAccess, error) {
	if r.err != nil {
		return nil, r.err
	}
	a := r.byHash[hash]
	if a == nil || a.Type != typ || a.Revoked {
		return nil, nil
	}
	if !a.ExpiresAt.IsZero() && a.ExpiresAt.Before(now) {
		return nil, nil
	}
	return a, nil
}

func (r *stubAccessRepo) ConsumeMagicLink(_ context.Context, hash string, now time.Time) (*domain.PortalAccess, error) {
	if r.err != nil {
		return nil, r.err
	}
	a := r.byHash[hash]
	if a == nil || a.Type != domain.PortalAccessMagicLink || a.Used || a.Revoked {
		return nil, nil
	}
	if !a.ExpiresAt.IsZero() && a.ExpiresAt.Before(now) {
		return nil, nil
	}
	a.Used = true
	return a, nil
}

func (r *stubAccessRepo) Create(_ context.Context, access *domain.PortalAccess) (*domain.PortalAccess, error) {
	r.add(access)
	return access, nil
}

type stubSessionStore struct {
	sessions map[string]*domain.PortalSession
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]*domain.PortalSession)}
}

func (s *stubSessionStore) Put(_ context.Context, session *domain.PortalSession, _ time.Duration) error {
	s.sessions[session.Token] = session
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, token string) (*domain.PortalSession, error) {
	return s.sessions[token], nil
}

func (s *stubSessionStore) Delete(_ context.Context, token string) (bool, error) {
	if _, ok := s.sessions[token]; !ok {
		return false, nil
	}
	delete(s.sessions, token)
	return true, nil
}

func newPortalSvc(repo *stubAccessRepo, store *stubSessionStore) *PortalService {
	return NewPortalService(repo, store, time.Hour, zerolog.Nop())
}

func seedAccess(repo *stubAccessRepo, id, token string, typ domain.PortalAccessType) *domain.PortalAccess {
	access := &domain.PortalAccess{
		ID:        id,
		Type:      typ,
		TokenHash: HashToken(token),
		ClientID:  "c1",
		Email:     "client@example.com",
		Permissions: map[string]bool{
			domain.PermViewInvoices:  true,
			domain.PermViewProposals: true,
		},
		CreatedAt: time.Now().UTC(),
	}
	repo.add(access)
	return access
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestPortalService_AuthenticateWithToken(t *testing.T) {
	repo := newStubAccessRepo()
	seedAccess(repo, "acc-1", "tok-raw", domain.PortalAccessToken)
	svc := newPortalSvc(repo, newStubSessionStore())

	auth, err := svc.AuthenticateWithToken(context.Background(), "tok-raw")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if auth.Type != string(domain.PortalAccessToken) || auth.ClientID != "c1" {
		t.Fatalf("unexpected auth: %+v", auth)
	}

	if _, err := svc.AuthenticateWithToken(context.Background(), "wrong"); !errors.Is(err, domain.ErrPortalUnauthenticated) {
		t.Fatalf("expected ErrPortalUnauthenticated, got %v", err)
	}
}

func TestPortalService_TokenExpiryAndRevocationIndistinguishable(t *testing.T) {
	repo := newStubAccessRepo()
	expired := seedAccess(repo, "acc-exp", "tok-exp", domain.PortalAccessToken)
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	revoked := seedAccess(repo, "acc-rev", "tok-rev", domain.PortalAccessToken)
	revoked.Revoked = true

	svc := newPortalSvc(repo, newStubSessionStore())

	for _, token := range []string{"tok-exp", "tok-rev", "tok-unknown"} {
		auth, err := svc.AuthenticateWithToken(context.Background(), token)
		if auth != nil || !errors.Is(err, domain.ErrPortalUnauthenticated) {
			t.Fatalf("token %q: expected uniform unauthenticated result, got auth=%v err=%v", token, auth, err)
		}
	}
}

func TestPortalService_MagicLinkExactlyOnce(t *testing.T) {
	repo := newStubAccessRepo()
	seedAccess(repo, "acc-ml", "link-raw", domain.PortalAccessMagicLink)
	svc := newPortalSvc(repo, newStubSessionStore())

	auth, err := svc.AuthenticateWithMagicLink(context.Background(), "link-raw")
	if err != nil {
		t.Fatalf("first redemption should succeed: %v", err)
	}
	if auth == nil || auth.Type != string(domain.PortalAccessMagicLink) {
		t.Fatalf("unexpected auth: %+v", auth)
	}

	// Replay of the same link must fail: the credential was consumed
	// atomically on first use.
	auth, err = svc.AuthenticateWithMagicLink(context.Background(), "link-raw")
	if auth != nil || !errors.Is(err, domain.ErrPortalUnauthenticated) {
		t.Fatalf("second redemption must fail, got auth=%v err=%v", auth, err)
	}
}

func TestPortalService_MagicLinkRejectsPlainToken(t *testing.T) {
	repo := newStubAccessRepo()
	seedAccess(repo, "acc-1", "tok-raw", domain.PortalAccessToken)
	svc := newPortalSvc(repo, newStubSessionStore())

	if _, err := svc.AuthenticateWithMagicLink(context.Background(), "tok-raw"); !errors.Is(err, domain.ErrPortalUnauthenticated) {
		t.Fatalf("long-lived token must not redeem as magic link, got %v", err)
	}
}

func TestPortalService_SessionRoundTrip(t *testing.T) {
	repo := newStubAccessRepo()
	seedAccess(repo, "acc-1", "tok-raw", domain.PortalAccessToken)
	store := newStubSessionStore()
	svc := newPortalSvc(repo, store)

	session, err := svc.CreateSession(context.Background(), "acc-1", "203.0.113.9", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Token == "" || session.AccessID != "acc-1" || session.IPAddress != "203.0.113.9" {
		t.Fatalf("unexpected session: %+v", session)
	}

	auth, err := svc.AuthenticateWithSession(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("authenticate with session: %v", err)
	}
	if auth.Type != domain.PortalAuthSession || auth.ClientID != "c1" {
		t.Fatalf("unexpected auth: %+v", auth)
	}
	if !auth.HasPermission(domain.PermViewInvoices) {
		t.Fatalf("permissions must survive the session round trip")
	}
}

func TestPortalService_CreateSession_InvalidAccess(t *testing.T) {
	repo := newStubAccessRepo()
	revoked := seedAccess(repo, "acc-rev", "tok-rev", domain.PortalAccessToken)
	revoked.Revoked = true
	svc := newPortalSvc(repo, newStubSessionStore())

	if _, err := svc.CreateSession(context.Background(), "missing", "", ""); !errors.Is(err, domain.ErrPortalUnauthenticated) {
		t.Fatalf("expected ErrPortalUnauthenticated for unknown access, got %v", err)
	}
	if _, err := svc.CreateSession(context.Background(), "acc-rev", "", ""); !errors.Is(err, domain.ErrPortalUnauthenticated) {
		t.Fatalf("expected ErrPortalUnauthenticated for revoked access, got %v", err)
	}
}

func TestPortalService_LogoutIdempotent(t *testing.T) {
	repo := newStubAccessRepo()
	seedAccess(repo, "acc-1", "tok-raw", domain.PortalAccessToken)
	svc := newPortalSvc(repo, newStubSessionStore())

	session, err := svc.CreateSession(context.Background(), "acc-1", "", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	removed, err := svc.Logout(context.Background(), session.Token)
	if err != nil || !removed {
		t.Fatalf("first logout should remove the session, got removed=%v err=%v", removed, err)
	}

	removed, err = svc.Logout(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("repeat logout must not error: %v", err)
	}
	if removed {
		t.Fatalf("repeat logout must report nothing terminated")
	}

	if _, err := svc.AuthenticateWithSession(context.Background(), session.Token); !errors.Is(err, domain.ErrPortalUnauthenticated) {
		t.Fatalf("session must be unusable after logout, got %v", err)
	}
}

func TestPortalService_StoreFailurePropagates(t *testing.T) {
	repo := newStubAccessRepo()
	repo.err = errors.New("store unavailable")
	svc := newPortalSvc(repo, newStubSessionStore())

	_, err := svc.AuthenticateWithToken(context.Background(), "tok")
	if err == nil || errors.Is(err, domain.ErrPortalUnauthenticated) {
		t.Fatalf("store failure must not be masked as unauthenticated, got %v", err)
	}
}

func TestPortalAuth_Permissions(t *testing.T) {
	auth := &domain.PortalAuth{
		ClientID: "c1",
		Permissions: map[string]bool{
			domain.PermViewInvoices: true,
			domain.PermMakePayments: false,
		},
	}

	if !auth.HasPermission(domain.PermViewInvoices) {
		t.Fatalf("granted permission must be true")
	}
	if auth.HasPermission(domain.PermMakePayments) {
		t.Fatalf("non-true value must deny")
	}
	if auth.HasPermission(domain.PermDownloadFiles) {
		t.Fatalf("absent key must deny")
	}
	if auth.HasPermission("view_invoicez") {
		t.Fatalf("unrecognized name must deny")
	}

	if !auth.CanAccessResource("c1") {
		t.Fatalf("same-tenant access must pass")
	}
	if auth.CanAccessResource("c2") {
		t.Fatalf("cross-tenant access must fail")
	}
}
