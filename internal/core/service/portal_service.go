package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

const defaultSessionTTL = 2 * time.Hour

// PortalService authenticates client-portal principals. Tokens are opaque
// values stored only as SHA-256 hashes; sessions live in the session store
// with a TTL and can be revoked by logout.
type PortalService struct {
	accesses   ports.PortalAccessRepository
	sessions   ports.PortalSessionStore
	sessionTTL time.Duration
	log        zerolog.Logger
}

func NewPortalService(accesses ports.PortalAccessRepository, sessions ports.PortalSessionStore, sessionTTL time.Duration, log zerolog.Logger) *PortalService {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &PortalService{accesses: accesses, sessions: sessions, sessionTTL: sessionTTL, log: log}
}

// AuthenticateWithToken validates a long-lived access token.
func (s *PortalService) AuthenticateWithToken(ctx context.Context, token string) (*domain.PortalAuth, error) {
	if token == "" {
		return nil, domain.ErrPortalUnauthenticated
	}

	access, err := s.accesses.FindByTokenHash(ctx, HashToken(token), domain.PortalAccessToken, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if access == nil {
		return nil, domain.ErrPortalUnauthenticated
	}

	return authFromAccess(string(domain.PortalAccessToken), access), nil
}

// AuthenticateWithMagicLink validates and consumes a single-use token. The
// repository performs the check-and-invalidate as one conditional write, so a
// replay of the same link can never succeed.
func (s *PortalService) AuthenticateWithMagicLink(ctx context.Context, token string) (*domain.PortalAuth, error) {
	if token == "" {
		return nil, domain.ErrPortalUnauthenticated
	}

	access, err := s.accesses.ConsumeMagicLink(ctx, HashToken(token), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if access == nil {
		return nil, domain.ErrPortalUnauthenticated
	}

	s.log.Info().Str("access_id", access.ID).Str("client_id", access.ClientID).Msg("magic link consumed")
	return authFromAccess(string(domain.PortalAccessMagicLink), access), nil
}

// AuthenticateWithSession resolves an existing session token back to the
// permissions carried on its originating access record.
func (s *PortalService) AuthenticateWithSession(ctx context.Context, sessionToken string) (*domain.PortalAuth, error) {
	if sessionToken == "" {
		return nil, domain.ErrPortalUnauthenticated
	}

	session, err := s.sessions.Get(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrPortalUnauthenticated
	}

	return &domain.PortalAuth{
		Type:        domain.PortalAuthSession,
		AccessID:    session.AccessID,
		ClientID:    session.ClientID,
		Email:       session.Email,
		Permissions: session.Permissions,
	}, nil
}

// CreateSession issues a new session bound to a validated access. The client
// IP and user agent are recorded for audit and anomaly detection.
func (s *PortalService) CreateSession(ctx context.Context, accessID, ip, userAgent string) (*domain.PortalSession, error) {
	if accessID == "" {
		return nil, domain.ErrPortalUnauthenticated
	}

	access, err := s.accesses.FindByID(ctx, accessID)
	if err != nil {
		return nil, err
	}
	if access == nil || access.Revoked {
		return nil, domain.ErrPortalUnauthenticated
	}

	session := &domain.PortalSession{
		Token:       newSessionToken(),
		AccessID:    access.ID,
		ClientID:    access.ClientID,
		Email:       access.Email,
		Permissions: access.Permissions,
		IPAddress:   ip,
		UserAgent:   userAgent,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.sessions.Put(ctx, session, s.sessionTTL); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("access_id", access.ID).
		Str("client_id", access.ClientID).
		Str("ip", ip).
		Msg("portal session created")

	return session, nil
}

// Logout terminates the session. Terminating an unknown or already-terminated
// session is not an error; the result reports whether anything was removed.
func (s *PortalService) Logout(ctx context.Context, sessionToken string) (bool, error) {
	if sessionToken == "" {
		return false, nil
	}
	return s.sessions.Delete(ctx, sessionToken)
}

// HashToken derives the storage form of a portal token. Raw token material is
// never persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// NewAccessToken generates raw token material for a new portal credential.
func NewAccessToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}

func newSessionToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}

func authFromAccess(typ string, access *domain.PortalAccess) *domain.PortalAuth {
	return &domain.PortalAuth{
		Type:        typ,
		AccessID:    access.ID,
		ClientID:    access.ClientID,
		Email:       access.Email,
		Permissions: access.Permissions,
	}
}
