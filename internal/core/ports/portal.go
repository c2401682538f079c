package ports

import (
	"context"
	"time"

	"github.com/agencyhub/crm-api/internal/core/domain"
)

// PortalAccessRepository persists portal credentials.
type PortalAccessRepository interface {
	FindByID(ctx context.Context, id string) (*domain.PortalAccess, error)
	// FindByTokenHash resolves a live credential of the given type. Expired
	// and revoked credentials are not returned.
	FindByTokenHash(ctx context.Context, hash string, typ domain.PortalAccessType, now time.Time) (*domain.PortalAccess, error)
	// ConsumeMagicLink atomically validates and marks a magic-link credential
	// used. The check-and-invalidate must be a single conditional write: under
	// concurrent redemption, at most one caller receives the credential.
	ConsumeMagicLink(ctx context.Context, hash string, now time.Time) (*domain.PortalAccess, error)
	Create(ctx context.Context, access *domain.PortalAccess) (*domain.PortalAccess, error)
}

// PortalSessionStore holds short-lived portal sessions.
type PortalSessionStore interface {
	Put(ctx context.Context, session *domain.PortalSession, ttl time.Duration) error
	Get(ctx context.Context, token string) (*domain.PortalSession, error)
	// Delete removes the session, reporting whether one existed. Deleting an
	// unknown or already-removed session is not an error.
	Delete(ctx context.Context, token string) (bool, error)
}

// PortalService is the portal authentication guard: a separate identity
// domain from staff users, scoped to exactly one client tenant.
//
// Every authenticate operation returns domain.ErrPortalUnauthenticated for
// any invalid credential — expired, unknown, revoked and consumed tokens are
// indistinguishable to the caller.
type PortalService interface {
	AuthenticateWithToken(ctx context.Context, token string) (*domain.PortalAuth, error)
	AuthenticateWithMagicLink(ctx context.Context, token string) (*domain.PortalAuth, error)
	AuthenticateWithSession(ctx context.Context, sessionToken string) (*domain.PortalAuth, error)
	CreateSession(ctx context.Context, accessID, ip, userAgent string) (*domain.PortalSession, error)
	Logout(ctx context.Context, sessionToken string) (bool, error)
}
