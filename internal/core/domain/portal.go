package domain

import "time"

// PortalAccessType distinguishes the three portal credential kinds.
type PortalAccessType string

const (
	PortalAccessToken     PortalAccessType = "token"
	PortalAccessMagicLink PortalAccessType = "magic_link"
	PortalAccessAPI       PortalAccessType = "api"
)

// PortalAuthSession marks a PortalAuth that was resolved from a session
// rather than directly from a credential.
const PortalAuthSession = "session"

// The closed set of portal permission names. Anything outside this list is
// never granted, even if present in a stored permission map.
const (
	PermViewInvoices   = "view_invoices"
	PermViewProposals  = "view_proposals"
	PermViewProjects   = "view_projects"
	PermMakePayments   = "make_payments"
	PermDownloadFiles  = "download_files"
	PermSubmitFeedback = "submit_feedback"
)

var portalPermissions = map[string]struct{}{
	PermViewInvoices:   {},
	PermViewProposals:  {},
	PermViewProjects:   {},
	PermMakePayments:   {},
	PermDownloadFiles:  {},
	PermSubmitFeedback: {},
}

// KnownPortalPermission reports whether name is a recognized permission.
func KnownPortalPermission(name string) bool {
	_, ok := portalPermissions[name]
	return ok
}

// PortalAccess is a client-portal credential bound to exactly one client.
// Magic-link credentials are single use: Used flips atomically on first
// successful validation.
type PortalAccess struct {
	ID          string           `json:"id" bson:"_id,omitempty"`
	Type        PortalAccessType `json:"type" bson:"type"`
	TokenHash   string           `json:"-" bson:"token_hash"`
	ClientID    string           `json:"client_id" bson:"client_id"`
	Email       string           `json:"email" bson:"email"`
	Permissions map[string]bool  `json:"permissions" bson:"permissions"`
	Used        bool             `json:"used" bson:"used"`
	Revoked     bool             `json:"revoked" bson:"revoked"`
	ExpiresAt   time.Time        `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at" bson:"created_at"`
}

// PortalSession is a short-lived session derived from a validated access.
type PortalSession struct {
	Token       string          `json:"token"`
	AccessID    string          `json:"access_id"`
	ClientID    string          `json:"client_id"`
	Email       string          `json:"email"`
	Permissions map[string]bool `json:"permissions"`
	IPAddress   string          `json:"ip_address,omitempty"`
	UserAgent   string          `json:"user_agent,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PortalAuth is the unified result of every portal authentication path.
// Callers treat it as the single source of truth for portal authorization,
// regardless of which credential produced it.
type PortalAuth struct {
	Type        string          `json:"type"`
	AccessID    string          `json:"access_id"`
	ClientID    string          `json:"client_id"`
	Email       string          `json:"email"`
	Permissions map[string]bool `json:"permissions"`
}

// HasPermission is an exact-match lookup: unrecognized names, absent keys and
// non-true values all yield false. There are no implicit grants.
func (a *PortalAuth) HasPermission(name string) bool {
	if a == nil || !KnownPortalPermission(name) {
		return false
	}
	return a.Permissions[name]
}

// CanAccessResource is the portal tenant-isolation check: a portal principal
// may only touch resources belonging to its own client.
func (a *PortalAuth) CanAccessResource(resourceClientID string) bool {
	if a == nil || a.ClientID == "" {
		return false
	}
	return a.ClientID == resourceClientID
}
