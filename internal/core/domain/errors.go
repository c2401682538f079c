package domain

import "errors"

var (
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")

	ErrClientNotFound           = errors.New("client not found")
	ErrDealNotFound             = errors.New("deal not found")
	ErrPipelineNotFound         = errors.New("pipeline not found")
	ErrProposalNotFound         = errors.New("proposal not found")
	ErrRecurringInvoiceNotFound = errors.New("recurring invoice not found")
	ErrCsvImportNotFound        = errors.New("csv import not found")
	ErrInvoiceExists            = errors.New("invoice already generated for period")

	// ErrMissingRole and ErrMissingAgency are configuration errors: the
	// request is still denied, but the caller is told to contact an
	// administrator instead of receiving a generic access-denied message.
	ErrMissingRole   = errors.New("account has no role assigned, contact your administrator")
	ErrMissingAgency = errors.New("account is not assigned to an agency, contact your administrator")

	// ErrPortalUnauthenticated covers every portal credential failure.
	// Expired, unknown, revoked and already-consumed tokens are deliberately
	// indistinguishable to the caller.
	ErrPortalUnauthenticated = errors.New("portal authentication failed")

	ErrProposalAlreadyConverted = errors.New("proposal already converted to invoice")
)
