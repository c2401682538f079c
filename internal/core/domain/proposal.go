package domain

import "time"

// ProposalStatus represents the workflow state of a proposal.
type ProposalStatus string

const (
	ProposalDraft    ProposalStatus = "draft"
	ProposalSent     ProposalStatus = "sent"
	ProposalViewed   ProposalStatus = "viewed"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
	ProposalExpired  ProposalStatus = "expired"
)

// proposalTransitions defines the allowed workflow transitions. Accepted is
// terminal; rejected and expired proposals may be revised back to draft.
var proposalTransitions = map[ProposalStatus][]ProposalStatus{
	ProposalDraft:    {ProposalSent},
	ProposalSent:     {ProposalViewed, ProposalAccepted, ProposalRejected, ProposalExpired},
	ProposalViewed:   {ProposalAccepted, ProposalRejected, ProposalExpired},
	ProposalRejected: {ProposalDraft},
	ProposalExpired:  {ProposalDraft},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s ProposalStatus) CanTransitionTo(next ProposalStatus) bool {
	for _, allowed := range proposalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s. Terminal statuses
// return nil.
func (s ProposalStatus) AllowedTransitions() []ProposalStatus {
	return proposalTransitions[s]
}

// Editable reports whether a proposal in this status may be modified.
func (s ProposalStatus) Editable() bool {
	return s == ProposalDraft || s == ProposalRejected || s == ProposalExpired
}

// Deletable reports whether a proposal in this status may be deleted.
func (s ProposalStatus) Deletable() bool {
	return s == ProposalDraft
}

// Respondable reports whether a client may accept or reject the proposal.
func (s ProposalStatus) Respondable() bool {
	return s == ProposalSent || s == ProposalViewed
}

// Proposal is a client-facing offer with a workflow lifecycle.
type Proposal struct {
	ID                   string         `json:"id" bson:"_id,omitempty"`
	AgencyID             string         `json:"agency_id" bson:"agency_id"`
	ClientID             string         `json:"client_id" bson:"client_id"`
	Title                string         `json:"title" bson:"title"`
	Amount               float64        `json:"amount" bson:"amount"`
	Currency             string         `json:"currency" bson:"currency"`
	Status               ProposalStatus `json:"status" bson:"status"`
	ConvertedToInvoiceID string         `json:"converted_to_invoice_id,omitempty" bson:"converted_to_invoice_id,omitempty"`
	SentAt               time.Time      `json:"sent_at,omitempty" bson:"sent_at,omitempty"`
	CreatedAt            time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at" bson:"updated_at"`
}

func (p Proposal) Resource() Resource {
	return Resource{AgencyID: p.AgencyID, ClientID: p.ClientID, Status: string(p.Status)}
}
