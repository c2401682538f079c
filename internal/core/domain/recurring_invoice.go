package domain

import "time"

// RecurringStatus represents the lifecycle state of a recurring invoice.
type RecurringStatus string

const (
	RecurringActive    RecurringStatus = "active"
	RecurringPaused    RecurringStatus = "paused"
	RecurringCompleted RecurringStatus = "completed"
	RecurringCancelled RecurringStatus = "cancelled"
)

// recurringTransitions is the recurring-invoice state machine: active and
// paused toggle, either may be cancelled, completion happens when the end
// date passes. Completed and cancelled are terminal.
var recurringTransitions = map[RecurringStatus][]RecurringStatus{
	RecurringActive: {RecurringPaused, RecurringCancelled, RecurringCompleted},
	RecurringPaused: {RecurringActive, RecurringCancelled},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s RecurringStatus) CanTransitionTo(next RecurringStatus) bool {
	for _, allowed := range recurringTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s.
func (s RecurringStatus) AllowedTransitions() []RecurringStatus {
	return recurringTransitions[s]
}

// Editable reports whether the recurring invoice may still be modified.
func (s RecurringStatus) Editable() bool {
	return s == RecurringActive || s == RecurringPaused
}

// Billing frequencies for recurring invoices.
const (
	FrequencyWeekly    = "weekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyYearly    = "yearly"
)

// NextInvoiceDate advances from the given date by one billing period.
// Unknown frequencies fall back to monthly.
func NextInvoiceDate(frequency string, from time.Time) time.Time {
	switch frequency {
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyQuarterly:
		return from.AddDate(0, 3, 0)
	case FrequencyYearly:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// RecurringInvoice is a billing schedule that generates invoices.
type RecurringInvoice struct {
	ID              string          `json:"id" bson:"_id,omitempty"`
	AgencyID        string          `json:"agency_id" bson:"agency_id"`
	ClientID        string          `json:"client_id" bson:"client_id"`
	Title           string          `json:"title" bson:"title"`
	Amount          float64         `json:"amount" bson:"amount"`
	Currency        string          `json:"currency" bson:"currency"`
	Frequency       string          `json:"frequency" bson:"frequency"`
	Status          RecurringStatus `json:"status" bson:"status"`
	NextInvoiceDate time.Time       `json:"next_invoice_date" bson:"next_invoice_date"`
	EndDate         *time.Time      `json:"end_date,omitempty" bson:"end_date,omitempty"`
	CreatedAt       time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" bson:"updated_at"`
}

func (r RecurringInvoice) Resource() Resource {
	return Resource{AgencyID: r.AgencyID, ClientID: r.ClientID, Status: string(r.Status)}
}

// Invoice is a single generated invoice. PeriodStart is unique per recurring
// schedule so generation is idempotent within a billing period.
type Invoice struct {
	ID                 string    `json:"id" bson:"_id,omitempty"`
	AgencyID           string    `json:"agency_id" bson:"agency_id"`
	ClientID           string    `json:"client_id" bson:"client_id"`
	RecurringInvoiceID string    `json:"recurring_invoice_id,omitempty" bson:"recurring_invoice_id,omitempty"`
	Title              string    `json:"title" bson:"title"`
	Amount             float64   `json:"amount" bson:"amount"`
	Currency           string    `json:"currency" bson:"currency"`
	PeriodStart        time.Time `json:"period_start" bson:"period_start"`
	IssuedAt           time.Time `json:"issued_at" bson:"issued_at"`
}
