package domain

import "time"

// Client is an agency's customer record. Client-linked resources (deals,
// proposals, recurring invoices) reference it by ID.
type Client struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	AgencyID  string    `json:"agency_id" bson:"agency_id"`
	Name      string    `json:"name" bson:"name"`
	Company   string    `json:"company,omitempty" bson:"company,omitempty"`
	Email     string    `json:"email" bson:"email"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Resource normalizes the client for guard decisions. A client record is
// linked to itself: assignment checks run against the client's own ID.
func (c Client) Resource() Resource {
	return Resource{AgencyID: c.AgencyID, ClientID: c.ID}
}

// ClientAssignment links a user to a client. It is the only mechanism by
// which direct_client and end_client identities gain resource visibility.
type ClientAssignment struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	UserID    string    `json:"user_id" bson:"user_id"`
	ClientID  string    `json:"client_id" bson:"client_id"`
	IsActive  bool      `json:"is_active" bson:"is_active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
