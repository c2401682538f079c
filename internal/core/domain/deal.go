package domain

import "time"

// Pipeline is an agency-internal sales pipeline. It is never client-linked:
// client roles get no access regardless of assignment.
type Pipeline struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	AgencyID  string    `json:"agency_id" bson:"agency_id"`
	Name      string    `json:"name" bson:"name"`
	Stages    []string  `json:"stages" bson:"stages"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (p Pipeline) Resource() Resource {
	return Resource{AgencyID: p.AgencyID}
}

// Deal is a sales opportunity attached to a client and a pipeline stage.
type Deal struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	AgencyID   string    `json:"agency_id" bson:"agency_id"`
	ClientID   string    `json:"client_id" bson:"client_id"`
	PipelineID string    `json:"pipeline_id" bson:"pipeline_id"`
	Stage      string    `json:"stage" bson:"stage"`
	Title      string    `json:"title" bson:"title"`
	Value      float64   `json:"value" bson:"value"`
	Currency   string    `json:"currency" bson:"currency"`
	Won        bool      `json:"won" bson:"won"`
	Closed     bool      `json:"closed" bson:"closed"`
	ProjectID  string    `json:"project_id,omitempty" bson:"project_id,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

func (d Deal) Resource() Resource {
	return Resource{AgencyID: d.AgencyID, ClientID: d.ClientID}
}
