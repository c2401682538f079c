package domain

import "time"

// CsvImport records an uploaded CSV file awaiting or finished processing.
// Imports are agency-internal and never client-linked.
type CsvImport struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	AgencyID   string    `json:"agency_id" bson:"agency_id"`
	UploadedBy string    `json:"uploaded_by" bson:"uploaded_by"`
	Filename   string    `json:"filename" bson:"filename"`
	StoredName string    `json:"stored_name" bson:"stored_name"`
	SizeBytes  int64     `json:"size_bytes" bson:"size_bytes"`
	RowCount   int       `json:"row_count,omitempty" bson:"row_count,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

func (i CsvImport) Resource() Resource {
	return Resource{AgencyID: i.AgencyID}
}
