package domain

// Resource is the normalized record every guard operates on. Concrete
// resource types produce one at the boundary so guard decisions never touch
// raw request payloads or storage documents.
//
// ClientID is empty for resources that are not client-linked (pipelines, CSV
// imports). Status is empty for resources without a workflow.
type Resource struct {
	AgencyID string
	ClientID string
	Status   string
}
