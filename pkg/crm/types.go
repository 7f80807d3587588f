package crm

// Pipeline is a sales pipeline as returned by GET /opportunities/pipelines.
type Pipeline struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Stages []Stage `json:"stages"`
}

// Stage is a single step within a pipeline, ordered by Position.
type Stage struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// listPipelinesResponse is the body of GET /opportunities/pipelines.
type listPipelinesResponse struct {
	Pipelines []Pipeline `json:"pipelines"`
}

// CreateContactRequest is the body for POST /contacts/.
type CreateContactRequest struct {
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone,omitempty"`
	Source     string   `json:"source,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	LocationID string   `json:"locationId"`
}

// Contact is the CRM's representation of a person.
type Contact struct {
	ID        string   `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone,omitempty"`
	Source    string   `json:"source,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// createContactResponse is the body of a successful POST /contacts/.
type createContactResponse struct {
	Contact Contact `json:"contact"`
}

// CreateOpportunityRequest is the body for POST /opportunities/.
type CreateOpportunityRequest struct {
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	PipelineID      string  `json:"pipelineId"`
	PipelineStageID string  `json:"pipelineStageId"`
	ContactID       string  `json:"contactId"`
	Source          string  `json:"source,omitempty"`
	MonetaryValue   float64 `json:"monetaryValue,omitempty"`
	LocationID      string  `json:"locationId"`
}

// Opportunity is the CRM's representation of a sales possibility.
type Opportunity struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	PipelineID      string  `json:"pipelineId"`
	PipelineStageID string  `json:"pipelineStageId"`
	ContactID       string  `json:"contactId"`
	Source          string  `json:"source,omitempty"`
	MonetaryValue   float64 `json:"monetaryValue,omitempty"`
}

// createOpportunityResponse is the body of a successful POST /opportunities/.
type createOpportunityResponse struct {
	Opportunity Opportunity `json:"opportunity"`
}
