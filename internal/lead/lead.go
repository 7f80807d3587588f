// Package lead implements the capture side of the portal's CRM integration:
// mapping inbound contact forms into lead requests, resolving the pipeline
// stage new leads enter, and orchestrating contact and opportunity creation.
package lead

import "github.com/urbanika/leadsync/pkg/crm"

// Request is a normalized lead ready for submission. Instances are built by
// the form mapper, which guarantees non-empty trimmed names and email.
type Request struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Message   string
	Tags      []string

	// OpportunityName overrides the default opportunity display name.
	OpportunityName string

	// Source labels the capture channel (contact page, property page, import).
	Source string
}

// Result pairs the two remote entities created for one submitted lead.
type Result struct {
	Contact     *crm.Contact
	Opportunity *crm.Opportunity
}
