package lead

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/urbanika/leadsync/internal/store"
	"github.com/urbanika/leadsync/pkg/crm"
)

// Orchestrator is the single entry point for submitting a captured lead to
// the CRM: contact creation, stage resolution, then opportunity creation.
type Orchestrator struct {
	client     crm.Client
	stages     *StageResolver
	locationID string
	pipelineID string
	journal    store.Store
}

// OrchestratorOption configures the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithJournal records every submission outcome in the given store. Journal
// failures are logged, never propagated: the journal is an operations aid,
// not part of the submission contract.
func WithJournal(s store.Store) OrchestratorOption {
	return func(o *Orchestrator) {
		o.journal = s
	}
}

// NewOrchestrator wires the orchestrator for the configured location and
// pipeline.
func NewOrchestrator(client crm.Client, stages *StageResolver, locationID, pipelineID string, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		client:     client,
		stages:     stages,
		locationID: locationID,
		pipelineID: pipelineID,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit runs the three remote steps in sequence, each depending on the
// previous step's output. Any failure aborts and propagates unmodified; there
// is no retry here and no rollback of a created contact when the opportunity
// step fails (the journal row keeps the orphaned contact id for follow-up).
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Result, error) {
	contact, err := o.client.CreateContact(ctx, crm.CreateContactRequest{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Source:     req.Source,
		Tags:       req.Tags,
		LocationID: o.locationID,
	})
	if err != nil {
		o.record(ctx, req, "", "", err)
		return nil, err
	}

	stageID, err := o.stages.ResolveNewLeadStageID(ctx)
	if err != nil {
		o.record(ctx, req, contact.ID, "", err)
		return nil, err
	}

	name := req.OpportunityName
	if name == "" {
		name = fmt.Sprintf("Lead Web: %s %s", req.FirstName, req.LastName)
	}

	opportunity, err := o.client.CreateOpportunity(ctx, crm.CreateOpportunityRequest{
		Name:            name,
		PipelineID:      o.pipelineID,
		PipelineStageID: stageID,
		ContactID:       contact.ID,
		Source:          req.Source,
		LocationID:      o.locationID,
	})
	if err != nil {
		o.record(ctx, req, contact.ID, "", err)
		return nil, err
	}

	zap.L().Info("lead submitted",
		zap.String("email", req.Email),
		zap.String("contact_id", contact.ID),
		zap.String("opportunity_id", opportunity.ID),
	)
	o.record(ctx, req, contact.ID, opportunity.ID, nil)

	return &Result{Contact: contact, Opportunity: opportunity}, nil
}

func (o *Orchestrator) record(ctx context.Context, req Request, contactID, opportunityID string, submitErr error) {
	if o.journal == nil {
		return
	}

	sub := store.Submission{
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		ContactID:     contactID,
		OpportunityID: opportunityID,
		Source:        req.Source,
		Status:        store.StatusSynced,
	}
	if submitErr != nil {
		sub.Status = store.StatusFailed
		sub.Detail = submitErr.Error()
	}

	if err := o.journal.RecordSubmission(ctx, &sub); err != nil {
		zap.L().Error("journal write failed",
			zap.String("email", req.Email),
			zap.Error(err),
		)
	}
}
