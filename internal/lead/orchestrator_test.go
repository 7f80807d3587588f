package lead

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanika/leadsync/internal/store"
	"github.com/urbanika/leadsync/pkg/crm"
)

// fakeJournal captures journal rows in memory.
type fakeJournal struct {
	records []store.Submission
	err     error
}

func (f *fakeJournal) RecordSubmission(ctx context.Context, sub *store.Submission) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *sub)
	return nil
}

func (f *fakeJournal) ListSubmissions(ctx context.Context, filter store.Filter) ([]store.Submission, error) {
	return f.records, nil
}

func (f *fakeJournal) CountSubmissions(ctx context.Context, status store.Status, since time.Time) (int, error) {
	count := 0
	for _, sub := range f.records {
		if status == "" || sub.Status == status {
			count++
		}
	}
	return count, nil
}

func (f *fakeJournal) Migrate(ctx context.Context) error { return nil }
func (f *fakeJournal) Close() error                      { return nil }

func newOrchestrator(client crm.Client, opts ...OrchestratorOption) *Orchestrator {
	resolver := NewStageResolver(client, "loc-1", "pipe-1", NewStageCache(), fastRetry())
	return NewOrchestrator(client, resolver, "loc-1", "pipe-1", opts...)
}

func happyCRM() *stubCRM {
	return &stubCRM{
		pipelines:   []crm.Pipeline{{ID: "pipe-1", Stages: stages("Nuevo Lead", "Contactado")}},
		contact:     &crm.Contact{ID: "ct-1", Email: "ana@test.com"},
		opportunity: &crm.Opportunity{ID: "op-1", Status: "open", ContactID: "ct-1"},
	}
}

func sampleRequest() Request {
	return Request{
		FirstName: "Ana",
		LastName:  "Gómez",
		Email:     "ana@test.com",
		Phone:     "+573001234567",
		Message:   "Interesada",
		Tags:      []string{"Website Lead"},
		Source:    "Página de Contacto",
	}
}

func TestSubmit_HappyPath(t *testing.T) {
	client := happyCRM()
	journal := &fakeJournal{}
	o := newOrchestrator(client, WithJournal(journal))

	result, err := o.Submit(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "ct-1", result.Contact.ID)
	assert.Equal(t, "op-1", result.Opportunity.ID)

	// Contact request carries the lead fields and the configured location.
	assert.Equal(t, "ana@test.com", client.lastContactReq.Email)
	assert.Equal(t, "loc-1", client.lastContactReq.LocationID)

	// Opportunity links the created contact to the resolved stage.
	assert.Equal(t, "ct-1", client.lastOpportunityReq.ContactID)
	assert.Equal(t, "st-Nuevo Lead", client.lastOpportunityReq.PipelineStageID)
	assert.Equal(t, "pipe-1", client.lastOpportunityReq.PipelineID)
	assert.Equal(t, "Lead Web: Ana Gómez", client.lastOpportunityReq.Name)

	require.Len(t, journal.records, 1)
	assert.Equal(t, store.StatusSynced, journal.records[0].Status)
	assert.Equal(t, "op-1", journal.records[0].OpportunityID)
}

func TestSubmit_OpportunityNameOverride(t *testing.T) {
	client := happyCRM()
	o := newOrchestrator(client)

	req := sampleRequest()
	req.OpportunityName = "Lead: Ana - Casa en Chapinero"

	_, err := o.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Lead: Ana - Casa en Chapinero", client.lastOpportunityReq.Name)
}

func TestSubmit_ContactFailureAborts(t *testing.T) {
	client := happyCRM()
	client.contactErr = &crm.APIError{StatusCode: 500, Body: "boom"}
	journal := &fakeJournal{}
	o := newOrchestrator(client, WithJournal(journal))

	_, err := o.Submit(context.Background(), sampleRequest())
	require.Error(t, err)

	var apiErr *crm.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, client.listCalls, "stage resolution must not run after contact failure")
	assert.Equal(t, 0, client.opportunityCalls)

	require.Len(t, journal.records, 1)
	assert.Equal(t, store.StatusFailed, journal.records[0].Status)
	assert.Empty(t, journal.records[0].ContactID)
}

func TestSubmit_StageFailureAborts(t *testing.T) {
	client := happyCRM()
	client.listErr = &crm.APIError{StatusCode: 404, Body: "not found"}
	journal := &fakeJournal{}
	o := newOrchestrator(client, WithJournal(journal))

	_, err := o.Submit(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, 0, client.opportunityCalls)

	// The orphaned contact id is journaled for manual follow-up.
	require.Len(t, journal.records, 1)
	assert.Equal(t, store.StatusFailed, journal.records[0].Status)
	assert.Equal(t, "ct-1", journal.records[0].ContactID)
}

func TestSubmit_OpportunityFailureKeepsContactInJournal(t *testing.T) {
	client := happyCRM()
	client.opportunityErr = &crm.APIError{StatusCode: 502, Body: "bad gateway"}
	journal := &fakeJournal{}
	o := newOrchestrator(client, WithJournal(journal))

	_, err := o.Submit(context.Background(), sampleRequest())
	require.Error(t, err)

	require.Len(t, journal.records, 1)
	assert.Equal(t, store.StatusFailed, journal.records[0].Status)
	assert.Equal(t, "ct-1", journal.records[0].ContactID)
	assert.Empty(t, journal.records[0].OpportunityID)
}

func TestSubmit_JournalFailureDoesNotFailSubmission(t *testing.T) {
	client := happyCRM()
	journal := &fakeJournal{err: assert.AnError}
	o := newOrchestrator(client, WithJournal(journal))

	result, err := o.Submit(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "ct-1", result.Contact.ID)
}

func TestSubmit_WithoutJournal(t *testing.T) {
	o := newOrchestrator(happyCRM())
	result, err := o.Submit(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.NotNil(t, result.Opportunity)
}

func TestSubmit_StageCachedAcrossSubmissions(t *testing.T) {
	client := happyCRM()
	o := newOrchestrator(client)

	_, err := o.Submit(context.Background(), sampleRequest())
	require.NoError(t, err)
	_, err = o.Submit(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, client.listCalls)
	assert.Equal(t, 2, client.contactCalls)
	assert.Equal(t, 2, client.opportunityCalls)
}

// End-to-end: property form through the mapper into the orchestrator.
func TestPropertyFormToSubmission(t *testing.T) {
	req, v := newTestMapper().MapPropertyContact(PropertyContactForm{
		FullName:      "Ana Gómez",
		Email:         "ana@test.com",
		Message:       "Interesada",
		PropertyTitle: "Casa en Chapinero",
	})
	require.True(t, v.Valid)

	client := happyCRM()
	result, err := newOrchestrator(client).Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "ct-1", result.Contact.ID)
	assert.Equal(t, "ct-1", client.lastOpportunityReq.ContactID)
	assert.Equal(t, "st-Nuevo Lead", client.lastOpportunityReq.PipelineStageID)
	assert.Equal(t, "Lead: Ana - Casa en Chapinero", client.lastOpportunityReq.Name)
	assert.Contains(t, client.lastContactReq.Tags, "Propiedad: Casa en Chapinero")
}
