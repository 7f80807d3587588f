package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbanika/leadsync/internal/lead"
	"github.com/urbanika/leadsync/internal/resilience"
	"github.com/urbanika/leadsync/internal/store"
	"github.com/urbanika/leadsync/pkg/crm"
)

// leadEnv holds the initialized journal, mapper, and orchestrator shared by
// the serve/submit/import commands.
type leadEnv struct {
	Store        store.Store
	Mapper       *lead.Mapper
	Orchestrator *lead.Orchestrator
}

// Close releases resources held by the lead environment.
func (le *leadEnv) Close() {
	if le.Store != nil {
		_ = le.Store.Close()
	}
}

// newCRMClient validates credentials and builds the CRM client.
func newCRMClient() (crm.Client, error) {
	if err := cfg.CRM.Validate(); err != nil {
		return nil, err
	}

	opts := []crm.Option{crm.WithBaseURL(cfg.CRM.BaseURL)}
	if cfg.CRM.RateLimit > 0 {
		opts = append(opts, crm.WithRateLimit(cfg.CRM.RateLimit))
	}
	return crm.NewClient(cfg.CRM.Token, opts...), nil
}

// newMapper builds the form mapper, loading the tag vocabulary override file
// when one is configured.
func newMapper() (*lead.Mapper, error) {
	vocab := lead.DefaultVocabulary()
	if cfg.Lead.VocabularyFile != "" {
		v, err := lead.LoadVocabulary(cfg.Lead.VocabularyFile)
		if err != nil {
			return nil, err
		}
		vocab = v
		zap.L().Info("loaded tag vocabulary", zap.String("file", cfg.Lead.VocabularyFile))
	}
	return lead.NewMapper(cfg.Lead.DefaultCountryCode, vocab), nil
}

// retryConfig maps configuration onto the stage-fetch retry policy.
func retryConfig() resilience.RetryConfig {
	rc := resilience.DefaultRetryConfig()
	if cfg.Retry.MaxAttempts > 0 {
		rc.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.InitialBackoffMS > 0 {
		rc.InitialBackoff = time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond
	}
	return rc
}

// initLead sets up the journal, CRM client, mapper, and orchestrator.
// Callers should defer env.Close().
func initLead(ctx context.Context) (*leadEnv, error) {
	client, err := newCRMClient()
	if err != nil {
		return nil, err
	}

	mapper, err := newMapper()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open journal")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate journal")
	}

	resolver := lead.NewStageResolver(client, cfg.CRM.LocationID, cfg.CRM.PipelineID, lead.NewStageCache(), retryConfig())
	orchestrator := lead.NewOrchestrator(client, resolver, cfg.CRM.LocationID, cfg.CRM.PipelineID, lead.WithJournal(st))

	return &leadEnv{
		Store:        st,
		Mapper:       mapper,
		Orchestrator: orchestrator,
	}, nil
}
