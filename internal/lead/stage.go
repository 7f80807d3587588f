package lead

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbanika/leadsync/internal/resilience"
	"github.com/urbanika/leadsync/pkg/crm"
)

// ErrPipelineNotFound is returned when the configured pipeline id does not
// exist in the location. Indicates the CRM was reconfigured or the pipeline
// deleted; operators should be alerted.
var ErrPipelineNotFound = eris.New("lead: pipeline not found")

// ErrNoStages is returned when the pipeline exists but has no stages. A lead
// cannot be placed without a stage, so this is fatal for the submission.
var ErrNoStages = eris.New("lead: pipeline has no stages")

// StageCache holds the resolved new-lead stage id. It is populated on first
// successful resolution and never expires during the process lifetime; a
// concurrent first-time double fetch is benign (last write wins, stage
// identity rarely changes). Inject a fresh instance per resolver in tests.
type StageCache struct {
	mu sync.Mutex
	id string
}

// NewStageCache returns an empty cache.
func NewStageCache() *StageCache {
	return &StageCache{}
}

// Get returns the cached stage id and whether one is present.
func (c *StageCache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id, c.id != ""
}

// Set stores the resolved stage id.
func (c *StageCache) Set(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
}

// StageResolver finds the pipeline stage freshly captured leads enter.
type StageResolver struct {
	client     crm.Client
	locationID string
	pipelineID string
	cache      *StageCache
	retry      resilience.RetryConfig
}

// NewStageResolver creates a StageResolver for the configured pipeline.
func NewStageResolver(client crm.Client, locationID, pipelineID string, cache *StageCache, retry resilience.RetryConfig) *StageResolver {
	retry.OnRetry = resilience.RetryLogger("crm", "list pipelines")
	return &StageResolver{
		client:     client,
		locationID: locationID,
		pipelineID: pipelineID,
		cache:      cache,
		retry:      retry,
	}
}

// ListStages fetches the configured pipeline's stages ordered by position.
// Transient CRM failures are retried; a missing pipeline is not.
func (r *StageResolver) ListStages(ctx context.Context) ([]crm.Stage, error) {
	pipelines, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) ([]crm.Pipeline, error) {
		return r.client.ListPipelines(ctx, r.locationID)
	})
	if err != nil {
		return nil, err
	}

	for _, p := range pipelines {
		if p.ID == r.pipelineID {
			stages := append([]crm.Stage(nil), p.Stages...)
			sort.SliceStable(stages, func(i, j int) bool {
				return stages[i].Position < stages[j].Position
			})
			return stages, nil
		}
	}
	return nil, eris.Wrapf(ErrPipelineNotFound, "pipeline %s", r.pipelineID)
}

// ResolveNewLeadStageID returns the id of the stage new leads should enter,
// fetching and caching it on first use. Stage name matching, in order of
// precedence: contains "nuevo lead", contains "new lead", equals "nuevo"
// (all case-insensitive). When nothing matches, the first stage is used so
// the lead is still captured, and a warning names the fallback stage.
func (r *StageResolver) ResolveNewLeadStageID(ctx context.Context) (string, error) {
	if id, ok := r.cache.Get(); ok {
		return id, nil
	}

	stages, err := r.ListStages(ctx)
	if err != nil {
		return "", err
	}
	if len(stages) == 0 {
		return "", eris.Wrapf(ErrNoStages, "pipeline %s", r.pipelineID)
	}

	stage, matched := pickNewLeadStage(stages)
	if !matched {
		zap.L().Warn("no stage matched new-lead naming, falling back to first stage",
			zap.String("pipeline_id", r.pipelineID),
			zap.String("stage_id", stage.ID),
			zap.String("stage_name", stage.Name),
		)
	}

	r.cache.Set(stage.ID)
	return stage.ID, nil
}

func pickNewLeadStage(stages []crm.Stage) (crm.Stage, bool) {
	type rule func(name string) bool
	rules := []rule{
		func(name string) bool { return strings.Contains(name, "nuevo lead") },
		func(name string) bool { return strings.Contains(name, "new lead") },
		func(name string) bool { return name == "nuevo" },
	}

	for _, matches := range rules {
		for _, s := range stages {
			if matches(strings.ToLower(s.Name)) {
				return s, true
			}
		}
	}
	return stages[0], false
}
