package generaterecommendations

import (
	"context"
	"encoding/json"
	"time"

	"bizmatch-workers/internal/catalog"
	"bizmatch-workers/internal/common/errors"
	"bizmatch-workers/internal/common/logger"
	"bizmatch-workers/internal/common/metrics"
	"bizmatch-workers/internal/common/observability"
	"bizmatch-workers/internal/recommendation"
	"bizmatch-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "generate-recommendations"

	metricsSource = "worker"
)

type Handler struct {
	config       *Config
	engine       *recommendation.Engine
	registry     *registry.ActivityRegistry
	cache        *recommendation.Cache
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

// NewHandler wires the scoring engine to Zeebe. reg and cache may be nil, which
// skips input schema validation and caching respectively.
func NewHandler(
	config *Config,
	engine *recommendation.Engine,
	reg *registry.ActivityRegistry,
	cache *recommendation.Cache,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	if obs == nil {
		obs = observability.Noop()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       engine,
		registry:     reg,
		cache:        cache,
		obs:          obs,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	done := metrics.JobStarted(TaskType)

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		output, err = h.execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			done("")
			h.obs.RecordJobProcessed(ctx, TaskType, "success")
			h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "success")
			return
		}
	}

	code := string(errors.Normalize(err).Code)
	done(code)
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

// parseInput validates the raw job variables against the activity's input
// schema before decoding them.
func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "PARSE_ERROR",
			Message:   "Failed to parse job variables",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	if h.registry != nil {
		result, err := h.registry.ValidateInput(TaskType, variables)
		if err != nil {
			return nil, errors.NewSchemaValidationFailedError([]string{err.Error()})
		}
		if !result.Valid {
			return nil, errors.NewSchemaValidationFailedError(result.GetErrorMessages())
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidProfileError(err.Error())
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (output *Output, err error) {
	ctx, span := h.obs.StartSpan(ctx, "recommendation.generate",
		attribute.Int("catalog.size", h.engine.Catalog().Len()),
	)
	defer func() { observability.EndSpan(span, err) }()

	profile := input.UserProfile
	if err := profile.Validate(); err != nil {
		return nil, errors.NewInvalidProfileError(err.Error())
	}

	var filters recommendation.Filters
	if input.Filters != nil {
		filters = *input.Filters
		if filters.Category != nil {
			if _, err := catalog.ParseCategory(string(*filters.Category)); err != nil {
				return nil, errors.NewInvalidFilterFormatError(err.Error())
			}
		}
	}

	limit := h.config.DefaultLimit
	if input.Limit != nil {
		if *input.Limit < 0 {
			return nil, errors.NewInvalidFilterFormatError("limit must not be negative")
		}
		limit = *input.Limit
	}

	// The full filtered list is cached so totalCount survives a hit.
	recs, hit, cacheErr := h.cache.Recommend(ctx, h.engine, profile, filters)
	if cacheErr != nil {
		h.logger.Warn("recommendation cache unavailable", map[string]interface{}{
			"error": cacheErr,
		})
	}

	total := len(recs)
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	top := 0
	if len(recs) > 0 {
		top = recs[0].MatchPercentage
	}
	metrics.ObserveRecommendations(metricsSource, top, len(recs))
	h.obs.RecordRecommendations(ctx, metricsSource, len(recs))
	span.SetAttributes(
		attribute.Int("recommendations.total", total),
		attribute.Bool("cache.hit", hit),
	)

	output = &Output{
		Recommendations: recs,
		TotalCount:      total,
		GeneratedAt:     time.Now().UTC(),
		RequestID:       uuid.NewString(),
		CacheHit:        hit,
	}

	h.logger.Info("recommendations generated", map[string]interface{}{
		"requestId":  output.RequestID,
		"totalCount": total,
		"returned":   len(recs),
		"topMatch":   top,
		"cacheHit":   hit,
	})

	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
