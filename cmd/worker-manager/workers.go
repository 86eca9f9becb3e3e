package main

import (
	"go.uber.org/zap"

	"bizmatch-workers/internal/common/camunda"
	"bizmatch-workers/internal/common/config"
	"bizmatch-workers/internal/common/logger"
	"bizmatch-workers/internal/common/observability"
	"bizmatch-workers/internal/recommendation"
	"bizmatch-workers/pkg/registry"

	gr "bizmatch-workers/internal/workers/recommendation/generate-recommendations"
	pq "bizmatch-workers/internal/workers/recommendation/parse-questionnaire"
	rbd "bizmatch-workers/internal/workers/recommendation/resolve-business-detail"
)

type workerDeps struct {
	engine   *recommendation.Engine
	registry *registry.ActivityRegistry
	cache    *recommendation.Cache
	obs      *observability.Observability
	log      logger.Logger
}

func registerWorkers(cfg *config.Config, client *camunda.Client, deps workerDeps, zapLog *zap.Logger) []*camunda.CamundaWorker {
	var started []*camunda.CamundaWorker
	start := func(taskType string, handler camunda.HandlerFunc) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if w := camunda.StartWorker(client.GetClient(), taskType, wcfg, handler, zapLog); w != nil {
			started = append(started, w)
		}
	}
	timeout := func(taskType string) int {
		return config.GetWorkerConfig(cfg, taskType).Timeout
	}

	if config.IsWorkerEnabled(cfg, pq.TaskType) {
		handler := pq.NewHandler(
			&pq.Config{
				Timeout: config.GetDuration(timeout(pq.TaskType)),
			},
			deps.log,
		)
		start(pq.TaskType, handler.Handle)
	}

	if config.IsWorkerEnabled(cfg, gr.TaskType) {
		grConfig := &gr.Config{
			Timeout:      config.GetDuration(timeout(gr.TaskType)),
			DefaultLimit: cfg.Recommendations.DefaultLimit,
		}
		if err := grConfig.Validate(); err != nil {
			zapLog.Fatal("invalid generate-recommendations config", zap.Error(err))
		}
		handler := gr.NewHandler(grConfig, deps.engine, deps.registry, deps.cache, deps.obs, deps.log)
		start(gr.TaskType, handler.Handle)
	}

	if config.IsWorkerEnabled(cfg, rbd.TaskType) {
		handler := rbd.NewHandler(
			&rbd.Config{
				Timeout: config.GetDuration(timeout(rbd.TaskType)),
			},
			deps.engine.Catalog(),
			deps.log,
		)
		start(rbd.TaskType, handler.Handle)
	}

	return started
}
