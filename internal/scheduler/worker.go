package scheduler

import (
	"context"
	"fmt"

	"crisisnet_backend/platform/config"
	"crisisnet_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Escalator widens a crisis's candidate pool when it is still uncovered.
// Implemented by the crisis service.
type Escalator interface {
	EscalateIfUncovered(ctx context.Context, crisisID uuid.UUID) error
}

// Worker consumes escalation check tasks. It runs embedded in the API
// process alongside the HTTP server.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	escalator Escalator
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, escalator Escalator, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		escalator: escalator,
		log:       log,
	}

	mux.HandleFunc(TaskEscalationCheck, w.handleEscalationCheck)

	return w, nil
}

func (w *Worker) handleEscalationCheck(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseEscalationCheckPayload(task)
	if err != nil {
		return err
	}

	crisisID, err := uuid.Parse(payload.CrisisID)
	if err != nil {
		return err
	}

	// The escalator skips covered and closed crises and re-arms the check
	// itself while the crisis stays active.
	return w.escalator.EscalateIfUncovered(ctx, crisisID)
}

// Run blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("escalation worker stopped", "error", err)
	}
}
