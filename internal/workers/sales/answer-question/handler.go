package answerquestion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sales-assistant/internal/common/camunda"
	"sales-assistant/internal/common/config"
	"sales-assistant/internal/common/errors"
	"sales-assistant/internal/common/logger"
	"sales-assistant/internal/common/metrics"
	"sales-assistant/internal/common/validation"
	"sales-assistant/internal/interpreter"
	"sales-assistant/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "answer-sales-question"

// Asker is the interpreter entry point.
type Asker interface {
	Ask(ctx context.Context, question string) *models.AnswerResult
}

// JobRecorder receives one call per processed job.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
}

type Handler struct {
	config    *Config
	logger    logger.Logger
	asker     Asker
	camunda   *camunda.Client
	recorder  JobRecorder
	errors    *errors.ErrorHandler
	validator *validation.Validator
	jobWorker worker.JobWorker
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	Asker        Asker
	Recorder     JobRecorder
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Asker == nil {
		return nil, fmt.Errorf("asker is required")
	}

	workerConfig := opts.CustomConfig
	if workerConfig == nil {
		workerConfig = ConfigFrom(opts.AppConfig)
	}
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:    workerConfig,
		logger:    log,
		asker:     opts.Asker,
		camunda:   opts.Camunda,
		recorder:  opts.Recorder,
		errors:    errors.NewErrorHandler(log),
		validator: validation.MustValidator(validation.AskRequestSchema),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
		h.record(ctx, "failed")
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	output := h.Execute(ctx, input)
	if err := h.completeJob(ctx, client, job, output); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "COMPLETE_FAILED").Inc()
		h.record(ctx, "failed")
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.record(ctx, "completed")
}

// Execute answers one question. It never fails: an unanswerable question is reported
// inside the Output.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	result := h.asker.Ask(ctx, input.Question)
	return &Output{
		SalesAnswer:        result,
		SalesAnswerSuccess: result.Success,
		SalesAnswerOutcome: interpreter.OutcomeOf(result),
	}
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	raw := []byte(job.GetVariables())

	result, err := h.validator.ValidateBytes(raw)
	if err != nil {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("parse job variables: %v", err))
	}
	if !result.Valid {
		stdErr := errors.NewInvalidRequestError("job variables do not match schema")
		stdErr.Metadata = map[string]interface{}{"errors": result.GetErrorMessages()}
		return nil, stdErr
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("decode job variables: %v", err))
	}
	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return err
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return err
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":  job.GetKey(),
		"intent":  output.SalesAnswer.Intent,
		"outcome": output.SalesAnswerOutcome,
	})
	return nil
}

func (h *Handler) record(ctx context.Context, status string) {
	if h.recorder != nil {
		h.recorder.RecordJobProcessed(ctx, TaskType, status)
	}
}

// Register opens the job worker. A disabled worker is skipped.
func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("worker is disabled, skipping registration", nil)
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("camunda client is required to register %s", TaskType)
	}

	h.jobWorker = camunda.OpenWorker(h.camunda.GetClient(), TaskType, h.config.workerConfig(), h.Handle, h.logger)
	return nil
}

func (h *Handler) Close() {
	if h.jobWorker != nil {
		h.logger.Info("shutting down worker gracefully", nil)
		h.jobWorker.Close()
		h.jobWorker = nil
	}
}

func (h *Handler) HealthCheck(ctx context.Context) error {
	if h.camunda == nil {
		return nil
	}
	if err := h.camunda.HealthCheck(ctx); err != nil {
		return fmt.Errorf("camunda health check failed: %w", err)
	}
	return nil
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}
