package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"ReelForge/internal/job"
)

const DefaultTaskQueue = "composition-queue"

// TemporalWorkflow runs compositions as Temporal workflows. It satisfies
// JobRunner so the queue worker can dispatch to it.
type TemporalWorkflow struct {
	client     client.Client
	worker     worker.Worker
	taskQueue  string
	activities *Activities
	logger     *zap.Logger
}

// CompositionInput starts one composition workflow.
type CompositionInput struct {
	JobID uuid.UUID `json:"job_id"`
}

// PreparedJob is handed from the prepare activity to the render activity.
type PreparedJob struct {
	Job    job.Job `json:"job"`
	Inputs Inputs  `json:"inputs"`
}

// StoreInput is handed from the render activity to the store activity.
type StoreInput struct {
	Job     job.Job       `json:"job"`
	Outcome RenderOutcome `json:"outcome"`
}

func NewTemporalWorkflow(c client.Client, taskQueue string, activities *Activities, logger *zap.Logger) *TemporalWorkflow {
	if taskQueue == "" {
		taskQueue = DefaultTaskQueue
	}
	return &TemporalWorkflow{
		client:     c,
		taskQueue:  taskQueue,
		activities: activities,
		logger:     logger,
	}
}

// StartWorker registers the workflow and activities and starts polling.
func (tw *TemporalWorkflow) StartWorker() error {
	tw.worker = worker.New(tw.client, tw.taskQueue, worker.Options{
		// Prepare, render and store share a local workspace.
		MaxConcurrentActivityExecutionSize: 1,
	})
	tw.worker.RegisterWorkflow(CompositionWorkflow)
	tw.worker.RegisterActivity(tw.activities)
	return tw.worker.Start()
}

func (tw *TemporalWorkflow) StopWorker() {
	if tw.worker != nil {
		tw.worker.Stop()
	}
}

// Run starts the workflow for j and waits for it. Activity failures are
// unwrapped so the job records the original message.
func (tw *TemporalWorkflow) Run(ctx context.Context, j *job.Job) (job.RenderResult, error) {
	options := client.StartWorkflowOptions{
		ID:                       fmt.Sprintf("composition-%s", j.ID),
		TaskQueue:                tw.taskQueue,
		WorkflowExecutionTimeout: 60 * time.Minute,
	}

	we, err := tw.client.ExecuteWorkflow(ctx, options, CompositionWorkflow, CompositionInput{JobID: j.ID})
	if err != nil {
		return job.RenderResult{}, fmt.Errorf("failed to start workflow: %w", err)
	}
	tw.logger.Info("Composition workflow started",
		zap.String("job_id", j.ID.String()),
		zap.String("workflow_id", we.GetID()),
		zap.String("run_id", we.GetRunID()),
	)

	var result job.RenderResult
	if err := we.Get(ctx, &result); err != nil {
		return job.RenderResult{}, unwrapActivityError(err)
	}
	return result, nil
}

func unwrapActivityError(err error) error {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return errors.New(appErr.Message())
	}
	return err
}

// CompositionWorkflow prepares, renders and stores one job. The workspace
// is cleaned up on every path.
func CompositionWorkflow(ctx workflow.Context, input CompositionInput) (job.RenderResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting composition workflow", "job_id", input.JobID.String())

	// Storage activities may retry; downloads and uploads are idempotent.
	storageCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
		},
	})
	// The engine has its own timeout and is never retried.
	renderCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	var a *Activities
	defer func() {
		cleanupCtx, _ := workflow.NewDisconnectedContext(ctx)
		cleanupCtx = workflow.WithActivityOptions(cleanupCtx, workflow.ActivityOptions{
			StartToCloseTimeout: time.Minute,
		})
		if err := workflow.ExecuteActivity(cleanupCtx, a.CleanupActivity, input.JobID).Get(cleanupCtx, nil); err != nil {
			logger.Warn("Workspace cleanup failed", "job_id", input.JobID.String(), "error", err)
		}
	}()

	var prepared PreparedJob
	if err := workflow.ExecuteActivity(storageCtx, a.PrepareInputsActivity, input).Get(ctx, &prepared); err != nil {
		return job.RenderResult{}, err
	}

	var outcome RenderOutcome
	if err := workflow.ExecuteActivity(renderCtx, a.RenderActivity, prepared).Get(ctx, &outcome); err != nil {
		return job.RenderResult{}, err
	}

	var result job.RenderResult
	if err := workflow.ExecuteActivity(storageCtx, a.StoreOutputActivity, StoreInput{Job: prepared.Job, Outcome: outcome}).Get(ctx, &result); err != nil {
		return job.RenderResult{}, err
	}

	logger.Info("Composition workflow completed", "job_id", input.JobID.String(), "output_key", result.OutputKey)
	return result, nil
}

// Activities wraps the in-process workflow stages as Temporal activities.
type Activities struct {
	workflow *Workflow
	manager  *job.Manager
}

func NewActivities(w *Workflow, manager *job.Manager) *Activities {
	return &Activities{workflow: w, manager: manager}
}

func (a *Activities) PrepareInputsActivity(ctx context.Context, input CompositionInput) (PreparedJob, error) {
	logger := activity.GetLogger(ctx)

	j, err := a.manager.GetJob(ctx, input.JobID)
	if err != nil {
		return PreparedJob{}, temporal.NewNonRetryableApplicationError(err.Error(), "JobNotFound", err)
	}
	ws, err := a.workflow.Workspace(j)
	if err != nil {
		return PreparedJob{}, err
	}

	logger.Info("Preparing inputs", "job_id", j.ID.String(), "hook_key", j.HookKey, "demo_key", j.DemoKey)
	inputs, err := a.workflow.Prepare(ctx, j, ws)
	if err != nil {
		return PreparedJob{}, err
	}
	return PreparedJob{Job: *j, Inputs: inputs}, nil
}

func (a *Activities) RenderActivity(ctx context.Context, prepared PreparedJob) (RenderOutcome, error) {
	logger := activity.GetLogger(ctx)
	ws, err := a.workflow.Workspace(&prepared.Job)
	if err != nil {
		return RenderOutcome{}, err
	}

	logger.Info("Rendering composition", "job_id", prepared.Job.ID.String())
	outcome, err := a.workflow.Render(ctx, &prepared.Job, ws, prepared.Inputs)
	if err != nil {
		return RenderOutcome{}, err
	}
	return *outcome, nil
}

func (a *Activities) StoreOutputActivity(ctx context.Context, input StoreInput) (job.RenderResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Storing composition", "job_id", input.Job.ID.String())
	return a.workflow.Store(ctx, &input.Job, &input.Outcome)
}

func (a *Activities) CleanupActivity(ctx context.Context, jobID uuid.UUID) error {
	ws, err := NewWorkspace(a.workflow.workDir, jobID)
	if err != nil {
		return err
	}
	a.workflow.Cleanup(ws)
	return nil
}
