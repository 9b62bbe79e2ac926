package orchestration

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/kbforge/kbforge/internal/domain/assessment"
	"github.com/kbforge/kbforge/internal/domain/document"
	"github.com/kbforge/kbforge/internal/domain/review"
	"github.com/kbforge/kbforge/internal/domain/run"
	"github.com/kbforge/kbforge/internal/domain/signal"
	"github.com/kbforge/kbforge/internal/routing"
)

// Default durations applied when ReviewInput leaves them zero.
const (
	DefaultAssessmentTimeout = 3 * time.Minute
	DefaultReviewWaitTimeout = 72 * time.Hour
)

// ReviewInput starts one document review workflow.
type ReviewInput struct {
	DocumentID string            `json:"document_id"`
	TopicID    string            `json:"topic_id"`
	UserID     string            `json:"user_id"`
	FilePath   string            `json:"file_path"`
	Policy     assessment.Policy `json:"policy"`

	// Zero values fall back to DefaultAssessmentTimeout and
	// DefaultReviewWaitTimeout.
	AssessmentTimeout time.Duration `json:"assessment_timeout,omitempty"`
	ReviewWaitTimeout time.Duration `json:"review_wait_timeout,omitempty"`
}

// ReviewResult is the workflow's return value and the payload of the
// status query once the run is over.
type ReviewResult struct {
	DocumentID string              `json:"document_id"`
	Status     document.Status     `json:"status"`
	Score      float64             `json:"score"`
	Decision   assessment.Decision `json:"decision,omitempty"`
	Reviewer   review.ReviewerKind `json:"reviewer,omitempty"`
	Reason     string              `json:"reason,omitempty"`
}

// statusQuery is what the status query handler reports mid-run.
type statusQuery struct {
	DocumentID string              `json:"document_id"`
	Phase      string              `json:"phase"`
	Score      float64             `json:"score,omitempty"`
	Decision   assessment.Decision `json:"decision,omitempty"`
}

// Activity stubs used only for name resolution in ExecuteActivity calls;
// workers register the real, dependency-carrying instances.
var (
	assessStub *AssessActivities
	storeStub  *StoreActivities
	notifyStub *NotifyActivities
)

// DocumentReviewWorkflow drives a single document from ingestion to a
// terminal status. Assessment runs on the heavy-compute tier, every
// database write on storage-io, notifications on general-coordination.
// A run that lands in the review band parks on the submit_review signal
// until a reviewer decides or the wait times out.
func DocumentReviewWorkflow(ctx workflow.Context, in ReviewInput) (*ReviewResult, error) {
	logger := workflow.GetLogger(ctx)
	workflowID := workflow.GetInfo(ctx).WorkflowExecution.ID

	if in.Policy == (assessment.Policy{}) {
		in.Policy = assessment.DefaultPolicy()
	}
	if err := in.Policy.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"invalid decision policy", ErrTypeValidation, err)
	}
	if in.AssessmentTimeout <= 0 {
		in.AssessmentTimeout = DefaultAssessmentTimeout
	}
	if in.ReviewWaitTimeout <= 0 {
		in.ReviewWaitTimeout = DefaultReviewWaitTimeout
	}

	state := statusQuery{DocumentID: in.DocumentID, Phase: "assessing"}
	if err := workflow.SetQueryHandler(ctx, QueryStatus, func() (statusQuery, error) {
		return state, nil
	}); err != nil {
		return nil, err
	}

	storeCtx := storageContext(ctx)
	notifyCtx := notifyContext(ctx)

	err := workflow.ExecuteActivity(storeCtx, storeStub.PersistStatus, PersistStatusInput{
		DocumentID: in.DocumentID,
		Status:     document.StatusProcessing,
	}).Get(ctx, nil)
	if err != nil {
		return nil, err
	}

	assessCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:           routing.QueueFor(routing.KindAssessRelevance),
		StartToCloseTimeout: in.AssessmentTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        30 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeValidation},
		},
	})

	var result assessment.RelevanceAssessment
	err = workflow.ExecuteActivity(assessCtx, assessStub.AssessRelevance, AssessInput{
		DocumentID: in.DocumentID,
		TopicID:    in.TopicID,
		FilePath:   in.FilePath,
		Policy:     in.Policy,
	}).Get(ctx, &result)
	if err != nil {
		logger.Error("assessment failed", "document_id", in.DocumentID, "error", err)
		return finalize(ctx, in, workflowID, &state, ReviewResult{
			DocumentID: in.DocumentID,
			Status:     document.StatusFailed,
			Reason:     assessFailureReason(err),
		})
	}

	state.Score = result.Score
	state.Decision = result.Decision

	err = workflow.ExecuteActivity(storeCtx, storeStub.RecordAssessment, result).Get(ctx, nil)
	if err != nil {
		return nil, err
	}

	logger.Info("assessment recorded",
		"document_id", in.DocumentID,
		"score", result.Score,
		"decision", result.Decision,
	)

	switch result.Decision {
	case assessment.DecisionAutoApprove:
		return finalize(ctx, in, workflowID, &state, ReviewResult{
			DocumentID: in.DocumentID,
			Status:     document.StatusApproved,
			Score:      result.Score,
			Decision:   result.Decision,
		})
	case assessment.DecisionAutoReject:
		return finalize(ctx, in, workflowID, &state, ReviewResult{
			DocumentID: in.DocumentID,
			Status:     document.StatusRejected,
			Score:      result.Score,
			Decision:   result.Decision,
		})
	}

	// Review band: park until a reviewer decides or the wait expires.
	state.Phase = "awaiting_review"

	err = workflow.ExecuteActivity(storeCtx, storeStub.PersistStatus, PersistStatusInput{
		DocumentID:    in.DocumentID,
		WorkflowID:    workflowID,
		Status:        document.StatusUnderReview,
		InstanceState: run.StateAwaitingReview,
	}).Get(ctx, nil)
	if err != nil {
		return nil, err
	}

	err = workflow.ExecuteActivity(notifyCtx, notifyStub.EmitSignal, EmitSignalInput{
		UserID:     in.UserID,
		WorkflowID: workflowID,
		Type:       signal.TypeStatusUpdate,
		Data: map[string]any{
			"document_id": in.DocumentID,
			"score":       result.Score,
			"message":     "document needs human review",
		},
	}).Get(ctx, nil)
	if err != nil {
		logger.Warn("review notification failed", "workflow_id", workflowID, "error", err)
	}

	sub, received := awaitReview(ctx, in.ReviewWaitTimeout)
	if !received {
		logger.Warn("review wait expired",
			"document_id", in.DocumentID,
			"waited", in.ReviewWaitTimeout,
		)
		return finalize(ctx, in, workflowID, &state, ReviewResult{
			DocumentID: in.DocumentID,
			Status:     document.StatusFailed,
			Score:      result.Score,
			Decision:   result.Decision,
			Reason:     ErrTypeReviewTimeout,
		})
	}
	if sub.ReviewerKind == "" {
		sub.ReviewerKind = review.ReviewerHuman
	}

	err = workflow.ExecuteActivity(storeCtx, storeStub.RecordReviewDecision, RecordReviewDecisionInput{
		WorkflowID:   workflowID,
		DocumentID:   in.DocumentID,
		ReviewerKind: sub.ReviewerKind,
		Approved:     sub.Approved,
		Feedback:     sub.Feedback,
	}).Get(ctx, nil)
	if err != nil {
		return nil, err
	}

	status := document.StatusRejected
	if sub.Approved {
		status = document.StatusApproved
	}
	return finalize(ctx, in, workflowID, &state, ReviewResult{
		DocumentID: in.DocumentID,
		Status:     status,
		Score:      result.Score,
		Decision:   result.Decision,
		Reviewer:   sub.ReviewerKind,
		Reason:     sub.Feedback,
	})
}

// awaitReview blocks on the submit_review signal or a timer, whichever
// fires first. Later signals on a decided run drain into the channel and
// are ignored, so duplicates can't reopen a terminal workflow.
func awaitReview(ctx workflow.Context, timeout time.Duration) (ReviewSubmission, bool) {
	ch := workflow.GetSignalChannel(ctx, SignalSubmitReview)

	var sub ReviewSubmission
	received := false

	timerCtx, cancel := workflow.WithCancel(ctx)
	timer := workflow.NewTimer(timerCtx, timeout)

	sel := workflow.NewSelector(ctx)
	sel.AddReceive(ch, func(c workflow.ReceiveChannel, _ bool) {
		c.Receive(ctx, &sub)
		received = true
	})
	sel.AddFuture(timer, func(workflow.Future) {})
	sel.Select(ctx)
	cancel()

	return sub, received
}

// finalize writes the terminal status, announces approved documents to the
// indexing pipeline, and emits the closing inbox signal. The run stays open
// until all three side effects have landed: the index event and the closing
// signal retry without an attempt cap, so a flapping queue delays the finish
// rather than losing the uploader's outcome.
func finalize(ctx workflow.Context, in ReviewInput, workflowID string, state *statusQuery, res ReviewResult) (*ReviewResult, error) {
	logger := workflow.GetLogger(ctx)
	storeCtx := storageContext(ctx)

	instanceState := run.StateCompleted
	if res.Status == document.StatusFailed {
		instanceState = run.StateFailed
	}
	state.Phase = string(instanceState)

	err := workflow.ExecuteActivity(storeCtx, storeStub.PersistStatus, PersistStatusInput{
		DocumentID:    in.DocumentID,
		WorkflowID:    workflowID,
		Status:        res.Status,
		InstanceState: instanceState,
		Result: map[string]any{
			"status":   res.Status,
			"score":    res.Score,
			"decision": res.Decision,
			"reviewer": res.Reviewer,
			"reason":   res.Reason,
		},
	}).Get(ctx, nil)
	if err != nil {
		return nil, err
	}

	if res.Status == document.StatusApproved {
		indexCtx := terminalContext(ctx, routing.QueueFor(routing.KindIndexDocument))
		err = workflow.ExecuteActivity(indexCtx, storeStub.IndexDocument, IndexInput{
			DocumentID: in.DocumentID,
			TopicID:    in.TopicID,
			FilePath:   in.FilePath,
			Score:      res.Score,
		}).Get(ctx, nil)
		if err != nil {
			return nil, err
		}
	}

	sigType := signal.TypeCompletion
	if res.Status == document.StatusFailed {
		sigType = signal.TypeError
	}
	closeCtx := terminalContext(ctx, routing.QueueFor(routing.KindEmitSignal))
	err = workflow.ExecuteActivity(closeCtx, notifyStub.EmitSignal, EmitSignalInput{
		UserID:     in.UserID,
		WorkflowID: workflowID,
		Type:       sigType,
		Data: map[string]any{
			"document_id": in.DocumentID,
			"status":      res.Status,
			"score":       res.Score,
			"reason":      res.Reason,
		},
	}).Get(ctx, nil)
	if err != nil {
		return nil, err
	}

	logger.Info("document review finished",
		"document_id", in.DocumentID,
		"status", res.Status,
		"score", res.Score,
	)
	return &res, nil
}

// storageContext applies the storage-io tier options: fast retries, short
// timeouts, every activity here touches only the database or the queue.
func storageContext(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:           routing.QueueFor(routing.KindPersistStatus),
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    500 * time.Millisecond,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	})
}

// terminalContext applies the options for finalize's side effects: no
// attempt cap, so the activity retries until it succeeds or the run is
// cancelled. Zero MaximumAttempts means unlimited.
func terminalContext(ctx workflow.Context, queue string) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:           queue,
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    500 * time.Millisecond,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
		},
	})
}

func notifyContext(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:           routing.QueueFor(routing.KindEmitSignal),
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    500 * time.Millisecond,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	})
}

// assessFailureReason classifies a failed assessment for the terminal record.
func assessFailureReason(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() == ErrTypeValidation {
		return ErrTypeValidation
	}
	var timeoutErr *temporal.TimeoutError
	if errors.As(err, &timeoutErr) {
		return "AssessmentTimeout"
	}
	return "AssessmentFailed"
}
