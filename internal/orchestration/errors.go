package orchestration

// Application error types carried across the activity boundary. The workflow
// branches on these, so they are part of the wire contract with workers.
const (
	// ErrTypeValidation marks non-retryable failures: malformed scoring
	// output or a configuration gap. The workflow fails immediately.
	ErrTypeValidation = "ValidationError"

	// ErrTypeReviewTimeout marks a human-review wait that expired with no
	// signal. Reported as a failure, never silently treated as rejection.
	ErrTypeReviewTimeout = "ReviewTimeout"
)
