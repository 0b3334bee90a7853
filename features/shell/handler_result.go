package shell

import "time"

// HandlerResult is the execution metadata of a command handler run.
type HandlerResult struct {
	// RetryAttempts is the number of attempts made, 1 when the first attempt settled the command.
	RetryAttempts int

	// TotalRetryDelay is the time spent sleeping between attempts.
	TotalRetryDelay time.Duration

	// LastErrorType labels the error of the last attempt, "none" on success.
	LastErrorType string

	// RetriesExhausted is true when every attempt failed with a transient conflict.
	RetriesExhausted bool
}

// Execution returns the result itself, so structs embedding HandlerResult implement CommandResult.
func (r HandlerResult) Execution() HandlerResult {
	return r
}

// NewHandlerResult converts retry metrics into a HandlerResult.
func NewHandlerResult(retryMetrics RetryMetrics) HandlerResult {
	return HandlerResult{
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}
