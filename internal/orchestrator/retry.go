package orchestrator

// #region constants

const maxRetries = 1 // one regeneration = 2 total attempts

// retryModifier is appended to the prompt of a regeneration.
const retryModifier = "Your previous draft mentioned internal labels or described yourself as a machine. Rewrite it as a warm friend would, without internal phase names and without talking about being an AI or a system."

// #endregion

// #region attempt

// Attempt records one generation within a turn.
type Attempt struct {
	Reply      string
	Evaluation ReplyEvaluation
}

// #endregion

// #region should-retry

// shouldRetry reports whether another generation is allowed after attempts.
func shouldRetry(attempts []Attempt) bool {
	if len(attempts) == 0 || len(attempts) > maxRetries {
		return false
	}
	return attempts[len(attempts)-1].Evaluation.ShouldRetry
}

// bestAttempt picks the last attempt without a retryable failure, else the first.
func bestAttempt(attempts []Attempt) Attempt {
	for i := len(attempts) - 1; i >= 0; i-- {
		if !attempts[i].Evaluation.ShouldRetry {
			return attempts[i]
		}
	}
	return attempts[0]
}

// #endregion
