package model

// Outcome is the terminal state of summarizing one user in one run.
type Outcome int

const (
	// OutcomeEmpty means the user had no messages in the activity window.
	OutcomeEmpty Outcome = iota
	// OutcomeSucceeded means the LLM produced a summary.
	OutcomeSucceeded
	// OutcomeTimedOut means the per-call deadline expired.
	OutcomeTimedOut
	// OutcomeFailed means the LLM call returned an error.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmpty:
		return "empty"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Summary is the per-user result of a pipeline run. Text holds the generated
// bullet list for OutcomeSucceeded; Err holds the cause for OutcomeFailed and
// OutcomeTimedOut.
type Summary struct {
	User         TrackedUser
	Outcome      Outcome
	Text         string
	Err          error
	MessageCount int
}
