package types

// OutcomeStatus is the per-action result of an execution.
type OutcomeStatus string

const (
	StatusCreated     OutcomeStatus = "created"
	StatusOverwritten OutcomeStatus = "overwritten"
	StatusIdentical   OutcomeStatus = "identical"
	StatusDryRun      OutcomeStatus = "dry-run"
	StatusConflict    OutcomeStatus = "conflict"
	StatusFailed      OutcomeStatus = "failed"
	StatusCancelled   OutcomeStatus = "cancelled"
)

// Succeeded reports whether the action's desired state holds on disk.
func (s OutcomeStatus) Succeeded() bool {
	switch s {
	case StatusCreated, StatusOverwritten, StatusIdentical:
		return true
	}
	return false
}

// Outcome pairs a planned action with what actually happened to it.
type Outcome struct {
	Action Action
	Status OutcomeStatus

	// Error holds the failure message for failed outcomes. Kept as a
	// string so outcomes serialize cleanly for JSON output.
	Error string
}

// ScriptResult reports one install script execution.
type ScriptResult struct {
	ExitCode int
	Output   string
	TimedOut bool
}
