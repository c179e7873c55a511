package models

import "time"

// Reconciliation outcome states.
const (
	// RunStatusApplied means the new version is persisted, materialized,
	// and (when requested) the stack restart succeeded or was skipped.
	RunStatusApplied = "applied"

	// RunStatusRestartFailed means the configuration is persisted and
	// materialized but the stack restart did not succeed; the running
	// system has not yet picked the change up.
	RunStatusRestartFailed = "applied-restart-failed"

	// RunStatusFailed means the run stopped before the configuration was
	// fully applied.
	RunStatusFailed = "failed"
)

// ReconciliationResult is the outcome of one pipeline run. It is
// ephemeral; the persisted audit trail is ReconciliationRun.
type ReconciliationResult struct {
	// Status is one of the RunStatus values
	Status string `json:"status"`

	// NewVersion is the stored version number produced by this run
	NewVersion int `json:"newVersion,omitempty"`

	// ArtifactPath is the on-disk path the document was materialized to
	ArtifactPath string `json:"artifactPath,omitempty"`

	// Restart carries the restart report when a restart was attempted
	Restart *RestartReport `json:"restart,omitempty"`
}

// Applied reports whether the configuration change itself took effect,
// regardless of restart outcome.
func (r *ReconciliationResult) Applied() bool {
	return r.Status == RunStatusApplied || r.Status == RunStatusRestartFailed
}

// RestartReport describes one restart attempt against a stack.
type RestartReport struct {
	// Stack is the compose project name that was restarted
	Stack string `json:"stack"`

	// Restarted lists containers restarted successfully
	Restarted []string `json:"restarted,omitempty"`

	// Failed maps container names to their restart errors
	Failed map[string]string `json:"failed,omitempty"`

	// Output is the combined human-readable outcome text
	Output string `json:"output,omitempty"`

	// Duration is how long the restart took
	Duration time.Duration `json:"duration,omitempty"`
}

// OK reports whether every container restarted cleanly.
func (r *RestartReport) OK() bool {
	return r != nil && len(r.Failed) == 0
}

// ReconciliationRun is the persisted audit record of one pipeline run.
// It follows the Schema.org Action type.
type ReconciliationRun struct {
	// Context is the JSON-LD @context URL
	Context string `json:"@context" jsonld:"@context"`

	// Type is the JSON-LD @type (Action)
	Type string `json:"@type" jsonld:"@type"`

	// ID is the unique run identifier (maps to CouchDB _id)
	ID string `json:"@id" jsonld:"@id" couchdb:"_id"`

	// Rev is the CouchDB document revision
	Rev string `json:"_rev,omitempty" couchdb:"_rev"`

	// Target is the canonical target string
	Target string `json:"target" couchdb:"index"`

	// ServiceName is the service whose routing was reconciled
	ServiceName string `json:"serviceName"`

	// Author is the operator or automation identity that triggered the run
	Author string `json:"agent,omitempty" jsonld:"agent"`

	// Status is one of the RunStatus values
	Status string `json:"actionStatus" couchdb:"index"`

	// NewVersion is the version produced, when one was persisted
	NewVersion int `json:"newVersion,omitempty"`

	// ArtifactPath is the materialized path, when materialization ran
	ArtifactPath string `json:"artifactPath,omitempty"`

	// Error holds the failure description for failed runs
	Error string `json:"error,omitempty"`

	// Events is the ordered step log of the run
	Events []RunEvent `json:"events,omitempty"`

	// StartedAt is when the run began
	StartedAt time.Time `json:"startTime" jsonld:"startTime"`

	// CompletedAt is when the run reached a terminal state
	CompletedAt *time.Time `json:"endTime,omitempty" jsonld:"endTime"`
}

// RunEvent is one step-level entry in a run's event log.
type RunEvent struct {
	// Time is when the event occurred
	Time time.Time `json:"time"`

	// Level is info, warning, or error
	Level string `json:"level"`

	// Phase is the pipeline phase (load, plan, patch, validate, persist,
	// materialize, restart)
	Phase string `json:"phase"`

	// Message is the human-readable event description
	Message string `json:"message"`
}
