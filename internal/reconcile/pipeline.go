// Package reconcile orchestrates one configuration reconciliation:
// load the stored document, plan the desired directives, patch the
// document, validate its shape, persist a new version, materialize the
// artifact for the orchestration runtime, and optionally restart the
// affected stack.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"evalgo.org/stackyard/internal/compose"
	"evalgo.org/stackyard/internal/config"
	"evalgo.org/stackyard/internal/storage"
	"evalgo.org/stackyard/models"
)

// ConfigStore is the persistence interface the pipeline consumes.
type ConfigStore interface {
	// Load returns the current document for a target
	Load(target models.Target) (*models.ComposeDocument, error)

	// Save appends a new version and returns its number
	Save(target models.Target, content, author string) (int, error)

	// SaveRun persists a reconciliation audit record
	SaveRun(run *models.ReconciliationRun) error
}

// Planner builds directive blocks from routing intents.
type Planner interface {
	// Plan builds the desired directive block for an intent
	Plan(intent models.RoutingIntent) (models.DirectiveBlock, error)
}

// ProcessController restarts stacks in the orchestration runtime.
type ProcessController interface {
	// Restart restarts every container of the named stack
	Restart(ctx context.Context, stack string) (*models.RestartReport, error)
}

// Request carries one reconciliation call's parameters.
type Request struct {
	// Target is the configuration target to reconcile
	Target models.Target

	// ServiceName is the service whose directive block is rewritten
	ServiceName string

	// Intent is the desired routing exposure
	Intent models.RoutingIntent

	// Author is the operator or automation identity for the audit trail
	Author string

	// AutoRestart restarts the affected stack after a successful apply.
	// The decision is computed by the caller; the pipeline never prompts.
	AutoRestart bool
}

// Pipeline executes reconciliations. Each call is an independent unit of
// work; nothing is shared across concurrent calls except the store's
// version counters.
type Pipeline struct {
	// Store is the configuration persistence layer
	Store ConfigStore

	// Planner generates directive blocks
	Planner Planner

	// Controller restarts stacks; nil disables restarts entirely
	Controller ProcessController

	// Artifacts maps targets to materialized compose file paths
	Artifacts *config.ComposeConfig

	// Debug enables step-level logging
	Debug bool
}

// NewPipeline wires a pipeline from its collaborators.
func NewPipeline(store ConfigStore, planner Planner, controller ProcessController, artifacts *config.ComposeConfig) *Pipeline {
	return &Pipeline{
		Store:      store,
		Planner:    planner,
		Controller: controller,
		Artifacts:  artifacts,
	}
}

// debugLog logs a message only if debug mode is enabled
func (p *Pipeline) debugLog(format string, args ...interface{}) {
	if p.Debug {
		log.Printf(format, args...)
	}
}

// Reconcile runs the full pipeline for one request.
//
// Failures are typed: storage.ErrNotFound, routing.ErrInvalidIntent,
// compose.ErrServiceNotFound, storage.ErrConflict (after the single
// retry), ErrMaterializeFailed, and ErrInternal all short-circuit the
// remaining steps and are returned to the caller. A restart failure does
// not: the result is downgraded to a partial success carrying the restart
// report, because the stored configuration is already correct.
func (p *Pipeline) Reconcile(ctx context.Context, req Request) (*models.ReconciliationResult, error) {
	run := &models.ReconciliationRun{
		ID:          models.GenerateID("run"),
		Target:      req.Target.String(),
		ServiceName: req.ServiceName,
		Author:      req.Author,
		Status:      models.RunStatusFailed,
		StartedAt:   time.Now().UTC(),
	}
	p.addEvent(run, "info", "load", fmt.Sprintf("Reconciling %s for %s", req.ServiceName, req.Target))

	version, candidate, err := p.applyOnce(run, req, false)
	if errors.Is(err, storage.ErrConflict) {
		// Exactly one retry with a freshly loaded document; a second
		// conflict is surfaced as fatal.
		p.addEvent(run, "warning", "persist", "Concurrent write detected, retrying once")
		version, candidate, err = p.applyOnce(run, req, true)
	}
	if err != nil {
		return nil, p.failRun(run, err)
	}

	run.NewVersion = version

	artifactPath := p.Artifacts.ArtifactPath(req.Target.String())
	if err := writeFileAtomic(artifactPath, []byte(candidate)); err != nil {
		// The persisted version stands; only the artifact write failed and
		// can be retried independently.
		p.addEvent(run, "error", "materialize", err.Error())
		return nil, p.failRun(run, fmt.Errorf("%w: %v", ErrMaterializeFailed, err))
	}
	run.ArtifactPath = artifactPath
	p.addEvent(run, "info", "materialize", fmt.Sprintf("Materialized version %d to %s", version, artifactPath))

	result := &models.ReconciliationResult{
		Status:       models.RunStatusApplied,
		NewVersion:   version,
		ArtifactPath: artifactPath,
	}

	if req.AutoRestart && p.Controller != nil {
		stack := req.Target.StackName()
		p.addEvent(run, "info", "restart", fmt.Sprintf("Restarting stack %s", stack))

		report, err := p.Controller.Restart(ctx, stack)
		result.Restart = report
		if err != nil {
			p.addEvent(run, "error", "restart", err.Error())
			result.Status = models.RunStatusRestartFailed
		} else {
			p.addEvent(run, "info", "restart", "Restart completed")
		}
	}

	run.Status = result.Status
	p.completeRun(run)

	return result, nil
}

// applyOnce executes steps 1-5 (load, plan, patch, validate, persist) and
// returns the new version number and the candidate document.
func (p *Pipeline) applyOnce(run *models.ReconciliationRun, req Request, retry bool) (int, string, error) {
	doc, err := p.Store.Load(req.Target)
	if err != nil {
		p.addEvent(run, "error", "load", err.Error())
		return 0, "", err
	}
	p.debugLog("DEBUG: loaded %s version %d (%d bytes)", req.Target, doc.Version, len(doc.Content))

	directives, err := p.Planner.Plan(req.Intent)
	if err != nil {
		p.addEvent(run, "error", "plan", err.Error())
		return 0, "", err
	}
	p.addEvent(run, "info", "plan", fmt.Sprintf("Planned %d directive(s) for %s", len(directives), req.ServiceName))

	candidate, err := compose.Patch(doc.Content, req.ServiceName, directives)
	if err != nil {
		p.addEvent(run, "error", "patch", err.Error())
		return 0, "", err
	}

	if err := validateCandidate(candidate, req.ServiceName); err != nil {
		p.addEvent(run, "error", "validate", err.Error())
		return 0, "", err
	}

	version, err := p.Store.Save(req.Target, candidate, req.Author)
	if err != nil {
		if !errors.Is(err, storage.ErrConflict) || retry {
			p.addEvent(run, "error", "persist", err.Error())
		}
		return 0, "", err
	}
	p.addEvent(run, "info", "persist", fmt.Sprintf("Persisted version %d", version))

	return version, candidate, nil
}

// validateCandidate is the post-patch shape check: a violation here means
// the patcher itself misbehaved and is reported as an internal error,
// never silently accepted.
func validateCandidate(candidate, serviceName string) error {
	if strings.TrimSpace(candidate) == "" {
		return fmt.Errorf("%w: patched document is empty", ErrInternal)
	}
	if !compose.HasService(candidate, serviceName) {
		return fmt.Errorf("%w: patched document lost service %q", ErrInternal, serviceName)
	}
	return nil
}

// MaterializeCurrent rewrites the artifact for a target from its stored
// current version, without changing the database. Used to retry a failed
// materialize step.
func (p *Pipeline) MaterializeCurrent(target models.Target) (string, error) {
	doc, err := p.Store.Load(target)
	if err != nil {
		return "", err
	}

	artifactPath := p.Artifacts.ArtifactPath(target.String())
	if err := writeFileAtomic(artifactPath, []byte(doc.Content)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMaterializeFailed, err)
	}

	return artifactPath, nil
}

// addEvent appends a step-level entry to the run's event log.
func (p *Pipeline) addEvent(run *models.ReconciliationRun, level, phase, message string) {
	run.Events = append(run.Events, models.RunEvent{
		Time:    time.Now().UTC(),
		Level:   level,
		Phase:   phase,
		Message: message,
	})
	p.debugLog("DEBUG: [%s] %s: %s", level, phase, message)
}

// failRun finalizes the audit record for a failed run and passes the
// typed error through.
func (p *Pipeline) failRun(run *models.ReconciliationRun, err error) error {
	run.Status = models.RunStatusFailed
	run.Error = err.Error()
	p.completeRun(run)
	return err
}

// completeRun stamps the terminal time and persists the audit record.
// Audit persistence is best-effort: a failure here is logged, not
// surfaced, because the reconciliation outcome is already decided.
func (p *Pipeline) completeRun(run *models.ReconciliationRun) {
	now := time.Now().UTC()
	run.CompletedAt = &now

	if err := p.Store.SaveRun(run); err != nil {
		log.Printf("Warning: failed to save reconciliation run %s: %v", run.ID, err)
	}
}
