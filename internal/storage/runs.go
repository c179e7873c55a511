package storage

import (
	"fmt"
	"sort"

	"eve.evalgo.org/db"

	"evalgo.org/stackyard/models"
)

// runType is the Schema.org type reconciliation audit rows carry.
const runType = "Action"

// SaveRun persists a reconciliation audit record. Runs are written once at
// creation and updated in place as the pipeline progresses.
func (s *Storage) SaveRun(run *models.ReconciliationRun) error {
	if run.Context == "" {
		run.Context = "https://schema.org"
	}
	if run.Type == "" {
		run.Type = runType
	}

	resp, err := s.service.SaveGenericDocument(run)
	if err != nil {
		return fmt.Errorf("failed to save reconciliation run: %w", err)
	}

	run.Rev = resp.Rev
	return nil
}

// GetRun retrieves one reconciliation run by ID.
func (s *Storage) GetRun(id string) (*models.ReconciliationRun, error) {
	var run models.ReconciliationRun
	if err := s.service.GetGenericDocument(id, &run); err != nil {
		return nil, fmt.Errorf("run not found: %w", err)
	}
	return &run, nil
}

// ListRuns returns reconciliation runs for a target, newest first.
func (s *Storage) ListRuns(target models.Target, limit int) ([]*models.ReconciliationRun, error) {
	qb := db.NewQueryBuilder().
		Where("@type", "$eq", runType).
		And().Where("target", "$eq", target.String())

	query := qb.Build()

	runs, err := db.FindTyped[models.ReconciliationRun](s.service, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs for %s: %w", target, err)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	result := make([]*models.ReconciliationRun, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}

	return result, nil
}
