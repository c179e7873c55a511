package storage

import (
	"fmt"
	"sort"
	"time"

	"eve.evalgo.org/db"

	"evalgo.org/stackyard/models"
)

// documentType is the Schema.org type stored configuration rows carry.
const documentType = "DigitalDocument"

// Load returns the current compose document for a target.
// Returns ErrNotFound when the target has never been saved; seeding is the
// responsibility of the bootstrap path (SaveRaw on site provisioning).
func (s *Storage) Load(target models.Target) (*models.ComposeDocument, error) {
	var doc models.ComposeDocument
	if err := s.service.GetGenericDocument(target.DocID(), &doc); err != nil {
		if couchErr, ok := err.(*db.CouchDBError); ok && couchErr.IsNotFound() {
			return nil, fmt.Errorf("%w: target %s", ErrNotFound, target)
		}
		return nil, fmt.Errorf("failed to load configuration for %s: %w", target, err)
	}
	return &doc, nil
}

// Save appends a new configuration version for a target and returns the new
// version number. Prior versions are archived, never overwritten.
//
// Local writers queue on a per-target mutex. If another process updated the
// same CouchDB document in between, the rev-checked head swap fails and
// ErrConflict is returned; the caller may retry once with a fresh Load.
func (s *Storage) Save(target models.Target, content, author string) (int, error) {
	mu := s.targetLock(target.String())
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UTC()

	version := 1
	headRev := ""
	var head models.ComposeDocument
	if err := s.service.GetGenericDocument(target.DocID(), &head); err == nil {
		version = head.Version + 1
		headRev = head.Rev
	} else if couchErr, ok := err.(*db.CouchDBError); !ok || !couchErr.IsNotFound() {
		// Only a genuine 404 means "first version"; anything else (outage,
		// auth) must not silently restart the version counter.
		return 0, fmt.Errorf("failed to read current configuration for %s: %w", target, err)
	}

	// Archive row first: if the head swap below loses a race, the archive
	// for the losing version is orphaned but harmless, while the winning
	// writer's history stays complete.
	archive := &models.ComposeDocument{
		Context:   "https://schema.org",
		Type:      documentType,
		ID:        target.VersionDocID(version),
		Target:    target.String(),
		Content:   content,
		Version:   version,
		Current:   false,
		UpdatedAt: now,
		UpdatedBy: author,
	}
	if _, err := s.service.SaveGenericDocument(archive); err != nil {
		if couchErr, ok := err.(*db.CouchDBError); ok && couchErr.IsConflict() {
			return 0, fmt.Errorf("%w: target %s version %d", ErrConflict, target, version)
		}
		return 0, fmt.Errorf("failed to archive version %d for %s: %w", version, target, err)
	}

	newHead := &models.ComposeDocument{
		Context:   "https://schema.org",
		Type:      documentType,
		ID:        target.DocID(),
		Rev:       headRev,
		Target:    target.String(),
		Content:   content,
		Version:   version,
		Current:   true,
		UpdatedAt: now,
		UpdatedBy: author,
	}
	if _, err := s.service.SaveGenericDocument(newHead); err != nil {
		if couchErr, ok := err.(*db.CouchDBError); ok && couchErr.IsConflict() {
			return 0, fmt.Errorf("%w: target %s", ErrConflict, target)
		}
		return 0, fmt.Errorf("failed to save configuration for %s: %w", target, err)
	}

	s.debugLog("DEBUG: saved %s version %d (author %s)", target, version, author)
	return version, nil
}

// History returns archived versions for a target, newest first.
// Audit display only; not in the reconciliation hot path.
func (s *Storage) History(target models.Target, limit int) ([]*models.ComposeDocument, error) {
	qb := db.NewQueryBuilder().
		Where("@type", "$eq", documentType).
		And().Where("target", "$eq", target.String()).
		And().Where("isCurrent", "$eq", false)

	query := qb.Build()

	docs, err := db.FindTyped[models.ComposeDocument](s.service, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", target, err)
	}

	// EVE's query builder doesn't support OrderBy, so we sort in memory.
	// Version counts per target stay small enough for audit display.
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Version > docs[j].Version
	})

	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}

	result := make([]*models.ComposeDocument, len(docs))
	for i := range docs {
		result[i] = &docs[i]
	}

	return result, nil
}
