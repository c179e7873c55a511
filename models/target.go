package models

import (
	"fmt"
	"strings"
)

// TargetKind distinguishes the shared main stack from per-site stacks.
type TargetKind string

const (
	// TargetKindMain is the singleton edge-router stack.
	TargetKindMain TargetKind = "main"

	// TargetKindSite is a per-site application stack.
	TargetKindSite TargetKind = "site"
)

// Target identifies one compose document: either the singleton main stack
// or a specific site stack.
type Target struct {
	// Kind is main or site
	Kind TargetKind

	// SiteID is the site identifier (set only when Kind is site)
	SiteID string
}

// MainTarget returns the target for the shared main stack.
func MainTarget() Target {
	return Target{Kind: TargetKindMain}
}

// SiteTarget returns the target for the given site.
func SiteTarget(siteID string) Target {
	return Target{Kind: TargetKindSite, SiteID: siteID}
}

// ParseTarget parses a target from its string form: "main" or "site:<id>".
func ParseTarget(s string) (Target, error) {
	switch {
	case s == string(TargetKindMain):
		return MainTarget(), nil
	case strings.HasPrefix(s, string(TargetKindSite)+":"):
		id := strings.TrimPrefix(s, string(TargetKindSite)+":")
		if id == "" {
			return Target{}, fmt.Errorf("site target requires an id")
		}
		return SiteTarget(id), nil
	default:
		return Target{}, fmt.Errorf("invalid target %q (expected \"main\" or \"site:<id>\")", s)
	}
}

// String returns the canonical string form of the target.
func (t Target) String() string {
	if t.Kind == TargetKindSite {
		return fmt.Sprintf("%s:%s", TargetKindSite, t.SiteID)
	}
	return string(TargetKindMain)
}

// IsZero reports whether the target is unset.
func (t Target) IsZero() bool {
	return t.Kind == ""
}

// DocID returns the CouchDB document ID of the current configuration row.
func (t Target) DocID() string {
	return fmt.Sprintf("config:%s", t.String())
}

// VersionDocID returns the CouchDB document ID of one archived version row.
func (t Target) VersionDocID(version int) string {
	return fmt.Sprintf("config:%s:v%d", t.String(), version)
}

// StackName returns the compose project name the orchestration runtime
// uses for this target's containers.
func (t Target) StackName() string {
	if t.Kind == TargetKindSite {
		return fmt.Sprintf("site-%s", t.SiteID)
	}
	return string(TargetKindMain)
}
