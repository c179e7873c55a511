package models

import "time"

// ComposeDocument is one stored compose configuration for a target.
// It follows the Schema.org DigitalDocument type.
//
// Two row shapes share this model:
//   - the current row (@id "config:<target>") holds the latest content and
//     the per-target version counter, and is the only row ever updated
//   - version rows (@id "config:<target>:v<N>") are append-only archive
//     copies written on every successful save, never mutated
//
// Example JSON representation:
//
//	{
//	  "@context": "https://schema.org",
//	  "@type": "DigitalDocument",
//	  "@id": "config:site:42",
//	  "target": "site:42",
//	  "text": "services:\n  web:\n    ...",
//	  "version": 7,
//	  "isCurrent": true,
//	  "dateModified": "2026-08-28T10:00:00Z",
//	  "editor": "ops@example.com"
//	}
type ComposeDocument struct {
	// Context is the JSON-LD @context URL
	Context string `json:"@context" jsonld:"@context"`

	// Type is the JSON-LD @type (DigitalDocument)
	Type string `json:"@type" jsonld:"@type"`

	// ID is the document identifier (maps to CouchDB _id)
	ID string `json:"@id" jsonld:"@id" couchdb:"_id"`

	// Rev is the CouchDB document revision
	Rev string `json:"_rev,omitempty" couchdb:"_rev"`

	// Target is the canonical target string ("main" or "site:<id>")
	Target string `json:"target" couchdb:"required,index"`

	// Content is the full compose document text
	Content string `json:"text" jsonld:"text"`

	// Version is the monotonically increasing version number per target
	Version int `json:"version" couchdb:"index"`

	// Current is true on the head row, false on archived version rows
	Current bool `json:"isCurrent"`

	// UpdatedAt is the time this version was written
	UpdatedAt time.Time `json:"dateModified" jsonld:"dateModified"`

	// UpdatedBy is the operator identity that wrote this version
	UpdatedBy string `json:"editor,omitempty" jsonld:"editor"`
}
