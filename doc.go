// Package stackyard is a configuration reconciliation engine for Docker
// Compose hosting with Traefik routing.
//
// # Overview
//
// Stackyard keeps versioned Docker Compose documents in CouchDB and turns
// declarative routing intents into Traefik label blocks patched into the
// right service. A reconciliation run validates the intent, patches the
// stored document, persists it as a new version, materializes it to disk
// and optionally restarts the affected stack.
//
// The platform consists of three main components:
//   - API Server: REST API for configs, reconciliation and stack status
//   - Reconciliation Pipeline: validate, patch, persist, materialize, restart
//   - Storage Layer: CouchDB-backed versioned config store
//
// # Architecture
//
//	┌─────────────────┐       ┌─────────────────┐
//	│  API Server     │       │  CLI            │
//	│  (Echo REST)    │       │  (Cobra)        │
//	└────────┬────────┘       └────────┬────────┘
//	         │                         │
//	┌────────▼─────────────────────────▼────────┐
//	│          Reconciliation Pipeline          │
//	└──┬───────────────┬───────────────┬────────┘
//	   │               │               │
//	┌──▼─────────┐ ┌───▼──────────┐ ┌──▼──────────┐
//	│ Storage    │ │ Artifacts    │ │ Runtime     │
//	│ (EVE/Couch)│ │ (compose.yml)│ │ (Docker API)│
//	└────────────┘ └──────────────┘ └─────────────┘
//
// # Core Features
//
// Versioned config store:
//   - One current document per target (main platform or a hosted site)
//   - Append-only version history with optimistic concurrency
//   - Full audit trail of reconciliation runs
//
// Directive patching:
//   - Line-based label block replacement that leaves the rest of the
//     document byte-for-byte untouched
//   - Deterministic Traefik router, service and middleware naming
//   - HTTP-only and TLS-with-redirect routing plans
//
// Runtime control:
//   - Stack restart and container status through the Docker API
//   - Restart failures downgrade a run instead of losing the new version
//
// # Usage
//
// Start the API server:
//
//	stackyard server --config configs/config.yaml
//
// Reconcile a site's routing:
//
//	stackyard reconcile site:42 web --domain shop.example.com --port 8080 --tls
//
// Inspect a target:
//
//	stackyard config show main
//	stackyard config history site:42
//	stackyard status site:42
//
// # Configuration
//
// Configuration can be provided via:
//   - YAML file (configs/config.yaml)
//   - Environment variables (SY_ prefix)
//
// Example configuration:
//
//	server:
//	  host: localhost
//	  port: 8095
//	couchdb:
//	  url: http://localhost:5984
//	  database: stackyard
//	  username: admin
//	  password: password
//	compose:
//	  main_path: /srv/stackyard/docker-compose.yml
//	  sites_dir: /srv/stackyard/sites
//	  default_cert_resolver: letsencrypt
//
// # API Endpoints
//
// Config Management:
//   - GET  /api/v1/configs/:target            - Current document
//   - PUT  /api/v1/configs/:target            - Save manual edit
//   - GET  /api/v1/configs/:target/history    - Version history
//   - GET  /api/v1/configs/:target/runs       - Reconciliation runs
//   - POST /api/v1/configs/:target/reconcile  - Apply a routing intent
//   - POST /api/v1/configs/:target/materialize - Rewrite the on-disk artifact
//
// Validation and Runtime:
//   - POST /api/v1/validate/compose       - Lint a compose document
//   - GET  /api/v1/stacks/:stack/status   - Container states of a stack
//
// # Development
//
// Run tests:
//
//	go test ./...
//
// Build the binary:
//
//	go build -o stackyard ./cmd/stackyard
//
// # Technology Stack
//
//   - Go 1.25+
//   - Echo v4 (Web framework)
//   - CouchDB 3.3+ (Database)
//   - EVE library (CouchDB client)
//   - Docker API (Container runtime)
//
// # License
//
// Stackyard is open source software.
package stackyard
