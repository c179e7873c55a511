// Package routing builds the desired directive set for a service from a
// routing intent, encoding the platform's Traefik routing and TLS-redirect
// conventions.
package routing

import (
	"errors"
	"fmt"
	"strings"

	"evalgo.org/stackyard/internal/config"
	"evalgo.org/stackyard/internal/validation"
	"evalgo.org/stackyard/models"
)

// ErrInvalidIntent means the routing intent is malformed (empty or invalid
// domain, port out of range, missing service name or resolver).
var ErrInvalidIntent = errors.New("invalid routing intent")

// Planner generates directive blocks from routing intents. Planning is
// deterministic: the same intent always yields a byte-identical block, and
// router/middleware identifiers derive only from the service name. That
// determinism is what makes the patcher's replace case safe to reapply.
type Planner struct {
	// HTTPEntrypoint is the plain-HTTP entrypoint name (e.g. "web")
	HTTPEntrypoint string

	// TLSEntrypoint is the TLS entrypoint name (e.g. "websecure")
	TLSEntrypoint string

	// DefaultCertResolver backs intents that enable TLS without naming a
	// resolver
	DefaultCertResolver string

	validator *validation.Validator
}

// New creates a planner carrying the platform's routing conventions.
func New(cfg *config.ComposeConfig) *Planner {
	return &Planner{
		HTTPEntrypoint:      cfg.HTTPEntrypoint,
		TLSEntrypoint:       cfg.TLSEntrypoint,
		DefaultCertResolver: cfg.DefaultCertResolver,
		validator:           validation.New(),
	}
}

// Router and middleware identifiers for one service. Deterministic by
// construction.

// HTTPRouterName returns the HTTP router identifier for a service.
func HTTPRouterName(serviceName string) string {
	return serviceName
}

// TLSRouterName returns the TLS router identifier for a service.
func TLSRouterName(serviceName string) string {
	return serviceName + "-secure"
}

// RedirectMiddlewareName returns the HTTP-to-HTTPS redirect middleware
// identifier for a service.
func RedirectMiddlewareName(serviceName string) string {
	return serviceName + "-redirect"
}

// Plan builds the directive block for an intent. Performs no I/O.
//
// With TLS disabled the block is exactly the four HTTP directives; with
// TLS enabled it adds the secure router, certificate resolver, and the
// HTTP-to-HTTPS redirect. The redirect middleware is declared before the
// HTTP router references it; the edge router resolves references across
// the whole label set, so ordering within the block is for readability
// only.
func (p *Planner) Plan(intent models.RoutingIntent) (models.DirectiveBlock, error) {
	if intent.CertResolverName == "" && intent.TLSEnabled {
		intent.CertResolverName = p.DefaultCertResolver
	}

	if result := p.validator.ValidateIntent(intent); !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIntent, strings.Join(result.ErrorStrings(), "; "))
	}

	svc := intent.ServiceName
	httpRouter := HTTPRouterName(svc)

	block := models.DirectiveBlock{
		"traefik.enable=true",
		fmt.Sprintf("traefik.http.routers.%s.rule=Host(`%s`)", httpRouter, intent.Domain),
		fmt.Sprintf("traefik.http.routers.%s.entrypoints=%s", httpRouter, p.HTTPEntrypoint),
		fmt.Sprintf("traefik.http.services.%s.loadbalancer.server.port=%d", svc, intent.TargetPort),
	}

	if !intent.TLSEnabled {
		return block, nil
	}

	tlsRouter := TLSRouterName(svc)
	redirect := RedirectMiddlewareName(svc)

	block = append(block,
		fmt.Sprintf("traefik.http.routers.%s.rule=Host(`%s`)", tlsRouter, intent.Domain),
		fmt.Sprintf("traefik.http.routers.%s.entrypoints=%s", tlsRouter, p.TLSEntrypoint),
		fmt.Sprintf("traefik.http.routers.%s.tls=true", tlsRouter),
		fmt.Sprintf("traefik.http.routers.%s.tls.certresolver=%s", tlsRouter, intent.CertResolverName),
		fmt.Sprintf("traefik.http.middlewares.%s.redirectscheme.scheme=https", redirect),
		fmt.Sprintf("traefik.http.routers.%s.middlewares=%s", httpRouter, redirect),
	)

	return block, nil
}
