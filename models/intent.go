package models

// RoutingIntent is the desired exposure for one service: which domain it
// answers on, whether TLS is terminated for it, and which container port
// the edge router forwards to.
type RoutingIntent struct {
	// ServiceName is the stable identifier matching a service block in the
	// compose document
	ServiceName string `json:"serviceName" validate:"required"`

	// Domain is the hostname the service is exposed under
	Domain string `json:"domain" validate:"required,hostname_rfc1123"`

	// TLSEnabled enables HTTPS termination and the HTTP-to-HTTPS redirect
	TLSEnabled bool `json:"tlsEnabled"`

	// TargetPort is the container port the router forwards to
	TargetPort int `json:"targetPort" validate:"required,min=1,max=65535"`

	// CertResolverName names the certificate resolver used when TLS is
	// enabled (e.g. "letsencrypt")
	CertResolverName string `json:"certResolver,omitempty" validate:"required_if=TLSEnabled true"`
}

// DirectiveBlock is the generated set of routing directives for one
// service, an ordered sequence of key=value label strings. Ordering is
// stable for human readability; the consuming runtime does not depend on
// it.
type DirectiveBlock []string

// Len returns the number of directives in the block.
func (b DirectiveBlock) Len() int {
	return len(b)
}

// Contains reports whether the block carries the exact directive line.
func (b DirectiveBlock) Contains(directive string) bool {
	for _, d := range b {
		if d == directive {
			return true
		}
	}
	return false
}
