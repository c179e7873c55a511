package routing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/stackyard/internal/config"
	"evalgo.org/stackyard/models"
)

func testPlanner() *Planner {
	return New(&config.ComposeConfig{
		HTTPEntrypoint:      "web",
		TLSEntrypoint:       "websecure",
		DefaultCertResolver: "letsencrypt",
	})
}

// TestPlanHTTPOnly tests the four-directive plain-HTTP block.
func TestPlanHTTPOnly(t *testing.T) {
	planner := testPlanner()

	block, err := planner.Plan(models.RoutingIntent{
		ServiceName: "web-gui",
		Domain:      "admin.example.com",
		TargetPort:  8080,
	})
	require.NoError(t, err)

	expected := models.DirectiveBlock{
		"traefik.enable=true",
		"traefik.http.routers.web-gui.rule=Host(`admin.example.com`)",
		"traefik.http.routers.web-gui.entrypoints=web",
		"traefik.http.services.web-gui.loadbalancer.server.port=8080",
	}
	assert.Equal(t, expected, block)
}

// TestPlanTLS tests the ten-directive TLS block with redirect.
func TestPlanTLS(t *testing.T) {
	planner := testPlanner()

	block, err := planner.Plan(models.RoutingIntent{
		ServiceName:      "shop",
		Domain:           "shop.example.com",
		TLSEnabled:       true,
		TargetPort:       3000,
		CertResolverName: "letsencrypt",
	})
	require.NoError(t, err)

	expected := models.DirectiveBlock{
		"traefik.enable=true",
		"traefik.http.routers.shop.rule=Host(`shop.example.com`)",
		"traefik.http.routers.shop.entrypoints=web",
		"traefik.http.services.shop.loadbalancer.server.port=3000",
		"traefik.http.routers.shop-secure.rule=Host(`shop.example.com`)",
		"traefik.http.routers.shop-secure.entrypoints=websecure",
		"traefik.http.routers.shop-secure.tls=true",
		"traefik.http.routers.shop-secure.tls.certresolver=letsencrypt",
		"traefik.http.middlewares.shop-redirect.redirectscheme.scheme=https",
		"traefik.http.routers.shop.middlewares=shop-redirect",
	}
	assert.Equal(t, expected, block)
}

// TestPlanDefaultResolver tests that a TLS intent without a resolver falls
// back to the planner's default.
func TestPlanDefaultResolver(t *testing.T) {
	planner := testPlanner()

	block, err := planner.Plan(models.RoutingIntent{
		ServiceName: "shop",
		Domain:      "shop.example.com",
		TLSEnabled:  true,
		TargetPort:  3000,
	})
	require.NoError(t, err)
	assert.True(t, block.Contains("traefik.http.routers.shop-secure.tls.certresolver=letsencrypt"))
}

// TestPlanDeterministic tests that the same intent always yields an
// identical block.
func TestPlanDeterministic(t *testing.T) {
	planner := testPlanner()
	intent := models.RoutingIntent{
		ServiceName:      "shop",
		Domain:           "shop.example.com",
		TLSEnabled:       true,
		TargetPort:       3000,
		CertResolverName: "letsencrypt",
	}

	first, err := planner.Plan(intent)
	require.NoError(t, err)
	second, err := planner.Plan(intent)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestPlanInvalidIntent tests the rejection cases.
func TestPlanInvalidIntent(t *testing.T) {
	tests := []struct {
		name   string
		intent models.RoutingIntent
	}{
		{
			name: "missing service name",
			intent: models.RoutingIntent{
				Domain:     "shop.example.com",
				TargetPort: 3000,
			},
		},
		{
			name: "missing domain",
			intent: models.RoutingIntent{
				ServiceName: "shop",
				TargetPort:  3000,
			},
		},
		{
			name: "invalid domain",
			intent: models.RoutingIntent{
				ServiceName: "shop",
				Domain:      "not a hostname",
				TargetPort:  3000,
			},
		},
		{
			name: "missing port",
			intent: models.RoutingIntent{
				ServiceName: "shop",
				Domain:      "shop.example.com",
			},
		},
		{
			name: "port out of range",
			intent: models.RoutingIntent{
				ServiceName: "shop",
				Domain:      "shop.example.com",
				TargetPort:  70000,
			},
		},
	}

	planner := testPlanner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := planner.Plan(tt.intent)
			assert.True(t, errors.Is(err, ErrInvalidIntent), "expected ErrInvalidIntent, got %v", err)
		})
	}
}

// TestPlanNoResolverAnywhere tests that TLS without any resolver, default
// included, is rejected rather than emitting a resolver-less block.
func TestPlanNoResolverAnywhere(t *testing.T) {
	planner := New(&config.ComposeConfig{
		HTTPEntrypoint: "web",
		TLSEntrypoint:  "websecure",
	})

	_, err := planner.Plan(models.RoutingIntent{
		ServiceName: "shop",
		Domain:      "shop.example.com",
		TLSEnabled:  true,
		TargetPort:  3000,
	})
	assert.True(t, errors.Is(err, ErrInvalidIntent))
}

// TestIdentifierNames tests the deterministic router and middleware naming.
func TestIdentifierNames(t *testing.T) {
	assert.Equal(t, "web-gui", HTTPRouterName("web-gui"))
	assert.Equal(t, "web-gui-secure", TLSRouterName("web-gui"))
	assert.Equal(t, "web-gui-redirect", RedirectMiddlewareName("web-gui"))
}
