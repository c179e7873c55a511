package validation

import (
	"strings"
	"testing"

	"evalgo.org/stackyard/models"
)

func validIntent() models.RoutingIntent {
	return models.RoutingIntent{
		ServiceName: "web",
		Domain:      "shop.example.com",
		TargetPort:  8080,
	}
}

// TestValidateIntent tests the structural intent checks.
func TestValidateIntent(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.RoutingIntent)
		wantValid bool
		wantField string
	}{
		{
			name:      "valid http intent",
			mutate:    func(i *models.RoutingIntent) {},
			wantValid: true,
		},
		{
			name: "valid tls intent",
			mutate: func(i *models.RoutingIntent) {
				i.TLSEnabled = true
				i.CertResolverName = "letsencrypt"
			},
			wantValid: true,
		},
		{
			name:      "missing service name",
			mutate:    func(i *models.RoutingIntent) { i.ServiceName = "" },
			wantValid: false,
			wantField: "ServiceName",
		},
		{
			name:      "missing domain",
			mutate:    func(i *models.RoutingIntent) { i.Domain = "" },
			wantValid: false,
			wantField: "Domain",
		},
		{
			name:      "domain with spaces",
			mutate:    func(i *models.RoutingIntent) { i.Domain = "not a hostname" },
			wantValid: false,
			wantField: "Domain",
		},
		{
			name:      "missing port",
			mutate:    func(i *models.RoutingIntent) { i.TargetPort = 0 },
			wantValid: false,
			wantField: "TargetPort",
		},
		{
			name:      "port above range",
			mutate:    func(i *models.RoutingIntent) { i.TargetPort = 70000 },
			wantValid: false,
			wantField: "TargetPort",
		},
		{
			name:      "tls without resolver",
			mutate:    func(i *models.RoutingIntent) { i.TLSEnabled = true },
			wantValid: false,
			wantField: "CertResolverName",
		},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := validIntent()
			tt.mutate(&intent)

			result := v.ValidateIntent(intent)
			if result.Valid != tt.wantValid {
				t.Fatalf("Expected valid=%v, got %v (errors: %v)", tt.wantValid, result.Valid, result.ErrorStrings())
			}
			if tt.wantValid {
				return
			}

			found := false
			for _, e := range result.Errors {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected an error on field %s, got %v", tt.wantField, result.ErrorStrings())
			}
		})
	}
}

// TestLintCompose tests the advisory compose document checks.
func TestLintCompose(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantValid bool
		wantMsg   string
	}{
		{
			name: "valid document",
			content: `services:
  web:
    image: nginx:latest
`,
			wantValid: true,
		},
		{
			name:      "empty document",
			content:   "   \n",
			wantValid: false,
			wantMsg:   "document is empty",
		},
		{
			name:      "invalid yaml",
			content:   "services:\n  web: [unclosed\n",
			wantValid: false,
			wantMsg:   "invalid YAML",
		},
		{
			name:      "no services section",
			content:   "networks:\n  edge: {}\n",
			wantValid: false,
			wantMsg:   "no services section",
		},
		{
			name:      "empty services section",
			content:   "services: {}\n",
			wantValid: false,
			wantMsg:   "empty or malformed",
		},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.LintCompose(tt.content)
			if result.Valid != tt.wantValid {
				t.Fatalf("Expected valid=%v, got %v (errors: %v)", tt.wantValid, result.Valid, result.ErrorStrings())
			}
			if tt.wantValid {
				return
			}

			joined := strings.Join(result.ErrorStrings(), "; ")
			if !strings.Contains(joined, tt.wantMsg) {
				t.Errorf("Expected errors to mention %q, got %q", tt.wantMsg, joined)
			}
		})
	}
}
