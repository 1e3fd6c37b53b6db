package apidesc

import (
	"maps"

	"github.com/getmockd/devserve/pkg/rewrite"
)

// Settings are the service-wide response settings.
type Settings struct {
	// APIResHeaders are sent on every OPTIONS response.
	APIResHeaders map[string]string
}

// Describer is the route-description service.
type Describer interface {
	Settings() Settings
	// Routes returns the described routes covered by the seed rules, in
	// matching order.
	Routes(seed rewrite.RuleSet) rewrite.RuleSet
}

// DefaultHeaders returns the permissive CORS headers used when a description
// does not provide its own.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD",
		"Access-Control-Allow-Headers": "Content-Type, Authorization, X-Requested-With, Accept, Origin",
		"Access-Control-Max-Age":       "86400",
	}
}

// Static is a Describer with fixed headers and routes.
type Static struct {
	headers map[string]string
	routes  rewrite.RuleSet
}

// NewStatic creates a Static describer. Nil headers means DefaultHeaders.
func NewStatic(headers map[string]string, routes rewrite.RuleSet) *Static {
	if headers == nil {
		headers = DefaultHeaders()
	}
	return &Static{headers: maps.Clone(headers), routes: routes}
}

// Settings implements Describer.
func (s *Static) Settings() Settings {
	return Settings{APIResHeaders: maps.Clone(s.headers)}
}

// Routes implements Describer.
func (s *Static) Routes(seed rewrite.RuleSet) rewrite.RuleSet {
	return filter(s.routes, seed)
}

func filter(routes, seed rewrite.RuleSet) rewrite.RuleSet {
	out := make(rewrite.RuleSet, 0, len(routes))
	for _, r := range routes {
		for _, s := range seed {
			if s.Covers(r.Method, r.Pattern) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
