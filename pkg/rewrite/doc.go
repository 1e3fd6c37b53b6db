// Package rewrite implements the route-rewrite middleware: an ordered set of
// "METHOD /pattern" rules, each mapped to a target that proxies the request,
// serves or renders a file, or answers with inline mock data.
//
// Rule files are YAML or JSON mappings. Order is significant; the first
// matching rule wins.
//
//	"GET /api/users/:id": users/detail.json      # file (rendered if its extension has an engine)
//	"POST /api/orders":                          # inline JSON
//	  id: 42
//	  status: created
//	"ALL /proxy/**": "https://staging.example.com"
//	"GET /api/slow":                             # structured response
//	  status: 503
//	  headers: {Retry-After: "5"}
//	  body: "try later"
//	  delay: 250ms
//
// Patterns support :name segments and doublestar globs (*, **, ?, {a,b}).
// Targets may reference captured segments as {name}.
package rewrite
