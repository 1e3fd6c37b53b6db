// Package apidesc describes the mocked API to the request pipeline: the
// headers answered to OPTIONS preflights and the rules synthesized for the
// online catch-all.
//
// Two describers are provided. Static serves a fixed header set and rule set.
// OpenAPI derives both from an OpenAPI 3 document: every operation becomes a
// rule whose response is the example (or a schema-derived sample) of its first
// 2xx JSON response, and the document's x-api-res-headers extension extends
// the default headers.
package apidesc
