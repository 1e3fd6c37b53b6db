// Package engines resolves which template renderer handles which file
// extension and provides the three built-in renderers.
//
// The baseline mapping is always:
//
//	vm  -> velocity   (references resolved against the views root)
//	ftl -> freemarker
//	ejs -> ejs
//
// In online mode a single extension can be remapped to one of the named
// engines ("velocity", "freemarker", "ejs"). Unknown names are ignored.
//
// The renderers implement the interpolation subset of their namesakes that
// mock pages need: variable references, defaults and escaping. Velocity and
// FreeMarker references are resolved with JSONPath (github.com/ohler55/ojg);
// EJS expressions are evaluated with github.com/expr-lang/expr.
package engines
