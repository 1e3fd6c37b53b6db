package httputil

import (
	"net/http"
)

// Next hands the request to the remainder of the pipeline.
type Next func(w http.ResponseWriter, r *http.Request) error

// Stage is one step of a request pipeline. A stage either writes a response,
// calls next (possibly with a replaced request), or returns an error that the
// pipeline routes to its error handler.
type Stage func(w http.ResponseWriter, r *http.Request, next Next) error

// Compose joins stages into a single stage that runs them in order.
func Compose(stages ...Stage) Stage {
	return func(w http.ResponseWriter, r *http.Request, next Next) error {
		var run func(i int, w http.ResponseWriter, r *http.Request) error
		run = func(i int, w http.ResponseWriter, r *http.Request) error {
			if i == len(stages) {
				return next(w, r)
			}
			return stages[i](w, r, func(w http.ResponseWriter, r *http.Request) error {
				return run(i+1, w, r)
			})
		}
		return run(0, w, r)
	}
}

// Handle wraps a handler that always responds into a terminal stage.
func Handle(h http.Handler) Stage {
	return func(w http.ResponseWriter, r *http.Request, _ Next) error {
		h.ServeHTTP(w, r)
		return nil
	}
}

// Method restricts s to requests with the given method; others call next.
func Method(method string, s Stage) Stage {
	return func(w http.ResponseWriter, r *http.Request, next Next) error {
		if r.Method != method {
			return next(w, r)
		}
		return s(w, r, next)
	}
}

// NotFound is the Next used after the last stage: it answers 404.
func NotFound(w http.ResponseWriter, r *http.Request) error {
	http.NotFound(w, r)
	return nil
}
