package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func record(name string, trace *[]string) Stage {
	return func(w http.ResponseWriter, r *http.Request, next Next) error {
		*trace = append(*trace, name)
		return next(w, r)
	}
}

func TestCompose_RunsInOrder(t *testing.T) {
	t.Parallel()

	var trace []string
	s := Compose(record("a", &trace), record("b", &trace), record("c", &trace))

	rec := httptest.NewRecorder()
	err := s(rec, httptest.NewRequest(http.MethodGet, "/", nil), NotFound)

	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, trace)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompose_StopsOnResponse(t *testing.T) {
	t.Parallel()

	var trace []string
	s := Compose(
		record("a", &trace),
		Handle(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})),
		record("never", &trace),
	)

	rec := httptest.NewRecorder()
	assert.NoError(t, s(rec, httptest.NewRequest(http.MethodGet, "/", nil), NotFound))
	assert.Equal(t, []string{"a"}, trace)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCompose_PropagatesErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	s := Compose(func(http.ResponseWriter, *http.Request, Next) error { return boom })

	err := s(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), NotFound)
	assert.ErrorIs(t, err, boom)
}

func TestCompose_PassesReplacedRequest(t *testing.T) {
	t.Parallel()

	s := Compose(
		func(w http.ResponseWriter, r *http.Request, next Next) error {
			r2 := r.Clone(r.Context())
			r2.Header.Set("X-Seen", "yes")
			return next(w, r2)
		},
		func(w http.ResponseWriter, r *http.Request, _ Next) error {
			WriteText(w, http.StatusOK, r.Header.Get("X-Seen"))
			return nil
		},
	)

	rec := httptest.NewRecorder()
	assert.NoError(t, s(rec, httptest.NewRequest(http.MethodGet, "/", nil), NotFound))
	assert.Equal(t, "yes", rec.Body.String())
}

func TestMethod(t *testing.T) {
	t.Parallel()

	s := Method(http.MethodOptions, Handle(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	rec := httptest.NewRecorder()
	assert.NoError(t, s(rec, httptest.NewRequest(http.MethodGet, "/x", nil), NotFound))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	assert.NoError(t, s(rec, httptest.NewRequest(http.MethodOptions, "/x", nil), NotFound))
	assert.Equal(t, http.StatusOK, rec.Code)
}
