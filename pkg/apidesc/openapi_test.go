package apidesc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/devserve/pkg/rewrite"
)

const petstore = `
openapi: 3.0.3
info:
  title: Pets
  version: "1.0"
  x-api-res-headers:
    access-control-allow-origin: http://localhost:3000
    X-Mock-Server: devserve
servers:
  - url: http://localhost:8000/v1
paths:
  /pets:
    get:
      responses:
        "200":
          description: list
          content:
            application/json:
              example:
                - {id: 1, name: Rex}
    post:
      responses:
        "201":
          description: created
          content:
            application/json:
              schema:
                type: object
                properties:
                  id: {type: integer}
                  name: {type: string}
                  tags:
                    type: array
                    items: {type: string, format: uuid}
  /pets/{petId}:
    get:
      responses:
        "404":
          description: missing
        "200":
          description: one
          content:
            application/problem+json:
              examples:
                b: {value: {id: 2}}
                a: {value: {id: 1}}
    delete:
      responses:
        "204":
          description: deleted
  /health:
    get:
      responses:
        default:
          description: whatever
`

func TestParseOpenAPI_Settings(t *testing.T) {
	t.Parallel()

	o, err := ParseOpenAPI([]byte(petstore))
	require.NoError(t, err)

	h := o.Settings().APIResHeaders
	assert.Equal(t, "http://localhost:3000", h["Access-Control-Allow-Origin"])
	assert.Equal(t, "devserve", h["X-Mock-Server"])
	assert.Equal(t, DefaultHeaders()["Access-Control-Allow-Methods"], h["Access-Control-Allow-Methods"])
}

func TestParseOpenAPI_Routes(t *testing.T) {
	t.Parallel()

	o, err := ParseOpenAPI([]byte(petstore))
	require.NoError(t, err)

	rs := o.Routes(catchAll)
	byKey := map[string]rewrite.Rule{}
	for _, r := range rs {
		byKey[r.Key()] = r
	}
	assert.ElementsMatch(t, []string{
		"GET /v1/pets",
		"POST /v1/pets",
		"DELETE /v1/pets/:petId",
		"GET /v1/pets/:petId",
		"GET /v1/health",
	}, rs.Patterns())

	list := byKey["GET /v1/pets"].Target
	assert.Equal(t, rewrite.KindResponse, list.Kind)
	assert.Equal(t, http.StatusOK, list.Status)
	assert.Equal(t, []any{map[string]any{"id": float64(1), "name": "Rex"}}, list.Body)

	created := byKey["POST /v1/pets"].Target
	assert.Equal(t, http.StatusCreated, created.Status)
	assert.Equal(t, map[string]any{
		"id":   0,
		"name": "string",
		"tags": []any{"00000000-0000-0000-0000-000000000000"},
	}, created.Body)

	one := byKey["GET /v1/pets/:petId"].Target
	assert.Equal(t, http.StatusOK, one.Status)
	assert.Equal(t, map[string]any{"id": float64(1)}, one.Body)

	deleted := byKey["DELETE /v1/pets/:petId"].Target
	assert.Equal(t, http.StatusNoContent, deleted.Status)
	assert.Nil(t, deleted.Body)

	health := byKey["GET /v1/health"].Target
	assert.Equal(t, http.StatusOK, health.Status)
	assert.Nil(t, health.Body)
}

func TestParseOpenAPI_SeedFilter(t *testing.T) {
	t.Parallel()

	o, err := ParseOpenAPI([]byte(petstore))
	require.NoError(t, err)

	rs := o.Routes(rewrite.RuleSet{{Method: "DELETE", Pattern: "/v1/pets/**"}})
	assert.Equal(t, []string{"DELETE /v1/pets/:petId"}, rs.Patterns())
}

func TestParseOpenAPI_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseOpenAPI([]byte("openapi: [\n"))
	assert.Error(t, err)
}

func TestParseOpenAPI_BadHeadersExtension(t *testing.T) {
	t.Parallel()

	doc := "openapi: 3.0.3\ninfo: {title: x, version: '1', x-api-res-headers: [a, b]}\npaths: {}\n"
	_, err := ParseOpenAPI([]byte(doc))
	assert.ErrorContains(t, err, HeadersExtension)
}

func TestLoadOpenAPI_FileAndURL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(petstore), 0o600))

	fromFile, err := LoadOpenAPI(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, fromFile.Routes(catchAll), 5)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(petstore))
	}))
	t.Cleanup(srv.Close)

	fromURL, err := LoadOpenAPI(context.Background(), srv.URL+"/api.yaml")
	require.NoError(t, err)
	assert.Equal(t, fromFile.Routes(catchAll).Patterns(), fromURL.Routes(catchAll).Patterns())
}

func TestLoadOpenAPI_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadOpenAPI(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to load API description")
}
