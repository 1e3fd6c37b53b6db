package apidesc

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/devserve/pkg/rewrite"
)

// HeadersExtension is the OpenAPI extension holding extra OPTIONS headers. It
// may be set on the document root or on its info object.
const HeadersExtension = "x-api-res-headers"

// maxSampleDepth bounds schema recursion when synthesizing bodies.
const maxSampleDepth = 8

// OpenAPI is a Describer backed by an OpenAPI 3 document.
type OpenAPI struct {
	headers map[string]string
	routes  rewrite.RuleSet
}

// LoadOpenAPI loads a document from a file path or an http(s) URL.
func LoadOpenAPI(ctx context.Context, location string) (*OpenAPI, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	loader.Context = ctx

	var (
		doc *openapi3.T
		err error
	)
	if u, perr := url.Parse(location); perr == nil && (u.Scheme == "http" || u.Scheme == "https") {
		doc, err = loader.LoadFromURI(u)
	} else {
		doc, err = loader.LoadFromFile(location)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load API description %s: %w", location, err)
	}
	return NewOpenAPI(doc)
}

// ParseOpenAPI parses a document from YAML or JSON bytes.
func ParseOpenAPI(data []byte) (*OpenAPI, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse API description: %w", err)
	}
	return NewOpenAPI(doc)
}

// NewOpenAPI builds a describer from a loaded document.
func NewOpenAPI(doc *openapi3.T) (*OpenAPI, error) {
	headers := DefaultHeaders()
	for _, ext := range []map[string]any{doc.Extensions, infoExtensions(doc)} {
		extra, err := headerExtension(ext)
		if err != nil {
			return nil, err
		}
		maps.Copy(headers, extra)
	}

	return &OpenAPI{headers: headers, routes: synthesize(doc)}, nil
}

// Settings implements Describer.
func (o *OpenAPI) Settings() Settings {
	return Settings{APIResHeaders: maps.Clone(o.headers)}
}

// Routes implements Describer.
func (o *OpenAPI) Routes(seed rewrite.RuleSet) rewrite.RuleSet {
	return filter(o.routes, seed)
}

func infoExtensions(doc *openapi3.T) map[string]any {
	if doc.Info == nil {
		return nil
	}
	return doc.Info.Extensions
}

func headerExtension(ext map[string]any) (map[string]string, error) {
	raw, ok := ext[HeadersExtension]
	if !ok {
		return nil, nil
	}

	var m map[string]any
	switch v := raw.(type) {
	case map[string]any:
		m = v
	case json.RawMessage:
		if err := json.Unmarshal(v, &m); err != nil {
			return nil, fmt.Errorf("%s: %w", HeadersExtension, err)
		}
	default:
		return nil, fmt.Errorf("%s must be a mapping of header names to values", HeadersExtension)
	}

	out := make(map[string]string, len(m))
	for k, v := range m {
		out[http.CanonicalHeaderKey(k)] = fmt.Sprint(v)
	}
	return out, nil
}

func synthesize(doc *openapi3.T) rewrite.RuleSet {
	if doc.Paths == nil {
		return nil
	}
	prefix := basePath(doc)

	var rs rewrite.RuleSet
	for _, p := range doc.Paths.InMatchingOrder() {
		item := doc.Paths.Value(p)
		if item == nil {
			continue
		}
		ops := item.Operations()
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}
		sort.Strings(methods)

		pattern := routePattern(prefix, p)
		for _, m := range methods {
			rs = append(rs, rewrite.Rule{
				Method:  strings.ToUpper(m),
				Pattern: pattern,
				Target:  operationTarget(ops[m]),
			})
		}
	}
	return rs
}

// basePath returns the path of the first server URL, if any.
func basePath(doc *openapi3.T) string {
	if len(doc.Servers) == 0 || doc.Servers[0] == nil {
		return ""
	}
	u, err := url.Parse(doc.Servers[0].URL)
	if err != nil || u.Path == "/" {
		return ""
	}
	return strings.TrimSuffix(u.Path, "/")
}

// routePattern joins prefix and an OpenAPI path, turning {param} into :param.
func routePattern(prefix, p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			segs[i] = ":" + s[1:len(s)-1]
		}
	}
	return path.Clean("/" + prefix + "/" + strings.Join(segs, "/"))
}

func operationTarget(op *openapi3.Operation) rewrite.Target {
	if op == nil || op.Responses == nil {
		return rewrite.Respond(http.StatusOK, nil)
	}

	codes := make([]string, 0, op.Responses.Len())
	for code := range op.Responses.Map() {
		if strings.HasPrefix(code, "2") {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		return rewrite.Respond(http.StatusOK, nil)
	}
	sort.Strings(codes)

	code := codes[0]
	status, err := strconv.Atoi(code)
	if err != nil {
		status = http.StatusOK
	}

	ref := op.Responses.Value(code)
	if ref == nil || ref.Value == nil {
		return rewrite.Respond(status, nil)
	}
	mt := jsonMedia(ref.Value.Content)
	if mt == nil {
		return rewrite.Respond(status, nil)
	}
	return rewrite.Respond(status, mediaExample(mt))
}

func jsonMedia(content openapi3.Content) *openapi3.MediaType {
	if mt := content.Get("application/json"); mt != nil {
		return mt
	}
	types := make([]string, 0, len(content))
	for ct := range content {
		types = append(types, ct)
	}
	sort.Strings(types)
	for _, ct := range types {
		if strings.Contains(ct, "json") {
			return content[ct]
		}
	}
	return nil
}

func mediaExample(mt *openapi3.MediaType) any {
	if mt.Example != nil {
		return mt.Example
	}
	if len(mt.Examples) > 0 {
		names := make([]string, 0, len(mt.Examples))
		for name := range mt.Examples {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if ex := mt.Examples[name]; ex != nil && ex.Value != nil && ex.Value.Value != nil {
				return ex.Value.Value
			}
		}
	}
	if mt.Schema != nil {
		return sample(mt.Schema.Value, 0)
	}
	return nil
}

func sample(s *openapi3.Schema, depth int) any {
	if s == nil || depth > maxSampleDepth {
		return nil
	}
	switch {
	case s.Example != nil:
		return s.Example
	case s.Default != nil:
		return s.Default
	case len(s.Enum) > 0:
		return s.Enum[0]
	}

	if len(s.AllOf) > 0 {
		merged := map[string]any{}
		for _, ref := range s.AllOf {
			if m, ok := sample(ref.Value, depth+1).(map[string]any); ok {
				maps.Copy(merged, m)
			}
		}
		return merged
	}
	for _, alts := range []openapi3.SchemaRefs{s.OneOf, s.AnyOf} {
		if len(alts) > 0 {
			return sample(alts[0].Value, depth+1)
		}
	}

	switch {
	case s.Type.Is(openapi3.TypeObject) || len(s.Properties) > 0:
		obj := make(map[string]any, len(s.Properties))
		for name, ref := range s.Properties {
			if ref != nil {
				obj[name] = sample(ref.Value, depth+1)
			}
		}
		return obj
	case s.Type.Is(openapi3.TypeArray):
		if s.Items == nil {
			return []any{}
		}
		return []any{sample(s.Items.Value, depth+1)}
	case s.Type.Is(openapi3.TypeString):
		return sampleString(s.Format)
	case s.Type.Is(openapi3.TypeInteger):
		return 0
	case s.Type.Is(openapi3.TypeNumber):
		return 0.0
	case s.Type.Is(openapi3.TypeBoolean):
		return true
	}
	return nil
}

func sampleString(format string) string {
	switch format {
	case "date-time":
		return "2024-01-01T00:00:00Z"
	case "date":
		return "2024-01-01"
	case "email":
		return "user@example.com"
	case "uuid":
		return "00000000-0000-0000-0000-000000000000"
	case "uri", "url":
		return "https://example.com"
	}
	return "string"
}
