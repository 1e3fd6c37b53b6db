package rewrite

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRules is returned for rule documents that cannot be parsed.
var ErrInvalidRules = errors.New("invalid rewrite rules")

// MethodAll matches every request method.
const MethodAll = "ALL"

// TargetKind identifies what a rule does with a matched request.
type TargetKind int

// Target kinds.
const (
	KindData TargetKind = iota
	KindProxy
	KindFile
	KindResponse
)

func (k TargetKind) String() string {
	switch k {
	case KindProxy:
		return "proxy"
	case KindFile:
		return "file"
	case KindResponse:
		return "response"
	default:
		return "data"
	}
}

// Target describes the action for a matched rule.
type Target struct {
	Kind TargetKind

	// URL is the upstream for KindProxy.
	URL string
	// File is the path for KindFile, relative to the static root unless absolute.
	File string
	// Data is the JSON body for KindData.
	Data any

	// Status, Headers, Body and Delay describe a KindResponse.
	Status  int
	Headers map[string]string
	Body    any
	Delay   time.Duration
}

// Proxy returns a target forwarding to rawURL.
func Proxy(rawURL string) Target { return Target{Kind: KindProxy, URL: rawURL} }

// File returns a target serving or rendering path.
func File(path string) Target { return Target{Kind: KindFile, File: path} }

// JSON returns a target answering 200 with v encoded as JSON.
func JSON(v any) Target { return Target{Kind: KindData, Data: v} }

// Respond returns a structured response target.
func Respond(status int, body any) Target {
	return Target{Kind: KindResponse, Status: status, Body: body}
}

// Rule maps a method and path pattern to a target.
type Rule struct {
	Method  string
	Pattern string
	Target  Target
}

// Key returns the rule in its file form, e.g. "GET /api/users/:id".
func (r Rule) Key() string {
	return r.Method + " " + r.Pattern
}

// ParseKey splits a rule key into method and pattern. A key without a method
// matches all methods.
func ParseKey(key string) (method, pattern string) {
	key = strings.TrimSpace(key)
	if m, p, ok := strings.Cut(key, " "); ok {
		return strings.ToUpper(m), strings.TrimSpace(p)
	}
	return MethodAll, key
}

// RuleSet is an ordered list of rules.
type RuleSet []Rule

// Patterns returns the rule keys in order.
func (rs RuleSet) Patterns() []string {
	keys := make([]string, len(rs))
	for i, r := range rs {
		keys[i] = r.Key()
	}
	return keys
}

// UnmarshalYAML decodes a mapping of rule keys to targets, keeping order.
func (rs *RuleSet) UnmarshalYAML(n *yaml.Node) error {
	set, err := FromNode(n)
	if err != nil {
		return err
	}
	*rs = set
	return nil
}

// ParseRuleSet parses a YAML or JSON rule document.
func ParseRuleSet(data []byte) (RuleSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if len(doc.Content) == 0 {
		return RuleSet{}, nil
	}
	return FromNode(doc.Content[0])
}

// LoadFile reads and parses a rule file.
func LoadFile(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	rs, err := ParseRuleSet(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// FromNode converts a YAML mapping node into a rule set.
func FromNode(n *yaml.Node) (RuleSet, error) {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: expected a mapping of rules", ErrInvalidRules, n.Line)
	}

	rs := make(RuleSet, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		method, pattern := ParseKey(n.Content[i].Value)
		if pattern == "" {
			return nil, fmt.Errorf("%w: line %d: empty pattern", ErrInvalidRules, n.Content[i].Line)
		}
		target, err := targetFromNode(n.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidRules, n.Content[i+1].Line, err)
		}
		rs = append(rs, Rule{Method: method, Pattern: pattern, Target: target})
	}
	return rs, nil
}

// FromMap builds a rule set from an unordered mapping. Keys are sorted so the
// result is deterministic; use a rule file when order matters.
func FromMap(m map[string]any) (RuleSet, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rs := make(RuleSet, 0, len(keys))
	for _, k := range keys {
		var node yaml.Node
		if err := node.Encode(m[k]); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRules, k, err)
		}
		target, err := targetFromNode(&node)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRules, k, err)
		}
		method, pattern := ParseKey(k)
		rs = append(rs, Rule{Method: method, Pattern: pattern, Target: target})
	}
	return rs, nil
}

var responseKeys = map[string]bool{"status": true, "headers": true, "body": true, "delay": true}

func targetFromNode(n *yaml.Node) (Target, error) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		s := strings.TrimSpace(n.Value)
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
			return Proxy(s), nil
		}
		return File(s), nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return Target{}, err
	}

	if m, ok := v.(map[string]any); ok && isResponse(m) {
		return responseTarget(m)
	}
	return JSON(v), nil
}

// isResponse reports whether m is a structured response: only response keys,
// and at least status or body.
func isResponse(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !responseKeys[k] {
			return false
		}
	}
	_, hasStatus := m["status"]
	_, hasBody := m["body"]
	return hasStatus || hasBody
}

func responseTarget(m map[string]any) (Target, error) {
	t := Target{Kind: KindResponse, Status: 200, Body: m["body"]}

	if s, ok := m["status"]; ok {
		status, ok := asInt(s)
		if !ok || status < 100 || status > 999 {
			return Target{}, fmt.Errorf("invalid status %v", s)
		}
		t.Status = status
	}

	if h, ok := m["headers"].(map[string]any); ok {
		t.Headers = make(map[string]string, len(h))
		for k, v := range h {
			t.Headers[k] = fmt.Sprint(v)
		}
	}

	switch d := m["delay"].(type) {
	case nil:
	case int, float64:
		ms, _ := asInt(d)
		t.Delay = time.Duration(ms) * time.Millisecond
	case string:
		dur, err := time.ParseDuration(d)
		if err != nil {
			return Target{}, fmt.Errorf("invalid delay %q: %w", d, err)
		}
		t.Delay = dur
	default:
		return Target{}, fmt.Errorf("invalid delay %v", d)
	}
	return t, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}
