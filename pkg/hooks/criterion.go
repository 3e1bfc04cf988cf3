package hooks

import (
	"fmt"
	"slices"
	"strings"
)

type criterionKind int

const (
	matchExact criterionKind = iota
	matchAnyOf
	matchWildcard
	matchDoNotMatch
)

// Tokens for the criteria that are not plain values in hook files. Both
// need quoting in YAML.
const (
	wildcardToken   = "*"
	doNotMatchToken = "!"
)

// Criterion decides whether a hook runs for one query value. A nil
// *Criterion matches anything.
type Criterion struct {
	kind   criterionKind
	values []string
}

// Exact matches a query equal to s.
func Exact(s string) *Criterion {
	return &Criterion{kind: matchExact, values: []string{s}}
}

// AnyOf matches a query equal to any of values.
func AnyOf(values ...string) *Criterion {
	return &Criterion{kind: matchAnyOf, values: slices.Clone(values)}
}

// Wildcard matches any query.
func Wildcard() *Criterion {
	return &Criterion{kind: matchWildcard}
}

// DoNotMatch only matches an absent query.
func DoNotMatch() *Criterion {
	return &Criterion{kind: matchDoNotMatch}
}

// Match reports whether query satisfies c. An empty query is absent.
func (c *Criterion) Match(query string) bool {
	if c == nil {
		return true
	}
	switch c.kind {
	case matchWildcard:
		return true
	case matchDoNotMatch:
		return query == ""
	case matchExact, matchAnyOf:
		return slices.Contains(c.values, query)
	}
	return false
}

// String returns the criterion as written in hook files.
func (c *Criterion) String() string {
	if c == nil {
		return "<any>"
	}
	switch c.kind {
	case matchWildcard:
		return wildcardToken
	case matchDoNotMatch:
		return doNotMatchToken
	case matchExact:
		return c.values[0]
	}
	return "[" + strings.Join(c.values, ", ") + "]"
}

// UnmarshalYAML decodes "*", "!", a single value or a list of values.
func (c *Criterion) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		switch v {
		case wildcardToken:
			*c = *Wildcard()
		case doNotMatchToken:
			*c = *DoNotMatch()
		default:
			*c = *Exact(v)
		}
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			values = append(values, fmt.Sprint(item))
		}
		*c = *AnyOf(values...)
	default:
		return fmt.Errorf("hook criterion must be a string or a list, got %T", raw)
	}
	return nil
}

// Rules selects the merges a hook runs for.
type Rules struct {
	MergeMode   *Criterion `yaml:"merge_mode,omitempty"`
	MergeStatus *Criterion `yaml:"merge_status,omitempty"`
}

// Match reports whether both criteria accept the query.
func (r Rules) Match(mode, status string) bool {
	return r.MergeMode.Match(mode) && r.MergeStatus.Match(status)
}
