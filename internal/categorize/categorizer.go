// Package categorize assigns category labels to transaction descriptions
// using an ordered list of keyword rules.
package categorize

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Categorizer matches descriptions against rules in priority order.
// It is immutable after construction and safe for concurrent use.
type Categorizer struct {
	rules    []Rule
	matchers []*ahocorasick.Matcher
}

// New builds a Categorizer. Keywords are lower-cased up front so matching
// only has to fold the description.
func New(rules []Rule) *Categorizer {
	c := &Categorizer{
		rules:    make([]Rule, len(rules)),
		matchers: make([]*ahocorasick.Matcher, len(rules)),
	}
	for i, r := range rules {
		keywords := make([]string, len(r.Keywords))
		for j, kw := range r.Keywords {
			keywords[j] = strings.ToLower(kw)
		}
		c.rules[i] = Rule{Label: r.Label, Keywords: keywords}
		c.matchers[i] = ahocorasick.NewStringMatcher(keywords)
	}
	return c
}

// Default returns a Categorizer over DefaultRules.
func Default() *Categorizer {
	return New(DefaultRules())
}

// Categorize returns the label of the first rule with a keyword contained
// in description, or Uncategorized.
func (c *Categorizer) Categorize(description string) string {
	desc := []byte(strings.ToLower(description))
	// Contains does not touch the matcher's match counters.
	for i, m := range c.matchers {
		if m.Contains(desc) {
			return c.rules[i].Label
		}
	}
	return Uncategorized
}

// Rules returns a copy of the active rules in priority order.
func (c *Categorizer) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = Rule{Label: r.Label, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}
