package categorize

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category labels produced by the default rule set.
const (
	Groceries     = "Groceries"
	Income        = "Income"
	Dining        = "Dining"
	Transfers     = "Transfers"
	Uncategorized = "Uncategorized"
)

// Rule maps any of its keywords to Label. Keywords are matched as
// lower-case substrings of the description.
type Rule struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
}

// RuleSet is the on-disk shape of the categorization rules file.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultRules returns the built-in rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Label: Groceries, Keywords: []string{"supermarket", "grocery"}},
		{Label: Income, Keywords: []string{"salary", "income"}},
		{Label: Dining, Keywords: []string{"restaurant", "eat"}},
		{Label: Transfers, Keywords: []string{"transfer"}},
	}
}

// ValidateRules rejects rules that could never match or would match everything.
func ValidateRules(rules []Rule) error {
	for i, r := range rules {
		if strings.TrimSpace(r.Label) == "" {
			return fmt.Errorf("rule %d: empty label", i+1)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("rule %d (%s): no keywords", i+1, r.Label)
		}
		for _, kw := range r.Keywords {
			if kw == "" {
				return fmt.Errorf("rule %d (%s): empty keyword", i+1, r.Label)
			}
		}
	}
	return nil
}

// LoadRules reads a rules YAML file. An empty rule list is returned as-is;
// callers decide whether to fall back to DefaultRules.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	if err := ValidateRules(rs.Rules); err != nil {
		return nil, fmt.Errorf("invalid rules in %s: %w", path, err)
	}
	return rs.Rules, nil
}

// LoadRulesOrDefault behaves like LoadRules but returns DefaultRules when
// the file does not exist or lists no rules.
func LoadRulesOrDefault(path string) ([]Rule, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	rules, err := LoadRules(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultRules(), nil
	}
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return DefaultRules(), nil
	}
	return rules, nil
}

// SaveRules writes rules to a YAML file.
func SaveRules(path string, rules []Rule) error {
	data, err := yaml.Marshal(RuleSet{Rules: rules})
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}
	return nil
}
