package rules

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	ErrRuleNotFound = errors.New("earning rule not found")
	ErrRuleInactive = errors.New("earning rule is inactive")
)

// Registry is the catalog of earning rules keyed by action name.
// Rules are fixed after construction; only the active flag can change.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

func NewRegistry(rules []Rule) (*Registry, error) {
	reg := &Registry{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		if r.Multiplier == (Multiplier{}) {
			r.Multiplier = One
		}
		if r.ID == "" {
			r.ID = r.Action
		}
		if err := r.validate(); err != nil {
			return nil, err
		}
		if _, dup := reg.rules[r.Action]; dup {
			return nil, fmt.Errorf("duplicate rule for action %q", r.Action)
		}
		reg.rules[r.Action] = r
	}
	return reg, nil
}

func limit(n int64) *int64 { return &n }

// DefaultRules is the catalog shipped with the product.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "daily_login",
			Action:      "daily_login",
			BaseAmount:  10,
			Multiplier:  One,
			DailyLimit:  limit(10),
			Description: "First login of the day",
			Active:      true,
		},
		{
			ID:          "create_script",
			Action:      "create_script",
			BaseAmount:  50,
			Multiplier:  One,
			Description: "Finished writing a script",
			Active:      true,
		},
		{
			ID:          "share_work",
			Action:      "share_work",
			BaseAmount:  20,
			Multiplier:  One,
			DailyLimit:  limit(100),
			Description: "Shared a work to a social platform",
			Active:      true,
		},
	}
}

func NewDefaultRegistry() *Registry {
	reg, err := NewRegistry(DefaultRules())
	if err != nil {
		panic(err)
	}
	return reg
}

type catalogFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads a YAML catalog of the form `rules: [...]`.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	var cat catalogFile
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if len(cat.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s defines no rules", path)
	}
	return NewRegistry(cat.Rules)
}

// Resolve looks up a rule by exact action name.
func (r *Registry) Resolve(action string) (Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[action]
	if !ok {
		return Rule{}, ErrRuleNotFound
	}
	if !rule.Active {
		return Rule{}, ErrRuleInactive
	}
	return rule, nil
}

func (r *Registry) SetActive(action string, active bool) (Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, ok := r.rules[action]
	if !ok {
		return Rule{}, ErrRuleNotFound
	}
	rule.Active = active
	r.rules[action] = rule
	return rule, nil
}

// List returns rules sorted by action. Inactive rules are included only when
// includeInactive is set.
func (r *Registry) List(includeInactive bool) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		if rule.Active || includeInactive {
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Action < out[j].Action })
	return out
}
