package rules

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrRewardOverflow is returned when a reward does not fit in an int64.
var ErrRewardOverflow = errors.New("reward out of range")

// Rule converts an action into a star reward.
type Rule struct {
	ID          string     `json:"id" yaml:"id"`
	Action      string     `json:"action" yaml:"action"`
	BaseAmount  int64      `json:"base_amount" yaml:"base_amount"`
	Multiplier  Multiplier `json:"multiplier" yaml:"multiplier"`
	DailyLimit  *int64     `json:"daily_limit,omitempty" yaml:"daily_limit"`
	Description string     `json:"description" yaml:"description"`
	Active      bool       `json:"active" yaml:"active"`
}

// Reward returns floor(base * multiplier). base must not be negative.
func (r Rule) Reward(base int64) (int64, error) {
	return r.Multiplier.Apply(base)
}

// Clamp bounds a single reward by the rule's daily limit, if any.
func (r Rule) Clamp(reward int64) int64 {
	if r.DailyLimit != nil && reward > *r.DailyLimit {
		return *r.DailyLimit
	}
	return reward
}

func (r Rule) validate() error {
	if strings.TrimSpace(r.Action) == "" {
		return fmt.Errorf("rule %q: action is required", r.ID)
	}
	if r.BaseAmount < 0 {
		return fmt.Errorf("rule %q: base amount must not be negative", r.Action)
	}
	if r.DailyLimit != nil && *r.DailyLimit <= 0 {
		return fmt.Errorf("rule %q: daily limit must be positive", r.Action)
	}
	if r.Multiplier.Num <= 0 || r.Multiplier.Den <= 0 {
		return fmt.Errorf("rule %q: multiplier must be positive", r.Action)
	}
	return nil
}

// Multiplier is a positive rational Num/Den.
type Multiplier struct {
	Num int64
	Den int64
}

var One = Multiplier{Num: 1, Den: 1}

// ParseMultiplier accepts "3/2", "1.5" or "2".
func ParseMultiplier(s string) (Multiplier, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return Multiplier{}, fmt.Errorf("invalid multiplier %q", s)
	}
	if r.Sign() <= 0 {
		return Multiplier{}, fmt.Errorf("multiplier must be positive, got %q", s)
	}
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return Multiplier{}, fmt.Errorf("multiplier %q out of range", s)
	}
	return Multiplier{Num: r.Num().Int64(), Den: r.Denom().Int64()}, nil
}

func (m Multiplier) Apply(base int64) (int64, error) {
	if m.Den == 0 {
		return base, nil
	}
	p := new(big.Int).Mul(big.NewInt(base), big.NewInt(m.Num))
	p.Quo(p, big.NewInt(m.Den))
	if !p.IsInt64() {
		return 0, fmt.Errorf("%w: %d x %s", ErrRewardOverflow, base, m)
	}
	return p.Int64(), nil
}

func (m Multiplier) String() string {
	if m.Den == 1 {
		return fmt.Sprintf("%d", m.Num)
	}
	return fmt.Sprintf("%d/%d", m.Num, m.Den)
}

func (m Multiplier) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Multiplier) UnmarshalText(b []byte) error {
	parsed, err := ParseMultiplier(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m *Multiplier) UnmarshalYAML(value *yaml.Node) error {
	return m.UnmarshalText([]byte(value.Value))
}
