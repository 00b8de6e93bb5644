package shared

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"lpstays/internal/domain"
)

type tiersFile struct {
	CardBonusDelta float64 `toml:"card_bonus_delta"`
	Tiers          []struct {
		Threshold  int     `toml:"threshold"`
		Multiplier float64 `toml:"multiplier"`
	} `toml:"tier"`
}

// LoadBonusPolicy returns the built-in earning policy, or the one described
// by a TOML file when a path is given:
//
//	card_bonus_delta = 0.10
//
//	[[tier]]
//	threshold = 60000
//	multiplier = 1.20
//
//	[[tier]]
//	threshold = 100000
//	multiplier = 1.30
//
// The loaded policy is validated and then never mutated.
func LoadBonusPolicy(path string) (domain.BonusPolicy, error) {
	if path == "" {
		return domain.DefaultPolicy(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.BonusPolicy{}, fmt.Errorf("bonus policy: %w", err)
	}
	var tf tiersFile
	if err := toml.Unmarshal(b, &tf); err != nil {
		return domain.BonusPolicy{}, fmt.Errorf("bonus policy: %w", err)
	}
	p := domain.BonusPolicy{CardDelta: decimal.NewFromFloat(tf.CardBonusDelta)}
	for _, t := range tf.Tiers {
		p.Tiers = append(p.Tiers, domain.BonusTier{
			Threshold:  t.Threshold,
			Multiplier: decimal.NewFromFloat(t.Multiplier),
		})
	}
	if err := p.Validate(); err != nil {
		return domain.BonusPolicy{}, err
	}
	return p, nil
}
