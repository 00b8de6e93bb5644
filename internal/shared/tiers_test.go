package shared_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lpstays/internal/domain"
	"lpstays/internal/shared"
)

func TestLoadBonusPolicy_Default(t *testing.T) {
	p, err := shared.LoadBonusPolicy("")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Tiers) != 2 || p.Tiers[0].Threshold != 60_000 {
		t.Fatalf("unexpected default policy: %+v", p)
	}
}

func TestLoadBonusPolicy_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.toml")
	data := `
card_bonus_delta = 0.05

[[tier]]
threshold = 50000
multiplier = 1.10

[[tier]]
threshold = 90000
multiplier = 1.25
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := shared.LoadBonusPolicy(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Tiers) != 2 || p.Tiers[1].Threshold != 90_000 {
		t.Fatalf("unexpected policy: %+v", p)
	}
	if got := p.MultiplierAt(50_000).String(); got != "1.1" {
		t.Fatalf("multiplier at 50k: %s", got)
	}
}

func TestLoadBonusPolicy_RejectsBadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.toml")
	data := `
[[tier]]
threshold = 90000
multiplier = 1.25

[[tier]]
threshold = 50000
multiplier = 1.10
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := shared.LoadBonusPolicy(path); !errors.Is(err, domain.ErrBadTierTable) {
		t.Fatalf("got %v, want ErrBadTierTable", err)
	}
}
