package systems

import (
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/physarum/config"
)

func TestAttractionTableSigns(t *testing.T) {
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatal(err)
	}

	const n = 12
	table := NewAttractionTable(n, cfg.Attraction, rand.New(rand.NewPCG(42, 42)))

	if table.Size() != n {
		t.Fatalf("expected %d rows, got %d", n, table.Size())
	}
	for i := 0; i < n; i++ {
		if len(table[i]) != n {
			t.Fatalf("row %d has %d entries", i, len(table[i]))
		}
		for j := 0; j < n; j++ {
			v := table.At(i, j)
			if i == j && (v < 0.5 || v > 1.5) {
				t.Errorf("self attraction [%d][%d] = %v, expected near +1", i, j, v)
			}
			if i != j && (v > -0.5 || v < -1.5) {
				t.Errorf("cross attraction [%d][%d] = %v, expected near -1", i, j, v)
			}
		}
	}
}

func TestAttractionTableZeroSpread(t *testing.T) {
	table := NewAttractionTable(3, config.AttractionConfig{SelfMean: 1, OtherMean: -1}, rand.New(rand.NewPCG(1, 1)))
	want := AttractionTable{{1, -1, -1}, {-1, 1, -1}, {-1, -1, 1}}
	for i := range want {
		for j := range want[i] {
			if table[i][j] != want[i][j] {
				t.Errorf("table[%d][%d] = %v, want %v", i, j, table[i][j], want[i][j])
			}
		}
	}
}

func TestAttractionTableSeeded(t *testing.T) {
	cfg := config.AttractionConfig{SelfMean: 1, SelfStd: 0.1, OtherMean: -1, OtherStd: 0.1}
	a := NewAttractionTable(4, cfg, rand.New(rand.NewPCG(5, 6)))
	b := NewAttractionTable(4, cfg, rand.New(rand.NewPCG(5, 6)))
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("tables differ at [%d][%d] for the same seed", i, j)
			}
		}
	}
}
