package palette

import (
	"errors"
	"testing"
)

func TestValidateRange(t *testing.T) {
	tests := []struct {
		index   int
		wantErr bool
	}{
		{0, false},
		{Count() - 1, false},
		{-1, true},
		{Count(), true},
		{1 << 20, true},
	}

	for _, tt := range tests {
		err := Validate(tt.index)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%d): err=%v, wantErr=%v", tt.index, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrUnknownPalette) {
			t.Errorf("Validate(%d): expected ErrUnknownPalette, got %v", tt.index, err)
		}
	}
}

func TestRegistryShape(t *testing.T) {
	names := Names()
	if len(names) != Count() {
		t.Fatalf("expected %d names, got %d", Count(), len(names))
	}
	seen := make(map[string]bool)
	for i := 0; i < Count(); i++ {
		p, err := Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if len(p.Colors) == 0 {
			t.Errorf("palette %q has no colours", p.Name)
		}
		if seen[p.Name] {
			t.Errorf("duplicate palette name %q", p.Name)
		}
		seen[p.Name] = true
		for _, c := range p.Colors {
			if c.A != 255 {
				t.Errorf("palette %q: expected opaque colours, got alpha %d", p.Name, c.A)
			}
		}
	}
}

func TestColorCycles(t *testing.T) {
	p, err := Get(0)
	if err != nil {
		t.Fatal(err)
	}
	n := len(p.Colors)
	if p.Color(n) != p.Color(0) {
		t.Errorf("expected colour %d to cycle back to colour 0", n)
	}
	if p.Color(n+2) != p.Colors[2] {
		t.Errorf("expected colour %d to equal colour 2", n+2)
	}
}
