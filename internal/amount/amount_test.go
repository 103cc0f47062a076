package amount

import "testing"

func TestNormalizeBaseUnits(t *testing.T) {
	base, dec, err := Normalize("1500000", "", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base != "1500000" {
		t.Errorf("base = %q", base)
	}
	if dec != "1.5" {
		t.Errorf("decimal = %q, want 1.5", dec)
	}
}

func TestNormalizeDecimal(t *testing.T) {
	tests := []struct {
		decimal  string
		decimals int
		wantBase string
		wantDec  string
	}{
		{"1.5", 6, "1500000", "1.5"},
		{"0.000001", 6, "1", "0.000001"},
		{"2", 18, "2000000000000000000", "2"},
		{"0", 6, "0", "0"},
		{"01.50", 6, "1500000", "1.5"},
	}
	for _, tt := range tests {
		base, dec, err := Normalize("", tt.decimal, tt.decimals)
		if err != nil {
			t.Errorf("Normalize(%q): %v", tt.decimal, err)
			continue
		}
		if base != tt.wantBase {
			t.Errorf("Normalize(%q) base = %q, want %q", tt.decimal, base, tt.wantBase)
		}
		if dec != tt.wantDec {
			t.Errorf("Normalize(%q) decimal = %q, want %q", tt.decimal, dec, tt.wantDec)
		}
	}
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		decimal  string
		decimals int
	}{
		{"both forms", "100", "1.0", 6},
		{"neither form", "", "", 6},
		{"negative base", "-5", "", 6},
		{"non-integer base", "1.5", "", 6},
		{"malformed decimal", "", "1.2.3", 6},
		{"too much precision", "", "0.1234567", 6},
		{"negative decimals", "100", "", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Normalize(tt.base, tt.decimal, tt.decimals); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		base     string
		decimals int
		want     string
	}{
		{"1500000", 6, "1.5"},
		{"1", 6, "0.000001"},
		{"1000000", 6, "1"},
		{"123", 0, "123"},
		{"1000000000000000000", 18, "1"},
	}
	for _, tt := range tests {
		if got := FormatDecimal(tt.base, tt.decimals); got != tt.want {
			t.Errorf("FormatDecimal(%q, %d) = %q, want %q", tt.base, tt.decimals, got, tt.want)
		}
	}
}
