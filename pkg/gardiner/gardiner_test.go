package gardiner

import (
	"errors"
	"testing"
)

func TestUnicodeName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"A1", "EGYPTIAN HIEROGLYPH A001"},
		{"G17", "EGYPTIAN HIEROGLYPH G017"},
		{"Aa15", "EGYPTIAN HIEROGLYPH AA015"},
		{"A14a", "EGYPTIAN HIEROGLYPH A014A"},
		{"N35", "EGYPTIAN HIEROGLYPH N035"},
	}

	for _, tt := range tests {
		got, err := UnicodeName(tt.code)
		if err != nil {
			t.Errorf("UnicodeName(%q) failed: %v", tt.code, err)
			continue
		}
		if got != tt.want {
			t.Errorf("UnicodeName(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestLookup(t *testing.T) {
	tests := map[string]rune{
		"A1":  0x13000,
		"G17": 0x13153,
		"N35": 0x13216,
		"Aa1": 0x1340D,
	}

	for code, want := range tests {
		got, err := Lookup(code)
		if err != nil {
			t.Errorf("Lookup(%q) failed: %v", code, err)
			continue
		}
		if got != want {
			t.Errorf("Lookup(%q) = %U, want %U", code, got, want)
		}
	}
}

func TestDecode(t *testing.T) {
	d := NewDecoder()

	got, err := d.Decode("G17-N35-A1")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := string([]rune{0x13153, 0x13216, 0x13000})
	if got != want {
		t.Errorf("Decode = %q, want %q", got, want)
	}
}

func TestDecodeErrors(t *testing.T) {
	d := NewDecoder()

	tests := []struct {
		input string
		want  error
	}{
		{"", ErrMalformedCode},
		{"17G", ErrMalformedCode},
		{"A1--G17", ErrMalformedCode},
		{"Q999", ErrUnknownSign},
		{"A1-ZZ1", ErrUnknownSign},
	}

	for _, tt := range tests {
		_, err := d.Decode(tt.input)
		if !errors.Is(err, tt.want) {
			t.Errorf("Decode(%q): expected %v, got %v", tt.input, tt.want, err)
		}
	}
}
