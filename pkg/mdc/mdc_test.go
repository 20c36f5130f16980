package mdc

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	d := NewDecoder()

	tests := []struct {
		in   string
		want string
	}{
		{"Htp-di-nsw", "ḥtp-dꞽ-nsw"},
		{"anx", "ꜥnḫ"},
		{"nTr", "nṯr"},
		{"Dd mdw", "ḏd mdw"},
		{"sA=f", "sꜣ⸗f"},
		{"qbH", "ḳbḥ"},
		{"XAt", "ẖꜣt"},
		{"*imn", "Ꞽmn"},
		{"*ra", "Rꜥ"},
		{"Sms", "šms"},
	}

	for _, tt := range tests {
		got, err := d.Decode(tt.in)
		if err != nil {
			t.Errorf("Decode(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Decode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeWithoutQKopf(t *testing.T) {
	got, err := NewDecoder(WithQKopf(false)).Decode("qbH")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got != "qbḥ" {
		t.Errorf("Expected qbḥ, got %q", got)
	}
}

func TestDecodeInvalid(t *testing.T) {
	d := NewDecoder()
	for _, in := range []string{"", "   ", "abc1", "ḥtp", "nTr!", "sA*"} {
		if _, err := d.Decode(in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Decode(%q): expected ErrInvalidInput, got %v", in, err)
		}
	}
}
