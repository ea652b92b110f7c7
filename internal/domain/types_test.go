package domain

import (
	"errors"
	"testing"
)

func TestSelectionZero(t *testing.T) {
	var s Selection
	if !s.IsZero() {
		t.Error("expected zero-value Selection to be unresolved")
	}

	s = Selection{Name: "Acme Corp", Ticker: "ACME"}
	if s.IsZero() {
		t.Error("expected resolved Selection")
	}
	if s.DisplayName() != "Acme Corp" {
		t.Errorf("DisplayName() = %q, want %q", s.DisplayName(), "Acme Corp")
	}

	s = Selection{Ticker: "ACME"}
	if s.DisplayName() != "ACME" {
		t.Errorf("DisplayName() = %q, want %q", s.DisplayName(), "ACME")
	}
}

func TestParseHorizon(t *testing.T) {
	tests := []struct {
		in   string
		want Horizon
	}{
		{"30", 30},
		{" 7 ", 7},
		{"180d", 180},
	}
	for _, tt := range tests {
		got, err := ParseHorizon(tt.in)
		if err != nil {
			t.Errorf("ParseHorizon(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHorizon(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseHorizonRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "0", "-5", "1.5"} {
		_, err := ParseHorizon(in)
		var uie *UserInputError
		if !errors.As(err, &uie) {
			t.Errorf("ParseHorizon(%q) error = %v, want *UserInputError", in, err)
		}
	}
}

func TestHorizonString(t *testing.T) {
	if DefaultHorizon.String() != "30d" {
		t.Errorf("String() = %q, want %q", DefaultHorizon.String(), "30d")
	}
}
