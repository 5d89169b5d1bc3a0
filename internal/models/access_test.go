package models

import (
	"strings"
	"testing"
)

func TestIsValidCodeLength(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"", false},
		{"A", true},
		{" ", true},
		{strings.Repeat("x", 50), true},
		{strings.Repeat("x", 51), false},
		{strings.Repeat("ñ", 50), true},
	}

	for _, tt := range tests {
		if got := IsValidCodeLength(tt.code); got != tt.want {
			t.Errorf("IsValidCodeLength(%q): expected %v, got %v", tt.code, tt.want, got)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc123 ", "ABC123"},
		{"\tAbC123\n", "ABC123"},
		{"ABC 123", "ABC 123"},
	}
	for _, tt := range tests {
		if got := NormalizeCode(tt.in); got != tt.want {
			t.Errorf("NormalizeCode(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestReflectionQuestionIsBlank(t *testing.T) {
	if !(ReflectionQuestion{Question: "  ", Category: "Cotidiano"}).IsBlank() {
		t.Error("expected whitespace question to be blank")
	}
	if (ReflectionQuestion{Question: "¿Qué te hace feliz?"}).IsBlank() {
		t.Error("expected question to be non-blank")
	}
}
