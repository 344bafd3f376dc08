package model

import "testing"

func TestParseFils(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"99.00", 9900},
		{"1234.56", 123456},
		{"0.01", 1},
		{"250", 25000},
		{"", 0},
		{"garbage", 0},
		{"-10.50", -1050},
	}

	for _, tt := range tests {
		if got := ParseFils(tt.in); got != tt.want {
			t.Errorf("ParseFils(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatAED(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{9900, "AED 99.00"},
		{123456, "AED 1234.56"},
		{5, "AED 0.05"},
		{0, "AED 0.00"},
		{-1050, "-AED 10.50"},
	}

	for _, tt := range tests {
		if got := FormatAED(tt.in); got != tt.want {
			t.Errorf("FormatAED(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
