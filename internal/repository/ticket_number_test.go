package repository

import (
	"testing"
	"time"
)

func TestFormatTicketNumber(t *testing.T) {
	day := time.Date(2025, time.March, 7, 10, 30, 0, 0, time.UTC)

	if got := FormatTicketNumber(day, 1); got != "CMP-20250307-001" {
		t.Fatalf("FormatTicketNumber = %q", got)
	}
	if got := FormatTicketNumber(day, 42); got != "CMP-20250307-042" {
		t.Fatalf("FormatTicketNumber = %q", got)
	}
	// Counters past 999 widen rather than wrap.
	if got := FormatTicketNumber(day, 1205); got != "CMP-20250307-1205" {
		t.Fatalf("FormatTicketNumber = %q", got)
	}
}

func TestValidTicketNumber(t *testing.T) {
	valid := []string{
		"CMP-20250307-001",
		"CMP-20251231-999",
		"CMP-20250307-1205",
	}
	for _, number := range valid {
		if !ValidTicketNumber(number) {
			t.Errorf("ValidTicketNumber(%q) = false, want true", number)
		}
	}

	invalid := []string{
		"",
		"CMP-20250307",
		"CMP-2025037-001",
		"TKT-20250307-001",
		"CMP-20250307-abc",
		"cmp-20250307-001",
		"CMP-20250307-001-extra",
	}
	for _, number := range invalid {
		if ValidTicketNumber(number) {
			t.Errorf("ValidTicketNumber(%q) = true, want false", number)
		}
	}
}
