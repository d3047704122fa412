package integrations

import (
	"testing"
	"time"

	"github.com/dalemusser/taskflow/internal/domain/models"
)

func TestParseGraphTime(t *testing.T) {
	t.Run("fractional seconds in UTC", func(t *testing.T) {
		got := parseGraphTime(&graphDateTime{DateTime: "2026-03-15T09:30:00.0000000", TimeZone: "UTC"})
		if got == nil {
			t.Fatal("parseGraphTime returned nil")
		}
		want := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("parsed = %v, want %v", got, want)
		}
	})

	t.Run("zoned time converts to UTC", func(t *testing.T) {
		got := parseGraphTime(&graphDateTime{DateTime: "2026-03-15T09:30:00", TimeZone: "America/Chicago"})
		if got == nil {
			t.Fatal("parseGraphTime returned nil")
		}
		// March 15 is CDT (UTC-5).
		want := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("parsed = %v, want %v", got, want)
		}
	})

	t.Run("unknown zone falls back to UTC", func(t *testing.T) {
		got := parseGraphTime(&graphDateTime{DateTime: "2026-03-15T09:30:00", TimeZone: "Not/AZone"})
		if got == nil {
			t.Fatal("parseGraphTime returned nil")
		}
		want := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("parsed = %v, want %v", got, want)
		}
	})

	t.Run("nil and empty", func(t *testing.T) {
		if parseGraphTime(nil) != nil {
			t.Error("nil input should parse to nil")
		}
		if parseGraphTime(&graphDateTime{}) != nil {
			t.Error("empty input should parse to nil")
		}
		if parseGraphTime(&graphDateTime{DateTime: "garbage", TimeZone: "UTC"}) != nil {
			t.Error("unparseable input should parse to nil")
		}
	})
}

func TestCoerceGraphStatus(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"completed", models.StatusDone},
		{"inProgress", models.StatusInProgress},
		{"notStarted", models.StatusTodo},
		{"waitingOnOthers", models.StatusTodo},
		{"", models.StatusTodo},
	}
	for _, tt := range tests {
		if got := coerceGraphStatus(tt.in); got != tt.want {
			t.Errorf("coerceGraphStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCoerceGraphImportance(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"high", models.PriorityHigh},
		{"low", models.PriorityLow},
		{"normal", models.PriorityMedium},
		{"", models.PriorityMedium},
	}
	for _, tt := range tests {
		if got := coerceGraphImportance(tt.in); got != tt.want {
			t.Errorf("coerceGraphImportance(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
