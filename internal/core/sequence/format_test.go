package sequence

import (
	"testing"
	"time"
)

func TestFormatNumber(t *testing.T) {
	dec2025 := time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		name   string
		cfg    Config
		period time.Time
		num    int64
		want   string
	}{
		{
			name:   "default padding with year",
			cfg:    DefaultConfig("MOV"),
			period: dec2025,
			num:    1,
			want:   "MOV-2025-00001",
		},
		{
			name:   "padding does not truncate large values",
			cfg:    DefaultConfig("MOV"),
			period: dec2025,
			num:    123456,
			want:   "MOV-2025-123456",
		},
		{
			name:   "zero pad width defaults to five",
			cfg:    Config{Prefix: "SALE", IncludeYear: true},
			period: dec2025,
			num:    42,
			want:   "SALE-2025-00042",
		},
		{
			name:   "without year",
			cfg:    Config{Prefix: "WS", PadWidth: 5},
			period: dec2025,
			num:    7,
			want:   "WS-00007",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatNumber(tt.cfg, tt.period, tt.num)
			if got != tt.want {
				t.Errorf("FormatNumber() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildKey_YearFromBusinessDate(t *testing.T) {
	cfg := DefaultConfig("MOV")

	// A January backfill of December documents must draw from the
	// December counter: the key year follows the document date.
	prefix, year := BuildKey(cfg, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	if prefix != "MOV" || year != 2025 {
		t.Errorf("BuildKey() = (%q, %d), want (MOV, 2025)", prefix, year)
	}

	cfg.ResetPeriod = "never"
	prefix, year = BuildKey(cfg, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if prefix != "MOV" || year != 0 {
		t.Errorf("BuildKey() with never reset = (%q, %d), want (MOV, 0)", prefix, year)
	}
}

func TestValidateConfig_ResetPeriod(t *testing.T) {
	for _, period := range []string{"", ResetYearly, ResetNever} {
		cfg := DefaultConfig("MOV")
		cfg.ResetPeriod = period
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("ValidateConfig(%q) = %v, want nil", period, err)
		}
	}

	cfg := DefaultConfig("MOV")
	cfg.ResetPeriod = "month"
	if err := ValidateConfig(cfg); err == nil {
		t.Error("ValidateConfig(month) = nil, want error: only yearly and never resets exist")
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		formatted string
		want      int64
	}{
		{"MOV-2026-00001", 1},
		{"SALE-2026-00417", 417},
		{"MOV-2026-123456", 123456},
		{"WS-00007", 7},
		{"garbage", -1},
		{"MOV-2026-", -1},
	}

	for _, tt := range tests {
		if got := ParseNumber(tt.formatted); got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.formatted, got, tt.want)
		}
	}
}
