package utils

import "testing"

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0:00"},
		{-3, "0:00"},
		{5, "0:05"},
		{59.9, "0:59"},
		{61, "1:01"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{36000, "10:00:00"},
	}

	for _, test := range tests {
		result := FormatDuration(test.seconds)
		if result != test.expected {
			t.Errorf("FormatDuration(%v) = %s, expected %s", test.seconds, result, test.expected)
		}
	}
}

func TestFormatDurationHoursComponent(t *testing.T) {
	for d := 0; d < 3600; d += 37 {
		if got := FormatDuration(float64(d)); len(got) > 5 {
			t.Errorf("FormatDuration(%d) = %s, expected no hours component", d, got)
		}
	}
	for _, d := range []int{3600, 3601, 7199, 86399} {
		got := FormatDuration(float64(d))
		if len(got) < 7 {
			t.Errorf("FormatDuration(%d) = %s, expected hours component", d, got)
		}
	}
}

func TestFormatViews(t *testing.T) {
	tests := []struct {
		views    int64
		expected string
	}{
		{0, "0 views"},
		{1, "1 views"},
		{999, "999 views"},
		{1000, "1.0K views"},
		{1500, "1.5K views"},
		{2_300_000, "2.3M views"},
		{1_000_000, "1.0M views"},
	}

	for _, test := range tests {
		result := FormatViews(test.views)
		if result != test.expected {
			t.Errorf("FormatViews(%d) = %s, expected %s", test.views, result, test.expected)
		}
	}
}
