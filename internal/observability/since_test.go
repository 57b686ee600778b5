package observability

import (
	"testing"
	"time"
)

func TestParseSince(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"7d", now.AddDate(0, 0, -7), false},
		{"30d", now.AddDate(0, 0, -30), false},
		{"24h", now.Add(-24 * time.Hour), false},
		{"0h", now, false},
		{"", time.Time{}, true},
		{"x", time.Time{}, true},
		{"7x", time.Time{}, true},
		{"-3d", time.Time{}, true},
		{"d7", time.Time{}, true},
		{"2562047h", now.Add(-2562047 * time.Hour), false},
		{"2562048h", time.Time{}, true},
		{"106752d", time.Time{}, true},
		{"99999999999999999999h", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSince(tt.input, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSince(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseSince(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
