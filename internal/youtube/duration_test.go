package youtube

import (
	"testing"
	"time"
)

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "PT3M33S", want: 3*time.Minute + 33*time.Second},
		{in: "PT1H2M3S", want: time.Hour + 2*time.Minute + 3*time.Second},
		{in: "PT45S", want: 45 * time.Second},
		{in: "PT2H", want: 2 * time.Hour},
		{in: "P1DT2H", want: 26 * time.Hour},
		{in: "PT0S", want: 0},
		{in: "3m33s", wantErr: true},
		{in: "PT3X", wantErr: true},
		{in: "PTM", wantErr: true},
		{in: "PT33", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseISODuration(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseISODuration(%q) error = nil, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseISODuration(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseISODuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
