package core

import (
	"testing"
	"time"
)

func TestProgressFraction(t *testing.T) {
	track := &Track{ID: "dQw4w9WgXcQ", Duration: 200 * time.Second}

	tests := []struct {
		name   string
		intent *Intent
		want   float64
	}{
		{name: "nil intent", intent: nil, want: 0},
		{name: "no track", intent: &Intent{Position: 10 * time.Second}, want: 0},
		{
			name:   "unknown duration",
			intent: &Intent{Current: &Track{ID: "dQw4w9WgXcQ"}, Position: 10 * time.Second},
			want:   0,
		},
		{
			name:   "midway",
			intent: &Intent{Current: track, Position: 100 * time.Second},
			want:   0.5,
		},
		{
			name:   "past end clamps to 1",
			intent: &Intent{Current: track, Position: 300 * time.Second},
			want:   1,
		},
		{
			name:   "negative clamps to 0",
			intent: &Intent{Current: track, Position: -5 * time.Second},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.intent.ProgressFraction(); got != tt.want {
				t.Errorf("ProgressFraction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRepeatModeCycle(t *testing.T) {
	if got := RepeatOff.Cycle(); got != RepeatAll {
		t.Errorf("RepeatOff.Cycle() = %q, want %q", got, RepeatAll)
	}
	if got := RepeatAll.Cycle(); got != RepeatOne {
		t.Errorf("RepeatAll.Cycle() = %q, want %q", got, RepeatOne)
	}
	if got := RepeatOne.Cycle(); got != RepeatOff {
		t.Errorf("RepeatOne.Cycle() = %q, want %q", got, RepeatOff)
	}
}

func TestRepeatModeValid(t *testing.T) {
	for _, m := range []RepeatMode{RepeatOff, RepeatAll, RepeatOne} {
		if !m.Valid() {
			t.Errorf("%q should be valid", m)
		}
	}
	if RepeatMode("track").Valid() {
		t.Error("unknown mode should be invalid")
	}
}
