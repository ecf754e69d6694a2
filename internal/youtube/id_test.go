package youtube

import "testing"

func TestValidVideoID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{name: "canonical 11 chars", id: "dQw4w9WgXcQ", want: true},
		{name: "10 chars", id: "dQw4w9WgXc", want: true},
		{name: "hyphen and underscore", id: "a-b_c-d_e-f", want: true},
		{name: "leading whitespace", id: "  dQw4w9WgXcQ", want: true},
		{name: "trailing newline", id: "dQw4w9WgXcQ\n", want: true},
		{name: "empty", id: "", want: false},
		{name: "too short", id: "short", want: false},
		{name: "too long", id: "dQw4w9WgXcQx", want: false},
		{name: "illegal character", id: "dQw4w9WgXc!", want: false},
		{name: "interior space", id: "dQw4w 9WgXc", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidVideoID(tt.id); got != tt.want {
				t.Errorf("ValidVideoID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestNormalizeVideoID(t *testing.T) {
	if got := NormalizeVideoID("  dQw4w9WgXcQ \n"); got != "dQw4w9WgXcQ" {
		t.Errorf("NormalizeVideoID() = %q, want %q", got, "dQw4w9WgXcQ")
	}
}
