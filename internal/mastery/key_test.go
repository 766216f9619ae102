package mastery

import "testing"

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pneumonia", "pneumonia"},
		{"  Community-Acquired   Pneumonia ", "community-acquired pneumonia"},
		{"COPD (exacerbation)", "copd exacerbation"},
		{"β-blockers", "-blockers"},
		{"Heart failure: HFrEF/HFpEF", "heart failure hfrefhfpef"},
		{"snake_case_ok", "snake_case_ok"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
