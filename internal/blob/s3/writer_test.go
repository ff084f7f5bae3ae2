package s3blob

import "testing"

func TestReportContentType(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"reports/2026/08/24/odds_20260824_120000.csv", "text/csv"},
		{"reports/2026/08/24/surebets_20260824_120000.json", "application/json"},
		{"reports/readme", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := reportContentType(tt.key); got != tt.want {
			t.Errorf("reportContentType(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
