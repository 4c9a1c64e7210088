package status

import "testing"

func TestMap(t *testing.T) {
	cases := []struct {
		external string
		want     string
	}{
		{"published", "publish"},
		{"scheduled", "future"},
		{"draft", "draft"},
		{"review", "pending"},
		{"archived", "private"},
		{"", "draft"},
		{"banana", "draft"},
		{"PUBLISHED", "draft"}, // labels are case-sensitive
	}

	for _, tc := range cases {
		if got := Map(tc.external); got != tc.want {
			t.Errorf("Map(%q) = %q, want %q", tc.external, got, tc.want)
		}
	}
}
