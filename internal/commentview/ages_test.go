package commentview

import (
	"testing"
	"time"
)

func TestRelativeAge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"under a minute", 30 * time.Second, "Just now"},
		{"zero", 0, "Just now"},
		{"minutes", 5 * time.Minute, "5 minutes ago"},
		{"one minute", time.Minute, "1 minute ago"},
		{"floors to one hour", 90 * time.Minute, "1 hour ago"},
		{"hours", 5 * time.Hour, "5 hours ago"},
		{"one day", 25 * time.Hour, "1 day ago"},
		{"days", 3 * 24 * time.Hour, "3 days ago"},
		{"floors to one week", 10 * 24 * time.Hour, "1 week ago"},
		{"weeks", 15 * 24 * time.Hour, "2 weeks ago"},
	}

	for _, tc := range cases {
		got := RelativeAge(now, now.Add(-tc.ago))
		if got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
