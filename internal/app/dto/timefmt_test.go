package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageTimeLabel(t *testing.T) {
	now := time.Date(2026, time.March, 10, 14, 30, 0, 0, time.Local)

	cases := []struct {
		name string
		at   time.Time
		want string
	}{
		{"under a minute", now.Add(-30 * time.Second), "now"},
		{"minute boundary", now.Add(-time.Minute), "1m"},
		{"under an hour", now.Add(-45 * time.Minute), "45m"},
		{"same day", now.Add(-3 * time.Hour), "11:30"},
		{"yesterday", now.AddDate(0, 0, -1), "Yesterday"},
		{"late yesterday still yesterday", time.Date(2026, time.March, 9, 23, 55, 0, 0, time.Local), "Yesterday"},
		{"older", time.Date(2026, time.January, 5, 9, 0, 0, 0, time.Local), "Jan 5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MessageTimeLabel(tc.at, now))
		})
	}
}
