package util

import (
	"testing"
	"time"
)

func TestHumanDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00s"},
		{45 * time.Second, "45s"},
		{90 * time.Second, "01m 30s"},
		{3725 * time.Second, "01h 02m 05s"},
		{-time.Second, "00s"},
	}

	for _, c := range cases {
		if got := HumanDuration(c.in); got != c.want {
			t.Errorf("HumanDuration(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
