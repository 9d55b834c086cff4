package pgutils

import (
	"testing"
	"time"
)

func TestLockTimeoutSetting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: time.Nanosecond, want: "1ms"},
		{in: 500 * time.Microsecond, want: "1ms"},
		{in: time.Millisecond, want: "1ms"},
		{in: 1500 * time.Microsecond, want: "2ms"},
		{in: 2 * time.Second, want: "2000ms"},
	}

	for _, tt := range tests {
		if got := lockTimeoutSetting(tt.in); got != tt.want {
			t.Fatalf("lockTimeoutSetting(%v): want %s, got %s", tt.in, tt.want, got)
		}
	}
}
