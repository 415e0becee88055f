package util

import "testing"

func TestParseMillis(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"250", 250, false},
		{"250ms", 250, false},
		{"1.5s", 1500, false},
		{" 2s ", 2000, false},
		{"-5", 0, true},
		{"-1s", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMillis(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseMillis(%q): err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMillis(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMillisToTimespec(t *testing.T) {
	tests := []struct {
		ms   int64
		sec  int64
		nsec int64
	}{
		{0, 0, 0},
		{50, 0, 50000000},
		{1000, 1, 0},
		{2750, 2, 750000000},
	}
	for _, tt := range tests {
		ts := MillisToTimespec(tt.ms)
		if int64(ts.Sec) != tt.sec || int64(ts.Nsec) != tt.nsec {
			t.Errorf("MillisToTimespec(%d) = %d.%09d, want %d.%09d", tt.ms, ts.Sec, ts.Nsec, tt.sec, tt.nsec)
		}
	}
}

func TestCombinePaths(t *testing.T) {
	tests := []struct {
		base, rel, want string
	}{
		{"/etc/fibered", "work", "/etc/fibered/work"},
		{"/etc/fibered", "../run/w.pid", "/etc/run/w.pid"},
		{"/etc/fibered", "/run//w.pid", "/run/w.pid"},
		{".", "w.pid", "w.pid"},
	}
	for _, tt := range tests {
		if got := CombinePaths(tt.base, tt.rel); got != tt.want {
			t.Errorf("CombinePaths(%q, %q) = %q, want %q", tt.base, tt.rel, got, tt.want)
		}
	}
}
