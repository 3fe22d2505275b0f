package logger

import "testing"

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+5511987654321", "**********4321"},
		{"1234", "1234"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MaskPhone(tt.in); got != tt.want {
			t.Errorf("MaskPhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	l, err := New("shouting")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if l.Core().Enabled(-1) {
		t.Error("debug should be disabled at the fallback info level")
	}
}
