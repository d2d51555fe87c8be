package logger

import "testing"

func TestNew_IsUsableBeforeInit(t *testing.T) {
	l := New()
	if l.Log == nil {
		t.Fatal("Log should not be nil")
	}
	l.Log.Info("discarded")
}

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"info", false},
		{"Info", false},
		{"debug", false},
		{"error", false},
		{"loud", true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New()
			err := l.Init(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Init(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if err == nil && !l.Log.Core().Enabled(l.Log.Level()) {
				t.Errorf("logger not enabled at its own level")
			}
		})
	}
}

func TestInit_AppliesLevel(t *testing.T) {
	l := New()
	if err := l.Init("warn"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if l.Log.Core().Enabled(-1) {
		t.Error("debug should be disabled at warn")
	}
}
