package shutdown

import "testing"

func TestSignalCounter(t *testing.T) {
	tests := []struct {
		name       string
		forceAfter int
		signals    int
		wantForced int
	}{
		{"single signal is graceful", 2, 1, 0},
		{"second signal forces", 2, 2, 1},
		{"every later signal forces again", 2, 4, 3},
		{"threshold of one", 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forced := 0
			c := NewSignalCounter(tt.forceAfter, func() { forced++ })
			for i := 0; i < tt.signals; i++ {
				c.Increment()
			}
			if forced != tt.wantForced {
				t.Errorf("forced = %d, want %d", forced, tt.wantForced)
			}
			if c.Count() != tt.signals {
				t.Errorf("Count = %d", c.Count())
			}
		})
	}
}

func TestSignalCounter_NilCallback(t *testing.T) {
	c := NewSignalCounter(1, nil)
	if c.Increment() != 1 {
		t.Error("Increment should still count")
	}
}
