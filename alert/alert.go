// Package alert makes an audible signal when a fan stays unreadable after recovery.
package alert

import (
	"context"
	"time"
)

// Alerter raises one audible alert.
type Alerter interface {
	Alert(ctx context.Context) error
}

// Tone describes the beep.
type Tone struct {
	FrequencyHz int
	Duration    time.Duration
}

// DefaultTone is a short, high beep.
var DefaultTone = Tone{FrequencyHz: 880, Duration: 750 * time.Millisecond}

// Beeper sounds Tone through the platform's simplest sound primitive.
type Beeper struct {
	Tone Tone
}

// NewBeeper returns a Beeper, substituting DefaultTone fields that are zero.
func NewBeeper(t Tone) *Beeper {
	if t.FrequencyHz <= 0 {
		t.FrequencyHz = DefaultTone.FrequencyHz
	}
	if t.Duration <= 0 {
		t.Duration = DefaultTone.Duration
	}
	return &Beeper{Tone: t}
}

// Alert implements Alerter.
func (b *Beeper) Alert(ctx context.Context) error {
	return beep(ctx, b.Tone)
}
