package clock

import "time"

// Clock abstracts wall-clock reads so expiry and payment stamps are testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real UTC time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f).UTC() }

// Func adapts a function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f().UTC() }
