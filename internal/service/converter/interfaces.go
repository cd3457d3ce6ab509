package converter

import (
	"io"
	"time"
)

//go:generate mockgen -source=interfaces.go -destination=interfaces_mock.go -package converter

// Clock provides the wall-clock time used for the header date.
type Clock interface {
	Now() time.Time
}

// Sink is the package file being written: the header is committed by seeking
// back over already written bytes.
type Sink interface {
	io.Writer
	io.Seeker
}

// systemClock reads the local wall clock.
type systemClock struct{}

// Now returns the current local time.
func (systemClock) Now() time.Time {
	return time.Now()
}
