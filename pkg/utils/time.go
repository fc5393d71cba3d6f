package utils

import (
	"math"
	"time"
)

// SecondsToDuration converts float seconds of simulated time to a time.Duration
func SecondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// TimeToMs converts time.Duration to milliseconds
func TimeToMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// TransmissionTime returns how long it takes to serialize bytes onto a link of bps
func TransmissionTime(bytes int, bps float64) time.Duration {
	if bps <= 0 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(math.Ceil(float64(bytes*8) / bps * float64(time.Second)))
}
