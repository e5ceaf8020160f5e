// Package service contains the signup, login and post use cases on top of
// the repositories.
package service

import "time"

// Clock returns the current time.
type Clock func() time.Time

// systemClock returns UTC wall time at millisecond precision, the finest
// resolution every store keeps.
func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
