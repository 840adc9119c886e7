package handlers

import "time"

// parseDuration tolerates an empty string (returns 0, nil) so optional
// wire-format duration fields don't need a pointer.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
